package crisis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/text"
)

func newCultural(t *testing.T) *CulturalAnalyzer {
	t.Helper()
	a, err := NewCulturalAnalyzer("")
	if err != nil {
		t.Fatalf("NewCulturalAnalyzer: %v", err)
	}
	return a
}

func TestCulturalNoContextIsNeutral(t *testing.T) {
	a := newCultural(t)
	sig := a.Analyze(text.Normalize("i have brought shame to my family", ""), "")
	if sig.Adjustment != 0 || sig.Severity != SeverityNone {
		t.Errorf("no context tag must mean no adjustment, got %+v", sig)
	}
}

func TestCulturalUnknownTagIsNeutral(t *testing.T) {
	a := newCultural(t)
	sig := a.Analyze(text.Normalize("i have brought shame to my family", ""), "martian")
	if sig.Adjustment != 0 {
		t.Errorf("unknown tag must be neutral, got adjustment %d", sig.Adjustment)
	}
	if sig.Note == "" {
		t.Error("unknown tag should be noted for the metadata")
	}
}

func TestCulturalMarkersRaiseRisk(t *testing.T) {
	a := newCultural(t)
	sig := a.Analyze(text.Normalize("I have brought shame to my family, I cannot face my parents", ""), "east-asian")

	if sig.Adjustment <= 0 {
		t.Fatalf("adjustment = %d, want positive for shame/honor phrasing", sig.Adjustment)
	}
	if sig.Severity != SeverityModerate {
		t.Errorf("severity = %s, want moderate claim from the shame idiom", sig.Severity)
	}
	if len(sig.Rationale) == 0 {
		t.Error("adjustment without rationale is unreviewable")
	}
}

func TestCulturalMarkersLowerRisk(t *testing.T) {
	a := newCultural(t)
	// Hyperbolic death idiom, common emphatic speech.
	sig := a.Analyze(text.Normalize("me muero de vergüenza con este examen", ""), "latin-american")
	if sig.Adjustment >= 0 {
		t.Errorf("adjustment = %d, want negative for hyperbolic idiom", sig.Adjustment)
	}
}

func TestCulturalAdjustmentClamped(t *testing.T) {
	a := newCultural(t)
	sig := a.Analyze(text.Normalize(
		"i lost all face and brought shame to my family, i cannot face my parents, "+
			"i am causing trouble for everyone, thank you for everything", ""), "east-asian")
	if sig.Adjustment > 30 {
		t.Errorf("adjustment = %d, want clamped to 30", sig.Adjustment)
	}
}

func TestCulturalOverlay(t *testing.T) {
	overlay := `
profiles:
  - tag: test-region
    markers:
      - name: local_idiom
        pattern: '(?i)\bgone to the river\b'
        delta: 20
        severity: moderate
        rationale: regional euphemism for suicide
`
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := NewCulturalAnalyzer(path)
	if err != nil {
		t.Fatalf("overlay load failed: %v", err)
	}
	if !a.HasProfile("test-region") {
		t.Fatal("overlay profile not registered")
	}

	sig := a.Analyze(text.Normalize("she said he has gone to the river", ""), "test-region")
	if sig.Adjustment != 20 || sig.Severity != SeverityModerate {
		t.Errorf("overlay marker not applied: %+v", sig)
	}
}

func TestCulturalOverlayRejectsBadEntries(t *testing.T) {
	bad := map[string]string{
		"bad regex":    "profiles:\n  - tag: x\n    markers:\n      - {name: m, pattern: '[', delta: 5}\n",
		"bad severity": "profiles:\n  - tag: x\n    markers:\n      - {name: m, pattern: 'a', delta: 5, severity: huge}\n",
		"delta range":  "profiles:\n  - tag: x\n    markers:\n      - {name: m, pattern: 'a', delta: 90}\n",
		"empty tag":    "profiles:\n  - markers:\n      - {name: m, pattern: 'a', delta: 5}\n",
	}
	for name, content := range bad {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewCulturalAnalyzer(path); err == nil {
			t.Errorf("%s: overlay should have been rejected", name)
		}
	}
}
