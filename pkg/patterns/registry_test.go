package patterns

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltins(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.TotalPatterns() == 0 {
		t.Fatal("no patterns registered")
	}
	for _, lang := range []string{"en", "es"} {
		if !r.HasLanguage(lang) {
			t.Errorf("missing dedicated table for %q", lang)
		}
	}
	t.Logf("loaded %d patterns across %v", r.TotalPatterns(), r.Languages())
}

func TestForLanguageIncludesUniversal(t *testing.T) {
	r := MustLoad("")

	en := r.ForLanguage("en")
	if len(en) <= len(r.byLanguage["en"]) {
		t.Error("English table should include universal patterns")
	}

	// Unsupported languages degrade to the universal table, never error.
	ja := r.ForLanguage("ja")
	if len(ja) == 0 {
		t.Error("unknown language should still get universal patterns")
	}
	for _, p := range ja {
		if p.Language != "*" {
			t.Errorf("unknown language got non-universal pattern %s", p.Name)
		}
	}
}

func TestCouldMatchPrefilter(t *testing.T) {
	r := MustLoad("")

	tests := []struct {
		text string
		want bool
	}{
		{"I'm going to kill myself tonight", true},
		{"I want to hurt someone", true},
		{"me quiero morir", true},
		{"the weather is lovely and the garden blooms", false},
	}
	for _, tt := range tests {
		if got := r.CouldMatch(tt.text); got != tt.want {
			t.Errorf("CouldMatch(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestBuiltinPatternCoverage(t *testing.T) {
	r := MustLoad("")

	tests := []struct {
		text     string
		lang     string
		category Category
		severity string
	}{
		{"i'm going to kill myself tonight", "en", CategorySuicidePlan, "emergency"},
		{"i want to hurt someone", "en", CategoryViolence, "high"},
		{"i took all my pills an hour ago", "en", CategoryMedicalEmergency, "emergency"},
		{"i just want to die", "en", CategorySuicidalIdeation, "high"},
		{"nothing matters and there's no way out", "en", CategoryHopelessness, "moderate"},
		{"i talked to my therapist yesterday", "en", CategoryProtective, "none"},
		{"ya no quiero vivir", "es", CategorySuicidePlan, "emergency"},
		{"me quiero morir", "es", CategorySuicidalIdeation, "high"},
	}
	for _, tt := range tests {
		var hit *Pattern
		for _, p := range r.ForLanguage(tt.lang) {
			if p.Category == tt.category && p.Regex.MatchString(tt.text) {
				hit = p
				break
			}
		}
		if hit == nil {
			t.Errorf("no %s pattern matched %q", tt.category, tt.text)
			continue
		}
		if hit.Severity != tt.severity {
			t.Errorf("%q matched %s with severity %s, want %s", tt.text, hit.Name, hit.Severity, tt.severity)
		}
	}
}

func TestBenignTextMatchesNothing(t *testing.T) {
	r := MustLoad("")

	benign := []string{
		"I'm feeling a bit stressed about work",
		"can you recommend a good book",
		"my dog learned a new trick today",
	}
	for _, text := range benign {
		for _, p := range r.ForLanguage("en") {
			if p.Category == CategoryProtective {
				continue
			}
			if p.Regex.MatchString(text) {
				t.Errorf("benign text %q matched pattern %s", text, p.Name)
			}
		}
	}
}

func TestOverlayLoad(t *testing.T) {
	overlay := `
patterns:
  - name: test_regional_phrase
    pattern: '(?i)\bcatch the last train\b'
    language: en
    category: suicidal-ideation
    severity: high
    confidence: 0.7
    urgency: 60
    triggers: ["last train"]
    description: regional euphemism
`
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load with overlay failed: %v", err)
	}

	found := false
	for _, p := range r.ForLanguage("en") {
		if p.Name == "test_regional_phrase" {
			found = true
			if !p.Regex.MatchString("going to catch the last train") {
				t.Error("overlay regex does not match its own phrase")
			}
		}
	}
	if !found {
		t.Error("overlay pattern not registered")
	}
	if !r.CouldMatch("the last train leaves at midnight") {
		t.Error("overlay trigger not added to prefilter")
	}
}

func TestOverlayRejectsBadEntries(t *testing.T) {
	bad := map[string]string{
		"unknown severity": `
patterns:
  - {name: x, pattern: 'a', language: en, category: violence, severity: catastrophic, confidence: 0.5, urgency: 10, triggers: ["a"]}
`,
		"unknown category": `
patterns:
  - {name: x, pattern: 'a', language: en, category: nonsense, severity: high, confidence: 0.5, urgency: 10, triggers: ["a"]}
`,
		"bad regex": `
patterns:
  - {name: x, pattern: '[unclosed', language: en, category: violence, severity: high, confidence: 0.5, urgency: 10, triggers: ["a"]}
`,
		"no triggers": `
patterns:
  - {name: x, pattern: 'a', language: en, category: violence, severity: high, confidence: 0.5, urgency: 10}
`,
		"confidence out of range": `
patterns:
  - {name: x, pattern: 'a', language: en, category: violence, severity: high, confidence: 1.5, urgency: 10, triggers: ["a"]}
`,
		"not yaml": `{{{{`,
	}

	for name, content := range bad {
		path := filepath.Join(t.TempDir(), "overlay.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: Load should have rejected overlay", name)
		} else {
			t.Logf("%s: rejected as expected: %v", name, err)
		}
	}
}

func TestLoadMissingOverlayFile(t *testing.T) {
	if _, err := Load("/nonexistent/overlay.yaml"); err == nil {
		t.Error("Load should fail on missing overlay path")
	}
}
