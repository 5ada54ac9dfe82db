package text

import (
	"strings"
	"testing"
)

func TestNormalizeCleansInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "help   me \t please", "help me please"},
		{"strips zero-width", "kill​ myself", "kill myself"},
		{"strips soft hyphen", "sui­cide", "suicide"},
		{"strips control chars", "hello\x07 world", "hello world"},
		{"trims trailing space", "done  ", "done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, "")
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "​​", "\x00\x01"} {
		nt := Normalize(in, "")
		if !nt.Empty {
			t.Errorf("Normalize(%q).Empty = false, want true", in)
		}
		if nt.Language != "und" {
			t.Errorf("Normalize(%q).Language = %q, want und", in, nt.Language)
		}
	}
}

func TestNormalizeFolding(t *testing.T) {
	nt := Normalize("I Want To DIE", "")
	if nt.Folded != "i want to die" {
		t.Errorf("Folded = %q", nt.Folded)
	}
	if !strings.Contains(nt.Text, "DIE") {
		t.Error("Text should preserve original casing")
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"i don't want to be alive anymore and i feel so alone", "en"},
		{"ya no quiero vivir y estoy muy cansado de todo esto", "es"},
		{"je ne veux plus vivre et je suis très fatigué", "fr"},
		{"ich will nicht mehr leben und ich habe keine kraft", "de"},
		{"eu não quero mais viver e estou muito cansado", "pt"},
	}
	for _, tt := range tests {
		nt := Normalize(tt.text, "")
		if nt.Language != tt.want {
			t.Errorf("Normalize(%q).Language = %q (conf %.2f), want %q",
				tt.text, nt.Language, nt.Confidence, tt.want)
		}
		if nt.Confidence <= 0 {
			t.Errorf("confidence for %q should be positive", tt.text)
		}
	}
}

func TestDetectUndeterminedForNonLatin(t *testing.T) {
	nt := Normalize("助けてください もう生きたくない", "")
	if nt.Language != "und" {
		t.Errorf("non-Latin text detected as %q, want und", nt.Language)
	}
}

func TestLanguageHint(t *testing.T) {
	// Short ambiguous text: hint decides.
	nt := Normalize("no", "es-MX")
	if nt.Language != "es" {
		t.Errorf("hint should decide ambiguous text, got %q", nt.Language)
	}

	// Strong contrary evidence: hint loses.
	nt = Normalize("i really don't want to be here anymore, everything is just too much and i can't do this", "es")
	if nt.Language != "en" {
		t.Errorf("strong English evidence should override hint, got %q", nt.Language)
	}

	// Garbage hint is ignored, never fatal.
	nt = Normalize("i want to die", "not-a-tag-!!")
	if nt.Language != "en" {
		t.Errorf("bad hint should be ignored, got %q", nt.Language)
	}
}

func TestMixedLanguageFlag(t *testing.T) {
	nt := Normalize("i want to die y no puedo más con esto en mi vida", "")
	if !nt.MixedLanguage {
		t.Error("expected mixed-language flag for bilingual text")
	}
}
