// Package text prepares raw chat input for crisis analysis: Unicode
// normalization, noise stripping, and lightweight language detection. The
// pipeline here never fails; any input, however mangled, comes out as a
// NormalizedText the analyzers can work with.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizedText is the output of Normalize: the cleaned string plus what the
// detector learned about it.
type NormalizedText struct {
	// Text is NFC-normalized, control/zero-width stripped, whitespace
	// collapsed. Casing is preserved; Folded is the lowercased view.
	Text   string
	Folded string

	// Language is the detected base language ("en", "es", ...) or "und" when
	// detection could not decide. Tag is the canonical BCP 47 tag.
	Language string
	Tag      language.Tag

	// Confidence of the language call, 0-1.
	Confidence float64

	// MixedLanguage is set when the text carries strong evidence of more
	// than one language; analyzers widen their pattern tables for it.
	MixedLanguage bool

	// Empty means nothing analyzable survived normalization.
	Empty bool
}

var caseFolder = cases.Fold()

// Normalize cleans raw input and detects its language. hint, when non-empty,
// is a caller-supplied BCP 47 tag (e.g. the user's profile locale); it wins
// ties but never overrides strong contrary evidence in the text itself.
func Normalize(raw, hint string) NormalizedText {
	cleaned := clean(raw)
	nt := NormalizedText{
		Text:   cleaned,
		Folded: caseFolder.String(cleaned),
	}
	if strings.TrimSpace(cleaned) == "" {
		nt.Empty = true
		nt.Language = "und"
		nt.Tag = language.Und
		return nt
	}

	lang, confidence, mixed := detectLanguage(nt.Folded)

	if hint != "" {
		if hintTag, err := language.Parse(hint); err == nil {
			hintBase, _ := hintTag.Base()
			// The hint decides when detection is unsure or agrees.
			if lang == "und" || confidence < 0.3 || hintBase.String() == lang {
				lang = hintBase.String()
				if confidence < 0.6 {
					confidence = 0.6
				}
			}
		}
	}

	nt.Language = lang
	nt.Confidence = confidence
	nt.MixedLanguage = mixed
	if tag, err := language.Parse(lang); err == nil {
		nt.Tag = tag
	} else {
		nt.Tag = language.Und
	}
	return nt
}

// clean applies NFC normalization, strips control and zero-width characters,
// and collapses runs of whitespace. Zero-width characters matter here: they
// are a cheap way to split crisis phrases past a naive matcher.
func clean(raw string) string {
	nfc := norm.NFC.String(raw)

	var b strings.Builder
	b.Grow(len(nfc))
	lastSpace := true
	for _, r := range nfc {
		switch {
		case isZeroWidth(r):
			continue
		case unicode.IsControl(r) && r != '\n' && r != '\t':
			continue
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func isZeroWidth(r rune) bool {
	switch r {
	case 0x200B, // zero width space
		0x200C, // zero width non-joiner
		0x200D, // zero width joiner
		0x2060, // word joiner
		0xFEFF, // BOM
		0x00AD: // soft hyphen
		return true
	}
	return false
}
