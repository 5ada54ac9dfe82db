package text

import (
	"strings"
	"unicode"
)

// Stopword profiles per language. Detection by function words rather than an
// n-gram model: chat messages are short, and the words people cannot write a
// sentence without are the most reliable evidence at that length.
var stopwordProfiles = map[string]map[string]bool{
	"en": toSet("the", "a", "an", "and", "or", "but", "i", "im", "i'm", "you",
		"is", "are", "was", "to", "of", "in", "my", "me", "it", "that", "this",
		"not", "don't", "dont", "want", "going", "have", "be", "so", "just",
		"feel", "feeling", "can't", "cant"),
	"es": toSet("el", "la", "los", "las", "un", "una", "y", "o", "pero", "yo",
		"es", "son", "era", "a", "de", "en", "mi", "me", "que", "esto", "no",
		"quiero", "voy", "tengo", "ser", "estoy", "muy", "ya", "más", "mas",
		"con", "por", "para"),
	"fr": toSet("le", "la", "les", "un", "une", "et", "ou", "mais", "je", "tu",
		"est", "sont", "était", "de", "en", "mon", "ma", "moi", "que", "ce",
		"ne", "pas", "veux", "vais", "j'ai", "suis", "très", "plus", "avec"),
	"de": toSet("der", "die", "das", "ein", "eine", "und", "oder", "aber",
		"ich", "du", "ist", "sind", "war", "zu", "von", "in", "mein", "mich",
		"dass", "nicht", "will", "werde", "habe", "sein", "so", "nur", "mehr"),
	"pt": toSet("o", "a", "os", "as", "um", "uma", "e", "ou", "mas", "eu",
		"é", "são", "era", "de", "em", "meu", "minha", "me", "que", "isso",
		"não", "nao", "quero", "vou", "tenho", "ser", "estou", "muito", "já",
		"com", "por", "para"),
}

var profileOrder = []string{"en", "es", "pt", "fr", "de"}

func toSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// detectLanguage scores folded text against each stopword profile and
// returns the best base language, a confidence, and whether the evidence
// points at more than one language. "und" with zero confidence means no
// profile scored; analyzers fall back to the universal pattern table.
func detectLanguage(folded string) (lang string, confidence float64, mixed bool) {
	// Non-Latin scripts are outside the profile set; report undetermined so
	// the caller degrades to the generic table instead of guessing.
	if dominantScriptNonLatin(folded) {
		return "und", 0, false
	}

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '’'
	})
	if len(words) == 0 {
		return "und", 0, false
	}

	hits := make(map[string]int, len(stopwordProfiles))
	for _, w := range words {
		for lang, profile := range stopwordProfiles {
			if profile[w] {
				hits[lang]++
			}
		}
	}

	// Fixed iteration order so tied hit counts always resolve the same way.
	best, second := "", ""
	for _, lang := range profileOrder {
		n := hits[lang]
		if n == 0 {
			continue
		}
		switch {
		case best == "" || n > hits[best]:
			second = best
			best = lang
		case second == "" || n > hits[second]:
			second = lang
		}
	}
	if best == "" {
		return "und", 0, false
	}

	confidence = float64(hits[best]) / float64(len(words))
	if confidence > 0.95 {
		confidence = 0.95
	}
	// A runner-up profile with at least two hits marks mixed-language text
	// when it is either close to the best profile or accounts for a fifth of
	// the words on its own. Single shared function words (es/pt overlap,
	// "a" in English) are not enough.
	if second != "" && hits[second] >= 2 &&
		(hits[second]*2 >= hits[best] || hits[second]*5 >= len(words)) {
		mixed = true
	}
	return best, confidence, mixed
}

// dominantScriptNonLatin reports whether most letters in the text fall
// outside the Latin script.
func dominantScriptNonLatin(s string) bool {
	latin, other := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin++
		} else {
			other++
		}
	}
	return other > latin
}
