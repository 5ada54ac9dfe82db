// Package patterns provides a centralized, high-performance pattern registry
// for crisis detection. All regex patterns are compiled once at construction
// and shared across all analyses.
//
// Design principles:
//   - COMPILE ONCE: All patterns compiled at load, not per-request
//   - DRY: Single source of truth for all crisis language patterns
//   - KEYED BY LANGUAGE: Each pattern belongs to a language table ("*" = any)
//   - EXTENSIBLE: Deployments overlay additional patterns from YAML without
//     modifying analyzer code
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Category represents a crisis pattern category.
type Category string

const (
	CategorySuicidalIdeation Category = "suicidal-ideation"
	CategorySuicidePlan      Category = "suicide-plan"
	CategorySelfHarm         Category = "self-harm"
	CategoryViolence         Category = "violence"
	CategoryMedicalEmergency Category = "medical-emergency"
	CategoryTemporalUrgency  Category = "temporal-urgency"
	CategoryHopelessness     Category = "hopelessness"
	CategoryProtective       Category = "protective"
)

// Severity buckets a pattern can carry. Kept as strings here so the registry
// stays a leaf package; the analysis layer parses them into its ordinal type.
var validSeverities = map[string]bool{
	"none": true, "low": true, "moderate": true, "high": true, "emergency": true,
}

// Pattern holds a compiled regex with crisis metadata.
type Pattern struct {
	Name        string         // Human-readable name for logging
	Regex       *regexp.Regexp // Compiled regex (never nil after load)
	Language    string         // BCP 47 base language ("en", "es") or "*" for any
	Category    Category       // Crisis category
	Severity    string         // none/low/moderate/high/emergency
	Confidence  float64        // Calibrated per-match confidence (0-1); phrase specificity, not substring presence
	Urgency     int            // 0-100 estimate of how immediate the danger is
	Description string         // What this pattern detects
}

// Registry holds all compiled patterns, organized by language, plus an
// Aho-Corasick prefilter so benign messages skip the regex pass entirely.
type Registry struct {
	mu         sync.RWMutex
	byLanguage map[string][]*Pattern
	all        []*Pattern
	triggers   []string
	prefilter  *ahocorasick.Matcher
}

// Load creates the registry with the built-in tables and, if overlayPath is
// non-empty, merges the YAML overlay on top. A malformed overlay is a
// configuration error: it fails here, at startup, never mid-request.
func Load(overlayPath string) (*Registry, error) {
	r := &Registry{
		byLanguage: make(map[string][]*Pattern),
		all:        make([]*Pattern, 0, 96),
	}

	r.registerEnglishPatterns()
	r.registerSpanishPatterns()
	r.registerUniversalPatterns()

	if overlayPath != "" {
		if err := r.loadOverlay(overlayPath); err != nil {
			return nil, fmt.Errorf("pattern overlay %s: %w", overlayPath, err)
		}
	}

	r.buildPrefilter()
	return r, nil
}

// MustLoad is Load for callers that treat pattern-table problems as fatal
// (the gateway does, at startup).
func MustLoad(overlayPath string) *Registry {
	r, err := Load(overlayPath)
	if err != nil {
		panic(err)
	}
	return r
}

// register adds a pattern to the registry. triggers are plain lowercase
// substrings fed to the prefilter; every pattern needs at least one so the
// fast path can rule it out.
func (r *Registry) register(name, lang, pattern string, cat Category, severity string, confidence float64, urgency int, triggers ...string) {
	if !validSeverities[severity] {
		panic(fmt.Sprintf("pattern %s: unknown severity %q", name, severity))
	}
	if len(triggers) == 0 {
		panic(fmt.Sprintf("pattern %s: at least one prefilter trigger required", name))
	}
	p := &Pattern{
		Name:       name,
		Regex:      regexp.MustCompile(pattern),
		Language:   lang,
		Category:   cat,
		Severity:   severity,
		Confidence: confidence,
		Urgency:    urgency,
	}
	r.byLanguage[lang] = append(r.byLanguage[lang], p)
	r.all = append(r.all, p)
	r.triggers = append(r.triggers, triggers...)
}

// buildPrefilter compiles the Aho-Corasick matcher over all trigger terms.
func (r *Registry) buildPrefilter() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.triggers) > 0 {
		r.prefilter = ahocorasick.NewStringMatcher(r.triggers)
	}
}

// CouldMatch reports whether any pattern trigger occurs in the text.
// False means the regex pass can be skipped; the text carries no crisis
// vocabulary in any loaded language.
func (r *Registry) CouldMatch(text string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.prefilter == nil {
		return true
	}
	return len(r.prefilter.Match([]byte(strings.ToLower(text)))) > 0
}

// ForLanguage returns the patterns for a base language plus the universal
// ("*") table. Returns only universal patterns for unknown languages - an
// unsupported language degrades to the generic table, it never errors.
func (r *Registry) ForLanguage(lang string) []*Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Pattern
	if patterns, ok := r.byLanguage[lang]; ok {
		result = append(result, patterns...)
	}
	if lang != "*" {
		result = append(result, r.byLanguage["*"]...)
	}
	return result
}

// HasLanguage reports whether a dedicated table exists for the language.
func (r *Registry) HasLanguage(lang string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byLanguage[lang]
	return ok
}

// TotalPatterns returns the total count of registered patterns.
func (r *Registry) TotalPatterns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// Languages returns the base languages with dedicated tables.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		if lang != "*" {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}
