package patterns

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// overlayFile is the on-disk shape of a pattern overlay. Deployments use
// overlays to add region- or product-specific crisis phrasings without a
// rebuild; built-in patterns are never removed by an overlay.
type overlayFile struct {
	Patterns []overlayPattern `yaml:"patterns"`
}

type overlayPattern struct {
	Name        string   `yaml:"name"`
	Pattern     string   `yaml:"pattern"`
	Language    string   `yaml:"language"`
	Category    string   `yaml:"category"`
	Severity    string   `yaml:"severity"`
	Confidence  float64  `yaml:"confidence"`
	Urgency     int      `yaml:"urgency"`
	Triggers    []string `yaml:"triggers"`
	Description string   `yaml:"description"`
}

var validCategories = map[Category]bool{
	CategorySuicidalIdeation: true,
	CategorySuicidePlan:      true,
	CategorySelfHarm:         true,
	CategoryViolence:         true,
	CategoryMedicalEmergency: true,
	CategoryTemporalUrgency:  true,
	CategoryHopelessness:     true,
	CategoryProtective:       true,
}

// loadOverlay reads and validates a YAML overlay, appending its patterns to
// the registry. Every entry is validated the same way built-ins are; a single
// bad entry rejects the whole overlay so a deployment never runs with half a
// table.
func (r *Registry) loadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file overlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for i, entry := range file.Patterns {
		if err := r.addOverlayPattern(entry); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, entry.Name, err)
		}
	}
	return nil
}

func (r *Registry) addOverlayPattern(entry overlayPattern) error {
	if entry.Name == "" {
		return fmt.Errorf("name is required")
	}
	if entry.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if entry.Language == "" {
		entry.Language = "*"
	}
	if !validCategories[Category(entry.Category)] {
		return fmt.Errorf("unknown category %q", entry.Category)
	}
	if !validSeverities[entry.Severity] {
		return fmt.Errorf("unknown severity %q", entry.Severity)
	}
	if entry.Confidence <= 0 || entry.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range (0,1]", entry.Confidence)
	}
	if entry.Urgency < 0 || entry.Urgency > 100 {
		return fmt.Errorf("urgency %d out of range [0,100]", entry.Urgency)
	}
	if len(entry.Triggers) == 0 {
		return fmt.Errorf("at least one prefilter trigger is required")
	}

	// Overlay regexes come from operator config, so compile errors are
	// reported instead of panicking like built-in registration does.
	regex, err := regexp.Compile(entry.Pattern)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	p := &Pattern{
		Name:        entry.Name,
		Regex:       regex,
		Language:    entry.Language,
		Category:    Category(entry.Category),
		Severity:    entry.Severity,
		Confidence:  entry.Confidence,
		Urgency:     entry.Urgency,
		Description: entry.Description,
	}
	r.byLanguage[entry.Language] = append(r.byLanguage[entry.Language], p)
	r.all = append(r.all, p)
	r.triggers = append(r.triggers, entry.Triggers...)
	return nil
}
