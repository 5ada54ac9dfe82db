package crisis

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/text"
)

// culturalMarker is one expression pattern within a cultural profile. Delta
// shifts the fused numeric risk; a marker can also make its own (usually
// mild) severity claim for idioms of distress that the literal pattern
// tables read as benign.
type culturalMarker struct {
	Name      string
	Regex     *regexp.Regexp
	Delta     int
	Severity  Severity
	Rationale string
}

// culturalProfile groups the markers for one cultural context tag.
type culturalProfile struct {
	Tag     string
	Markers []culturalMarker
}

// CulturalAnalyzer reads normalized text through a cultural lens: idioms,
// indirect phrasings, and expression norms that change what a literal read
// means. Without a context tag, or with an unknown one, it contributes a
// neutral signal - never a guess based on detected language alone.
type CulturalAnalyzer struct {
	profiles map[string]*culturalProfile
}

// NewCulturalAnalyzer loads the built-in profiles plus, when overlayPath is
// non-empty, the YAML profile overlay.
func NewCulturalAnalyzer(overlayPath string) (*CulturalAnalyzer, error) {
	a := &CulturalAnalyzer{profiles: builtinProfiles()}
	if overlayPath != "" {
		if err := a.loadOverlay(overlayPath); err != nil {
			return nil, fmt.Errorf("cultural profile overlay %s: %w", overlayPath, err)
		}
	}
	return a, nil
}

// Analyze produces the cultural signal for the given context tag.
func (a *CulturalAnalyzer) Analyze(nt text.NormalizedText, contextTag string) CrisisSignal {
	start := time.Now()
	signal := CrisisSignal{
		Source:   SourceCultural,
		Severity: SeverityNone,
	}
	defer func() {
		signal.LatencyMs = time.Since(start).Milliseconds()
	}()

	if nt.Empty || contextTag == "" {
		return signal
	}
	profile, ok := a.profiles[contextTag]
	if !ok {
		signal.Note = fmt.Sprintf("no profile for cultural context %q", contextTag)
		return signal
	}

	for _, m := range profile.Markers {
		if !m.Regex.MatchString(nt.Folded) {
			continue
		}
		signal.Adjustment += m.Delta
		signal.Rationale = append(signal.Rationale, m.Rationale)
		if m.Severity != "" && m.Severity != SeverityNone {
			signal.Severity = maxSeverity(signal.Severity, m.Severity)
			if signal.Confidence < 0.55 {
				signal.Confidence = 0.55
			}
		}
	}
	if signal.Adjustment > 30 {
		signal.Adjustment = 30
	}
	if signal.Adjustment < -30 {
		signal.Adjustment = -30
	}
	return signal
}

// HasProfile reports whether a dedicated profile exists for the tag.
func (a *CulturalAnalyzer) HasProfile(tag string) bool {
	_, ok := a.profiles[tag]
	return ok
}

// builtinProfiles returns the curated profile set. Each marker names the
// expression norm it encodes, because the adjustment is meaningless to a
// reviewer without the rationale next to it.
func builtinProfiles() map[string]*culturalProfile {
	mk := func(name, pattern string, delta int, sev Severity, rationale string) culturalMarker {
		return culturalMarker{
			Name:      name,
			Regex:     regexp.MustCompile(pattern),
			Delta:     delta,
			Severity:  sev,
			Rationale: rationale,
		}
	}
	profiles := []*culturalProfile{
		{
			Tag: "east-asian",
			Markers: []culturalMarker{
				mk("burden_idiom", `(?i)\b(?:caus(?:e|ing)\s+trouble\s+for\s+(?:my\s+)?(?:family|everyone)|too\s+much\s+trouble\s+for\s+others)\b`,
					15, SeverityModerate,
					"burden-to-others phrasing often substitutes for direct distress statements"),
				mk("shame_idiom", `(?i)\b(?:lost\s+(?:all\s+)?face|brought\s+shame\s+(?:on|to)\s+(?:my\s+)?family|cannot\s+face\s+(?:my\s+)?(?:family|parents))\b`,
					12, SeverityModerate,
					"shame and family-honor language carries elevated risk weight"),
				mk("indirect_farewell", `(?i)\b(?:thank\s+you\s+for\s+everything|please\s+take\s+care\s+of\s+(?:my|the))\b`,
					10, "",
					"indirect farewell phrasing in place of explicit statements"),
			},
		},
		{
			Tag: "latin-american",
			Markers: []culturalMarker{
				mk("family_burden", `(?i)\b(?:soy\s+una\s+carga\s+para\s+mi\s+familia|mi\s+familia\s+estar[ií]a\s+mejor\s+sin\s+m[ií])\b`,
					15, SeverityModerate,
					"family-burden phrasing weighs heavier where family is the primary support unit"),
				mk("religious_despair", `(?i)\b(?:dios\s+me\s+ha\s+abandonado|ni\s+dios\s+me\s+quiere)\b`,
					10, SeverityModerate,
					"abandonment-by-god phrasing signals deep despair in this context"),
				mk("expressive_norm", `(?i)\b(?:me\s+muero\s+de|me\s+mata)\b`,
					-10, "",
					"hyperbolic death idioms are common emphatic speech, literal read overweights them"),
			},
		},
		{
			Tag: "south-asian",
			Markers: []culturalMarker{
				mk("family_honor", `(?i)\b(?:ruined\s+the\s+family\s+name|what\s+will\s+people\s+say|log\s+kya\s+kahenge)\b`,
					12, SeverityModerate,
					"family-reputation pressure phrasing carries elevated risk weight"),
				mk("somatic_distress", `(?i)\b(?:my\s+heart\s+is\s+sinking|burning\s+inside|heaviness\s+in\s+my\s+chest)\b`,
					8, "",
					"psychological distress commonly expressed somatically"),
			},
		},
		{
			Tag: "western-stoic",
			Markers: []culturalMarker{
				mk("minimizing", `(?i)\b(?:i'?m\s+fine,?\s+really|it'?s\s+nothing|don'?t\s+worry\s+about\s+me|i\s+shouldn'?t\s+complain)\b`,
					8, "",
					"minimizing language alongside crisis vocabulary understates actual risk"),
			},
		},
	}

	out := make(map[string]*culturalProfile, len(profiles))
	for _, p := range profiles {
		out[p.Tag] = p
	}
	return out
}

// --- YAML overlay ---

type culturalOverlayFile struct {
	Profiles []struct {
		Tag     string `yaml:"tag"`
		Markers []struct {
			Name      string `yaml:"name"`
			Pattern   string `yaml:"pattern"`
			Delta     int    `yaml:"delta"`
			Severity  string `yaml:"severity"`
			Rationale string `yaml:"rationale"`
		} `yaml:"markers"`
	} `yaml:"profiles"`
}

// loadOverlay merges profile definitions from YAML. New tags add profiles;
// existing tags get the overlay markers appended.
func (a *CulturalAnalyzer) loadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file culturalOverlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for _, p := range file.Profiles {
		if p.Tag == "" {
			return fmt.Errorf("profile with empty tag")
		}
		profile := a.profiles[p.Tag]
		if profile == nil {
			profile = &culturalProfile{Tag: p.Tag}
			a.profiles[p.Tag] = profile
		}
		for _, m := range p.Markers {
			regex, err := regexp.Compile(m.Pattern)
			if err != nil {
				return fmt.Errorf("profile %s marker %s: %w", p.Tag, m.Name, err)
			}
			sev := Severity("")
			if m.Severity != "" {
				parsed, err := ParseSeverity(m.Severity)
				if err != nil {
					return fmt.Errorf("profile %s marker %s: %w", p.Tag, m.Name, err)
				}
				sev = parsed
			}
			if m.Delta < -30 || m.Delta > 30 {
				return fmt.Errorf("profile %s marker %s: delta %d out of range [-30,30]", p.Tag, m.Name, m.Delta)
			}
			profile.Markers = append(profile.Markers, culturalMarker{
				Name:      m.Name,
				Regex:     regex,
				Delta:     m.Delta,
				Severity:  sev,
				Rationale: m.Rationale,
			})
		}
	}
	return nil
}
