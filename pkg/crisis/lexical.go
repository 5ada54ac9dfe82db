package crisis

import (
	"fmt"
	"sort"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/patterns"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/text"
)

// LexicalAnalyzer runs the compiled pattern tables against normalized text.
// It is the layer that must never miss an explicit threat: the statistical
// model can be down, the cultural profile absent, and a direct statement of
// intent still produces an emergency signal from here.
type LexicalAnalyzer struct {
	registry *patterns.Registry
}

func NewLexicalAnalyzer(registry *patterns.Registry) *LexicalAnalyzer {
	return &LexicalAnalyzer{registry: registry}
}

// Analyze produces the lexical signal. It never returns an error: text the
// matcher cannot handle yields a none-severity signal with a note, because a
// missing lexical read must not take down the whole analysis.
func (a *LexicalAnalyzer) Analyze(nt text.NormalizedText) CrisisSignal {
	start := time.Now()
	signal := CrisisSignal{
		Source:   SourceLexical,
		Severity: SeverityNone,
	}
	defer func() {
		signal.LatencyMs = time.Since(start).Milliseconds()
	}()

	if nt.Empty {
		signal.Note = "empty input"
		return signal
	}

	// Fast path: no trigger substring anywhere, skip the regex pass.
	if !a.registry.CouldMatch(nt.Folded) {
		return signal
	}

	table := a.registry.ForLanguage(nt.Language)
	if nt.MixedLanguage {
		table = a.widenForMixedLanguage(nt.Language, table)
	}

	matches := collectMatches(table, nt.Folded)
	matches = dedupeOverlapping(matches)
	if len(matches) == 0 {
		return signal
	}

	protective := 0
	for _, m := range matches {
		if m.Category == string(patterns.CategoryProtective) {
			protective++
			signal.Rationale = append(signal.Rationale, fmt.Sprintf("protective: %s", m.Term))
			continue
		}
		signal.Matches = append(signal.Matches, m)
		signal.Severity = maxSeverity(signal.Severity, m.Severity)
		if m.Confidence > signal.Confidence {
			signal.Confidence = m.Confidence
		}
		if m.Urgency > signal.Risk.Urgency {
			signal.Risk.Urgency = m.Urgency
		}
		signal.Rationale = append(signal.Rationale, fmt.Sprintf("%s: %q", m.Category, m.Term))
	}

	signal.Risk = deriveRisk(signal.Severity, signal.Risk.Urgency, len(signal.Matches), protective)
	return signal
}

// widenForMixedLanguage adds every dedicated table to the match set. A
// bilingual message can carry its crisis statement in either language.
func (a *LexicalAnalyzer) widenForMixedLanguage(primary string, table []*patterns.Pattern) []*patterns.Pattern {
	for _, lang := range a.registry.Languages() {
		if lang == primary {
			continue
		}
		for _, p := range a.registry.ForLanguage(lang) {
			if p.Language == lang {
				table = append(table, p)
			}
		}
	}
	return table
}

func collectMatches(table []*patterns.Pattern, folded string) []KeywordMatch {
	var matches []KeywordMatch
	for _, p := range table {
		sev, err := ParseSeverity(p.Severity)
		if err != nil {
			// Registry validation makes this unreachable for built-ins;
			// treat a bad overlay label as the weakest claim, not a crash.
			sev = SeverityNone
		}
		for _, span := range p.Regex.FindAllStringIndex(folded, -1) {
			matches = append(matches, KeywordMatch{
				Term:       folded[span[0]:span[1]],
				Category:   string(p.Category),
				Severity:   sev,
				Confidence: p.Confidence,
				Urgency:    p.Urgency,
				Start:      span[0],
				End:        span[1],
			})
		}
	}
	return matches
}

// dedupeOverlapping keeps, for each overlapping span cluster, the match with
// the highest confidence (ties to the higher severity). Two patterns hitting
// the same phrase is one piece of evidence, not two.
func dedupeOverlapping(matches []KeywordMatch) []KeywordMatch {
	if len(matches) <= 1 {
		return matches
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].End > matches[j].End
	})

	var out []KeywordMatch
	for _, m := range matches {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if m.Start < last.End {
				wider := m.End
				if last.End > wider {
					wider = last.End
				}
				if m.Confidence > last.Confidence ||
					(m.Confidence == last.Confidence && m.Severity.Rank() > last.Severity.Rank()) {
					*last = m
				}
				last.End = wider
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// deriveRisk maps the lexical read onto the numeric windows. Immediate risk
// tracks severity; protective factors shave it without ever zeroing an
// explicit threat.
func deriveRisk(sev Severity, urgency, matchCount, protective int) RiskWindow {
	var immediate int
	switch sev {
	case SeverityEmergency:
		immediate = 90
	case SeverityHigh:
		immediate = 70
	case SeverityModerate:
		immediate = 45
	case SeverityLow:
		immediate = 20
	default:
		immediate = 0
	}
	if matchCount > 1 {
		immediate = clamp(immediate + 5*(matchCount-1))
	}
	if protective > 0 && sev.Rank() < SeverityEmergency.Rank() {
		immediate = clamp(immediate - 10*protective)
	}

	return RiskWindow{
		Immediate: immediate,
		ShortTerm: clamp(immediate - 10),
		LongTerm:  clamp(immediate - 25),
		Urgency:   urgency,
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
