// Package crisis implements the detection pipeline: three independent
// analyzers (lexical, statistical, cultural) run concurrently over normalized
// text and their signals are fused deterministically into a risk assessment.
//
// Design principles:
//   - NEVER FAIL OPEN: analyzer trouble degrades a signal, it never drops the
//     analysis or silently lowers an explicit threat
//   - DETERMINISTIC FUSION: same signals in, same assessment out, regardless of
//     analyzer completion order
//   - FAILURES ARE VALUES: degraded layers are recorded in the result metadata,
//     not returned as errors
package crisis

import "fmt"

// Severity is the ordinal risk bucket shared by every pipeline stage.
type Severity string

const (
	SeverityNone      Severity = "none"
	SeverityLow       Severity = "low"
	SeverityModerate  Severity = "moderate"
	SeverityHigh      Severity = "high"
	SeverityEmergency Severity = "emergency"
)

var severityRank = map[Severity]int{
	SeverityNone:      0,
	SeverityLow:       1,
	SeverityModerate:  2,
	SeverityHigh:      3,
	SeverityEmergency: 4,
}

// Rank returns the ordinal position of the severity, 0 (none) through
// 4 (emergency). Unknown values rank as none.
func (s Severity) Rank() int { return severityRank[s] }

// ParseSeverity converts a severity label from the pattern registry or a
// scorer backend. Unknown labels return an error; callers on the hot path
// treat that as a degraded signal, never a dropped one.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRank[sev]; !ok {
		return SeverityNone, fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// maxSeverity returns the higher-ranked of two severities.
func maxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// SignalSource identifies which analyzer produced a signal.
type SignalSource string

const (
	SourceLexical     SignalSource = "lexical"
	SourceStatistical SignalSource = "statistical"
	SourceCultural    SignalSource = "cultural"
)

// sourcePriority breaks ties between signals of equal severity and equal
// confidence: model judgment over keyword match over cultural adjustment.
var sourcePriority = map[SignalSource]int{
	SourceStatistical: 3,
	SourceLexical:     2,
	SourceCultural:    1,
}

// RiskWindow carries the numeric risk estimates a signal contributes,
// all on a 0-100 scale.
type RiskWindow struct {
	Immediate int `json:"immediate"`
	ShortTerm int `json:"shortTerm"`
	LongTerm  int `json:"longTerm"`
	Urgency   int `json:"urgency"`
}

// KeywordMatch records one lexical hit with its span in the normalized text.
type KeywordMatch struct {
	Term       string   `json:"term"`
	Category   string   `json:"category"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
	Urgency    int      `json:"urgency"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
}

// CrisisSignal is what each analyzer emits. A degraded analyzer still emits
// one, with Degraded set and a Note explaining what went wrong; fusion reads
// all three no matter what.
type CrisisSignal struct {
	Source     SignalSource   `json:"source"`
	Severity   Severity       `json:"severity"`
	Confidence float64        `json:"confidence"`
	Risk       RiskWindow     `json:"risk"`
	Matches    []KeywordMatch `json:"matches,omitempty"`

	// Adjustment is the cultural delta applied to numeric risk during
	// fusion; only the cultural analyzer sets it.
	Adjustment int `json:"adjustment,omitempty"`

	Rationale []string `json:"rationale,omitempty"`
	Degraded  bool     `json:"degraded,omitempty"`
	Note      string   `json:"note,omitempty"`
	LatencyMs int64    `json:"latencyMs"`
}

// degradedSignal builds the placeholder a failed analyzer contributes:
// no severity claim, zero confidence, and the failure recorded in the note.
func degradedSignal(source SignalSource, note string) CrisisSignal {
	return CrisisSignal{
		Source:   source,
		Severity: SeverityNone,
		Degraded: true,
		Note:     note,
	}
}
