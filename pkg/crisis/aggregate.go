package crisis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/patterns"
)

// FusionConfig carries the aggregation thresholds; see config.NewDefaultConfig
// for the deployed values.
type FusionConfig struct {
	// ConfidenceFloor is the minimum confidence a signal needs for its
	// severity claim to count. Sub-floor signals still contribute rationale
	// and numeric evidence.
	ConfidenceFloor float64

	// EscalationRiskFloor is the immediate-risk score at which escalation
	// becomes required regardless of severity bucket.
	EscalationRiskFloor int

	// DegradedPenalty multiplies the fused confidence when any analyzer
	// degraded; the severity itself is never lowered by a degraded layer.
	DegradedPenalty float64
}

// Aggregate fuses analyzer signals into one assessment. The function is
// deterministic: signals are ordered internally, so the callers' completion
// order never changes the result.
//
// Severity is decided by the highest claim above the confidence floor, not
// by averaging - an explicit emergency from one layer is not diluted because
// the other two saw nothing.
func Aggregate(signals []CrisisSignal, cfg FusionConfig) RiskAssessment {
	ordered := make([]CrisisSignal, len(signals))
	copy(ordered, signals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sourcePriority[ordered[i].Source] > sourcePriority[ordered[j].Source]
	})

	var assessment RiskAssessment
	assessment.Severity = SeverityNone

	// Pick the primary signal: highest severity above the floor, ties broken
	// by confidence, then source priority (the sort above).
	var primary *CrisisSignal
	for i := range ordered {
		s := &ordered[i]
		if s.Degraded || s.Confidence < cfg.ConfidenceFloor {
			continue
		}
		if primary == nil ||
			s.Severity.Rank() > primary.Severity.Rank() ||
			(s.Severity.Rank() == primary.Severity.Rank() && s.Confidence > primary.Confidence) {
			primary = s
		}
	}
	if primary != nil {
		assessment.Severity = primary.Severity
	}

	// Numeric risk: confidence-weighted mean over the lexical and
	// statistical windows, then the cultural delta on top. The fused
	// confidence is the confidence-weighted mean of the same signals.
	var weightSum, confSum float64
	var immediate, shortTerm, longTerm float64
	adjustment := 0
	degraded := false
	urgency := 0
	for i := range ordered {
		s := &ordered[i]
		if s.Degraded {
			degraded = true
			continue
		}
		if s.Source == SourceCultural {
			adjustment += s.Adjustment
		}
		if s.Risk.Urgency > urgency {
			urgency = s.Risk.Urgency
		}
		if s.Confidence <= 0 {
			continue
		}
		weightSum += s.Confidence
		confSum += s.Confidence * s.Confidence
		immediate += float64(s.Risk.Immediate) * s.Confidence
		shortTerm += float64(s.Risk.ShortTerm) * s.Confidence
		longTerm += float64(s.Risk.LongTerm) * s.Confidence
	}
	if weightSum > 0 {
		// The primary signal's own immediate estimate floors the mean: a
		// confident quiet co-signal widens the denominator but must never
		// dilute the signal that set the severity below its own read.
		fusedImmediate := int(immediate / weightSum)
		if primary != nil && fusedImmediate < primary.Risk.Immediate {
			fusedImmediate = primary.Risk.Immediate
		}
		assessment.Confidence = confSum / weightSum
		assessment.ImmediateRisk = clamp(fusedImmediate + adjustment)
		assessment.ShortTermRisk = clamp(int(shortTerm/weightSum) + adjustment/2)
		assessment.LongTermRisk = clamp(int(longTerm / weightSum))
	} else {
		assessment.ImmediateRisk = clamp(adjustment)
	}

	// An emergency read implies emergency-scale immediate risk even when a
	// quiet co-signal dragged the weighted mean down.
	if assessment.Severity == SeverityEmergency && assessment.ImmediateRisk < 85 {
		assessment.ImmediateRisk = 85
	}

	if degraded && assessment.Confidence > 0 {
		assessment.Confidence *= cfg.DegradedPenalty
	}

	assessment.RiskFactors, assessment.ProtectiveFactors = collectFactors(ordered)
	assessment.HasTemporalUrgency = hasTemporalUrgency(ordered, urgency)
	assessment.UrgencyScore = interventionUrgency(assessment.Severity, urgency)
	assessment.InterventionUrgency = UrgencyFor(assessment.UrgencyScore)
	assessment.HasCrisisIndicators = assessment.Severity != SeverityNone || len(assessment.RiskFactors) > 0

	assessment.EscalationRequired = assessment.ImmediateRisk >= cfg.EscalationRiskFloor ||
		assessment.Severity.Rank() >= SeverityHigh.Rank()
	assessment.EmergencyServicesRequired = assessment.Severity == SeverityEmergency

	return assessment
}

// UrgencyFor buckets a 0-100 urgency score into the level responders act on.
func UrgencyFor(score int) UrgencyLevel {
	switch {
	case score >= 90:
		return UrgencyImmediate
	case score >= 70:
		return UrgencyHigh
	case score >= 40:
		return UrgencyModerate
	case score >= 15:
		return UrgencyLow
	}
	return UrgencyNone
}

func collectFactors(signals []CrisisSignal) (risk, protective []string) {
	seen := make(map[string]bool)
	add := func(list *[]string, factor string) {
		if factor == "" || seen[factor] {
			return
		}
		seen[factor] = true
		*list = append(*list, factor)
	}

	for i := range signals {
		s := &signals[i]
		for _, m := range s.Matches {
			add(&risk, m.Category)
		}
		for _, r := range s.Rationale {
			if after, ok := strings.CutPrefix(r, "protective: "); ok {
				add(&protective, after)
			} else if s.Source != SourceLexical {
				add(&risk, fmt.Sprintf("%s: %s", s.Source, r))
			}
		}
	}
	sort.Strings(risk)
	sort.Strings(protective)
	return risk, protective
}

func hasTemporalUrgency(signals []CrisisSignal, urgency int) bool {
	for i := range signals {
		for _, m := range signals[i].Matches {
			if m.Category == string(patterns.CategoryTemporalUrgency) {
				return true
			}
		}
	}
	return urgency >= 80
}

// interventionUrgency is the larger of what the severity bucket implies and
// what the signals measured directly.
func interventionUrgency(sev Severity, measured int) int {
	base := 5
	switch sev {
	case SeverityEmergency:
		base = 95
	case SeverityHigh:
		base = 75
	case SeverityModerate:
		base = 50
	case SeverityLow:
		base = 25
	}
	if measured > base {
		return clamp(measured)
	}
	return base
}
