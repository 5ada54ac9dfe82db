package escalation

import (
	"context"
	"strings"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/crisis"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/resources"
)

// Policy maps an assessment to a responder tier, a trigger, and support
// recommendations. It is pure decision logic: deterministic, no I/O except
// the resource lookup, and it always produces a recommendation even when no
// escalation is dispatched.
type Policy struct {
	store resources.Store
}

func NewPolicy(store resources.Store) *Policy {
	return &Policy{store: store}
}

// TierFor maps severity to the responder tier.
func TierFor(severity crisis.Severity) Tier {
	switch severity {
	case crisis.SeverityEmergency:
		return TierEmergencyServices
	case crisis.SeverityHigh:
		return TierEmergencyTeam
	case crisis.SeverityModerate:
		return TierCrisisCounselor
	default:
		return TierPeerSupport
	}
}

// TriggerFor infers the dispatch trigger from the assessment. Specific
// evidence (overdose, violence) beats the generic immediate-danger trigger.
func TriggerFor(a crisis.RiskAssessment) Trigger {
	var medical, violence, attempt bool
	for _, f := range a.RiskFactors {
		medical = medical || strings.Contains(f, "medical-emergency")
		violence = violence || strings.Contains(f, "violence")
		attempt = attempt || strings.Contains(f, "suicide-plan")
	}
	switch {
	case medical:
		return TriggerMedicalEmergency
	case violence:
		return TriggerViolenceThreat
	case attempt:
		return TriggerSuicideAttempt
	}
	return TriggerImmediateDanger
}

// Decision is the policy output for one assessment.
type Decision struct {
	Tier            Tier
	Trigger         Trigger
	Recommendations []resources.Resource
}

// Decide produces the full policy decision. Resource lookup trouble leaves
// Recommendations empty rather than failing the decision; the tier and
// trigger are what the workflow cannot do without.
func (p *Policy) Decide(ctx context.Context, a crisis.RiskAssessment, region, language string) Decision {
	d := Decision{
		Tier:    TierFor(a.Severity),
		Trigger: TriggerFor(a),
	}
	if p.store != nil {
		if recs, err := p.store.Lookup(ctx, region, language); err == nil {
			d.Recommendations = recs
		}
	}
	return d
}
