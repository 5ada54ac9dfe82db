// Package escalation turns a crisis assessment into action: tier selection,
// responder dispatch through a backend, and an auditable record of what
// happened. The workflow degrades to manual handling when the backend is
// unreachable - escalation trouble is reported in the outcome, never thrown
// back at the analysis pipeline.
package escalation

import "time"

// Tier is the responder level an escalation targets.
type Tier string

const (
	TierPeerSupport       Tier = "peer-support"
	TierCrisisCounselor   Tier = "crisis-counselor"
	TierEmergencyTeam     Tier = "emergency-team"
	TierEmergencyServices Tier = "emergency-services"
)

// Trigger names the immediate reason an escalation was raised.
type Trigger string

const (
	TriggerImmediateDanger  Trigger = "immediate-danger"
	TriggerSuicideAttempt   Trigger = "suicide-attempt"
	TriggerViolenceThreat   Trigger = "violence-threat"
	TriggerMedicalEmergency Trigger = "medical-emergency"
)

// Status is the workflow state of an escalation record.
type Status string

const (
	StatusInitiated         Status = "initiated"
	StatusResponderAssigned Status = "responder-assigned"
	StatusInProgress        Status = "in-progress"
	StatusResolved          Status = "resolved"
	StatusEscalatedFurther  Status = "escalated-further"
	StatusFailed            Status = "failed"
)

// validTransitions encodes the workflow state machine. Anything not listed
// is rejected; failed and resolved are terminal.
var validTransitions = map[Status][]Status{
	StatusInitiated:         {StatusResponderAssigned, StatusFailed},
	StatusResponderAssigned: {StatusInProgress, StatusEscalatedFurther, StatusFailed},
	StatusInProgress:        {StatusResolved, StatusEscalatedFurther, StatusFailed},
	StatusEscalatedFurther:  {StatusResponderAssigned, StatusResolved, StatusFailed},
}

// CanTransition reports whether moving from one status to another is a legal
// workflow step.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Timeline records when the escalation moved through its states.
type Timeline struct {
	Initiated time.Time  `json:"initiated"`
	Assigned  *time.Time `json:"assigned,omitempty"`
	Resolved  *time.Time `json:"resolved,omitempty"`
}

// Record is the audit entry for one escalation. It is persisted only after
// the backend accepted the dispatch; a failed dispatch produces an outcome,
// not a record.
type Record struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Tier        Tier     `json:"tier"`
	Trigger     Trigger  `json:"trigger"`
	Status      Status   `json:"status"`
	Severity    string   `json:"severity"`
	RiskFactors []string `json:"riskFactors,omitempty"`
	ResponderID string   `json:"responderId,omitempty"`
	Timeline    Timeline `json:"timeline"`
}

// Transition applies a status change, updating the timeline. Illegal
// transitions are rejected so a record can never show an impossible history.
func (r *Record) Transition(to Status, at time.Time) bool {
	if !CanTransition(r.Status, to) {
		return false
	}
	r.Status = to
	switch to {
	case StatusResponderAssigned:
		t := at
		r.Timeline.Assigned = &t
	case StatusResolved:
		t := at
		r.Timeline.Resolved = &t
	}
	return true
}
