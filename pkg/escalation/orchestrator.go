package escalation

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/crisis"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/httputil"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/retry"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/telemetry"
)

// Orchestrator runs the escalation workflow: decide, dispatch, record.
//
// Failure semantics, in order of importance:
//   - a failed dispatch degrades to manual handling; the outcome reports the
//     failure and the recommended tier so a human can act on it
//   - the record is persisted only after the backend accepted the dispatch;
//     no phantom escalations in the audit trail
//   - caller cancellation after the backend committed does not undo the
//     escalation; it only suppresses local reporting steps
type Orchestrator struct {
	policy  *Policy
	backend Backend
	store   RecordStore
	retry   retry.Policy
	sem     *httputil.Semaphore
}

// NewOrchestrator wires the workflow. maxConcurrent bounds in-flight
// dispatches; at the bound, new escalations degrade to manual rather than
// queue behind a slow backend.
func NewOrchestrator(policy *Policy, backend Backend, store RecordStore, retries, maxConcurrent int) *Orchestrator {
	policyObj := retry.None()
	if retries > 0 {
		policyObj = retry.SingleRetry(100 * time.Millisecond)
		policyObj.MaxAttempts = retries + 1
	}
	return &Orchestrator{
		policy:  policy,
		backend: backend,
		store:   store,
		retry:   policyObj,
		sem:     httputil.NewSemaphore(maxConcurrent),
	}
}

// Recommend produces the tier and support recommendations for an assessment
// without dispatching anything. The analyzer uses it for sub-threshold
// assessments and for required escalations that lack a user identity.
func (o *Orchestrator) Recommend(ctx context.Context, assessment crisis.RiskAssessment, region, language string) *crisis.EscalationOutcome {
	decision := o.policy.Decide(ctx, assessment, region, language)
	return &crisis.EscalationOutcome{
		RecommendedTier: string(decision.Tier),
		Recommendations: decision.Recommendations,
	}
}

// Escalate runs the workflow and always returns an outcome, never an error.
func (o *Orchestrator) Escalate(ctx context.Context, req crisis.EscalationRequest) *crisis.EscalationOutcome {
	decision := o.policy.Decide(ctx, req.Assessment, req.Region, req.Language)
	outcome := &crisis.EscalationOutcome{
		RecommendedTier: string(decision.Tier),
		Recommendations: decision.Recommendations,
	}

	if !o.sem.TryAcquire() {
		log.Printf("[ESCALATION] dispatch capacity exhausted (%d in flight), degrading to manual", o.sem.InUse())
		outcome.EscalationError = "dispatch capacity exhausted, manual escalation required"
		return outcome
	}
	defer o.sem.Release()

	id := uuid.NewString()
	dispatch := InitiateRequest{
		EscalationID: id,
		Tier:         decision.Tier,
		Trigger:      decision.Trigger,
		UserID:       req.UserID,
		Severity:     string(req.Assessment.Severity),
		Context:      req.Context,
	}

	var resp *InitiateResponse
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		r, err := o.backend.Initiate(ctx, dispatch)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		log.Printf("[ESCALATION] dispatch failed for tier %s: %v (degrading to manual)", decision.Tier, err)
		telemetry.GlobalClient.Track("escalation_dispatch_failed", map[string]any{
			"tier":    string(decision.Tier),
			"trigger": string(decision.Trigger),
		})
		outcome.EscalationError = err.Error()
		return outcome
	}

	// Backend committed: the escalation exists regardless of what happens
	// to our caller from here on.
	now := time.Now().UTC()
	rec := &Record{
		ID:          id,
		UserID:      req.UserID,
		Tier:        decision.Tier,
		Trigger:     decision.Trigger,
		Status:      StatusInitiated,
		Severity:    string(req.Assessment.Severity),
		RiskFactors: req.Assessment.RiskFactors,
		Timeline:    Timeline{Initiated: now},
	}
	if resp.ResponderID != "" {
		rec.ResponderID = resp.ResponderID
		rec.Transition(StatusResponderAssigned, now)
	}

	// Persist with a fresh context: caller cancellation must not lose the
	// record of a dispatch that already happened.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.store.Save(saveCtx, rec); err != nil {
		log.Printf("[ESCALATION] record save failed for %s (dispatch already committed): %v", id, err)
	}

	outcome.EscalationInitiated = true
	outcome.EscalationID = id
	outcome.Status = string(rec.Status)
	outcome.ResponderID = rec.ResponderID
	log.Printf("[ESCALATION] initiated %s tier=%s trigger=%s responder=%s", id, decision.Tier, decision.Trigger, rec.ResponderID)
	return outcome
}
