package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/crisis"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/patterns"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/resources"
)

// Full path: raw message through the analyzer into a dispatched escalation.
func newPipeline(t *testing.T, backend Backend, store RecordStore) *crisis.CrisisAnalyzer {
	t.Helper()
	cultural, err := crisis.NewCulturalAnalyzer("")
	if err != nil {
		t.Fatal(err)
	}
	return crisis.NewCrisisAnalyzer(crisis.AnalyzerConfig{
		Lexical:     crisis.NewLexicalAnalyzer(patterns.MustLoad("")),
		Statistical: crisis.NewStatisticalAnalyzer(nil, 100*time.Millisecond),
		Cultural:    cultural,
		Escalator:   NewOrchestrator(NewPolicy(resources.NewStaticStore()), backend, store, 1, 8),
		Fusion: crisis.FusionConfig{
			ConfidenceFloor:     0.5,
			EscalationRiskFloor: 70,
			DegradedPenalty:     0.8,
		},
	})
}

func TestPipelineEmergencyDispatch(t *testing.T) {
	backend := &stubBackend{responses: []func() (*InitiateResponse, error){accept("resp-9")}}
	store := NewMemoryStore()
	analyzer := newPipeline(t, backend, store)

	result := analyzer.Analyze(context.Background(),
		"I'm going to kill myself tonight", "user-9", crisis.AnalyzeOptions{Region: "US"})

	if result.Escalation == nil || !result.Escalation.EscalationInitiated {
		t.Fatalf("escalation not initiated: %+v", result.Escalation)
	}
	if result.Escalation.RecommendedTier != string(TierEmergencyServices) {
		t.Errorf("tier = %s, want emergency-services", result.Escalation.RecommendedTier)
	}

	rec, err := store.Get(context.Background(), result.Escalation.EscalationID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.UserID != "user-9" || rec.Severity != string(crisis.SeverityEmergency) {
		t.Errorf("record = %+v", rec)
	}
	if len(result.Escalation.Recommendations) == 0 {
		t.Error("dispatch outcome missing support recommendations")
	}
}

func TestPipelineBackendDownDegradesToManual(t *testing.T) {
	backend := &stubBackend{responses: []func() (*InitiateResponse, error){
		func() (*InitiateResponse, error) { return failTransient() },
	}}
	store := NewMemoryStore()
	analyzer := newPipeline(t, backend, store)

	result := analyzer.Analyze(context.Background(),
		"I'm going to kill myself tonight", "user-10", crisis.AnalyzeOptions{Region: "US"})

	// The detection result is intact; only the dispatch failed.
	if result.Assessment.Severity != crisis.SeverityEmergency {
		t.Fatalf("severity = %s", result.Assessment.Severity)
	}
	if result.Escalation == nil {
		t.Fatal("no escalation outcome")
	}
	if result.Escalation.EscalationInitiated {
		t.Error("failed dispatch reported as initiated")
	}
	if result.Escalation.EscalationError == "" {
		t.Error("dispatch failure not reported for manual handling")
	}
	recs, _ := store.ListByUser(context.Background(), "user-10")
	if len(recs) != 0 {
		t.Errorf("phantom records: %d", len(recs))
	}
}
