package crisis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/retry"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/text"
)

// stubScorer is a deterministic scorer for pipeline tests.
type stubScorer struct {
	result *ScoreResult
	errs   []error
	calls  int
	delay  time.Duration
	ready  bool
}

func (s *stubScorer) Name() string { return "stub" }
func (s *stubScorer) Ready() bool  { return s.ready }

func (s *stubScorer) Score(ctx context.Context, input, language string) (*ScoreResult, error) {
	idx := s.calls
	s.calls++
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return s.result, nil
}

func TestStatisticalHappyPath(t *testing.T) {
	scorer := &stubScorer{ready: true, result: &ScoreResult{Severity: "high", Confidence: 0.82}}
	a := NewStatisticalAnalyzer(scorer, time.Second)

	sig := a.Analyze(context.Background(), text.Normalize("i do not want to exist anymore", ""))
	if sig.Severity != SeverityHigh {
		t.Fatalf("severity = %s, want high", sig.Severity)
	}
	if sig.Degraded {
		t.Error("healthy scorer should not degrade")
	}
	if sig.Risk.Immediate == 0 {
		t.Error("risk window should be derived when the scorer omits it")
	}
}

func TestStatisticalNoBackendDegrades(t *testing.T) {
	a := NewStatisticalAnalyzer(nil, time.Second)
	sig := a.Analyze(context.Background(), text.Normalize("anything", ""))
	if !sig.Degraded {
		t.Fatal("missing backend must produce a degraded signal")
	}
	if sig.Severity != SeverityNone || sig.Confidence != 0 {
		t.Errorf("degraded signal carries claims: %+v", sig)
	}

	notReady := NewStatisticalAnalyzer(&stubScorer{ready: false}, time.Second)
	if sig := notReady.Analyze(context.Background(), text.Normalize("anything", "")); !sig.Degraded {
		t.Fatal("not-ready backend must produce a degraded signal")
	}
}

func TestStatisticalTimeoutDegrades(t *testing.T) {
	scorer := &stubScorer{ready: true, delay: 200 * time.Millisecond,
		result: &ScoreResult{Severity: "high", Confidence: 0.8}}
	a := NewStatisticalAnalyzer(scorer, 20*time.Millisecond)

	sig := a.Analyze(context.Background(), text.Normalize("some message", ""))
	if !sig.Degraded {
		t.Fatal("timeout must degrade, not block")
	}
	if scorer.calls != 2 {
		t.Errorf("calls = %d, want 2 (timeouts are transient, retried once)", scorer.calls)
	}
}

func TestStatisticalTransientErrorRetried(t *testing.T) {
	scorer := &stubScorer{
		ready:  true,
		errs:   []error{retry.MarkTransient(errors.New("connection reset"))},
		result: &ScoreResult{Severity: "moderate", Confidence: 0.7},
	}
	a := NewStatisticalAnalyzer(scorer, time.Second)

	sig := a.Analyze(context.Background(), text.Normalize("some message", ""))
	if scorer.calls != 2 {
		t.Errorf("calls = %d, want 2", scorer.calls)
	}
	if sig.Degraded || sig.Severity != SeverityModerate {
		t.Errorf("retry should recover the read, got %+v", sig)
	}
}

func TestStatisticalPermanentErrorNotRetried(t *testing.T) {
	scorer := &stubScorer{ready: true, errs: []error{errors.New("bad model output")}}
	a := NewStatisticalAnalyzer(scorer, time.Second)

	sig := a.Analyze(context.Background(), text.Normalize("some message", ""))
	if scorer.calls != 1 {
		t.Errorf("calls = %d, want 1", scorer.calls)
	}
	if !sig.Degraded {
		t.Error("permanent scorer failure must degrade")
	}
}

func TestStatisticalUnknownLabelDegrades(t *testing.T) {
	scorer := &stubScorer{ready: true, result: &ScoreResult{Severity: "unknown", Confidence: 0.9}}
	a := NewStatisticalAnalyzer(scorer, time.Second)

	sig := a.Analyze(context.Background(), text.Normalize("some message", ""))
	if !sig.Degraded {
		t.Fatal("unusable model read must degrade")
	}
	if sig.Confidence != 0 {
		t.Errorf("confidence = %.2f, an unusable read can never clear the fusion floor", sig.Confidence)
	}
}
