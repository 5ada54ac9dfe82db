package crisis

import (
	"context"
	"fmt"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/retry"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/text"
)

// ScoreResult is what a scorer backend returns: a severity label with a
// confidence and optional per-window estimates.
type ScoreResult struct {
	// Severity label: none/low/moderate/high/emergency, or "unknown" when
	// the model cannot produce a usable read for this input.
	Severity   string
	Confidence float64
	Risk       RiskWindow
	Rationale  []string
}

// Scorer is a statistical crisis scorer backend. Implementations must honor
// ctx; the analyzer enforces a hard timeout around every call.
type Scorer interface {
	Score(ctx context.Context, input string, language string) (*ScoreResult, error)
	Name() string
	Ready() bool
}

// StatisticalAnalyzer wraps a scorer backend with the failure policy the
// crisis path requires: a hard per-call timeout, one bounded retry for
// transient errors, and degradation to a zero-confidence signal when the
// backend cannot answer. Model trouble never surfaces as an analysis error.
type StatisticalAnalyzer struct {
	scorer  Scorer
	timeout time.Duration
	policy  retry.Policy
}

func NewStatisticalAnalyzer(scorer Scorer, timeout time.Duration) *StatisticalAnalyzer {
	return &StatisticalAnalyzer{
		scorer:  scorer,
		timeout: timeout,
		policy:  retry.SingleRetry(50 * time.Millisecond),
	}
}

// Analyze produces the statistical signal.
func (a *StatisticalAnalyzer) Analyze(ctx context.Context, nt text.NormalizedText) CrisisSignal {
	start := time.Now()

	signal := a.analyze(ctx, nt)
	signal.LatencyMs = time.Since(start).Milliseconds()
	return signal
}

func (a *StatisticalAnalyzer) analyze(ctx context.Context, nt text.NormalizedText) CrisisSignal {
	if a.scorer == nil || !a.scorer.Ready() {
		return degradedSignal(SourceStatistical, "no scorer backend available")
	}
	if nt.Empty {
		sig := degradedSignal(SourceStatistical, "empty input")
		sig.Degraded = false
		return sig
	}

	var result *ScoreResult
	err := a.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		r, err := a.scorer.Score(callCtx, nt.Text, nt.Language)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return degradedSignal(SourceStatistical,
			fmt.Sprintf("scorer %s failed: %v", a.scorer.Name(), err))
	}

	return signalFromScore(result)
}

// signalFromScore converts a backend result into a pipeline signal. An
// "unknown" or unparseable severity label becomes a degraded signal with zero
// confidence, so it can never set the fused severity, but the read is still
// recorded for the metadata.
func signalFromScore(result *ScoreResult) CrisisSignal {
	signal := CrisisSignal{
		Source:     SourceStatistical,
		Confidence: result.Confidence,
		Risk:       result.Risk,
		Rationale:  result.Rationale,
	}

	sev, err := ParseSeverity(result.Severity)
	if err != nil {
		signal.Severity = SeverityNone
		signal.Confidence = 0
		signal.Degraded = true
		signal.Note = fmt.Sprintf("model returned unusable severity %q", result.Severity)
		return signal
	}
	signal.Severity = sev

	if signal.Risk.Immediate == 0 && sev != SeverityNone {
		signal.Risk = deriveRisk(sev, signal.Risk.Urgency, 1, 0)
	}
	return signal
}
