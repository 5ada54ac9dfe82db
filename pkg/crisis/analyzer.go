package crisis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/text"
)

// EscalationRequest is what the analyzer hands the escalation workflow.
type EscalationRequest struct {
	UserID     string
	Assessment RiskAssessment
	Region     string
	Language   string
	Context    map[string]string
}

// Escalator runs the escalation workflow; pkg/escalation implements it.
// Escalate dispatches a responder; Recommend produces tier and support
// recommendations without dispatching (used when escalation is assessed but
// cannot or should not be initiated).
type Escalator interface {
	Escalate(ctx context.Context, req EscalationRequest) *EscalationOutcome
	Recommend(ctx context.Context, assessment RiskAssessment, region, language string) *EscalationOutcome
}

// AnalyzeOptions carries per-request context for one analysis.
type AnalyzeOptions struct {
	// LanguageHint is a BCP 47 tag from the user's profile; it helps the
	// detector on short messages and is never trusted over the text itself.
	LanguageHint string

	// CulturalContext selects a cultural profile. Empty means no cultural
	// adjustment.
	CulturalContext string

	// SessionID enables repeat-signal tracking within a session.
	SessionID string

	// Region localizes support recommendations.
	Region string
}

// CrisisAnalyzer is the pipeline entry point: normalize, fan out the three
// analyzers, fuse, and run escalation when the fused assessment demands it.
type CrisisAnalyzer struct {
	lexical     *LexicalAnalyzer
	statistical *StatisticalAnalyzer
	cultural    *CulturalAnalyzer
	escalator   Escalator
	sessions    *SessionTracker
	fusion      FusionConfig
	timeout     time.Duration
}

// AnalyzerConfig wires a CrisisAnalyzer.
type AnalyzerConfig struct {
	Lexical     *LexicalAnalyzer
	Statistical *StatisticalAnalyzer
	Cultural    *CulturalAnalyzer
	Escalator   Escalator
	Sessions    *SessionTracker
	Fusion      FusionConfig

	// Timeout bounds the whole analysis fan-out.
	Timeout time.Duration
}

func NewCrisisAnalyzer(cfg AnalyzerConfig) *CrisisAnalyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &CrisisAnalyzer{
		lexical:     cfg.Lexical,
		statistical: cfg.Statistical,
		cultural:    cfg.Cultural,
		escalator:   cfg.Escalator,
		sessions:    cfg.Sessions,
		fusion:      cfg.Fusion,
		timeout:     timeout,
	}
}

// Analyze runs the full pipeline for one message. It never returns an error:
// every failure mode inside the pipeline degrades into the result's metadata.
// userID may be empty; escalation is then assessed and recommended but never
// dispatched, because there is no identity to dispatch for.
func (a *CrisisAnalyzer) Analyze(ctx context.Context, input, userID string, opts AnalyzeOptions) *CrisisAnalysisResult {
	started := time.Now()

	nt := text.Normalize(input, opts.LanguageHint)

	result := &CrisisAnalysisResult{
		Metadata: AnalysisMetadata{
			ProcessedAt:        started.UTC(),
			Language:           nt.Language,
			LanguageConfidence: nt.Confidence,
			MixedLanguage:      nt.MixedLanguage,
			CulturalContext:    opts.CulturalContext,
		},
	}

	if nt.Empty {
		result.Assessment = Aggregate(nil, a.fusion)
		result.Metadata.FlaggedConcerns = append(result.Metadata.FlaggedConcerns, "empty input after normalization")
		result.Metadata.TotalLatencyMs = time.Since(started).Milliseconds()
		return result
	}

	signals := a.fanOut(ctx, nt, opts.CulturalContext)
	result.Signals = signals
	result.Assessment = Aggregate(signals, a.fusion)

	a.recordSignalHealth(result)

	if a.sessions != nil && opts.SessionID != "" {
		if a.sessions.Observe(opts.SessionID, result.Assessment.Severity) {
			result.Metadata.SessionRepeat = true
			result.Assessment.UrgencyScore = clamp(result.Assessment.UrgencyScore + 10)
			result.Assessment.InterventionUrgency = UrgencyFor(result.Assessment.UrgencyScore)
		}
	}

	a.runEscalation(ctx, userID, nt.Language, opts, result)

	result.Metadata.TotalLatencyMs = time.Since(started).Milliseconds()
	return result
}

// fanOut runs the three analyzers concurrently. Signal order in the returned
// slice is fixed (lexical, statistical, cultural) so downstream consumers and
// fusion see a deterministic layout regardless of completion order.
func (a *CrisisAnalyzer) fanOut(ctx context.Context, nt text.NormalizedText, culturalContext string) []CrisisSignal {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	signals := make([]CrisisSignal, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		signals[0] = a.lexical.Analyze(nt)
	}()
	go func() {
		defer wg.Done()
		signals[1] = a.statistical.Analyze(ctx, nt)
	}()
	go func() {
		defer wg.Done()
		signals[2] = a.cultural.Analyze(nt, culturalContext)
	}()

	wg.Wait()
	return signals
}

func (a *CrisisAnalyzer) recordSignalHealth(result *CrisisAnalysisResult) {
	md := &result.Metadata
	if md.LayerLatencyMs == nil {
		md.LayerLatencyMs = make(map[string]int64, len(result.Signals))
	}
	for _, s := range result.Signals {
		md.LayerLatencyMs[string(s.Source)] = s.LatencyMs
		if s.Degraded {
			md.DegradedLayers = append(md.DegradedLayers, string(s.Source))
			md.FlaggedConcerns = append(md.FlaggedConcerns,
				fmt.Sprintf("%s layer degraded: %s", s.Source, s.Note))
		} else if s.Note != "" {
			md.FlaggedConcerns = append(md.FlaggedConcerns,
				fmt.Sprintf("%s: %s", s.Source, s.Note))
		}
	}
}

// runEscalation applies the dispatch rules: a required escalation with a
// known user dispatches; without an identity it is recommendation-only. A
// non-required assessment gets top-level recommendations and no escalation
// outcome at all.
func (a *CrisisAnalyzer) runEscalation(ctx context.Context, userID, language string, opts AnalyzeOptions, result *CrisisAnalysisResult) {
	if a.escalator == nil {
		return
	}

	if !result.Assessment.EscalationRequired {
		if rec := a.escalator.Recommend(ctx, result.Assessment, opts.Region, language); rec != nil {
			result.Recommendations = rec.Recommendations
		}
		return
	}

	if userID == "" {
		result.Escalation = a.escalator.Recommend(ctx, result.Assessment, opts.Region, language)
		if result.Escalation != nil {
			result.Recommendations = result.Escalation.Recommendations
		}
		result.Metadata.FlaggedConcerns = append(result.Metadata.FlaggedConcerns,
			"escalation required but no user identity; recommendation only")
		return
	}

	result.Escalation = a.escalator.Escalate(ctx, EscalationRequest{
		UserID:     userID,
		Assessment: result.Assessment,
		Region:     opts.Region,
		Language:   language,
		Context: map[string]string{
			"culturalContext": opts.CulturalContext,
			"sessionId":       opts.SessionID,
		},
	})
	if result.Escalation != nil {
		result.Recommendations = result.Escalation.Recommendations
	}
}
