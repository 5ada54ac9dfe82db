package crisis

// hugot_scorer.go - Local ML-based crisis severity scoring using Hugot/ONNX.
//
// Runs a text-classification model fully local, no external API calls. The
// scorer gracefully degrades: if ONNX Runtime or the model is unavailable the
// analyzer falls back to the semantic scorer or to lexical-only analysis.
//
// Build:
// - Standard: go build (pure Go backend, slower but no native dependencies)
// - With ORT: go build -tags ORT (ONNX Runtime, faster)

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotScorer scores text with a local classification model fine-tuned for
// crisis severity.
type HugotScorer struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	ready    bool
	model    string
}

// severityLabels maps model output labels onto pipeline severities. Models
// differ in label conventions; anything unrecognized is reported as
// "unknown" and becomes a degraded signal upstream, never a dropped one.
var severityLabels = map[string]string{
	"none":      "none",
	"safe":      "none",
	"low":       "low",
	"moderate":  "moderate",
	"concern":   "moderate",
	"high":      "high",
	"severe":    "high",
	"emergency": "emergency",
	"critical":  "emergency",
	"LABEL_0":   "none",
	"LABEL_1":   "low",
	"LABEL_2":   "moderate",
	"LABEL_3":   "high",
	"LABEL_4":   "emergency",
}

// NewHugotScorer initializes the session and pipeline for the model at
// modelPath (a directory containing model.onnx).
func NewHugotScorer(modelPath string) (*HugotScorer, error) {
	if _, err := os.Stat(filepath.Join(modelPath, "model.onnx")); err != nil {
		return nil, fmt.Errorf("no model at %s: %w", modelPath, err)
	}

	s := &HugotScorer{model: modelPath}

	session, err := createSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.session = session

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "crisis-severity-scorer",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	s.pipeline = pipeline
	s.ready = true
	log.Printf("[ML] hugot scorer initialized (model: %s)", modelPath)
	return s, nil
}

// NewHugotScorerWithFallback returns a scorer even when initialization fails;
// Ready reports false and the analyzer degrades instead of crashing at boot.
func NewHugotScorerWithFallback(modelPath string) *HugotScorer {
	s, err := NewHugotScorer(modelPath)
	if err != nil {
		log.Printf("[ML] WARNING: hugot scorer unavailable (degrading): %v", err)
		return &HugotScorer{model: modelPath}
	}
	return s
}

// createSession prefers the ONNX Runtime backend and falls back to the pure
// Go backend when the native library is absent.
func createSession() (*hugot.Session, error) {
	if libDir := onnxLibraryDir(); libDir != "" {
		session, err := hugot.NewORTSession(options.WithOnnxLibraryPath(libDir))
		if err == nil {
			log.Printf("[ML] hugot using ONNX Runtime backend")
			return session, nil
		}
		log.Printf("[ML] ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create Go session: %w", err)
	}
	log.Printf("[ML] hugot using pure Go backend")
	return session, nil
}

func onnxLibraryDir() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}

func (s *HugotScorer) Name() string { return "hugot" }

func (s *HugotScorer) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Score classifies a single message. The language parameter is unused: the
// model is multilingual and reads raw text.
func (s *HugotScorer) Score(ctx context.Context, input, language string) (*ScoreResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.pipeline == nil {
		return nil, fmt.Errorf("hugot scorer not ready")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.pipeline.RunPipeline([]string{input})
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return &ScoreResult{Severity: "unknown"}, nil
	}

	out := result.ClassificationOutputs[0][0]
	severity, ok := severityLabels[out.Label]
	if !ok {
		severity, ok = severityLabels[strings.ToLower(out.Label)]
		if !ok {
			severity = "unknown"
		}
	}

	return &ScoreResult{
		Severity:   severity,
		Confidence: float64(out.Score),
		Rationale:  []string{fmt.Sprintf("model label %q (%.2f)", out.Label, out.Score)},
	}, nil
}

// Close releases the ONNX session.
func (s *HugotScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return fmt.Errorf("destroy session: %w", err)
		}
	}
	return nil
}
