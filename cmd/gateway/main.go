// Command gateway runs the Astral crisis detection gateway: an HTTP API that
// analyzes support-chat messages for crisis signals and drives the escalation
// workflow when an assessment demands it.
//
// Usage:
//
//	gateway                 start the HTTP server
//	gateway analyze <text>  analyze a single message and print the result
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/config"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/crisis"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/escalation"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/patterns"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/resources"
)

func main() {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	app, cleanup := buildApp(cfg)
	defer cleanup()

	if len(os.Args) > 1 && os.Args[1] == "analyze" {
		runAnalyzeCLI(app, strings.Join(os.Args[2:], " "))
		return
	}

	srv := newServer(app)
	log.Printf("[GATEWAY] listening on %s", cfg.ListenAddr)
	if err := srv.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("[GATEWAY] server exited: %v", err)
	}
}

// application is the wired pipeline shared by the server and the CLI.
type application struct {
	cfg       *config.Config
	analyzer  *crisis.CrisisAnalyzer
	registry  *patterns.Registry
	resources resources.Store
	records   escalation.RecordStore
}

// buildApp wires every component from config, logging each subsystem's state
// the same way at startup: ✓ for active, ○ for degraded or disabled.
func buildApp(cfg *config.Config) (*application, func()) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	registry := patterns.MustLoad(cfg.PatternOverlayPath)
	log.Printf("  ✓ Pattern registry (%d patterns, languages: %s)",
		registry.TotalPatterns(), strings.Join(registry.Languages(), ", "))

	cultural, err := crisis.NewCulturalAnalyzer(cfg.CulturalProfilePath)
	if err != nil {
		log.Fatalf("[GATEWAY] cultural profiles: %v", err)
	}
	log.Printf("  ✓ Cultural profiles")

	scorer := buildScorer(cfg, &cleanups)

	store := buildResourceStore(cfg, &cleanups)
	records := buildRecordStore(cfg, &cleanups)

	backend := buildBackend(cfg)
	orchestrator := escalation.NewOrchestrator(
		escalation.NewPolicy(store), backend, records,
		cfg.EscalationRetries, cfg.MaxConcurrentEscalations)

	var sessions *crisis.SessionTracker
	if cfg.EnableSessionTracking {
		sessions = crisis.NewSessionTracker(cfg.SessionWindow)
		log.Printf("  ✓ Session tracking (window %s)", cfg.SessionWindow)
	} else {
		log.Printf("  ○ Session tracking disabled")
	}

	analyzer := crisis.NewCrisisAnalyzer(crisis.AnalyzerConfig{
		Lexical:     crisis.NewLexicalAnalyzer(registry),
		Statistical: crisis.NewStatisticalAnalyzer(scorer, cfg.StatisticalTimeout),
		Cultural:    cultural,
		Escalator:   orchestrator,
		Sessions:    sessions,
		Fusion: crisis.FusionConfig{
			ConfidenceFloor:     cfg.ConfidenceFloor,
			EscalationRiskFloor: cfg.EscalationRiskFloor,
			DegradedPenalty:     cfg.DegradedPenalty,
		},
		Timeout: cfg.AnalysisTimeout,
	})

	return &application{
		cfg:       cfg,
		analyzer:  analyzer,
		registry:  registry,
		resources: store,
		records:   records,
	}, cleanup
}

// buildScorer picks the statistical backend per config: hugot when a model
// is present, semantic embeddings as the fallback, none as the last resort.
func buildScorer(cfg *config.Config, cleanups *[]func()) crisis.Scorer {
	tryHugot := cfg.ScorerBackend == config.ScorerAuto || cfg.ScorerBackend == config.ScorerHugot
	trySemantic := cfg.ScorerBackend == config.ScorerAuto || cfg.ScorerBackend == config.ScorerSemantic

	if tryHugot && cfg.ModelPath != "" {
		scorer := crisis.NewHugotScorerWithFallback(cfg.ModelPath)
		if scorer.Ready() {
			*cleanups = append(*cleanups, func() { _ = scorer.Close() })
			log.Printf("  ✓ Statistical scorer (hugot, model %s)", cfg.ModelPath)
			return scorer
		}
		if cfg.ScorerBackend == config.ScorerHugot {
			log.Printf("  ○ Statistical scorer unavailable (hugot model not ready)")
			return nil
		}
	}

	if trySemantic && cfg.EmbeddingURL != "" {
		scorer, err := crisis.NewSemanticScorer(cfg.EmbeddingURL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			if err := scorer.LoadSeeds(ctx); err == nil {
				log.Printf("  ✓ Statistical scorer (semantic, embeddings at %s)", cfg.EmbeddingURL)
				return scorer
			}
			log.Printf("  ○ Semantic scorer seeding failed: %v", err)
		} else {
			log.Printf("  ○ Semantic scorer unavailable: %v", err)
		}
	}

	log.Printf("  ○ Statistical scorer disabled (lexical + cultural only)")
	return nil
}

func buildResourceStore(cfg *config.Config, cleanups *[]func()) resources.Store {
	static := resources.NewStaticStore()
	if cfg.RedisURL == "" {
		log.Printf("  ○ Resource cache disabled (no Redis configured)")
		return static
	}
	cached, err := resources.NewCachedStore(static, cfg.RedisURL, cfg.ResourceTTL)
	if err != nil {
		log.Printf("  ○ Resource cache unavailable: %v", err)
		return static
	}
	*cleanups = append(*cleanups, func() { _ = cached.Close() })
	log.Printf("  ✓ Resource cache (Redis, TTL %s)", cfg.ResourceTTL)
	return cached
}

func buildRecordStore(cfg *config.Config, cleanups *[]func()) escalation.RecordStore {
	if cfg.PostgresURL == "" {
		log.Printf("  ○ Escalation records in memory (no Postgres configured)")
		return escalation.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := escalation.NewPGStore(ctx, cfg.PostgresURL)
	if err != nil {
		log.Printf("  ○ Postgres unavailable, escalation records in memory: %v", err)
		return escalation.NewMemoryStore()
	}
	*cleanups = append(*cleanups, store.Close)
	log.Printf("  ✓ Escalation records (Postgres)")
	return store
}

func buildBackend(cfg *config.Config) escalation.Backend {
	if cfg.EscalationURL == "" {
		log.Printf("  ○ Escalation backend not configured (manual escalation only)")
		return escalation.UnconfiguredBackend{}
	}
	log.Printf("  ✓ Escalation backend (%s, timeout %s)", cfg.EscalationURL, cfg.EscalationTimeout)
	return escalation.NewHTTPBackend(cfg.EscalationURL, cfg.EscalationAPIKey, cfg.EscalationTimeout)
}

func runAnalyzeCLI(app *application, input string) {
	if strings.TrimSpace(input) == "" {
		fmt.Fprintln(os.Stderr, "usage: gateway analyze <text>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := app.analyzer.Analyze(ctx, input, "", crisis.AnalyzeOptions{
		Region: app.cfg.DefaultRegion,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}
