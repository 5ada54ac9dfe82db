package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ScorerBackend defines which statistical scorer implementation to use.
type ScorerBackend string

const (
	ScorerAuto     ScorerBackend = "auto"     // ONNX model if available, semantic fallback otherwise
	ScorerHugot    ScorerBackend = "hugot"    // Local ONNX model only
	ScorerSemantic ScorerBackend = "semantic" // Embedding-similarity scorer only
	ScorerNone     ScorerBackend = "none"     // Lexical + cultural signals only
)

// Config holds global settings for the Astral crisis gateway.
// All settings can be configured via environment variables or programmatically.
// Configuration is loaded once at startup and passed explicitly into each
// component; nothing reads it mid-request.
type Config struct {
	// === Core Settings ===
	ListenAddr    string // HTTP listen address (default: ":3000")
	DefaultRegion string // Fallback region for resource lookups (default: "us")
	DefaultLocale string // Fallback language when detection is inconclusive (default: "en")

	// === Aggregation Thresholds ===
	ConfidenceFloor     float64 // Signals below this confidence do not set overall severity (default: 0.5)
	EscalationRiskFloor int     // immediateRisk at or above this requires escalation (default: 70)
	DegradedPenalty     float64 // Confidence multiplier when any analyzer degraded (default: 0.8)

	// === Per-Analyzer Timeouts ===
	// A slow analyzer degrades its own signal; it never stalls the others.
	StatisticalTimeout time.Duration // Statistical scorer budget (default: 800ms)
	AnalysisTimeout    time.Duration // Overall fan-out budget (default: 2s)

	// === Statistical Scorer ===
	ScorerBackend ScorerBackend // auto | hugot | semantic | none
	ModelPath     string        // ONNX model directory for the hugot scorer
	EmbeddingURL  string        // Ollama-compatible embedding endpoint for the semantic scorer

	// === Escalation Backend ===
	EscalationURL            string        // Responder dispatch endpoint; empty = manual escalation only
	EscalationAPIKey         string        // Bearer token for the dispatch endpoint
	EscalationTimeout        time.Duration // Per-attempt backend timeout (default: 3s)
	EscalationRetries        int           // Extra attempts for transient failures (default: 1)
	MaxConcurrentEscalations int           // Semaphore bound on in-flight backend calls (default: 32)

	// === Pattern & Profile Overlays ===
	PatternOverlayPath  string // Optional YAML file merged into the built-in pattern table
	CulturalProfilePath string // Optional YAML file merged into the built-in cultural profiles

	// === Resource Store ===
	RedisURL    string        // Optional Redis cache for resource lookups (e.g. "redis://localhost:6379")
	ResourceTTL time.Duration // Cache TTL for localized resources (default: 1h)

	// === Postgres Record Store ===
	PostgresURL string // Optional DSN for the escalation audit store; empty = in-memory

	// === Session Tracking ===
	EnableSessionTracking bool          // Repeat-signal urgency boost within a conversation
	SessionWindow         time.Duration // How long a session's signal history is kept (default: 30m)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr:    GetEnv("ASTRAL_LISTEN_ADDR", ":3000"),
		DefaultRegion: GetEnv("ASTRAL_DEFAULT_REGION", "us"),
		DefaultLocale: GetEnv("ASTRAL_DEFAULT_LOCALE", "en"),

		ConfidenceFloor:     GetEnvFloat("ASTRAL_CONFIDENCE_FLOOR", 0.5),
		EscalationRiskFloor: clampInt(GetEnvInt("ASTRAL_ESCALATION_RISK_FLOOR", 70), 1, 100),
		DegradedPenalty:     GetEnvFloat("ASTRAL_DEGRADED_PENALTY", 0.8),

		StatisticalTimeout: time.Duration(GetEnvInt("ASTRAL_SCORER_TIMEOUT_MS", 800)) * time.Millisecond,
		AnalysisTimeout:    time.Duration(GetEnvInt("ASTRAL_ANALYSIS_TIMEOUT_MS", 2000)) * time.Millisecond,

		ScorerBackend: ScorerBackend(GetEnv("ASTRAL_SCORER_BACKEND", "auto")),
		ModelPath:     GetEnv("ASTRAL_MODEL_PATH", ""),
		EmbeddingURL:  GetEnv("ASTRAL_EMBEDDING_URL", ""),

		EscalationURL:            GetEnv("ASTRAL_ESCALATION_URL", ""),
		EscalationAPIKey:         GetEnv("ASTRAL_ESCALATION_API_KEY", ""),
		EscalationTimeout:        time.Duration(GetEnvInt("ASTRAL_ESCALATION_TIMEOUT_MS", 3000)) * time.Millisecond,
		EscalationRetries:        clampInt(GetEnvInt("ASTRAL_ESCALATION_RETRIES", 1), 0, 3),
		MaxConcurrentEscalations: clampInt(GetEnvInt("ASTRAL_MAX_ESCALATIONS", 32), 1, 1024),

		PatternOverlayPath:  GetEnv("ASTRAL_PATTERN_OVERLAY", ""),
		CulturalProfilePath: GetEnv("ASTRAL_CULTURAL_PROFILES", ""),

		RedisURL:    GetEnv("ASTRAL_REDIS_URL", ""),
		ResourceTTL: time.Duration(GetEnvInt("ASTRAL_RESOURCE_TTL_SECONDS", 3600)) * time.Second,

		PostgresURL: GetEnv("ASTRAL_POSTGRES_URL", ""),

		EnableSessionTracking: GetEnvBool("ASTRAL_SESSION_TRACKING", true),
		SessionWindow:         time.Duration(GetEnvInt("ASTRAL_SESSION_WINDOW_SECONDS", 1800)) * time.Second,
	}
}

// NewHighSensitivityConfig creates a Config tuned to miss fewer crises at the
// cost of more false escalations. Intended for populations with known elevated
// risk (e.g. a dedicated crisis line rather than general support chat).
func NewHighSensitivityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ConfidenceFloor = 0.35
	cfg.EscalationRiskFloor = 55
	return cfg
}

// NewLowNoiseConfig creates a Config that minimizes false escalations.
// Use only where a human moderator reviews every conversation anyway.
func NewLowNoiseConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ConfidenceFloor = 0.65
	cfg.EscalationRiskFloor = 80
	return cfg
}

// Validate checks that the loaded configuration is internally consistent.
// Configuration errors are the only fatal error class in this system: they
// must surface before the first request is served, never mid-request.
func (c *Config) Validate() error {
	var problems []string

	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		problems = append(problems, fmt.Sprintf("ASTRAL_CONFIDENCE_FLOOR must be in [0,1], got %.2f", c.ConfidenceFloor))
	}
	if c.DegradedPenalty <= 0 || c.DegradedPenalty > 1 {
		problems = append(problems, fmt.Sprintf("ASTRAL_DEGRADED_PENALTY must be in (0,1], got %.2f", c.DegradedPenalty))
	}
	if c.StatisticalTimeout <= 0 {
		problems = append(problems, "ASTRAL_SCORER_TIMEOUT_MS must be positive")
	}
	if c.AnalysisTimeout < c.StatisticalTimeout {
		problems = append(problems, "ASTRAL_ANALYSIS_TIMEOUT_MS must not be smaller than the scorer timeout")
	}
	switch c.ScorerBackend {
	case ScorerAuto, ScorerHugot, ScorerSemantic, ScorerNone:
	default:
		problems = append(problems, fmt.Sprintf("ASTRAL_SCORER_BACKEND must be one of auto|hugot|semantic|none, got %q", c.ScorerBackend))
	}
	if c.PatternOverlayPath != "" {
		if _, err := os.Stat(c.PatternOverlayPath); err != nil {
			problems = append(problems, fmt.Sprintf("ASTRAL_PATTERN_OVERLAY: %v", err))
		}
	}
	if c.CulturalProfilePath != "" {
		if _, err := os.Stat(c.CulturalProfilePath); err != nil {
			problems = append(problems, fmt.Sprintf("ASTRAL_CULTURAL_PROFILES: %v", err))
		}
	}
	if c.EscalationURL != "" && c.EscalationAPIKey == "" {
		log.Printf("[STARTUP] Warning: ASTRAL_ESCALATION_URL set without ASTRAL_ESCALATION_API_KEY; backend calls will be unauthenticated")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before serving any request.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// clampInt ensures a value is within bounds.
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
