package config

import (
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.ConfidenceFloor != 0.5 {
		t.Errorf("Expected default ConfidenceFloor 0.5, got %f", cfg.ConfidenceFloor)
	}
	if cfg.EscalationRiskFloor != 70 {
		t.Errorf("Expected default EscalationRiskFloor 70, got %d", cfg.EscalationRiskFloor)
	}
	if cfg.StatisticalTimeout != 800*time.Millisecond {
		t.Errorf("Expected default StatisticalTimeout 800ms, got %v", cfg.StatisticalTimeout)
	}
	if cfg.EscalationRetries != 1 {
		t.Errorf("Expected default EscalationRetries 1, got %d", cfg.EscalationRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestConfigProfiles(t *testing.T) {
	sensitive := NewHighSensitivityConfig()
	quiet := NewLowNoiseConfig()

	if sensitive.ConfidenceFloor >= quiet.ConfidenceFloor {
		t.Errorf("High sensitivity floor (%f) should be below low-noise floor (%f)",
			sensitive.ConfidenceFloor, quiet.ConfidenceFloor)
	}
	if sensitive.EscalationRiskFloor >= quiet.EscalationRiskFloor {
		t.Errorf("High sensitivity risk floor (%d) should be below low-noise (%d)",
			sensitive.EscalationRiskFloor, quiet.EscalationRiskFloor)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence floor above 1", func(c *Config) { c.ConfidenceFloor = 1.5 }},
		{"negative confidence floor", func(c *Config) { c.ConfidenceFloor = -0.1 }},
		{"zero degraded penalty", func(c *Config) { c.DegradedPenalty = 0 }},
		{"zero scorer timeout", func(c *Config) { c.StatisticalTimeout = 0 }},
		{"analysis budget below scorer budget", func(c *Config) { c.AnalysisTimeout = 100 * time.Millisecond }},
		{"unknown scorer backend", func(c *Config) { c.ScorerBackend = "quantum" }},
		{"missing overlay file", func(c *Config) { c.PatternOverlayPath = "/nonexistent/patterns.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("ASTRAL_TEST_STR", "hello")
	t.Setenv("ASTRAL_TEST_INT", "42")
	t.Setenv("ASTRAL_TEST_FLOAT", "0.75")
	t.Setenv("ASTRAL_TEST_BOOL", "true")

	if got := GetEnv("ASTRAL_TEST_STR", "x"); got != "hello" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnvInt("ASTRAL_TEST_INT", 0); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvFloat("ASTRAL_TEST_FLOAT", 0); got != 0.75 {
		t.Errorf("GetEnvFloat = %f", got)
	}
	if got := GetEnvBool("ASTRAL_TEST_BOOL", false); !got {
		t.Error("GetEnvBool = false, want true")
	}
	if got := GetEnvInt("ASTRAL_TEST_MISSING", 7); got != 7 {
		t.Errorf("GetEnvInt default = %d, want 7", got)
	}
}
