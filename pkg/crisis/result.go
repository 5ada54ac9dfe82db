package crisis

import (
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/resources"
)

// UrgencyLevel is how fast a human needs to be in the loop.
type UrgencyLevel string

const (
	UrgencyNone      UrgencyLevel = "none"
	UrgencyLow       UrgencyLevel = "low"
	UrgencyModerate  UrgencyLevel = "moderate"
	UrgencyHigh      UrgencyLevel = "high"
	UrgencyImmediate UrgencyLevel = "immediate"
)

// RiskAssessment is the fused read over all analyzer signals.
type RiskAssessment struct {
	Severity            Severity `json:"severity"`
	Confidence          float64  `json:"confidence"`
	HasCrisisIndicators bool     `json:"hasCrisisIndicators"`

	ImmediateRisk int `json:"immediateRisk"`
	ShortTermRisk int `json:"shortTermRisk"`
	LongTermRisk  int `json:"longTermRisk"`

	// InterventionUrgency is the bucketed form of UrgencyScore (0-100). The
	// score can exceed what severity alone implies when temporal markers or
	// session history raise it.
	InterventionUrgency UrgencyLevel `json:"interventionUrgency"`
	UrgencyScore        int          `json:"urgencyScore"`

	EscalationRequired        bool `json:"escalationRequired"`
	EmergencyServicesRequired bool `json:"emergencyServicesRequired"`
	HasTemporalUrgency        bool `json:"hasTemporalUrgency"`

	RiskFactors       []string `json:"riskFactors,omitempty"`
	ProtectiveFactors []string `json:"protectiveFactors,omitempty"`
}

// AnalysisMetadata records how the analysis went, not what it concluded.
// FlaggedConcerns is the operator-facing list of everything that went
// sideways: degraded layers, unusable model reads, empty input.
type AnalysisMetadata struct {
	ProcessedAt        time.Time        `json:"processedAt"`
	Language           string           `json:"language"`
	LanguageConfidence float64          `json:"languageConfidence"`
	MixedLanguage      bool             `json:"mixedLanguage,omitempty"`
	CulturalContext    string           `json:"culturalContext,omitempty"`
	FlaggedConcerns    []string         `json:"flaggedConcerns,omitempty"`
	DegradedLayers     []string         `json:"degradedLayers,omitempty"`
	LayerLatencyMs     map[string]int64 `json:"layerLatencyMs,omitempty"`
	TotalLatencyMs     int64            `json:"totalLatencyMs"`
	SessionRepeat      bool             `json:"sessionRepeat,omitempty"`
}

// EscalationOutcome reports what the escalation workflow did for this
// analysis. EscalationError is a report, never a propagated failure: the
// analysis result is complete with or without a successful escalation.
type EscalationOutcome struct {
	EscalationInitiated bool                 `json:"escalationInitiated"`
	EscalationID        string               `json:"escalationId,omitempty"`
	RecommendedTier     string               `json:"recommendedTier"`
	Status              string               `json:"status,omitempty"`
	ResponderID         string               `json:"responderId,omitempty"`
	EscalationError     string               `json:"escalationError,omitempty"`
	Recommendations     []resources.Resource `json:"recommendations,omitempty"`
}

// CrisisAnalysisResult is the full pipeline output for one message. Every
// analysis carries intervention recommendations; Escalation is set only when
// the assessment required one (dispatched or recommendation-only), never for
// a benign message.
type CrisisAnalysisResult struct {
	Assessment      RiskAssessment       `json:"assessment"`
	Signals         []CrisisSignal       `json:"signals"`
	Metadata        AnalysisMetadata     `json:"metadata"`
	Recommendations []resources.Resource `json:"interventionRecommendations,omitempty"`
	Escalation      *EscalationOutcome   `json:"escalation,omitempty"`
}
