package main

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/crisis"
)

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	Text            string `json:"text"`
	UserID          string `json:"userId,omitempty"`
	SessionID       string `json:"sessionId,omitempty"`
	LanguageHint    string `json:"languageHint,omitempty"`
	CulturalContext string `json:"culturalContext,omitempty"`
	Region          string `json:"region,omitempty"`
}

const maxMessageBytes = 16 * 1024

// newServer builds the HTTP surface over a wired application.
func newServer(app *application) *fiber.App {
	srv := fiber.New(fiber.Config{
		AppName:   "astral-crisis-gateway",
		BodyLimit: maxMessageBytes * 2,
	})

	srv.Get("/health", app.handleHealth)
	srv.Post("/analyze", app.handleAnalyze)
	srv.Get("/resources/:region", app.handleResources)

	return srv
}

func (a *application) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"patterns":  a.registry.TotalPatterns(),
		"languages": a.registry.Languages(),
	})
}

// handleAnalyze runs the pipeline for one message. Analysis itself never
// fails; only an unreadable request or an oversized message is a client
// error. The user's text is never logged.
func (a *application) handleAnalyze(c fiber.Ctx) error {
	var req analyzeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if len(req.Text) > maxMessageBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "message too large",
		})
	}

	region := req.Region
	if region == "" {
		region = a.cfg.DefaultRegion
	}

	started := time.Now()
	result := a.analyzer.Analyze(c.Context(), req.Text, req.UserID, crisis.AnalyzeOptions{
		LanguageHint:    req.LanguageHint,
		CulturalContext: req.CulturalContext,
		SessionID:       req.SessionID,
		Region:          region,
	})

	log.Printf("[ANALYZE] severity=%s confidence=%.2f escalation=%v lang=%s took=%s",
		result.Assessment.Severity, result.Assessment.Confidence,
		result.Assessment.EscalationRequired, result.Metadata.Language,
		time.Since(started).Round(time.Millisecond))

	return c.JSON(result)
}

func (a *application) handleResources(c fiber.Ctx) error {
	region := strings.ToUpper(c.Params("region"))
	language := c.Query("lang", a.cfg.DefaultLocale)

	out, err := a.resources.Lookup(c.Context(), region, language)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "resource lookup failed",
		})
	}
	return c.JSON(fiber.Map{
		"region":    region,
		"language":  language,
		"resources": out,
	})
}
