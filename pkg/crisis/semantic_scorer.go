package crisis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/httputil"
)

// seedPhrase is one canonical crisis phrasing embedded into the vector store.
type seedPhrase struct {
	Text     string
	Category string
	Language string
	Severity string
}

// SemanticScorer is the fallback statistical backend: embedding similarity
// against canonical crisis phrasings via chromem-go. It catches paraphrases
// and euphemisms the pattern tables miss, at lower confidence than a real
// classifier would give.
type SemanticScorer struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// NewSemanticScorer builds a scorer embedding through an Ollama-compatible
// /api/embeddings endpoint.
func NewSemanticScorer(embeddingURL string) (*SemanticScorer, error) {
	if embeddingURL == "" {
		return nil, fmt.Errorf("no embedding endpoint configured")
	}
	return NewSemanticScorerWithEmbedder(ollamaEmbeddingFunc("nomic-embed-text", embeddingURL))
}

// NewSemanticScorerWithEmbedder builds a scorer on any embedding function;
// tests use a deterministic local one.
func NewSemanticScorerWithEmbedder(embed chromem.EmbeddingFunc) (*SemanticScorer, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection("crisis_phrasings", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &SemanticScorer{
		db:         db,
		collection: collection,
		threshold:  0.65,
	}, nil
}

func ollamaEmbeddingFunc(model, baseURL string) chromem.EmbeddingFunc {
	client := httputil.MediumClient()

	return func(ctx context.Context, text string) ([]float32, error) {
		body, err := json.Marshal(map[string]string{"model": model, "prompt": text})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embedding request: %w", err)
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embedding endpoint returned %d", resp.StatusCode)
		}
		var out struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		return out.Embedding, nil
	}
}

// LoadSeeds embeds the canonical phrasing set. Must be called before Score;
// Ready reports false until it succeeds.
func (s *SemanticScorer) LoadSeeds(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeds := crisisSeedPhrases()
	docs := make([]chromem.Document, len(seeds))
	for i, p := range seeds {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("seed_%d", i),
			Content: p.Text,
			Metadata: map[string]string{
				"category": p.Category,
				"language": p.Language,
				"severity": p.Severity,
			},
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add seed phrasings: %w", err)
	}
	s.ready = true
	return nil
}

func (s *SemanticScorer) Name() string { return "semantic" }

func (s *SemanticScorer) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Score queries the vector store for the closest crisis phrasing. Below the
// similarity threshold the read is none-severity; above it, the matched
// seed's severity scaled by similarity. Similarity is not a classifier
// probability, so confidence is capped below what the hugot backend reports.
func (s *SemanticScorer) Score(ctx context.Context, input, language string) (*ScoreResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, fmt.Errorf("semantic scorer not seeded")
	}

	results, err := s.collection.Query(ctx, strings.ToLower(input), 3, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(results) == 0 {
		return &ScoreResult{Severity: "none"}, nil
	}

	best := results[0]
	if best.Similarity < s.threshold || best.Metadata["severity"] == "none" {
		return &ScoreResult{
			Severity:   "none",
			Confidence: 0.2,
			Rationale:  []string{"no crisis phrasing above similarity threshold"},
		}, nil
	}

	confidence := float64(best.Similarity) * 0.85
	if confidence > 0.85 {
		confidence = 0.85
	}
	return &ScoreResult{
		Severity:   best.Metadata["severity"],
		Confidence: confidence,
		Rationale: []string{
			fmt.Sprintf("similar to %s phrasing (%.2f): %q",
				best.Metadata["category"], best.Similarity, best.Content),
		},
	}, nil
}

var (
	cachedSeeds     []seedPhrase
	cachedSeedsOnce sync.Once
)

// crisisSeedPhrases is the curated phrasing set the vector store is seeded
// with. Benign entries exist purely for false-positive prevention: a support
// chat message closest to a benign seed scores none.
func crisisSeedPhrases() []seedPhrase {
	cachedSeedsOnce.Do(func() {
		cachedSeeds = []seedPhrase{
			// Direct intent
			{"I am going to kill myself", "suicide-plan", "en", "emergency"},
			{"I want to end my life tonight", "suicide-plan", "en", "emergency"},
			{"I have the pills ready and I am going to take them all", "suicide-plan", "en", "emergency"},
			{"I wrote my goodbye letter already", "suicide-plan", "en", "emergency"},
			{"There is no point anymore, this is my last night", "suicide-plan", "en", "emergency"},

			// Ideation and paraphrase
			{"I wish I could go to sleep and never wake up", "suicidal-ideation", "en", "high"},
			{"Everyone would be happier if I just disappeared", "suicidal-ideation", "en", "high"},
			{"I do not want to exist anymore", "suicidal-ideation", "en", "high"},
			{"I keep thinking about ending everything", "suicidal-ideation", "en", "high"},
			{"I am so tired of being alive", "suicidal-ideation", "en", "moderate"},

			// Self harm
			{"I have been cutting myself again", "self-harm", "en", "high"},
			{"I hurt myself when the feelings get too big", "self-harm", "en", "high"},

			// Violence
			{"I am going to make them all pay for what they did", "violence", "en", "high"},
			{"I want to hurt the people who hurt me", "violence", "en", "high"},

			// Medical
			{"I already took a whole bottle of pills", "medical-emergency", "en", "emergency"},
			{"I think I overdosed, everything is spinning", "medical-emergency", "en", "emergency"},

			// Hopelessness
			{"Nothing is ever going to get better for me", "hopelessness", "en", "moderate"},
			{"I feel completely trapped with no way out", "hopelessness", "en", "moderate"},
			{"I am a burden on everyone around me", "hopelessness", "en", "moderate"},

			// Spanish
			{"me quiero quitar la vida", "suicide-plan", "es", "emergency"},
			{"ya no quiero seguir viviendo", "suicidal-ideation", "es", "high"},
			{"me estoy haciendo daño otra vez", "self-harm", "es", "high"},
			{"no puedo más con esta vida", "hopelessness", "es", "moderate"},

			// Benign anchors
			{"I am stressed about my exams this week", "benign", "en", "none"},
			{"work has been exhausting lately", "benign", "en", "none"},
			{"I had an argument with my friend and I feel sad", "benign", "en", "none"},
			{"my favorite show got cancelled and I am annoyed", "benign", "en", "none"},
			{"estoy cansado del trabajo", "benign", "es", "none"},
		}
	})
	return cachedSeeds
}
