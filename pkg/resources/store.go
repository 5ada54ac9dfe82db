// Package resources serves localized crisis support resources: hotlines,
// text lines, and coping guidance keyed by region and language. The static
// table is the source of truth; a Redis read-through cache sits in front of
// it for deployments where the table is served to every analysis response.
package resources

import (
	"context"
	"strings"
)

// Kind classifies a support resource.
type Kind string

const (
	KindHotline  Kind = "hotline"
	KindTextLine Kind = "text-line"
	KindCoping   Kind = "coping"
)

// Resource is one support option offered to a user.
type Resource struct {
	Region   string `json:"region"`
	Language string `json:"language"`
	Name     string `json:"name"`
	Contact  string `json:"contact,omitempty"`
	Kind     Kind   `json:"kind"`
	Text     string `json:"text"`
}

// Store looks up resources for a region and language. Implementations never
// return an empty set for a known need: unknown regions fall back to the
// global table.
type Store interface {
	Lookup(ctx context.Context, region, language string) ([]Resource, error)
}

// StaticStore serves the built-in table.
type StaticStore struct{}

func NewStaticStore() *StaticStore { return &StaticStore{} }

// Lookup returns region-specific resources when available, global ones
// otherwise, always filtered to the closest language match. It cannot fail;
// the error return exists for the Store interface.
func (s *StaticStore) Lookup(_ context.Context, region, language string) ([]Resource, error) {
	region = strings.ToUpper(region)
	base := builtinResources[region]
	if len(base) == 0 {
		base = builtinResources["GLOBAL"]
	}

	out := filterLanguage(base, language)
	// Coping guidance applies everywhere.
	out = append(out, filterLanguage(copingResources, language)...)
	return out, nil
}

func filterLanguage(in []Resource, language string) []Resource {
	if language == "" {
		language = "en"
	}
	var exact, english []Resource
	for _, r := range in {
		switch r.Language {
		case language:
			exact = append(exact, r)
		case "en":
			english = append(english, r)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return english
}

var builtinResources = map[string][]Resource{
	"US": {
		{Region: "US", Language: "en", Name: "988 Suicide & Crisis Lifeline", Contact: "988", Kind: KindHotline,
			Text: "Call or text 988 to reach a trained crisis counselor, free and confidential, 24/7."},
		{Region: "US", Language: "en", Name: "Crisis Text Line", Contact: "741741", Kind: KindTextLine,
			Text: "Text HOME to 741741 to connect with a volunteer crisis counselor."},
		{Region: "US", Language: "es", Name: "Línea 988 de Prevención del Suicidio", Contact: "988", Kind: KindHotline,
			Text: "Llama o envía un mensaje de texto al 988 para hablar con un consejero, gratis y confidencial, 24/7."},
	},
	"UK": {
		{Region: "UK", Language: "en", Name: "Samaritans", Contact: "116 123", Kind: KindHotline,
			Text: "Call 116 123 any time, day or night, free from any phone."},
		{Region: "UK", Language: "en", Name: "Shout", Contact: "85258", Kind: KindTextLine,
			Text: "Text SHOUT to 85258 for free, confidential support by text."},
	},
	"MX": {
		{Region: "MX", Language: "es", Name: "Línea de la Vida", Contact: "800 911 2000", Kind: KindHotline,
			Text: "Llama al 800 911 2000, atención gratuita las 24 horas."},
	},
	"GLOBAL": {
		{Region: "GLOBAL", Language: "en", Name: "Find a Helpline", Contact: "findahelpline.com", Kind: KindHotline,
			Text: "Find free, confidential support lines for your country at findahelpline.com."},
		{Region: "GLOBAL", Language: "es", Name: "Encuentra una línea de ayuda", Contact: "findahelpline.com", Kind: KindHotline,
			Text: "Encuentra líneas de apoyo gratuitas y confidenciales para tu país en findahelpline.com."},
	},
}

var copingResources = []Resource{
	{Region: "GLOBAL", Language: "en", Name: "Grounding exercise", Kind: KindCoping,
		Text: "Name five things you can see, four you can touch, three you can hear, two you can smell, one you can taste."},
	{Region: "GLOBAL", Language: "en", Name: "Paced breathing", Kind: KindCoping,
		Text: "Breathe in for four counts, hold for four, out for six. Repeat for two minutes."},
	{Region: "GLOBAL", Language: "es", Name: "Ejercicio de conexión a tierra", Kind: KindCoping,
		Text: "Nombra cinco cosas que puedas ver, cuatro que puedas tocar, tres que puedas oír, dos que puedas oler y una que puedas saborear."},
}
