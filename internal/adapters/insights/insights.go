// Package insights writes the AI summary and recommendations attached to an
// entity detail record. A Gemini-backed generator is used when an API key is
// configured; a rule-based generator always serves as the fallback.
package insights

import (
	"context"
	"encoding/json"

	"github.com/okian/snaptrust/internal/domain/model"
)

// Generation sources, as reported in metrics and on the result.
const (
	SourceRules = "rules"
	SourceGenAI = "genai"
)

// Subject is the entity an insight is written about.
type Subject struct {
	Kind   model.Kind
	ID     string
	Name   string
	Score  float64
	Tier   string
	Fields map[string]float64
	// Exclusive is only meaningful for merchants.
	Exclusive bool
}

// Insight carries raw content. Summary is usually a string and
// Recommendations a list, but consumers must not rely on either shape.
type Insight struct {
	Summary         json.RawMessage
	Recommendations json.RawMessage
	Source          string
}

// Generator writes insights for one subject.
type Generator interface {
	Generate(ctx context.Context, s Subject) (Insight, error)
}

// Recommendation is one titled suggestion.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
