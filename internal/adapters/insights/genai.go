package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 8 * time.Second
	temperature    = 0.3
)

// contentGenerator is the part of *genai.Models the generator uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIOption applies a configuration option to the GenAIGenerator.
type GenAIOption func(*GenAIGenerator)

// WithModel sets the Gemini model name.
func WithModel(name string) GenAIOption {
	return func(g *GenAIGenerator) {
		if name != "" {
			g.model = name
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) GenAIOption {
	return func(g *GenAIGenerator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithFallback sets the generator used when the model call fails.
func WithFallback(f Generator) GenAIOption {
	return func(g *GenAIGenerator) {
		if f != nil {
			g.fallback = f
		}
	}
}

// WithQueryFallback sets the answerer used when a query model call fails.
func WithQueryFallback(a Answerer) GenAIOption {
	return func(g *GenAIGenerator) {
		if a != nil {
			g.answerFallback = a
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) GenAIOption {
	return func(g *GenAIGenerator) {
		if l != nil {
			g.log = l
		}
	}
}

// GenAIGenerator asks a Gemini model for a JSON insight and falls back to
// another generator on any failure.
type GenAIGenerator struct {
	models         contentGenerator
	model          string
	timeout        time.Duration
	fallback       Generator
	answerFallback Answerer
	log            logger.Logger
}

// NewGenAIGenerator creates a Gemini-backed generator.
func NewGenAIGenerator(ctx context.Context, apiKey string, opts ...GenAIOption) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGenAIGenerator(client.Models, opts...), nil
}

func newGenAIGenerator(models contentGenerator, opts ...GenAIOption) *GenAIGenerator {
	g := &GenAIGenerator{
		models:         models,
		model:          defaultModel,
		timeout:        defaultTimeout,
		fallback:       NewRuleGenerator(),
		answerFallback: NewRuleGenerator(),
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements Generator.
func (g *GenAIGenerator) Generate(ctx context.Context, s Subject) (Insight, error) {
	out, err := g.ask(ctx, s)
	if err == nil {
		return out, nil
	}

	g.log.Warn(ctx, "genai insight failed, using fallback",
		logger.String("kind", string(s.Kind)),
		logger.String("id", s.ID),
		logger.Error(err))
	metrics.RecordErrorByComponent("insights", "genai")
	return g.fallback.Generate(ctx, s)
}

type modelAnswer struct {
	Summary         json.RawMessage `json:"summary"`
	Recommendations json.RawMessage `json:"recommendations"`
}

func (g *GenAIGenerator) ask(ctx context.Context, s Subject) (Insight, error) {
	text, err := g.complete(ctx, prompt(s), "application/json")
	if err != nil {
		return Insight{}, err
	}

	var ans modelAnswer
	if err := json.Unmarshal([]byte(stripFence(text)), &ans); err != nil {
		return Insight{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if len(ans.Summary) == 0 && len(ans.Recommendations) == 0 {
		return Insight{}, ErrBadResponse
	}
	return Insight{Summary: ans.Summary, Recommendations: ans.Recommendations, Source: SourceGenAI}, nil
}

// complete sends one prompt and returns the trimmed response text.
func (g *GenAIGenerator) complete(ctx context.Context, text, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		ResponseMIMEType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// stripFence removes a surrounding markdown code fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func prompt(s Subject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a credit and loyalty analyst. Write insights for this %s.\n", s.Kind)
	fmt.Fprintf(&b, "Name: %s\nID: %s\nTrust score (0-100): %s\nLoyalty tier: %s\n", s.Name, s.ID, fixed(s.Score), s.Tier)

	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, s.Fields[k])
	}
	if s.Exclusive {
		b.WriteString("Exclusive merchant: yes\n")
	}

	b.WriteString(`Rates and scores are fractions between 0 and 1.
Answer with JSON only, shaped as {"summary": string, "recommendations": [{"title": string, "description": string}]}.
Keep the summary under 80 words and give at most 4 recommendations.`)
	return b.String()
}

// Query sampling limits: the prompt previews a few records and carries at
// most maxQueryRecords of them.
const (
	previewRecords  = 5
	maxQueryRecords = 200
)

// Classify implements Answerer. Answers other than a population name fall
// back to keyword classification.
func (g *GenAIGenerator) Classify(ctx context.Context, text string) (model.Kind, error) {
	out, err := g.complete(ctx, classifyPrompt(text), "text/plain")
	if err == nil {
		word := strings.ToLower(strings.Trim(out, " \t\r\n.\"'`"))
		switch {
		case strings.HasPrefix(word, "merchant"):
			return model.KindMerchant, nil
		case strings.HasPrefix(word, "customer"):
			return model.KindCustomer, nil
		}
		err = fmt.Errorf("%w: classification %q", ErrBadResponse, out)
	}

	g.log.Warn(ctx, "genai classification failed, using keywords", logger.Error(err))
	metrics.RecordErrorByComponent("insights", "genai_classify")
	return g.answerFallback.Classify(ctx, text)
}

// Answer implements Answerer. Any well-formed JSON answer is accepted as is.
func (g *GenAIGenerator) Answer(ctx context.Context, q Question) (Answer, error) {
	out, err := g.answer(ctx, q)
	if err == nil {
		return out, nil
	}

	g.log.Warn(ctx, "genai query failed, using fallback",
		logger.String("kind", string(q.Kind)),
		logger.Error(err))
	metrics.RecordErrorByComponent("insights", "genai_query")
	return g.answerFallback.Answer(ctx, q)
}

func (g *GenAIGenerator) answer(ctx context.Context, q Question) (Answer, error) {
	p, err := queryPrompt(q)
	if err != nil {
		return Answer{}, err
	}
	text, err := g.complete(ctx, p, "application/json")
	if err != nil {
		return Answer{}, err
	}
	raw := stripFence(text)
	if !json.Valid([]byte(raw)) {
		return Answer{}, ErrBadResponse
	}
	return Answer{Result: json.RawMessage(raw), Source: SourceGenAI}, nil
}

func classifyPrompt(text string) string {
	return "You are a classifier. Decide whether this query is about 'customers' or 'merchants'.\n" +
		"Respond with ONLY one word: customers or merchants.\n" +
		"Query: " + text
}

func queryPrompt(q Question) (string, error) {
	records := q.Entities[:min(len(q.Entities), maxQueryRecords)]
	preview, err := json.MarshalIndent(records[:min(len(records), previewRecords)], "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	all, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a JSON-only data analyst for %s trust data.\n", q.Kind)
	fmt.Fprintf(&b, "User query: %q\n", q.Text)
	fmt.Fprintf(&b, "Data sample:\n%s\n", preview)
	fmt.Fprintf(&b, "Records (%d, highest trust score first):\n%s\n", len(records), all)
	b.WriteString(`Respond with strict valid JSON only, no markdown and no text outside JSON.
Prefer a string, a list of strings, or a list of {"title": string, "description": string}.
If sorting or filtering is requested, include the transformed records.`)
	return b.String(), nil
}
