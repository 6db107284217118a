package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/snaptrust/internal/domain/model"
)

const (
	defaultAnswerSize = 5
	maxAnswerSize     = 50
)

// Question is a free-text query over a sample of one population. Entities are
// ordered by trust score, highest first.
type Question struct {
	Text     string
	Kind     model.Kind
	Entities []model.Entity
}

// Answer carries the raw query result. Its shape is decided by the producer.
type Answer struct {
	Result json.RawMessage
	Source string
}

// Answerer classifies free-text queries and answers them.
type Answerer interface {
	Classify(ctx context.Context, text string) (model.Kind, error)
	Answer(ctx context.Context, q Question) (Answer, error)
}

// Assistant writes entity insights and answers free-text queries.
type Assistant interface {
	Generator
	Answerer
}

var (
	_ Assistant = (*RuleGenerator)(nil)
	_ Assistant = (*GenAIGenerator)(nil)
)

// Word stems that point a query at the merchant population. Anything else,
// including no hint at all, is about customers.
//
//nolint:gochecknoglobals // read-only tables
var (
	merchantStems = []string{"merchant", "shop", "store", "seller", "vendor", "exclusiv", "tenure", "complian", "responsive"}
	customerStems = []string{"customer", "payer", "payment", "client", "buyer"}
	bottomWords   = map[string]bool{"lowest": true, "least": true, "worst": true, "bottom": true, "weakest": true}
)

// Classify implements Answerer by counting population keywords. It never fails.
func (g *RuleGenerator) Classify(_ context.Context, text string) (model.Kind, error) {
	merchants, customers := 0, 0
	for _, w := range words(text) {
		if hasStem(w, merchantStems) {
			merchants++
		}
		if hasStem(w, customerStems) {
			customers++
		}
	}
	if merchants > customers {
		return model.KindMerchant, nil
	}
	return model.KindCustomer, nil
}

// Answer implements Answerer. It lists the highest scoring entities of the
// sample, or the lowest when the query asks for them, with a one-line
// summary in front. A number in the query sets how many are listed.
func (g *RuleGenerator) Answer(_ context.Context, q Question) (Answer, error) {
	n, bottom := defaultAnswerSize, false
	for _, w := range words(q.Text) {
		if bottomWords[w] {
			bottom = true
		}
		if v, err := strconv.Atoi(w); err == nil && v > 0 && v <= maxAnswerSize {
			n = v
		}
	}
	n = min(n, len(q.Entities))

	picked := make([]model.Entity, 0, n)
	if bottom {
		for i := len(q.Entities) - 1; i >= len(q.Entities)-n; i-- {
			picked = append(picked, q.Entities[i])
		}
	} else {
		picked = append(picked, q.Entities[:n]...)
	}

	result := make([]any, 0, n+1)
	result = append(result, sampleSummary(q, n, bottom))
	for _, e := range picked {
		result = append(result, Recommendation{Title: displayName(e), Description: describe(e)})
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Result: raw, Source: SourceRules}, nil
}

func sampleSummary(q Question, n int, bottom bool) string {
	if len(q.Entities) == 0 {
		return fmt.Sprintf("No %ss are available to answer %q.", q.Kind, q.Text)
	}
	sum := 0.0
	for _, e := range q.Entities {
		sum += e.TrustScore.Float()
	}
	rank := "highest"
	if bottom {
		rank = "lowest"
	}
	return fmt.Sprintf("Sampled %d %ss with an average trust score of %s. Showing the %d %s scoring.",
		len(q.Entities), q.Kind, fixed(sum/float64(len(q.Entities))), n, rank)
}

func displayName(e model.Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

func describe(e model.Entity) string {
	s := "Trust score " + fixed(e.TrustScore.Float())
	if tier, ok := e.Tier(); ok {
		s += ", " + tier + " tier"
	}
	if e.Kind == model.KindMerchant && bool(e.Exclusive) {
		s += ", exclusive"
	}
	return s
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasStem(word string, stems []string) bool {
	for _, s := range stems {
		if strings.HasPrefix(word, s) {
			return true
		}
	}
	return false
}
