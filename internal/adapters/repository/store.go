// Package repository holds the scored customer and merchant populations in an
// immutable in-memory snapshot that is replaced wholesale on every reload.
package repository

import (
	"context"
	"time"

	"github.com/okian/snaptrust/internal/domain/model"
)

// Entry is one ranked, scored entity.
type Entry struct {
	Rank   int
	Entity model.Entity
	// Fields holds the numeric inputs the trust score was computed from.
	Fields map[string]float64
}

// Score returns the entry's trust score.
func (e Entry) Score() float64 { return e.Entity.TrustScore.Float() }

// Stats describes the currently published snapshot.
type Stats struct {
	Loaded   bool
	LoadedAt time.Time
	Counts   map[model.Kind]int
	Payments int
	Missing  []string
}

// Store provides read access to the scored populations.
type Store interface {
	// TopN returns up to n entries ordered by trust score. n < 1 is ErrInvalidLimit.
	TopN(ctx context.Context, kind model.Kind, n int, order model.Order) ([]Entry, error)

	// Get returns one entry by id. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, kind model.Kind, id string) (Entry, error)

	// Averages returns the population averages keyed by model.Avg* names.
	Averages(ctx context.Context, kind model.Kind) (model.Averages, error)

	// Count returns the population size.
	Count(ctx context.Context, kind model.Kind) int

	// Stats describes the published snapshot.
	Stats(ctx context.Context) Stats
}
