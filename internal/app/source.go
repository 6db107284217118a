package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/snaptrust/internal/adapters/analytics"
	"github.com/okian/snaptrust/internal/adapters/insights"
	"github.com/okian/snaptrust/internal/adapters/repository"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"
)

// EntitySource supplies entity collections, averages and details.
// *analytics.Client satisfies it for remote mode.
type EntitySource interface {
	Entities(ctx context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error)
	Averages(ctx context.Context, kind model.Kind) (model.Averages, error)
	Detail(ctx context.Context, kind model.Kind, id string) (model.Detail, error)
}

var _ EntitySource = (*analytics.Client)(nil)

// recordSource is implemented by sources that can return a detail record
// without producing insight content.
type recordSource interface {
	Record(ctx context.Context, kind model.Kind, id string) (model.Detail, error)
}

// localSource serves the in-memory store and writes insights on demand.
type localSource struct {
	store     repository.Store
	generator insights.Generator
	log       logger.Logger
}

var (
	_ EntitySource = (*localSource)(nil)
	_ recordSource = (*localSource)(nil)
)

func (l *localSource) Entities(ctx context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error) {
	entries, err := l.store.TopN(ctx, kind, limit, order)
	if err != nil {
		return nil, err
	}
	out := make([]model.Entity, len(entries))
	for i, e := range entries {
		out[i] = e.Entity
	}
	return out, nil
}

func (l *localSource) Averages(ctx context.Context, kind model.Kind) (model.Averages, error) {
	return l.store.Averages(ctx, kind)
}

// Record returns the stored detail without insight content.
func (l *localSource) Record(ctx context.Context, kind model.Kind, id string) (model.Detail, error) {
	e, err := l.store.Get(ctx, kind, id)
	if err != nil {
		return model.Detail{}, err
	}
	return detailOf(kind, e), nil
}

func detailOf(kind model.Kind, e repository.Entry) model.Detail {
	tier, _ := e.Entity.Tier()
	return model.Detail{
		Kind:        kind,
		ID:          e.Entity.ID,
		Name:        e.Entity.Name,
		TrustScore:  e.Entity.TrustScore,
		LoyaltyTier: tier,
		Fields:      e.Fields,
	}
}

func (l *localSource) Detail(ctx context.Context, kind model.Kind, id string) (model.Detail, error) {
	e, err := l.store.Get(ctx, kind, id)
	if err != nil {
		return model.Detail{}, err
	}
	d := detailOf(kind, e)
	if l.generator == nil {
		return d, nil
	}

	start := time.Now()
	in, err := l.generator.Generate(ctx, insights.Subject{
		Kind:      kind,
		ID:        d.ID,
		Name:      d.Name,
		Score:     e.Score(),
		Tier:      d.LoyaltyTier,
		Fields:    e.Fields,
		Exclusive: bool(e.Entity.Exclusive),
	})
	if err != nil {
		l.log.Warn(ctx, "insight generation failed", logger.String("id", id), logger.Error(err))
		metrics.RecordErrorByComponent("insights", "generate")
		return d, nil
	}
	metrics.RecordInsightGeneration(string(kind), in.Source, float64(time.Since(start).Milliseconds()))
	d.Summary = in.Summary
	d.Recommendations = in.Recommendations
	return d, nil
}

// classify maps adapter errors onto service sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, analytics.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidLimit):
		return fmt.Errorf("%w: %w", ErrInvalidLimit, err)
	case errors.Is(err, repository.ErrInvalidOrder):
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	case errors.Is(err, repository.ErrUnknownKind):
		return fmt.Errorf("%w: %w", ErrUnknownKind, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
