// Package service provides the application service behind the HTTP API:
// it pulls entity collections and averages from an entity source, builds
// metrics snapshots and normalizes insight content.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/okian/snaptrust/internal/adapters/insights"
	"github.com/okian/snaptrust/internal/adapters/repository"
	"github.com/okian/snaptrust/internal/domain/benchmark"
	"github.com/okian/snaptrust/internal/domain/insight"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/internal/domain/scoring"
	"github.com/okian/snaptrust/internal/domain/snapshot"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"
)

// Insights is the normalized insight content of one entity.
type Insights struct {
	Summary         []insight.Block `json:"summary"`
	Recommendations []insight.Block `json:"recommendations"`
}

// QueryResult is a free-text query answer as render blocks.
type QueryResult struct {
	Entity model.Kind      `json:"entity"`
	Query  string          `json:"query"`
	Result []insight.Block `json:"result"`
	Source string          `json:"source"`
}

// maxQueryRunes bounds a free-text query.
const maxQueryRunes = 1000

// Service implements the API dependencies for the analytics dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	source    EntitySource
	store     *repository.MemoryStore
	loader    repository.Loader
	generator insights.Generator
	answerer  insights.Answerer
	builder   *snapshot.Builder
	profiles  map[model.Kind]snapshot.Profile

	// Configuration
	fetchLimit   int
	querySample  int
	defaultLimit int
	maxLimit     int
	topTier      string
	mode         string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLocalStore serves entities from an in-memory store fed by loader.
func WithLocalStore(store *repository.MemoryStore, loader repository.Loader) Option {
	return func(s *Service) {
		if store != nil && loader != nil {
			s.store = store
			s.loader = loader
			s.source = nil
			s.mode = "local"
		}
	}
}

// WithRemoteSource serves entities from another analytics service.
func WithRemoteSource(src EntitySource) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
			s.store = nil
			s.loader = nil
			s.mode = "remote"
		}
	}
}

// WithInsightGenerator sets the generator used for local detail records.
func WithInsightGenerator(g insights.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithQueryAnswerer sets the answerer used for free-text queries.
func WithQueryAnswerer(a insights.Answerer) Option {
	return func(s *Service) {
		if a != nil {
			s.answerer = a
		}
	}
}

// WithQuerySample sets how many top entities a free-text query sees.
func WithQuerySample(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.querySample = n
		}
	}
}

// WithSnapshotBuilder sets the snapshot builder.
func WithSnapshotBuilder(b *snapshot.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithTopTier sets the loyalty tier counted by the customer dashboard.
func WithTopTier(tier string) Option {
	return func(s *Service) {
		if tier != "" {
			s.topTier = tier
		}
	}
}

// WithFetchLimit sets how many entities a dashboard snapshot covers.
func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

// WithListLimits sets the default and maximum listing sizes.
func WithListLimits(def, maxLimit int) Option {
	return func(s *Service) {
		if def > 0 && maxLimit >= def {
			s.defaultLimit = def
			s.maxLimit = maxLimit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		generator:    insights.NewRuleGenerator(),
		answerer:     insights.NewRuleGenerator(),
		builder:      snapshot.NewBuilder(),
		fetchLimit:   1000,
		querySample:  200,
		defaultLimit: 10,
		maxLimit:     1000,
		topTier:      scoring.TierGold,
		logger:       nil, // replaced when the service starts
	}
	for _, opt := range opts {
		opt(s)
	}
	s.profiles = map[model.Kind]snapshot.Profile{
		model.KindCustomer: snapshot.CustomerProfile(s.topTier),
		model.KindMerchant: snapshot.MerchantProfile(),
	}
	return s
}

// Start loads the local store, or checks the remote source is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting analytics service...", logger.String("mode", s.mode))

	switch {
	case s.store != nil:
		if err := s.store.Start(ctx, s.loader); err != nil {
			return err
		}
		s.source = &localSource{store: s.store, generator: s.generator, log: s.logger}
	case s.source == nil:
		return ErrNoSource
	}

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.String("mode", s.mode),
		logger.Int("fetchLimit", s.fetchLimit),
		logger.Int("maxLimit", s.maxLimit),
	)
	return nil
}

// Stop stops the periodic reload.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping analytics service...")
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

// Ready reports whether the service can answer queries.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	if s.store != nil {
		return s.store.Stats(context.Background()).Loaded
	}
	return true
}

func (s *Service) entitySource() (EntitySource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.source == nil {
		return nil, ErrNoSource
	}
	return s.source, nil
}

func (s *Service) profile(kind model.Kind) (snapshot.Profile, error) {
	p, ok := s.profiles[kind]
	if !ok {
		return snapshot.Profile{}, ErrUnknownKind
	}
	return p, nil
}

// Dashboard fetches entities and averages concurrently and builds a snapshot.
// An averages failure degrades to an empty record; an entity failure is
// returned before any snapshot is built.
func (s *Service) Dashboard(ctx context.Context, kind model.Kind) (snapshot.Snapshot, error) {
	p, err := s.profile(kind)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	src, err := s.entitySource()
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	var (
		entities []model.Entity
		avg      model.Averages
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entities, err = src.Entities(gctx, kind, s.fetchLimit, model.OrderDesc)
		return err
	})
	g.Go(func() error {
		a, err := src.Averages(gctx, kind)
		if err != nil {
			s.log().Warn(ctx, "averages unavailable, building snapshot without them",
				logger.String("kind", string(kind)), logger.Error(err))
			metrics.RecordAveragesFallback(string(kind))
			a = model.Averages{}
		}
		avg = a
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("service", "entities")
		return snapshot.Snapshot{}, classify(err)
	}

	start := time.Now()
	snap := s.builder.Build(p, entities, avg)
	metrics.RecordSnapshotBuild(string(kind), float64(time.Since(start).Microseconds())/1000)
	metrics.UpdateSnapshotUnavailable(string(kind), snap.UnavailableCount())
	return snap, nil
}

// List returns up to limit entities sorted by trust score. A zero limit means
// the default; limits above the maximum are rejected.
func (s *Service) List(ctx context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error) {
	if _, err := s.profile(kind); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 || limit > s.maxLimit {
		return nil, ErrInvalidLimit
	}
	src, err := s.entitySource()
	if err != nil {
		return nil, err
	}
	es, err := src.Entities(ctx, kind, limit, order)
	if err != nil {
		return nil, classify(err)
	}
	return es, nil
}

// Averages returns the population averages.
func (s *Service) Averages(ctx context.Context, kind model.Kind) (model.Averages, error) {
	if _, err := s.profile(kind); err != nil {
		return nil, err
	}
	src, err := s.entitySource()
	if err != nil {
		return nil, err
	}
	avg, err := src.Averages(ctx, kind)
	if err != nil {
		return nil, classify(err)
	}
	if avg == nil {
		avg = model.Averages{}
	}
	return avg, nil
}

// Detail returns the full record of one entity.
func (s *Service) Detail(ctx context.Context, kind model.Kind, id string) (model.Detail, error) {
	if _, err := s.profile(kind); err != nil {
		return model.Detail{}, err
	}
	src, err := s.entitySource()
	if err != nil {
		return model.Detail{}, err
	}
	d, err := src.Detail(ctx, kind, id)
	if err != nil {
		return model.Detail{}, classify(err)
	}
	return d, nil
}

// Insights returns the entity's summary and recommendations as render blocks.
func (s *Service) Insights(ctx context.Context, kind model.Kind, id string) (Insights, error) {
	d, err := s.Detail(ctx, kind, id)
	if err != nil {
		return Insights{}, err
	}
	return Insights{
		Summary:         insight.NormalizeRaw(d.Summary),
		Recommendations: insight.NormalizeRaw(d.Recommendations),
	}, nil
}

// Benchmark compares one entity with its population averages. An averages
// failure degrades to a report without comparisons.
func (s *Service) Benchmark(ctx context.Context, kind model.Kind, id string) (benchmark.Report, error) {
	if _, err := s.profile(kind); err != nil {
		return benchmark.Report{}, err
	}
	src, err := s.entitySource()
	if err != nil {
		return benchmark.Report{}, err
	}

	var (
		d   model.Detail
		avg model.Averages
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if rs, ok := src.(recordSource); ok {
			d, err = rs.Record(gctx, kind, id)
		} else {
			d, err = src.Detail(gctx, kind, id)
		}
		return err
	})
	g.Go(func() error {
		a, err := src.Averages(gctx, kind)
		if err != nil {
			s.log().Warn(ctx, "averages unavailable, benchmarking without them",
				logger.String("kind", string(kind)), logger.Error(err))
			metrics.RecordAveragesFallback(string(kind))
			a = model.Averages{}
		}
		avg = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return benchmark.Report{}, classify(err)
	}
	return benchmark.Compare(d, avg), nil
}

// Query answers a free-text question. The question is classified to a
// population, the top entities of that population are sampled, and the
// answer is normalized into render blocks.
func (s *Service) Query(ctx context.Context, text string) (QueryResult, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return QueryResult{}, fmt.Errorf("%w: query must not be empty", ErrInvalidQuery)
	case utf8.RuneCountInString(text) > maxQueryRunes:
		return QueryResult{}, fmt.Errorf("%w: query is longer than %d characters", ErrInvalidQuery, maxQueryRunes)
	}
	src, err := s.entitySource()
	if err != nil {
		return QueryResult{}, err
	}

	kind, err := s.answerer.Classify(ctx, text)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: classify query: %w", ErrUpstream, err)
	}
	if _, err := s.profile(kind); err != nil {
		kind = model.KindCustomer
	}
	s.log().Info(ctx, "query classified", logger.String("kind", string(kind)))

	entities, err := src.Entities(ctx, kind, s.querySample, model.OrderDesc)
	if err != nil {
		return QueryResult{}, classify(err)
	}

	start := time.Now()
	ans, err := s.answerer.Answer(ctx, insights.Question{Text: text, Kind: kind, Entities: entities})
	if err != nil {
		metrics.RecordErrorByComponent("insights", "query")
		return QueryResult{}, fmt.Errorf("%w: answer query: %w", ErrUpstream, err)
	}
	metrics.RecordInsightGeneration(string(kind), ans.Source, float64(time.Since(start).Milliseconds()))

	return QueryResult{
		Entity: kind,
		Query:  text,
		Result: insight.NormalizeRaw(ans.Result),
		Source: ans.Source,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"mode":       s.mode,
		"fetchLimit": s.fetchLimit,
		"maxLimit":   s.maxLimit,
		"topTier":    s.topTier,
	}
	if s.started && s.store != nil {
		st := s.store.Stats(context.Background())
		stats["loaded"] = st.Loaded
		stats["loadedAt"] = st.LoadedAt
		stats["customers"] = st.Counts[model.KindCustomer]
		stats["merchants"] = st.Counts[model.KindMerchant]
		stats["payments"] = st.Payments
		stats["missingFiles"] = st.Missing
	}
	return stats
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}
