package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/snaptrust/internal/adapters/dataset"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/internal/domain/scoring"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"
)

// Averages precision: ratios keep four places so percentages still carry two.
const (
	ratioPlaces  = 4
	scalarPlaces = 2
)

// Loader produces a fresh dataset.
type Loader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// population is one kind's ranked entries. It is never mutated once published.
type population struct {
	desc     []Entry
	asc      []Entry
	index    map[string]int
	averages model.Averages
}

// state is an immutable snapshot of both populations.
type state struct {
	pops     map[model.Kind]*population
	loaded   bool
	loadedAt time.Time
	payments int
	missing  []string
}

// MemoryStore is the in-memory Store. Readers load the current snapshot
// through an atomic pointer and never lock; reloads publish a new snapshot.
type MemoryStore struct {
	scorer         *scoring.Scorer
	log            logger.Logger
	now            func() time.Time
	reloadInterval time.Duration

	snapshot atomic.Pointer[state]

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore constructs an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		scorer:         scoring.NewScorer(),
		log:            logger.Nop(),
		now:            time.Now,
		reloadInterval: time.Minute,
		stopChan:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&state{pops: map[model.Kind]*population{
		model.KindCustomer: newPopulation(nil, customerAverages),
		model.KindMerchant: newPopulation(nil, merchantAverages),
	}})
	return s
}

// Start performs the initial load and then reloads on every interval until
// ctx is done or Close is called.
func (s *MemoryStore) Start(ctx context.Context, loader Loader) error {
	if err := s.Reload(ctx, loader); err != nil {
		return err
	}
	if s.reloadInterval == 0 {
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.reloadInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.Reload(ctx, loader); err != nil {
					s.log.Error(ctx, "dataset reload failed, keeping previous snapshot", logger.Error(err))
				}
			}
		}
	}()
	return nil
}

// Close stops the reload goroutine.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Reload loads a dataset and publishes it. On failure the current snapshot
// stays in place.
func (s *MemoryStore) Reload(ctx context.Context, loader Loader) error {
	start := time.Now()
	ds, err := loader.Load(ctx)
	if err != nil {
		metrics.RecordDatasetReloadError()
		metrics.RecordErrorByComponent("repository", "reload")
		return fmt.Errorf("reload dataset: %w", err)
	}
	s.Replace(ds)

	elapsed := time.Since(start)
	metrics.RecordDatasetReload(float64(elapsed.Milliseconds()))
	s.log.Info(ctx, "dataset loaded",
		logger.Int("customers", len(ds.Customers)),
		logger.Int("merchants", len(ds.Merchants)),
		logger.Int("payments", ds.Payments),
		logger.Duration("took", elapsed))
	return nil
}

// Replace scores a dataset and publishes it as the current snapshot.
func (s *MemoryStore) Replace(ds *dataset.Dataset) {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	customers := s.buildCustomers(ds.Customers)
	merchants := s.buildMerchants(ds.Merchants)

	next := &state{
		pops: map[model.Kind]*population{
			model.KindCustomer: newPopulation(customers, customerAverages),
			model.KindMerchant: newPopulation(merchants, merchantAverages),
		},
		loaded:   true,
		loadedAt: s.now(),
		payments: ds.Payments,
		missing:  append([]string(nil), ds.Missing...),
	}
	s.snapshot.Store(next)

	for kind, pop := range next.pops {
		metrics.UpdateEntitiesLoaded(string(kind), len(pop.desc))
	}
	for file, n := range ds.Skipped {
		metrics.UpdateDatasetSkippedRows(file, n)
	}
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(_ context.Context, kind model.Kind, n int, order model.Order) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	pop, err := s.population(kind)
	if err != nil {
		return nil, err
	}

	src := pop.desc
	switch order {
	case model.OrderDesc, "":
	case model.OrderAsc:
		src = pop.asc
	default:
		return nil, ErrInvalidOrder
	}
	n = min(n, len(src))
	out := make([]Entry, n)
	copy(out, src[:n])
	return out, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, kind model.Kind, id string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	pop, err := s.population(kind)
	if err != nil {
		return Entry{}, err
	}
	i, ok := pop.index[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return pop.desc[i], nil
}

// Averages implements Store.Averages.
func (s *MemoryStore) Averages(_ context.Context, kind model.Kind) (model.Averages, error) {
	pop, err := s.population(kind)
	if err != nil {
		return nil, err
	}
	return maps.Clone(pop.averages), nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context, kind model.Kind) int {
	pop, err := s.population(kind)
	if err != nil {
		return 0
	}
	return len(pop.desc)
}

// Stats implements Store.Stats.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	st := s.snapshot.Load()
	counts := make(map[model.Kind]int, len(st.pops))
	for kind, pop := range st.pops {
		counts[kind] = len(pop.desc)
	}
	return Stats{
		Loaded:   st.loaded,
		LoadedAt: st.loadedAt,
		Counts:   counts,
		Payments: st.payments,
		Missing:  append([]string(nil), st.missing...),
	}
}

func (s *MemoryStore) population(kind model.Kind) (*population, error) {
	pop, ok := s.snapshot.Load().pops[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return pop, nil
}

func (s *MemoryStore) buildCustomers(cs []dataset.Customer) []Entry {
	out := make([]Entry, 0, len(cs))
	for _, c := range cs {
		score := s.scorer.Customer(scoring.CustomerInput{
			RepaymentRate: c.RepaymentRate,
			DefaultRate:   c.DefaultRate,
			DisputeCount:  c.DisputeCount,
		})
		out = append(out, Entry{
			Entity: model.Entity{
				Kind:        model.KindCustomer,
				ID:          c.ID,
				Name:        c.Name,
				TrustScore:  model.Num(score),
				LoyaltyTier: model.StringPtr(s.scorer.Tier(score)),
				CreatedAt:   c.FirstPayment,
				Active:      model.BoolPtr(c.Active),
			},
			Fields: map[string]float64{
				model.FieldRepaymentRate:     c.RepaymentRate,
				model.FieldDefaultRate:       c.DefaultRate,
				model.FieldDisputeCount:      float64(c.DisputeCount),
				model.FieldTransactionVolume: float64(c.TransactionVolume),
				model.FieldPaymentCount:      float64(c.Payments),
			},
		})
	}
	return out
}

func (s *MemoryStore) buildMerchants(ms []dataset.Merchant) []Entry {
	out := make([]Entry, 0, len(ms))
	for _, m := range ms {
		score := s.scorer.Merchant(scoring.MerchantInput{
			RepaymentRate:       m.RepaymentRate,
			DisputeRate:         m.DisputeRate,
			DefaultRate:         m.DefaultRate,
			TransactionVolume:   m.TransactionVolume,
			EngagementScore:     m.EngagementScore,
			ComplianceScore:     m.ComplianceScore,
			ResponsivenessScore: m.ResponsivenessScore,
			Exclusive:           m.Exclusive,
		})
		out = append(out, Entry{
			Entity: model.Entity{
				Kind:         model.KindMerchant,
				ID:           m.ID,
				Name:         m.Name,
				TrustScore:   model.Num(score),
				LoyaltyTier:  model.StringPtr(s.scorer.Tier(score)),
				Exclusive:    model.Flag(m.Exclusive),
				TenureMonths: model.Num(float64(m.TenureMonths)),
			},
			Fields: map[string]float64{
				model.FieldRepaymentRate:       m.RepaymentRate,
				model.FieldDisputeRate:         m.DisputeRate,
				model.FieldDefaultRate:         m.DefaultRate,
				model.FieldTransactionVolume:   m.TransactionVolume,
				model.FieldTenureMonths:        float64(m.TenureMonths),
				model.FieldEngagementScore:     m.EngagementScore,
				model.FieldComplianceScore:     m.ComplianceScore,
				model.FieldResponsivenessScore: m.ResponsivenessScore,
				model.FieldExclusivityFlag:     flag(m.Exclusive),
			},
		})
	}
	return out
}

// newPopulation ranks entries. Duplicate ids keep their first occurrence.
func newPopulation(entries []Entry, averages func([]Entry) model.Averages) *population {
	seen := make(map[string]bool, len(entries))
	desc := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Entity.ID] {
			continue
		}
		seen[e.Entity.ID] = true
		desc = append(desc, e)
	}
	sortEntries(desc)
	assignRanksWithTies(desc)

	asc := make([]Entry, len(desc))
	copy(asc, desc)
	sort.SliceStable(asc, func(i, j int) bool {
		if asc[i].Score() != asc[j].Score() {
			return asc[i].Score() < asc[j].Score()
		}
		return asc[i].Entity.ID < asc[j].Entity.ID
	})

	index := make(map[string]int, len(desc))
	for i, e := range desc {
		index[e.Entity.ID] = i
	}
	return &population{desc: desc, asc: asc, index: index, averages: averages(desc)}
}

// sortEntries orders by trust score descending, then id ascending.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score() != entries[j].Score() {
			return entries[i].Score() > entries[j].Score()
		}
		return entries[i].Entity.ID < entries[j].Entity.ID
	})
}

// assignRanksWithTies gives equal scores the same rank; ranks are consecutive.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score() != entries[i-1].Score() {
			rank++
		}
		entries[i].Rank = rank
	}
}

func customerAverages(entries []Entry) model.Averages {
	if len(entries) == 0 {
		return model.Averages{}
	}
	return model.Averages{
		model.AvgTrustScore:        mean(entries, Entry.Score, scalarPlaces),
		model.AvgRepaymentRate:     mean(entries, field(model.FieldRepaymentRate), ratioPlaces),
		model.AvgDefaultRate:       mean(entries, field(model.FieldDefaultRate), ratioPlaces),
		model.AvgTransactionVolume: mean(entries, field(model.FieldTransactionVolume), scalarPlaces),
	}
}

func merchantAverages(entries []Entry) model.Averages {
	if len(entries) == 0 {
		return model.Averages{}
	}
	return model.Averages{
		model.AvgTrustScore:          mean(entries, Entry.Score, scalarPlaces),
		model.AvgRepaymentRate:       mean(entries, field(model.FieldRepaymentRate), ratioPlaces),
		model.AvgDisputeRate:         mean(entries, field(model.FieldDisputeRate), ratioPlaces),
		model.AvgDefaultRate:         mean(entries, field(model.FieldDefaultRate), ratioPlaces),
		model.AvgComplianceScore:     mean(entries, field(model.FieldComplianceScore), ratioPlaces),
		model.AvgEngagementScore:     mean(entries, field(model.FieldEngagementScore), ratioPlaces),
		model.AvgResponsivenessScore: mean(entries, field(model.FieldResponsivenessScore), ratioPlaces),
		model.AvgTransactionVolume:   mean(entries, field(model.FieldTransactionVolume), scalarPlaces),
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func field(name string) func(Entry) float64 {
	return func(e Entry) float64 { return e.Fields[name] }
}

func mean(entries []Entry, value func(Entry) float64, places int32) float64 {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.NewFromFloat(value(e)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(entries)))).Round(places).InexactFloat64()
}
