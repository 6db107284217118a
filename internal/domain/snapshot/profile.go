package snapshot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/snaptrust/internal/domain/bucket"
	"github.com/okian/snaptrust/internal/domain/distribution"
	"github.com/okian/snaptrust/internal/domain/model"
)

// Source says where a metric's figure comes from. A metric has exactly one
// source; local and server figures are never blended for the same metric.
type Source string

// Metric sources.
const (
	SourceLocal  Source = "local"
	SourceServer Source = "server"
)

// Input is what a local accessor sees.
type Input struct {
	Entities []model.Entity
	Now      time.Time
}

// Definition declares one metric of a snapshot.
type Definition struct {
	Name   string
	Label  string
	Source Source
	Format Format

	// Local computes the value from the entity collection (SourceLocal only).
	Local func(Input) Value

	// ServerKey names the averages entry to read (SourceServer only).
	ServerKey string
}

// Point is one element of a growth series.
type Point struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Profile is the metric table and series builders of one entity population.
type Profile struct {
	Kind         model.Kind
	Definitions  []Definition
	Distribution func(model.Entity) string
	Growth       func(entities []model.Entity, now time.Time) []Point
}

// NewProfile validates a metric table.
func NewProfile(kind model.Kind, defs []Definition, dist func(model.Entity) string, growth func([]model.Entity, time.Time) []Point) (Profile, error) {
	if dist == nil || growth == nil {
		return Profile{}, fmt.Errorf("%s: %w", kind, ErrMissingSeries)
	}
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return Profile{}, fmt.Errorf("%s: %w", kind, ErrUnnamedMetric)
		}
		if _, dup := seen[d.Name]; dup {
			return Profile{}, fmt.Errorf("%s.%s: %w", kind, d.Name, ErrDuplicateMetric)
		}
		seen[d.Name] = struct{}{}

		switch d.Source {
		case SourceLocal:
			if d.Local == nil || d.ServerKey != "" {
				return Profile{}, fmt.Errorf("%s.%s: %w", kind, d.Name, ErrAmbiguousSource)
			}
		case SourceServer:
			if d.Local != nil || d.ServerKey == "" {
				return Profile{}, fmt.Errorf("%s.%s: %w", kind, d.Name, ErrAmbiguousSource)
			}
			if d.Format != FormatPercent && d.Format != FormatDecimal {
				return Profile{}, fmt.Errorf("%s.%s: %w", kind, d.Name, ErrServerFormat)
			}
		default:
			return Profile{}, fmt.Errorf("%s.%s: %w", kind, d.Name, ErrAmbiguousSource)
		}
	}
	return Profile{Kind: kind, Definitions: defs, Distribution: dist, Growth: growth}, nil
}

// MustProfile is NewProfile for static tables.
func MustProfile(kind model.Kind, defs []Definition, dist func(model.Entity) string, growth func([]model.Entity, time.Time) []Point) Profile {
	p, err := NewProfile(kind, defs, dist, growth)
	if err != nil {
		panic(err)
	}
	return p
}

// Metric names shared by both profiles.
const (
	MetricTotal       = "total"
	MetricAvgTrust    = "avg_trust_score"
	MetricTopEntity   = "top_entity"
	MetricRepayment   = "avg_repayment_rate"
	MetricDefaultRate = "default_rate"
)

// Customer-only metric names.
const (
	MetricTopTierCount = "top_tier_count"
	MetricActive       = "active"
	MetricNewThisMonth = "new_this_month"
)

// Merchant-only metric names.
const (
	MetricDisputeRate       = "avg_dispute_rate"
	MetricCompliance        = "avg_compliance_score"
	MetricEngagement        = "avg_engagement_score"
	MetricResponsiveness    = "avg_responsiveness_score"
	MetricTransactionVolume = "avg_transaction_volume"
)

// CustomerProfile builds the customer dashboard table. topTier is the loyalty
// tier counted by the top-tier metric.
func CustomerProfile(topTier string) Profile {
	return MustProfile(model.KindCustomer, []Definition{
		{Name: MetricTotal, Label: "Total Customers", Source: SourceLocal, Format: FormatCount, Local: localCount},
		{Name: MetricAvgTrust, Label: "Avg Trust Score", Source: SourceLocal, Format: FormatDecimal, Local: localMeanTrust},
		{Name: MetricTopTierCount, Label: topTier + " Customers", Source: SourceLocal, Format: FormatCount, Local: localTierCount(topTier)},
		{Name: MetricTopEntity, Label: "Top Customer", Source: SourceLocal, Format: FormatText, Local: localTopName},
		{Name: MetricRepayment, Label: "Avg Repayment Rate", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgRepaymentRate},
		{Name: MetricDefaultRate, Label: "Default Rate", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgDefaultRate},
		{Name: MetricActive, Label: "Active Customers", Source: SourceLocal, Format: FormatCount, Local: localActive},
		{Name: MetricNewThisMonth, Label: "New This Month", Source: SourceLocal, Format: FormatCount, Local: localNewThisMonth},
	}, distribution.Tier, monthlyGrowth)
}

// MerchantProfile builds the merchant dashboard table.
func MerchantProfile() Profile {
	return MustProfile(model.KindMerchant, []Definition{
		{Name: MetricTotal, Label: "Total Merchants", Source: SourceLocal, Format: FormatCount, Local: localCount},
		{Name: MetricAvgTrust, Label: "Avg Trust Score", Source: SourceServer, Format: FormatDecimal, ServerKey: model.AvgTrustScore},
		{Name: MetricRepayment, Label: "Avg Repayment Rate", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgRepaymentRate},
		{Name: MetricDisputeRate, Label: "Avg Dispute Rate", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgDisputeRate},
		{Name: MetricDefaultRate, Label: "Avg Default Rate", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgDefaultRate},
		{Name: MetricCompliance, Label: "Avg Compliance", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgComplianceScore},
		{Name: MetricEngagement, Label: "Avg Engagement", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgEngagementScore},
		{Name: MetricResponsiveness, Label: "Avg Responsiveness", Source: SourceServer, Format: FormatPercent, ServerKey: model.AvgResponsivenessScore},
		{Name: MetricTransactionVolume, Label: "Avg Transaction Volume", Source: SourceServer, Format: FormatDecimal, ServerKey: model.AvgTransactionVolume},
		{Name: MetricTopEntity, Label: "Top Merchant", Source: SourceLocal, Format: FormatText, Local: localTopName},
	}, distribution.Exclusivity, tenureGrowth)
}

// Local accessors.

func localCount(in Input) Value { return Count(len(in.Entities)) }

// localMeanTrust averages trust scores. Non-numeric scores add zero but still
// count in the denominator.
func localMeanTrust(in Input) Value {
	if len(in.Entities) == 0 {
		return Missing(FormatDecimal)
	}
	sum := 0.0
	for _, e := range in.Entities {
		sum += e.TrustScore.Float()
	}
	return Decimal(sum / float64(len(in.Entities)))
}

func localTierCount(tier string) func(Input) Value {
	return func(in Input) Value {
		n := 0
		for _, e := range in.Entities {
			if t, ok := e.Tier(); ok && t == tier {
				n++
			}
		}
		return Count(n)
	}
}

// localTopName is the first entity of the source ordering; it is never re-sorted.
func localTopName(in Input) Value {
	if len(in.Entities) == 0 {
		return Missing(FormatText)
	}
	return Text(in.Entities[0].Name)
}

// localActive counts entities reported active. Entities without a status are
// counted as active.
func localActive(in Input) Value {
	n := 0
	for _, e := range in.Entities {
		if e.Active == nil || *e.Active {
			n++
		}
	}
	return Count(n)
}

func localNewThisMonth(in Input) Value {
	current := bucket.MonthOf(in.Now)
	n := 0
	for _, e := range in.Entities {
		if bucket.MonthKey(e.CreatedAt, in.Now) == current {
			n++
		}
	}
	return Count(n)
}

// Growth series.

func monthlyGrowth(entities []model.Entity, now time.Time) []Point {
	buckets := bucket.Group(entities, func(e model.Entity) string {
		return bucket.MonthKey(e.CreatedAt, now)
	}, bucket.Ascending[string])
	out := make([]Point, len(buckets))
	for i, b := range buckets {
		out[i] = Point{Label: b.Key, Count: b.Count}
	}
	return out
}

func tenureGrowth(entities []model.Entity, _ time.Time) []Point {
	buckets := bucket.Group(entities, func(e model.Entity) float64 {
		return tenureKey(e.TenureMonths)
	}, bucket.Ascending[float64])
	out := make([]Point, len(buckets))
	for i, b := range buckets {
		out[i] = Point{Label: strconv.FormatFloat(b.Key, 'f', -1, 64) + " mo", Count: b.Count}
	}
	return out
}

// maxTenureMonths bounds the tenures worth a bucket of their own; anything
// beyond it is bad data and lands with the missing values at 0.
const maxTenureMonths = math.MaxInt32

func tenureKey(n model.Numeric) float64 {
	v := n.Float()
	if math.Abs(v) > maxTenureMonths {
		return 0
	}
	if v == 0 {
		return 0 // folds -0 into 0
	}
	return v
}

// Sentinel kinds for profile validation.
var (
	ErrMissingSeries   = errors.New("profile needs distribution and growth builders")
	ErrUnnamedMetric   = errors.New("metric has no name")
	ErrDuplicateMetric = errors.New("duplicate metric name")
	ErrAmbiguousSource = errors.New("metric must have exactly one source")
	ErrServerFormat    = errors.New("server metric must be percent or decimal")
)
