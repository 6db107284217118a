// Package scoring computes trust scores and loyalty tiers from repayment and
// engagement metrics.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Loyalty tiers, from best to worst.
const (
	TierGold   = "Gold"
	TierSilver = "Silver"
	TierBronze = "Bronze"
)

// Default scoring configuration constants.
const (
	defaultGoldThreshold   = 90
	defaultSilverThreshold = 80
	defaultExclusiveBonus  = 5
	defaultDisputeScale    = 10
	maxScoreValue          = 100
	scorePlaces            = 2
)

// Customer weights.
const (
	customerRepaymentWeight = 0.5
	customerDefaultWeight   = 0.3
	customerDisputeWeight   = 0.2
)

// Merchant weights.
const (
	merchantRepaymentWeight      = 0.3
	merchantDefaultWeight        = 0.2
	merchantDisputeWeight        = 0.1
	merchantEngagementWeight     = 0.15
	merchantComplianceWeight     = 0.15
	merchantResponsivenessWeight = 0.1
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithTierThresholds sets the minimum scores for Gold and Silver.
func WithTierThresholds(gold, silver float64) Option {
	return func(s *Scorer) {
		if gold > silver && silver > 0 {
			s.gold = gold
			s.silver = silver
		}
	}
}

// WithExclusivityBonus sets the points added to exclusive merchants.
func WithExclusivityBonus(bonus float64) Option {
	return func(s *Scorer) {
		if bonus >= 0 {
			s.exclusiveBonus = bonus
		}
	}
}

// WithDisputeScale sets the dispute count at which the dispute component
// reaches zero.
func WithDisputeScale(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.disputeScale = float64(n)
		}
	}
}

// CustomerInput is the aggregated payment behaviour of a customer.
type CustomerInput struct {
	RepaymentRate float64
	DefaultRate   float64
	DisputeCount  int
}

// MerchantInput is the loyalty record of a merchant. Rates and scores are 0..1.
type MerchantInput struct {
	RepaymentRate       float64
	DisputeRate         float64
	DefaultRate         float64
	TransactionVolume   float64
	EngagementScore     float64
	ComplianceScore     float64
	ResponsivenessScore float64
	Exclusive           bool
}

// Scorer computes trust scores in the 0..100 range, rounded to two decimals.
// It is stateless after construction and safe for concurrent use.
type Scorer struct {
	gold           float64
	silver         float64
	exclusiveBonus float64
	disputeScale   float64
}

// NewScorer creates a scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		gold:           defaultGoldThreshold,
		silver:         defaultSilverThreshold,
		exclusiveBonus: defaultExclusiveBonus,
		disputeScale:   defaultDisputeScale,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Customer scores a customer from repayment, default and dispute behaviour.
func (s *Scorer) Customer(in CustomerInput) float64 {
	score := (finite(in.RepaymentRate)*customerRepaymentWeight +
		(1-finite(in.DefaultRate))*customerDefaultWeight +
		(1-float64(in.DisputeCount)/s.disputeScale)*customerDisputeWeight) * maxScoreValue
	return round(clamp(score))
}

// Merchant scores a merchant; exclusive merchants get a bonus before capping.
func (s *Scorer) Merchant(in MerchantInput) float64 {
	score := (finite(in.RepaymentRate)*merchantRepaymentWeight +
		(1-finite(in.DefaultRate))*merchantDefaultWeight +
		(1-finite(in.DisputeRate))*merchantDisputeWeight +
		finite(in.EngagementScore)*merchantEngagementWeight +
		finite(in.ComplianceScore)*merchantComplianceWeight +
		finite(in.ResponsivenessScore)*merchantResponsivenessWeight) * maxScoreValue
	if in.Exclusive {
		score += s.exclusiveBonus
	}
	return round(clamp(score))
}

// Tier assigns a loyalty tier to a trust score.
func (s *Scorer) Tier(score float64) string {
	switch {
	case score >= s.gold:
		return TierGold
	case score >= s.silver:
		return TierSilver
	default:
		return TierBronze
	}
}

// finite maps NaN and infinities to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v float64) float64 { return math.Max(0, math.Min(maxScoreValue, v)) }

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(scorePlaces).InexactFloat64()
}
