package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/snaptrust/internal/domain/model"
)

// Thresholds below (or above, for risk rates) which a recommendation is made.
const (
	minRepaymentRate  = 0.9
	maxDefaultRate    = 0.1
	maxDisputeRate    = 0.05
	minEngagement     = 0.7
	minCompliance     = 0.8
	minResponsiveness = 0.7
)

// RuleGenerator writes deterministic insights from the subject's metrics.
type RuleGenerator struct{}

// NewRuleGenerator creates a RuleGenerator.
func NewRuleGenerator() *RuleGenerator { return &RuleGenerator{} }

// Generate implements Generator. It never fails.
func (g *RuleGenerator) Generate(_ context.Context, s Subject) (Insight, error) {
	summary, err := json.Marshal(summarize(s))
	if err != nil {
		return Insight{}, err
	}
	recs, err := json.Marshal(recommend(s))
	if err != nil {
		return Insight{}, err
	}
	return Insight{Summary: summary, Recommendations: recs, Source: SourceRules}, nil
}

func summarize(s Subject) string {
	name := s.Name
	if name == "" {
		name = s.ID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s has a trust score of %s", name, fixed(s.Score))
	if s.Tier != "" {
		fmt.Fprintf(&b, " and sits in the %s tier", s.Tier)
	}
	b.WriteString(". ")

	f := s.Fields
	switch s.Kind {
	case model.KindMerchant:
		fmt.Fprintf(&b, "Repayment rate is %s%%, dispute rate %s%% and default rate %s%%. ",
			pct(f[model.FieldRepaymentRate]), pct(f[model.FieldDisputeRate]), pct(f[model.FieldDefaultRate]))
		fmt.Fprintf(&b, "After %d months it scores %s%% on engagement, %s%% on compliance and %s%% on responsiveness.",
			int(f[model.FieldTenureMonths]), pct(f[model.FieldEngagementScore]), pct(f[model.FieldComplianceScore]), pct(f[model.FieldResponsivenessScore]))
		if s.Exclusive {
			b.WriteString(" The merchant is exclusive.")
		}
	default:
		fmt.Fprintf(&b, "Repayment rate is %s%% and default rate %s%%, with %d disputes on a volume of %s.",
			pct(f[model.FieldRepaymentRate]), pct(f[model.FieldDefaultRate]), int(f[model.FieldDisputeCount]), fixed(f[model.FieldTransactionVolume]))
	}
	return b.String()
}

func recommend(s Subject) []Recommendation {
	f := s.Fields
	var out []Recommendation

	if f[model.FieldRepaymentRate] < minRepaymentRate {
		out = append(out, Recommendation{
			Title:       "Improve repayment rate",
			Description: fmt.Sprintf("Only %s%% of payments were collected. Automated reminders and flexible schedules help.", pct(f[model.FieldRepaymentRate])),
		})
	}
	if f[model.FieldDefaultRate] > maxDefaultRate {
		out = append(out, Recommendation{
			Title:       "Reduce defaults",
			Description: fmt.Sprintf("The default rate is %s%%. Review credit limits and follow up on overdue payments early.", pct(f[model.FieldDefaultRate])),
		})
	}

	switch s.Kind {
	case model.KindMerchant:
		if f[model.FieldDisputeRate] > maxDisputeRate {
			out = append(out, Recommendation{
				Title:       "Resolve disputes faster",
				Description: fmt.Sprintf("%s%% of transactions are disputed. Clearer terms and quicker resolution lower this.", pct(f[model.FieldDisputeRate])),
			})
		}
		if f[model.FieldEngagementScore] < minEngagement {
			out = append(out, Recommendation{Title: "Increase engagement", Description: "Run loyalty campaigns and promote the merchant to active customers."})
		}
		if f[model.FieldComplianceScore] < minCompliance {
			out = append(out, Recommendation{Title: "Strengthen compliance", Description: "Audit payment terms and documentation against the programme requirements."})
		}
		if f[model.FieldResponsivenessScore] < minResponsiveness {
			out = append(out, Recommendation{Title: "Respond to customers sooner", Description: "Set response time targets for customer and support requests."})
		}
		if !s.Exclusive {
			out = append(out, Recommendation{Title: "Consider exclusivity", Description: "Exclusive merchants receive a trust score bonus."})
		}
	default:
		if f[model.FieldDisputeCount] > 0 {
			out = append(out, Recommendation{
				Title:       "Follow up on disputes",
				Description: fmt.Sprintf("%d disputes were raised. Each one lowers the trust score.", int(f[model.FieldDisputeCount])),
			})
		}
	}

	if len(out) == 0 {
		out = append(out, Recommendation{Title: "Maintain current performance", Description: "All tracked metrics are within healthy ranges."})
	}
	return out
}

func fixed(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }

func pct(ratio float64) string { return decimal.NewFromFloat(ratio).Shift(2).StringFixed(2) }
