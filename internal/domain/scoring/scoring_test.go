package scoring_test

import (
	"math"
	"testing"

	scoring "github.com/okian/snaptrust/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScorer_Customer(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		scorer := scoring.NewScorer()

		Convey("When scoring a flawless customer", func() {
			score := scorer.Customer(scoring.CustomerInput{RepaymentRate: 1})

			Convey("Then the score should be the maximum", func() {
				So(score, ShouldEqual, 100.0)
				So(scorer.Tier(score), ShouldEqual, scoring.TierGold)
			})
		})

		Convey("When scoring a customer with one dispute", func() {
			score := scorer.Customer(scoring.CustomerInput{RepaymentRate: 0.9, DefaultRate: 0.1, DisputeCount: 1})

			Convey("Then each component should be weighted", func() {
				So(score, ShouldAlmostEqual, 90.0, 0.001)
			})
		})

		Convey("When disputes exceed the scale", func() {
			score := scorer.Customer(scoring.CustomerInput{DefaultRate: 1, DisputeCount: 20})

			Convey("Then the score should not go below zero", func() {
				So(score, ShouldEqual, 0.0)
				So(scorer.Tier(score), ShouldEqual, scoring.TierBronze)
			})
		})

		Convey("When rates are not finite", func() {
			score := scorer.Customer(scoring.CustomerInput{RepaymentRate: math.NaN(), DefaultRate: math.Inf(1)})

			Convey("Then they should count as zero", func() {
				So(score, ShouldAlmostEqual, 50.0, 0.001)
			})
		})
	})
}

func TestScorer_Merchant(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		scorer := scoring.NewScorer()
		in := scoring.MerchantInput{
			RepaymentRate:       0.8,
			DisputeRate:         0.1,
			DefaultRate:         0.1,
			EngagementScore:     0.5,
			ComplianceScore:     0.8,
			ResponsivenessScore: 0.6,
		}

		Convey("When scoring a non-exclusive merchant", func() {
			score := scorer.Merchant(in)

			Convey("Then the weighted sum should be returned", func() {
				So(score, ShouldAlmostEqual, 76.5, 0.001)
				So(scorer.Tier(score), ShouldEqual, scoring.TierBronze)
			})
		})

		Convey("When the merchant is exclusive", func() {
			in.Exclusive = true
			score := scorer.Merchant(in)

			Convey("Then the bonus should be added", func() {
				So(score, ShouldAlmostEqual, 81.5, 0.001)
				So(scorer.Tier(score), ShouldEqual, scoring.TierSilver)
			})
		})

		Convey("When a perfect merchant is exclusive", func() {
			score := scorer.Merchant(scoring.MerchantInput{
				RepaymentRate:       1,
				EngagementScore:     1,
				ComplianceScore:     1,
				ResponsivenessScore: 1,
				Exclusive:           true,
			})

			Convey("Then the score should be capped", func() {
				So(score, ShouldEqual, 100.0)
			})
		})
	})
}

func TestScorer_Options(t *testing.T) {
	Convey("Given a scorer with custom options", t, func() {
		scorer := scoring.NewScorer(
			scoring.WithTierThresholds(95, 70),
			scoring.WithExclusivityBonus(0),
			scoring.WithDisputeScale(5),
		)

		Convey("Then custom thresholds should apply", func() {
			So(scorer.Tier(94.99), ShouldEqual, scoring.TierSilver)
			So(scorer.Tier(95), ShouldEqual, scoring.TierGold)
			So(scorer.Tier(69.99), ShouldEqual, scoring.TierBronze)
		})

		Convey("Then the dispute scale should apply", func() {
			score := scorer.Customer(scoring.CustomerInput{RepaymentRate: 1, DisputeCount: 5})
			So(score, ShouldAlmostEqual, 80.0, 0.001)
		})

		Convey("Then exclusivity should add nothing", func() {
			in := scoring.MerchantInput{RepaymentRate: 0.5}
			plain := scorer.Merchant(in)
			in.Exclusive = true
			So(scorer.Merchant(in), ShouldEqual, plain)
		})
	})

	Convey("Given invalid thresholds", t, func() {
		scorer := scoring.NewScorer(scoring.WithTierThresholds(50, 80))

		Convey("Then the defaults should be kept", func() {
			So(scorer.Tier(90), ShouldEqual, scoring.TierGold)
			So(scorer.Tier(80), ShouldEqual, scoring.TierSilver)
		})
	})
}
