package benchmark_test

import (
	"testing"

	"github.com/okian/snaptrust/internal/domain/benchmark"
	"github.com/okian/snaptrust/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Given a merchant detail and merchant averages", t, func() {
		d := model.Detail{
			Kind:       model.KindMerchant,
			ID:         "M001",
			Name:       "Corner Shop",
			TrustScore: model.Num(91),
			Fields: map[string]float64{
				model.FieldRepaymentRate:     0.95,
				model.FieldDisputeRate:       0.02,
				model.FieldComplianceScore:   0.8,
				model.FieldTransactionVolume: 1500,
			},
		}
		avg := model.Averages{
			model.AvgTrustScore:        85.5,
			model.AvgRepaymentRate:     0.9,
			model.AvgDisputeRate:       0.02,
			model.AvgComplianceScore:   0.85,
			model.AvgEngagementScore:   0.7,
			model.AvgTransactionVolume: "n/a",
		}

		r := benchmark.Compare(d, avg)

		Convey("Then figures should be compared in display order", func() {
			So(r.ID, ShouldEqual, "M001")
			So(r.Comparisons, ShouldResemble, []benchmark.Comparison{
				{Field: model.FieldTrustScore, Value: 91, Average: 85.5, Delta: 5.5, Position: benchmark.Above},
				{Field: model.FieldRepaymentRate, Value: 0.95, Average: 0.9, Delta: 0.05, Position: benchmark.Above},
				{Field: model.FieldDisputeRate, Value: 0.02, Average: 0.02, Delta: 0, Position: benchmark.At},
				{Field: model.FieldComplianceScore, Value: 0.8, Average: 0.85, Delta: -0.05, Position: benchmark.Below},
			})
		})

		Convey("And figures missing on either side should be skipped", func() {
			for _, c := range r.Comparisons {
				So(c.Field, ShouldNotEqual, model.FieldEngagementScore)
				So(c.Field, ShouldNotEqual, model.FieldTransactionVolume)
			}
		})

		Convey("And the averages should be carried through", func() {
			So(r.Averages, ShouldResemble, avg)
		})
	})

	Convey("Given no averages and an invalid trust score", t, func() {
		r := benchmark.Compare(model.Detail{Kind: model.KindCustomer, ID: "C1"}, nil)

		Convey("Then the report should be empty but well formed", func() {
			So(r.Comparisons, ShouldNotBeNil)
			So(r.Comparisons, ShouldBeEmpty)
			So(r.Averages, ShouldNotBeNil)
		})
	})
}
