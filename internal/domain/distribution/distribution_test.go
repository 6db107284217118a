package distribution_test

import (
	"testing"

	"github.com/okian/snaptrust/internal/domain/distribution"
	"github.com/okian/snaptrust/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func tiered(tiers ...string) []model.Entity {
	out := make([]model.Entity, len(tiers))
	for i, t := range tiers {
		out[i] = model.Entity{ID: t, LoyaltyTier: model.StringPtr(t)}
	}
	return out
}

func TestCount(t *testing.T) {
	Convey("Given entities with tiers Gold, Gold, Silver", t, func() {
		entities := tiered("Gold", "Gold", "Silver")

		out := distribution.Count(entities, distribution.Tier)

		Convey("Then it should count each tier", func() {
			So(out, ShouldResemble, []distribution.Slice{
				{Label: "Gold", Count: 2},
				{Label: "Silver", Count: 1},
			})
		})

		Convey("And the total should equal the collection length", func() {
			So(distribution.Total(out), ShouldEqual, len(entities))
		})
	})

	Convey("Given an entity without a tier", t, func() {
		entities := append(tiered("Bronze"), model.Entity{ID: "x"})

		out := distribution.Count(entities, distribution.Tier)

		Convey("Then it should be counted under the undefined label", func() {
			So(out, ShouldContain, distribution.Slice{Label: distribution.Undefined, Count: 1})
			So(distribution.Total(out), ShouldEqual, 2)
		})
	})

	Convey("Given merchants with exclusivity flags", t, func() {
		merchants := []model.Entity{
			{ID: "M1", Exclusive: true},
			{ID: "M2"},
			{ID: "M3", Exclusive: true},
		}

		out := distribution.Count(merchants, distribution.Exclusivity)

		Convey("Then it should split exclusive and non-exclusive", func() {
			So(out, ShouldResemble, []distribution.Slice{
				{Label: distribution.Exclusive, Count: 2},
				{Label: distribution.NonExclusive, Count: 1},
			})
		})
	})

	Convey("Given an empty collection", t, func() {
		out := distribution.Count([]model.Entity{}, distribution.Tier)

		Convey("Then it should return an empty, non-nil set", func() {
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}
