package bucket_test

import (
	"strings"
	"testing"
	"time"

	"github.com/okian/snaptrust/internal/domain/bucket"
	. "github.com/smartystreets/goconvey/convey"
)

type member struct {
	created string
	tenure  int
}

func TestGroup(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	monthKey := func(m member) string { return bucket.MonthKey(m.created, now) }
	tenureKey := func(m member) int { return m.tenure }

	Convey("Given an empty collection", t, func() {
		out := bucket.Group([]member{}, monthKey, bucket.Ascending[string])

		Convey("Then it should return an empty, non-nil sequence", func() {
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})

		Convey("And a nil collection should behave the same", func() {
			So(bucket.Group[member, string](nil, monthKey, bucket.Ascending[string]), ShouldBeEmpty)
		})
	})

	Convey("Given members created across several months", t, func() {
		members := []member{
			{created: "2024-11-03"},
			{created: "2024-02-10T08:00:00Z"},
			{created: "2024-11-28"},
			{created: ""},
			{created: "not a date"},
			{created: "2024/02/01"},
		}

		out := bucket.Group(members, monthKey, bucket.Ascending[string])

		Convey("Then buckets should be ordered lexicographically by month", func() {
			So(out, ShouldResemble, []bucket.Bucket[string]{
				{Key: "2024-02", Count: 2},
				{Key: "2024-11", Count: 2},
				{Key: "2025-03", Count: 2},
			})
		})

		Convey("And missing or unparseable dates should fall into the current month", func() {
			So(out[len(out)-1].Key, ShouldEqual, bucket.MonthOf(now))
		})

		Convey("And no member should be lost or double-counted", func() {
			So(bucket.Total(out), ShouldEqual, len(members))
		})
	})

	Convey("Given members with tenures", t, func() {
		members := []member{{tenure: 12}, {tenure: 3}, {tenure: 12}, {tenure: 0}, {tenure: 24}, {tenure: 3}}

		out := bucket.Group(members, tenureKey, bucket.Ascending[int])

		Convey("Then buckets should be ordered numerically, not lexicographically", func() {
			So(out, ShouldResemble, []bucket.Bucket[int]{
				{Key: 0, Count: 1},
				{Key: 3, Count: 2},
				{Key: 12, Count: 2},
				{Key: 24, Count: 1},
			})
			So(bucket.Total(out), ShouldEqual, len(members))
		})
	})

	Convey("Given a custom descending order", t, func() {
		desc := func(a, b string) int { return strings.Compare(b, a) }
		out := bucket.Group([]string{"a", "c", "b", "c"}, func(s string) string { return s }, desc)

		Convey("Then the order function should decide the sequence", func() {
			So(out[0], ShouldResemble, bucket.Bucket[string]{Key: "c", Count: 2})
			So(out[2].Key, ShouldEqual, "a")
		})
	})

	Convey("Given a key function that panics", t, func() {
		boom := func(member) string { panic("broken key") }

		Convey("Then the panic should propagate to the caller", func() {
			So(func() { bucket.Group([]member{{}}, boom, bucket.Ascending[string]) }, ShouldPanicWith, "broken key")
		})
	})
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)

	Convey("Given supported date layouts", t, func() {
		So(bucket.MonthKey("2024-07-09", now), ShouldEqual, "2024-07")
		So(bucket.MonthKey("2024-07-09 11:12:13", now), ShouldEqual, "2024-07")
		So(bucket.MonthKey("2023-12-31T23:59:59.5Z", now), ShouldEqual, "2023-12")
	})

	Convey("Given a missing date", t, func() {
		So(bucket.ParseDate("  ", now), ShouldEqual, now)
	})
}
