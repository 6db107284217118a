// Package bucket groups a collection into ordered frequency buckets keyed by
// a derived value such as a calendar month or a tenure in months.
package bucket

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Bucket is one group of items sharing a key, with its member count.
type Bucket[K comparable] struct {
	Key   K
	Count int
}

// Ascending orders keys by their natural order: lexicographic for strings,
// numeric for numbers.
func Ascending[K cmp.Ordered](a, b K) int { return cmp.Compare(a, b) }

// Group counts items per distinct key and returns the buckets sorted by order.
// The sum of all counts equals len(items). A panicking key function propagates.
func Group[E any, K comparable](items []E, key func(E) K, order func(a, b K) int) []Bucket[K] {
	if len(items) == 0 {
		return []Bucket[K]{}
	}

	index := make(map[K]int, len(items))
	out := make([]Bucket[K], 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Bucket[K]{Key: k, Count: 1})
	}

	slices.SortStableFunc(out, func(a, b Bucket[K]) int { return order(a.Key, b.Key) })
	return out
}

// Total returns the sum of bucket counts.
func Total[K comparable](buckets []Bucket[K]) int {
	n := 0
	for _, b := range buckets {
		n += b.Count
	}
	return n
}

// monthLayout is the calendar bucket key format.
const monthLayout = "2006-01"

// dateLayouts are the creation-date encodings accepted from upstream records.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"2006/01/02",
}

// ParseDate parses raw as a creation date. Missing or unparseable input
// yields now, so the record is still counted.
func ParseDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

// MonthKey returns the "YYYY-MM" key of a raw date, falling back to now.
func MonthKey(raw string, now time.Time) string {
	return ParseDate(raw, now).Format(monthLayout)
}

// MonthOf formats t as a calendar bucket key.
func MonthOf(t time.Time) string { return t.Format(monthLayout) }
