// Package distribution computes categorical frequency distributions.
package distribution

import "github.com/okian/snaptrust/internal/domain/model"

// Undefined labels members whose category was not reported. They are kept in
// the distribution so totals always match the collection size.
const Undefined = "undefined"

// Exclusivity labels.
const (
	Exclusive    = "Exclusive"
	NonExclusive = "Non-Exclusive"
)

// Slice is one category with its member count.
type Slice struct {
	Label string `json:"name"`
	Count int    `json:"value"`
}

// Count tallies items per label in first-seen order. Callers choose the
// visual order.
func Count[E any](items []E, label func(E) string) []Slice {
	out := make([]Slice, 0)
	index := make(map[string]int)
	for _, item := range items {
		l := label(item)
		if i, ok := index[l]; ok {
			out[i].Count++
			continue
		}
		index[l] = len(out)
		out = append(out, Slice{Label: l, Count: 1})
	}
	return out
}

// Total returns the sum of slice counts.
func Total(slices []Slice) int {
	n := 0
	for _, s := range slices {
		n += s.Count
	}
	return n
}

// Tier labels an entity by loyalty tier.
func Tier(e model.Entity) string {
	if t, ok := e.Tier(); ok {
		return t
	}
	return Undefined
}

// Exclusivity labels a merchant by its exclusivity flag.
func Exclusivity(e model.Entity) string {
	if e.Exclusive {
		return Exclusive
	}
	return NonExclusive
}
