// Package snapshot builds the presentation-ready metrics snapshot of an entity
// population from the entity collection and the server-computed averages.
//
// Snapshots are always rebuilt from scratch; no metric is ever updated in
// place. The builder holds no mutable state and is safe for concurrent use.
package snapshot

import (
	"time"

	"github.com/okian/snaptrust/internal/domain/distribution"
	"github.com/okian/snaptrust/internal/domain/model"
)

// Metric is one labelled figure of a snapshot.
type Metric struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Source Source `json:"source"`
	Value  Value  `json:"value"`
}

// Snapshot is one fully recomputed, immutable metrics result.
type Snapshot struct {
	Kind         model.Kind           `json:"kind"`
	AsOf         time.Time            `json:"as_of"`
	Metrics      []Metric             `json:"metrics"`
	Distribution []distribution.Slice `json:"distribution"`
	Growth       []Point              `json:"growth"`
}

// Value returns the named metric value.
func (s Snapshot) Value(name string) (Value, bool) {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// UnavailableCount returns how many metrics carry the sentinel.
func (s Snapshot) UnavailableCount() int {
	n := 0
	for _, m := range s.Metrics {
		if !m.Value.IsAvailable() {
			n++
		}
	}
	return n
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithClock sets the source of "now" used for calendar fallbacks.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// Builder assembles snapshots.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the wall clock unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes a snapshot. A nil or empty collection yields zero counts and
// sentinels for everything else, whatever the averages hold. Missing or
// non-numeric averages entries yield the sentinel.
func (b *Builder) Build(p Profile, entities []model.Entity, avg model.Averages) Snapshot {
	now := b.now()
	out := Snapshot{
		Kind:         p.Kind,
		AsOf:         now,
		Metrics:      make([]Metric, 0, len(p.Definitions)),
		Distribution: []distribution.Slice{},
		Growth:       []Point{},
	}

	if len(entities) == 0 {
		for _, d := range p.Definitions {
			out.Metrics = append(out.Metrics, Metric{Name: d.Name, Label: d.Label, Source: d.Source, Value: emptyValue(d)})
		}
		return out
	}

	in := Input{Entities: entities, Now: now}
	for _, d := range p.Definitions {
		out.Metrics = append(out.Metrics, Metric{Name: d.Name, Label: d.Label, Source: d.Source, Value: evaluate(d, in, avg)})
	}
	out.Distribution = distribution.Count(entities, p.Distribution)
	out.Growth = p.Growth(entities, now)
	return out
}

func evaluate(d Definition, in Input, avg model.Averages) Value {
	switch d.Source {
	case SourceLocal:
		return d.Local(in)
	case SourceServer:
		v, ok := avg.Lookup(d.ServerKey)
		if !ok {
			return Missing(d.Format)
		}
		if d.Format == FormatPercent {
			return Percent(v)
		}
		return Decimal(v)
	}
	return Missing(d.Format)
}

func emptyValue(d Definition) Value {
	if d.Source == SourceLocal && d.Format == FormatCount {
		return Count(0)
	}
	return Missing(d.Format)
}
