// Package benchmark sets one entity's figures against its population averages.
package benchmark

import (
	"github.com/shopspring/decimal"

	"github.com/okian/snaptrust/internal/domain/model"
)

// Positions relative to the population average.
const (
	Above = "above"
	Below = "below"
	At    = "at"
)

// deltaPlaces keeps ratio deltas readable without losing basis points.
const deltaPlaces = 4

// Comparison is one entity figure next to its population average.
type Comparison struct {
	Field    string  `json:"field"`
	Value    float64 `json:"value"`
	Average  float64 `json:"average"`
	Delta    float64 `json:"delta"`
	Position string  `json:"position"`
}

// Report is an entity benchmarked against its peers.
type Report struct {
	Kind        model.Kind     `json:"kind"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	TrustScore  model.Numeric  `json:"trustScore"`
	Comparisons []Comparison   `json:"comparisons"`
	Averages    model.Averages `json:"averages"`
}

type pair struct {
	field   string
	average string
}

// pairs lists comparable figures in display order. The trust score is read
// from the detail itself, everything else from its numeric fields.
var pairs = []pair{ //nolint:gochecknoglobals // read-only table
	{model.FieldTrustScore, model.AvgTrustScore},
	{model.FieldRepaymentRate, model.AvgRepaymentRate},
	{model.FieldDisputeRate, model.AvgDisputeRate},
	{model.FieldDefaultRate, model.AvgDefaultRate},
	{model.FieldComplianceScore, model.AvgComplianceScore},
	{model.FieldEngagementScore, model.AvgEngagementScore},
	{model.FieldResponsivenessScore, model.AvgResponsivenessScore},
	{model.FieldTransactionVolume, model.AvgTransactionVolume},
}

// Compare builds the report. A figure is compared only when both the entity
// value and a numeric average exist; nothing is ever estimated.
func Compare(d model.Detail, avg model.Averages) Report {
	if avg == nil {
		avg = model.Averages{}
	}
	r := Report{
		Kind:        d.Kind,
		ID:          d.ID,
		Name:        d.Name,
		TrustScore:  d.TrustScore,
		Comparisons: make([]Comparison, 0, len(pairs)),
		Averages:    avg,
	}
	for _, p := range pairs {
		mean, ok := avg.Lookup(p.average)
		if !ok {
			continue
		}
		v, ok := value(d, p.field)
		if !ok {
			continue
		}
		r.Comparisons = append(r.Comparisons, compare(p.field, v, mean))
	}
	return r
}

func value(d model.Detail, field string) (float64, bool) {
	if field == model.FieldTrustScore {
		return d.TrustScore.Float(), d.TrustScore.Valid()
	}
	v, ok := d.Fields[field]
	return v, ok
}

func compare(field string, v, mean float64) Comparison {
	delta := decimal.NewFromFloat(v).Sub(decimal.NewFromFloat(mean)).Round(deltaPlaces)
	c := Comparison{Field: field, Value: v, Average: mean, Delta: delta.InexactFloat64(), Position: At}
	switch delta.Sign() {
	case 1:
		c.Position = Above
	case -1:
		c.Position = Below
	}
	return c
}
