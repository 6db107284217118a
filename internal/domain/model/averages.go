package model

import (
	"encoding/json"
	"math"
)

// Server-side averages keys, as published by the analytics service.
const (
	AvgTrustScore          = "AverageTrustScore"
	AvgRepaymentRate       = "AverageRepaymentRate"
	AvgDisputeRate         = "AverageDisputeRate"
	AvgDefaultRate         = "AverageDefaultRate"
	AvgComplianceScore     = "AverageComplianceScore"
	AvgEngagementScore     = "AverageEngagementScore"
	AvgResponsivenessScore = "AverageResponsivenessScore"
	AvgTransactionVolume   = "AverageTransactionVolume"
)

// Averages maps a metric name to a server-computed ratio (0..1) or scalar.
// It may be nil, partially populated or carry non-numeric values.
type Averages map[string]any

// Lookup returns the named value when it is present and a finite number.
func (a Averages) Lookup(name string) (float64, bool) {
	if a == nil {
		return 0, false
	}
	v, ok := a[name]
	if !ok {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
