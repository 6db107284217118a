package snapshot

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Unavailable is the display value of a metric with no figure.
const Unavailable = "—"

// displayPlaces is the number of decimals of every rendered ratio or mean.
const displayPlaces = 2

// Format is the display shape of a metric.
type Format int

// Metric formats.
const (
	// FormatCount is a plain integer.
	FormatCount Format = iota
	// FormatDecimal is a number rounded to two decimals.
	FormatDecimal
	// FormatPercent is a 0..1 ratio scaled by 100 and rounded to two decimals.
	FormatPercent
	// FormatText is free text, such as an entity name.
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatCount:
		return "count"
	case FormatDecimal:
		return "decimal"
	case FormatPercent:
		return "percent"
	default:
		return "text"
	}
}

// Value is a display-ready metric value: a count, a fixed two-decimal
// figure, text, or the unavailable sentinel. It never holds NaN.
type Value struct {
	format    Format
	available bool
	count     int
	text      string
}

// Count builds an integer value.
func Count(n int) Value { return Value{format: FormatCount, available: true, count: n} }

// Decimal rounds f to two decimals. Non-finite input is unavailable.
func Decimal(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing(FormatDecimal)
	}
	return Value{format: FormatDecimal, available: true, text: decimal.NewFromFloat(f).StringFixed(displayPlaces)}
}

// Percent scales a ratio by 100 and rounds to two decimals. Non-finite input
// is unavailable.
func Percent(ratio float64) Value {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Missing(FormatPercent)
	}
	return Value{format: FormatPercent, available: true, text: decimal.NewFromFloat(ratio).Shift(2).StringFixed(displayPlaces)}
}

// Text builds a text value; empty text is unavailable.
func Text(s string) Value {
	if s == "" {
		return Missing(FormatText)
	}
	return Value{format: FormatText, available: true, text: s}
}

// Missing is the unavailable sentinel for a metric of the given format.
func Missing(f Format) Value { return Value{format: f} }

// Format returns the display shape.
func (v Value) Format() Format { return v.format }

// IsAvailable reports whether the value carries a figure.
func (v Value) IsAvailable() bool { return v.available }

// Int returns the count for count values.
func (v Value) Int() (int, bool) {
	if !v.available || v.format != FormatCount {
		return 0, false
	}
	return v.count, true
}

// String renders the display form. Percent values carry no "%" suffix; the
// presentation layer adds it.
func (v Value) String() string {
	if !v.available {
		return Unavailable
	}
	if v.format == FormatCount {
		return strconv.Itoa(v.count)
	}
	return v.text
}

// MarshalJSON writes counts as numbers and everything else as display strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.available && v.format == FormatCount {
		return []byte(strconv.Itoa(v.count)), nil
	}
	return json.Marshal(v.String())
}
