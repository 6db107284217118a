package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Numeric is a loosely-typed number decoded from an upstream payload.
// Numbers and numeric strings are valid; anything else (null, bool, text,
// objects) is kept as invalid and reads as zero.
type Numeric struct {
	value float64
	valid bool
}

// Num builds a valid Numeric.
func Num(v float64) Numeric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Numeric{}
	}
	return Numeric{value: v, valid: true}
}

// Invalid returns a Numeric that carries no number.
func Invalid() Numeric { return Numeric{} }

// NumericFrom converts an arbitrary decoded JSON value.
func NumericFrom(v any) Numeric {
	switch t := v.(type) {
	case float64:
		return Num(t)
	case float32:
		return Num(float64(t))
	case int:
		return Num(float64(t))
	case int64:
		return Num(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Numeric{}
		}
		return Num(f)
	case string:
		return parseNumericString(t)
	}
	return Numeric{}
}

func parseNumericString(s string) Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return Numeric{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Numeric{}
	}
	return Num(f)
}

// Float returns the number, or zero when invalid.
func (n Numeric) Float() float64 {
	if !n.valid {
		return 0
	}
	return n.value
}

// Valid reports whether a number was decoded.
func (n Numeric) Valid() bool { return n.valid }

// UnmarshalJSON never fails on shape: unknown payloads decode as invalid.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		*n = Numeric{}
		return nil //nolint:nilerr // malformed values degrade to invalid
	}
	*n = NumericFrom(v)
	return nil
}

// MarshalJSON writes the number, or null when invalid.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// Flag is a truthy marker decoded from bools, numbers or strings ("1", "true").
type Flag bool

// UnmarshalJSON accepts any JSON scalar and applies truthiness.
func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*f = false
		return nil //nolint:nilerr // malformed values degrade to false
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*f = s != "" && s != "0" && s != "false"
	default:
		*f = false
	}
	return nil
}

// MarshalJSON writes the flag as 0/1, matching the dataset encoding.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}
