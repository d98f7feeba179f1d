// Package units holds the pure numeric conversions used during ingestion.
// Upstream payloads mix numbers, numeric strings, empty strings and nulls;
// everything unparseable maps to nil so a bad field never corrupts a row.
package units

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat coerces a decoded JSON value to a float. nil, empty string and
// non-numeric strings yield nil.
func ToFloat(v any) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		f := x
		return &f
	case int:
		f := float64(x)
		return &f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// ToInt coerces a decoded JSON value to an integer, truncating toward zero.
// Strings with a fractional part parse like "10.5" -> 10.
func ToInt(v any) *int {
	f := ToFloat(v)
	if f == nil {
		return nil
	}
	n := int(math.Trunc(*f))
	return &n
}

// KmhToMs converts a wind speed from km/h to m/s. nil in, nil out.
func KmhToMs(v any) *float64 {
	f := ToFloat(v)
	if f == nil {
		return nil
	}
	ms := *f / 3.6
	return &ms
}
