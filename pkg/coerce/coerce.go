// Package coerce converts provider-native scalar values of uncertain
// representation into normalized Go types. The provider mixes numbers,
// duration strings, and a handful of "no data" sentinels inside the same
// column, so every conversion here degrades to absence instead of failing.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingSentinels are the provider's spellings of "no value". Comparison is
// done on the trimmed string form.
var missingSentinels = map[string]struct{}{
	"":     {},
	"NaT":  {},
	"NaN":  {},
	"nan":  {},
	"None": {},
	"<NA>": {},
	"null": {},
}

// IsMissing reports whether the value is one of the provider's missing-data
// sentinels: nil, a non-finite float, or a sentinel string.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	case float32:
		return math.IsNaN(float64(x)) || math.IsInf(float64(x), 0)
	case string:
		_, ok := missingSentinels[strings.TrimSpace(x)]
		return ok
	default:
		return false
	}
}

// Seconds converts a duration-like value to float seconds. It accepts
// time.Duration, plain numbers (already seconds), numeric strings, and
// clock-style duration strings ("1:23.456", "0:01:23.456",
// "0 days 00:01:23.456000"). Returns ok=false for sentinels and anything
// unrecognizable; it never fails loudly.
func Seconds(v any) (float64, bool) {
	if IsMissing(v) {
		return 0, false
	}

	switch x := v.(type) {
	case time.Duration:
		return x.Seconds(), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		return parseClockDuration(s)
	default:
		return 0, false
	}
}

// parseClockDuration handles "[D days ][HH:]MM:SS[.ffffff]" forms, which is
// how the provider serializes timedeltas.
func parseClockDuration(s string) (float64, bool) {
	var days float64
	if i := strings.Index(s, "days"); i >= 0 {
		d, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		if err != nil {
			return 0, false
		}
		days = d
		s = strings.TrimSpace(s[i+len("days"):])
	} else if i := strings.Index(s, "day"); i >= 0 {
		d, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		if err != nil {
			return 0, false
		}
		days = d
		s = strings.TrimSpace(s[i+len("day"):])
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	total := days * 24 * 3600
	multiplier := 1.0
	for i := len(parts) - 1; i >= 0; i-- {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return 0, false
		}
		total += f * multiplier
		multiplier *= 60
	}
	return total, true
}

// Int converts a numeric-like value to int64, truncating fractional parts
// the way the provider's position column arrives ("1.0").
func Int(v any) (int64, bool) {
	if IsMissing(v) {
		return 0, false
	}

	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// String converts a value to its trimmed string form. Sentinels and empty
// results are absent.
func String(v any) (string, bool) {
	if IsMissing(v) {
		return "", false
	}

	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		// Whole-valued floats print without the trailing ".0" pandas adds.
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// SecondsPtr, IntPtr and StringPtr are pointer-returning forms used when
// filling optional model fields.

func SecondsPtr(v any) *float64 {
	if f, ok := Seconds(v); ok {
		return &f
	}
	return nil
}

func IntPtr(v any) *int64 {
	if n, ok := Int(v); ok {
		return &n
	}
	return nil
}

func StringPtr(v any) *string {
	if s, ok := String(v); ok {
		return &s
	}
	return nil
}
