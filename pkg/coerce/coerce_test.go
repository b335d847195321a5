package coerce

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMissing(t *testing.T) {
	missing := []any{
		nil,
		math.NaN(),
		math.Inf(1),
		math.Inf(-1),
		float32(float64(math.NaN())),
		"",
		"NaT",
		"NaN",
		"nan",
		"None",
		"<NA>",
		"null",
		"  NaT  ",
	}
	for _, v := range missing {
		assert.True(t, IsMissing(v), "expected missing: %#v", v)
	}

	present := []any{
		0,
		0.0,
		"0",
		"SOFT",
		"1:23.456",
		false,
	}
	for _, v := range present {
		assert.False(t, IsMissing(v), "expected present: %#v", v)
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"duration", 83456 * time.Millisecond, 83.456, true},
		{"float seconds", 88.2, 88.2, true},
		{"int seconds", 95, 95, true},
		{"numeric string", "88.201", 88.201, true},
		{"minutes colon seconds", "1:23.456", 83.456, true},
		{"hours minutes seconds", "0:01:23.456", 83.456, true},
		{"pandas timedelta", "0 days 00:01:23.456000", 83.456, true},
		{"one day timedelta", "1 day 00:00:01", 86401, true},
		{"sentinel NaT", "NaT", 0, false},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"garbage", "fastest", 0, false},
		{"too many segments", "1:2:3:4", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Seconds(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int", 7, 7, true},
		{"float truncates", 1.0, 1, true},
		{"float with fraction truncates", 3.9, 3, true},
		{"integer string", "12", 12, true},
		{"float string", "1.0", 1, true},
		{"sentinel", "NaN", 0, false},
		{"nil", nil, 0, false},
		{"word", "DNF", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Int(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"plain", "VER", "VER", true},
		{"trims", "  VER  ", "VER", true},
		{"whole float drops decimal", 33.0, "33", true},
		{"fractional float", 33.5, "33.5", true},
		{"int", 44, "44", true},
		{"bool", true, "true", true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"sentinel None", "None", "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := String(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPtrHelpers(t *testing.T) {
	require.Nil(t, SecondsPtr("NaT"))
	require.Nil(t, IntPtr(nil))
	require.Nil(t, StringPtr(""))

	sec := SecondsPtr("1:23.456")
	require.NotNil(t, sec)
	assert.InDelta(t, 83.456, *sec, 1e-9)

	pos := IntPtr("1.0")
	require.NotNil(t, pos)
	assert.Equal(t, int64(1), *pos)

	s := StringPtr(" SOFT ")
	require.NotNil(t, s)
	assert.Equal(t, "SOFT", *s)
}
