package calendar

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	march15 := NewDate(2024, time.March, 15)

	tests := []struct {
		name   string
		raw    any
		want   Date
		wantOK bool
	}{
		{"nil", nil, Date{}, false},
		{"empty string", "   ", Date{}, false},
		{"iso", "2024-03-15", march15, true},
		{"iso with time and zone", "2024-03-15T23:30:00-03:00", march15, true},
		{"year led slashes", "2024/3/15", march15, true},
		{"month first two digit year", "03/15/24", march15, true},
		{"month first four digit year", "3/15/2024", march15, true},
		{"month first with trailing time", "03/15/2024 10:30:00", march15, true},
		{"whitespace noise", "  03/15/24\r\n", march15, true},
		{"embedded iso", "Turno del 2024-03-15 a las 10", march15, true},
		{"embedded slash", "Fecha: 03/15/2024", march15, true},
		{"earliest embedded wins", "de 03/15/2024 hasta 2024-04-01", march15, true},
		{"day first rejected", "15/03/2024", Date{}, false},
		{"month out of range", "2024-13-01", Date{}, false},
		{"day out of range", "03/32/24", Date{}, false},
		{"three digit year", "03/15/202", Date{}, false},
		{"plain text", "mañana", Date{}, false},
		{"nested value", map[string]any{"value": "03/15/24"}, march15, true},
		{"nested displayValue", map[string]any{"displayValue": "2024-03-15"}, march15, true},
		{"nested label string map", map[string]string{"label": "2024-03-15"}, march15, true},
		{"object without known keys", map[string]any{"foo": "2024-03-15"}, Date{}, false},
		{"epoch millis", float64(march15.Time().UnixMilli()), march15, true},
		{"epoch millis int64", march15.Time().UnixMilli() + 3600_000, march15, true},
		{"json number", json.Number("1710460800000"), march15, true},
		{"NaN", math.NaN(), Date{}, false},
		{"infinity", math.Inf(1), Date{}, false},
		{"time value", time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), march15, true},
		{"unsupported type", []int{1}, Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want.ISO(), got.ISO())
			}
		})
	}
}

func TestParseMonthFirstAndISOAgree(t *testing.T) {
	slash, ok := Parse("03/15/24")
	require.True(t, ok)
	iso, ok := Parse("2024-03-15")
	require.True(t, ok)
	assert.True(t, slash.Equal(iso))
}

func TestParseRoundTripISO(t *testing.T) {
	start := NewDate(2023, time.January, 1)
	for i := 0; i < 800; i++ {
		d := start.AddDays(i)
		got, ok := Parse(d.ISO())
		require.True(t, ok, d.ISO())
		require.True(t, d.Equal(got), "round trip of %s gave %s", d, got)
	}
}

func TestParseStoreFormatRoundTrip(t *testing.T) {
	d := NewDate(2025, time.November, 4)
	got, ok := Parse(StoreFormat(d))
	require.True(t, ok)
	assert.Equal(t, "2025-11-04", got.ISO())
}

func TestToHHMM(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, ""},
		{"already canonical", "09:30", "09:30"},
		{"with seconds", "09:30:00", "09:30"},
		{"single digit hour", "9:05", "09:05"},
		{"surrounded by text", " Turno 14:00 hs ", "14:00"},
		{"first of list", "09:00:00, 10:30:00", "09:00"},
		{"nested object", map[string]any{"text": "8:15:00"}, "08:15"},
		{"object without keys", map[string]any{"x": "8:15"}, ""},
		{"no time passthrough", "  a confirmar ", "a confirmar"},
		{"time value", time.Date(2024, 1, 1, 7, 45, 0, 0, time.UTC), "07:45"},
		{"number passthrough", 9, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHHMM(tt.raw))
		})
	}
}

func TestToHHMMIdempotent(t *testing.T) {
	inputs := []any{"9:30", "09:30:00", "23:59", " x ", "", "18:00 - 18:30", "123:45", map[string]any{"value": "7:00"}}
	for _, in := range inputs {
		once := ToHHMM(in)
		assert.Equal(t, once, ToHHMM(once), "input %v", in)
	}
}

func TestSplitTimes(t *testing.T) {
	assert.Equal(t, []string{"09:00", "10:30"}, SplitTimes("09:00:00, 10:30:00"))
	assert.Equal(t, []string{"09:00", "10:30"}, SplitTimes([]any{"9:00", "10:30:00", " "}))
	assert.Equal(t, []string{"11:00", "11:30"}, SplitTimes(map[string]any{"value": "11:00,11:30"}))
	assert.Equal(t, []string{"08:00"}, SplitTimes([]string{"08:00"}))
	assert.Nil(t, SplitTimes(nil))
	assert.Empty(t, SplitTimes(" , "))
}
