package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayNumberStartsOnSunday(t *testing.T) {
	// 2024-03-17 is a Sunday.
	sunday := NewDate(2024, time.March, 17)
	assert.Equal(t, 1, sunday.WeekdayNumber())
	assert.Equal(t, 2, sunday.AddDays(1).WeekdayNumber())
	assert.Equal(t, 7, sunday.AddDays(6).WeekdayNumber())
}

func TestRangeCountsAndOrder(t *testing.T) {
	start := NewDate(2024, time.February, 26)
	tests := []struct {
		name string
		span int
	}{
		{"single day", 0},
		{"across leap day", 5},
		{"two months", 61},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := start.AddDays(tt.span)
			days := Range(start, end)
			require.Len(t, days, tt.span+1)
			assert.True(t, days[0].Equal(start))
			assert.True(t, days[len(days)-1].Equal(end))
			for i := 1; i < len(days); i++ {
				assert.Equal(t, 1, days[i-1].DaysUntil(days[i]))
			}
		})
	}
}

func TestDaysUntilSpansCenturies(t *testing.T) {
	first := NewDate(1, time.January, 1)
	last := NewDate(9999, time.December, 31)
	assert.Equal(t, 3652058, first.DaysUntil(last))
	assert.Equal(t, -3652058, last.DaysUntil(first))
}

func TestRangeInvertedIsEmpty(t *testing.T) {
	start := NewDate(2024, time.March, 10)
	days := Range(start, start.AddDays(-1))
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestRepresentations(t *testing.T) {
	d := NewDate(2024, time.March, 5)
	assert.Equal(t, []string{"2024-03-05", "05/03/24", "03/05/24", "05/03/2024", "03/05/2024"}, Representations(d))

	same := NewDate(2024, time.April, 4)
	assert.Equal(t, []string{"2024-04-04", "04/04/24", "04/04/2024"}, Representations(same))
}

func TestParseISOStrict(t *testing.T) {
	d, err := ParseISO(" 2024-03-15 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.ISO())

	_, err = ParseISO("03/15/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Day Date `json:"day"`
	}{Day: NewDate(2024, time.March, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2024-03-15"}`, string(payload))

	var decoded struct {
		Day Date `json:"day"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "2024-03-15", decoded.Day.ISO())
}

func TestFromTimeUsesOwnLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	late := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-03-15", FromTime(late).ISO())
	assert.Equal(t, "2024-03-16", FromTime(late.UTC()).ISO())
}
