package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"empty", "", 0},
		{"decimal km", "2.3 km", 2.3},
		{"integer", "4km", 4},
		{"sub kilometre", "<1km", 0.5},
		{"sub kilometre upper case", "<1KM", 0.5},
		{"less than phrase", "Less than 1km", 0.5},
		{"sub kilometre ignores trailing digits", "<1km (0.8)", 0.5},
		{"number inside text", "about 7.25 kilometres away", 7.25},
		{"first number wins", "3 to 5 km", 3},
		{"no digits", "far away", 0},
		{"only punctuation", "-.-", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistanceKm(tt.in))
		})
	}
}

func TestDistanceKmIsNeverNegative(t *testing.T) {
	assert.Equal(t, 2.0, DistanceKm("-2 km"))
}

func TestOrderHour(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12:00 AM", 0},
		{"12:00 PM", 12},
		{"11:59 PM", 23},
		{"1:15 AM", 1},
		{"10:45 AM, 12 Jan", 10},
		{"09:05 PM, 3 Feb 2024", 21},
		{"  7:30 PM  , later", 19},
		{"", 12},
		{"noon", 12},
		{"10:45, 12 Jan", 12},
		{"25:00 PM", 12},
		{"13:00 PM", 12},
		{"0:30 AM", 12},
		{"10:61 AM", 12},
		{"AM", 12},
		{"ten AM", 12},
		{"10:45AM", 12},
		{"10:5 AM", 10},
		{"7:09 PM", 19},
		{"10:45 pm, PM", 22},
		{"12:00 am, AM", 0},
		{"10:45 pm", 12},
		{"10:  AM", 12},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderHour(tt.in))
		})
	}
}

func TestOrderHourRoundTripsEveryClockTime(t *testing.T) {
	for h24 := 0; h24 < 24; h24++ {
		h12, suffix := h24%12, "AM"
		if h12 == 0 {
			h12 = 12
		}
		if h24 >= 12 {
			suffix = "PM"
		}
		for _, minute := range []string{"00", "30", "59"} {
			in := formatClock(h12, minute, suffix)
			assert.Equal(t, h24, OrderHour(in), in)
		}
	}
}

func formatClock(hour int, minute, suffix string) string {
	digits := "0123456789"
	h := string(digits[hour%10])
	if hour >= 10 {
		h = string(digits[hour/10]) + h
	}
	return h + ":" + minute + " " + suffix
}

func TestVectorOrdering(t *testing.T) {
	v := NewVector(2, 10, 3, 9)

	assert.Equal(t, Vector{2, 10, 3, 9}, v)
	assert.Equal(t, 2.0, v.DistanceKm())
	assert.Equal(t, 10.0, v.KPTMinutes())
	assert.Equal(t, 3.0, v.RiderWaitMinutes())
	assert.Equal(t, 9, v.Hour())
	assert.Equal(t, "Distance_numeric", Names[0])
	assert.Equal(t, "order_hour", Names[3])
}

func TestMatchesNames(t *testing.T) {
	require.NoError(t, MatchesNames(Names[:]))

	swapped := []string{KPTDuration, DistanceNumeric, RiderWaitTime, OrderHourFeature}
	assert.Error(t, MatchesNames(swapped))
	assert.Error(t, MatchesNames(Names[:3]))
}
