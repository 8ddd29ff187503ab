package features

import (
	"regexp"
	"strconv"
	"strings"
)

const subKilometre = 0.5

var numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// DistanceKm turns free text such as "2.3 km" or "<1km" into kilometres.
// It never fails: text without a number yields 0.
func DistanceKm(s string) float64 {
	if s == "" {
		return 0
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "<1km") || strings.Contains(lower, "less than 1km") {
		return subKilometre
	}
	match := numberPattern.FindString(lower)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}
