package features

import (
	"strings"
	"time"
)

const (
	DefaultHour = 12
	clockLayout = "3:4 PM" // minutes may be one digit
)

// OrderHour extracts the hour of day from timestamps like "10:45 AM, 12 Jan".
// Anything it cannot read resolves to noon.
func OrderHour(s string) int {
	if !strings.Contains(s, "AM") && !strings.Contains(s, "PM") {
		return DefaultHour
	}
	timePart, _, _ := strings.Cut(s, ",")
	timePart = strings.TrimSpace(timePart)

	// Go accepts "0:30 AM"; a 12-hour clock has no hour zero.
	if strings.HasPrefix(timePart, "0:") || strings.HasPrefix(timePart, "00:") {
		return DefaultHour
	}
	// the AM/PM gate above is case-sensitive, the clock itself is not
	t, err := time.Parse(clockLayout, strings.ToUpper(timePart))
	if err != nil {
		return DefaultHour
	}
	return t.Hour()
}
