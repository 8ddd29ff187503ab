package features

import "fmt"

// Column names of the feature vector, in the order models are trained with.
const (
	DistanceNumeric  = "Distance_numeric"
	KPTDuration      = "KPT duration (minutes)"
	RiderWaitTime    = "Rider wait time (minutes)"
	OrderHourFeature = "order_hour"
	NumFeatures      = 4
)

var Names = [NumFeatures]string{DistanceNumeric, KPTDuration, RiderWaitTime, OrderHourFeature}

// DisplayNames label the same columns for humans.
var DisplayNames = [NumFeatures]string{"Distance", "KPT Duration", "Rider Wait Time", "Order Hour"}

// Vector is one classifier input row ordered as Names.
type Vector [NumFeatures]float64

func NewVector(distanceKm, kptMinutes, riderWaitMinutes float64, hour int) Vector {
	return Vector{distanceKm, kptMinutes, riderWaitMinutes, float64(hour)}
}

func (v Vector) DistanceKm() float64       { return v[0] }
func (v Vector) KPTMinutes() float64       { return v[1] }
func (v Vector) RiderWaitMinutes() float64 { return v[2] }
func (v Vector) Hour() int                 { return int(v[3]) }

// MatchesNames reports whether names equals Names element by element.
func MatchesNames(names []string) error {
	if len(names) != NumFeatures {
		return fmt.Errorf("expected %d features, got %d", NumFeatures, len(names))
	}
	for i, n := range names {
		if n != Names[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, n, Names[i])
		}
	}
	return nil
}
