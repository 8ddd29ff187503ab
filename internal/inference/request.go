package inference

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chrisdamba/orderly/internal/features"
	"github.com/goccy/go-json"
)

// Defaults applied to absent request fields.
const (
	DefaultDistance      = "1km"
	DefaultKPTDuration   = 15.0
	DefaultRiderWaitTime = 5.0
	DefaultOrderTime     = "12:00 PM"
)

// FlexValue accepts a JSON string or number. An explicit null leaves it unset
// but is remembered in Null.
type FlexValue struct {
	Text string
	Set  bool
	Null bool
}

func Text(s string) FlexValue { return FlexValue{Text: s, Set: true} }

func Number(f float64) FlexValue {
	return FlexValue{Text: strconv.FormatFloat(f, 'f', -1, 64), Set: true}
}

func (v *FlexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = FlexValue{Null: true}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", b)
	}
	*v = FlexValue{Text: n.String(), Set: true}
	return nil
}

func (v FlexValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

// Request is the predict payload; every field is optional.
type Request struct {
	Distance      FlexValue `json:"Distance"`
	KPTDuration   FlexValue `json:"KPT_duration"`
	RiderWaitTime FlexValue `json:"Rider_wait_time"`
	OrderTime     FlexValue `json:"Order_time"`
}

var errNotFinite = errors.New("must be a finite number")

// Vector converts the request into classifier input, applying defaults to
// absent fields. A null Distance has no number in it and reads as 0 km; null
// elsewhere means the default.
func (r Request) Vector() (features.Vector, error) {
	distance := DefaultDistance
	switch {
	case r.Distance.Set:
		distance = r.Distance.Text
	case r.Distance.Null:
		distance = ""
	}
	orderTime := DefaultOrderTime
	if r.OrderTime.Set {
		orderTime = r.OrderTime.Text
	}
	kpt, err := numberOr(r.KPTDuration, DefaultKPTDuration)
	if err != nil {
		return features.Vector{}, &Error{Op: "parse", Field: "KPT_duration", Err: err}
	}
	wait, err := numberOr(r.RiderWaitTime, DefaultRiderWaitTime)
	if err != nil {
		return features.Vector{}, &Error{Op: "parse", Field: "Rider_wait_time", Err: err}
	}
	return features.NewVector(features.DistanceKm(distance), kpt, wait, features.OrderHour(orderTime)), nil
}

func numberOr(v FlexValue, fallback float64) (float64, error) {
	if !v.Set {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, fmt.Errorf("could not convert %q to float", v.Text)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}
