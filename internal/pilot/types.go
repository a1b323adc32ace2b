package pilot

import (
	"encoding/json"
	"math"

	"github.com/five82/pilotdeck/internal/geo"
)

// AutopilotStatus mirrors the payload returned by GET /api/autopilot.
type AutopilotStatus struct {
	Enabled       bool    `json:"enabled"`
	SetPoint      float64 `json:"setPoint"`
	Course        float64 `json:"course"`
	HeadingOffset float64 `json:"headingOffset"`
	Speed         float64 `json:"speed"`
}

// Control is the body of PUT /api/autopilot.
type Control struct {
	Enabled       bool    `json:"enabled"`
	HeadingOffset float64 `json:"headingOffset"`
}

// Dashboard maps alarm names to their lit state, as returned by
// GET /api/dashboard.
type Dashboard map[string]bool

// Clone returns an independent copy. A nil Dashboard stays nil.
func (d Dashboard) Clone() Dashboard {
	if d == nil {
		return nil
	}
	dup := make(Dashboard, len(d))
	for k, v := range d {
		dup[k] = v
	}
	return dup
}

// WirePoint is one element of the GET /api/points array.
type WirePoint struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Weight    json.RawMessage `json:"weight,omitempty"`
}

// Point converts the wire form, defaulting the weight to 1 when it is
// missing, not a number, not finite or not positive.
func (w WirePoint) Point() geo.Point {
	return geo.Point{Lat: w.Latitude, Lng: w.Longitude, Weight: weightOf(w.Weight)}
}

const defaultWeight = 1

func weightOf(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return defaultWeight
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return defaultWeight
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return defaultWeight
	}
	return v
}
