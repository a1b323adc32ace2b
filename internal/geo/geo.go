// Package geo has the map geometry: bounds, resolutions, points and the
// grid partitioner.
package geo

import (
	"fmt"
	"math"
	"strconv"
)

// Bounds is a lat/lng rectangle. Min values are inclusive south-west, Max
// values north-east.
type Bounds struct {
	MinLat float64 `toml:"min_lat" json:"minLat"`
	MaxLat float64 `toml:"max_lat" json:"maxLat"`
	MinLng float64 `toml:"min_lng" json:"minLng"`
	MaxLng float64 `toml:"max_lng" json:"maxLng"`
}

// Height returns the latitude extent.
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

// Width returns the longitude extent.
func (b Bounds) Width() float64 { return b.MaxLng - b.MinLng }

// Contains reports whether lat/lng falls inside b (edges included).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Pan shifts the rectangle by a fraction of its own size.
func (b Bounds) Pan(fracLat, fracLng float64) Bounds {
	dLat := b.Height() * fracLat
	dLng := b.Width() * fracLng
	return Bounds{
		MinLat: b.MinLat + dLat,
		MaxLat: b.MaxLat + dLat,
		MinLng: b.MinLng + dLng,
		MaxLng: b.MaxLng + dLng,
	}
}

// Zoom scales the rectangle around its center. factor < 1 zooms in.
func (b Bounds) Zoom(factor float64) Bounds {
	cLat := (b.MinLat + b.MaxLat) / 2
	cLng := (b.MinLng + b.MaxLng) / 2
	halfH := b.Height() * factor / 2
	halfW := b.Width() * factor / 2
	return Bounds{
		MinLat: cLat - halfH,
		MaxLat: cLat + halfH,
		MinLng: cLng - halfW,
		MaxLng: cLng + halfW,
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.5f,%.5f]x[%.5f,%.5f]", b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
}

func (b Bounds) valid() bool {
	for _, v := range []float64{b.MinLat, b.MaxLat, b.MinLng, b.MaxLng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.MaxLat > b.MinLat && b.MaxLng > b.MinLng
}

// Resolution is the number of samples the caller wants along each axis of a
// query, usually derived from the viewport size in pixels.
type Resolution struct {
	Vert  float64 `toml:"vert_def" json:"vertDef"`
	Horiz float64 `toml:"horiz_def" json:"horizDef"`
}

// Point is a weighted position on the map.
type Point struct {
	Lat    float64
	Lng    float64
	Weight float64
}

// Key identifies a point for deduplication.
func (p Point) Key() string {
	return formatFloat(p.Lat) + ":" + formatFloat(p.Lng) + ":" + formatFloat(p.Weight)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
