package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/five82/pilotdeck/internal/pilot"
)

const (
	// Knots below which the speed alarm lights.
	minSpeed = 1.5
	// Degrees between course and set point above which the heading alarm
	// lights.
	maxHeadingError = 20.0
	// Degrees per second the rudder can swing the boat.
	turnRate = 6.0
	maxSpeed = 8.0
)

// BoatOptions seed a Boat.
type BoatOptions struct {
	Lat, Lng float64
	Course   float64
	Speed    float64
	Seed     int64
	NoGPSFix bool
}

// Boat is a crude sailing boat with an autopilot. Safe for concurrent use.
type Boat struct {
	mu  sync.Mutex
	rng *rand.Rand

	lat, lng float64
	course   float64
	speed    float64

	enabled bool
	locked  float64 // course captured when the autopilot was engaged
	offset  float64
	noFix   bool
}

// NewBoat returns a boat at the given position, autopilot off.
func NewBoat(opts BoatOptions) *Boat {
	return &Boat{
		rng:    rand.New(rand.NewSource(opts.Seed)),
		lat:    opts.Lat,
		lng:    opts.Lng,
		course: normalizeHeading(opts.Course),
		speed:  opts.Speed,
		noFix:  opts.NoGPSFix,
	}
}

// Status reports the autopilot the way GET /autopilot does.
func (b *Boat) Status() pilot.AutopilotStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return pilot.AutopilotStatus{
		Enabled:       b.enabled,
		SetPoint:      b.setPoint(),
		Course:        b.course,
		HeadingOffset: b.offset,
		Speed:         b.speed,
	}
}

// Apply changes the autopilot. Engaging it locks the current course.
func (b *Boat) Apply(c pilot.Control) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.Enabled && !b.enabled {
		b.locked = b.course
	}
	b.enabled = c.Enabled
	b.offset = c.HeadingOffset
}

// SetGPSFix toggles the simulated GPS fix.
func (b *Boat) SetGPSFix(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noFix = !ok
}

// Alarms derives the dashboard LEDs from the boat state.
func (b *Boat) Alarms() pilot.Dashboard {
	b.mu.Lock()
	defer b.mu.Unlock()
	headingError := math.Abs(angleDiff(b.setPoint(), b.course))
	return pilot.Dashboard{
		pilot.NoGPSFix:                b.noFix,
		pilot.InvalidGPSData:          false,
		pilot.SpeedTooLow:             b.speed < minSpeed,
		pilot.HeadingErrorOutOfBounds: b.enabled && headingError > maxHeadingError,
		pilot.CorrectionAtLimit:       b.enabled && headingError > 2*maxHeadingError,
	}
}

// Step advances the simulation by dt and returns the new position.
func (b *Boat) Step(dt time.Duration) (lat, lng float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	secs := dt.Seconds()

	b.speed = math.Max(0, math.Min(maxSpeed, b.speed+(b.rng.Float64()-0.5)*0.2*secs))
	if b.enabled {
		diff := angleDiff(b.setPoint(), b.course)
		turn := math.Max(-turnRate*secs, math.Min(turnRate*secs, diff))
		b.course = normalizeHeading(b.course + turn + (b.rng.Float64()-0.5)*secs)
	} else {
		b.course = normalizeHeading(b.course + (b.rng.Float64()-0.5)*4*secs)
	}

	// Knots to degrees: one nautical mile is one minute of latitude.
	dist := b.speed * secs / 3600 / 60
	rad := b.course * math.Pi / 180
	b.lat += dist * math.Cos(rad)
	if c := math.Cos(b.lat * math.Pi / 180); c > 1e-6 {
		b.lng += dist * math.Sin(rad) / c
	}
	return b.lat, b.lng
}

func (b *Boat) setPoint() float64 {
	if !b.enabled {
		return b.course
	}
	return normalizeHeading(b.locked + b.offset)
}

func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// angleDiff returns to-from folded into (-180, 180].
func angleDiff(to, from float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
