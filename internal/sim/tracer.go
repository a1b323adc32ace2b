package sim

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/five82/pilotdeck/internal/geo"
)

// Fix is one recorded boat position.
type Fix struct {
	Lat  float64
	Lng  float64
	Time time.Time
}

// Tracer keeps the most recent positions in a fixed-size ring.
type Tracer struct {
	mu   sync.Mutex
	ring []Fix
	next int
	full bool
}

// NewTracer returns a tracer remembering up to size fixes. A zero size
// records nothing.
func NewTracer(size int) *Tracer {
	if size < 0 {
		size = 0
	}
	return &Tracer{ring: make([]Fix, size)}
}

// Add records a fix, overwriting the oldest once the ring is full.
func (t *Tracer) Add(f Fix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.ring) == 0 {
		return
	}
	t.ring[t.next] = f
	t.next++
	if t.next == len(t.ring) {
		t.next = 0
		t.full = true
	}
}

// Fixes returns the recorded positions, oldest first.
func (t *Tracer) Fixes() []Fix {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		out := make([]Fix, t.next)
		copy(out, t.ring[:t.next])
		return out
	}
	out := make([]Fix, 0, len(t.ring))
	out = append(out, t.ring[t.next:]...)
	out = append(out, t.ring[:t.next]...)
	return out
}

// Len reports how many fixes are held.
func (t *Tracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.full {
		return len(t.ring)
	}
	return t.next
}

// Heat bins the fixes inside b into a vert x horiz grid. Each occupied cell
// becomes one point at the cell's mean position, weighted by its fix count.
// A non-positive resolution returns every fix with weight 1.
func (t *Tracer) Heat(b geo.Bounds, res geo.Resolution) []geo.Point {
	fixes := t.Fixes()

	vert, horiz := int(res.Vert), int(res.Horiz)
	if vert <= 0 || horiz <= 0 || b.Height() <= 0 || b.Width() <= 0 {
		out := make([]geo.Point, 0, len(fixes))
		for _, f := range fixes {
			if b.Contains(f.Lat, f.Lng) {
				out = append(out, geo.Point{Lat: f.Lat, Lng: f.Lng, Weight: 1})
			}
		}
		return out
	}

	type cell struct {
		lat, lng float64
		n        int
	}
	cells := make(map[int]*cell)
	for _, f := range fixes {
		if !b.Contains(f.Lat, f.Lng) {
			continue
		}
		row := clampIndex((f.Lat-b.MinLat)/b.Height()*float64(vert), vert)
		col := clampIndex((f.Lng-b.MinLng)/b.Width()*float64(horiz), horiz)
		idx := row*horiz + col
		c, ok := cells[idx]
		if !ok {
			c = &cell{}
			cells[idx] = c
		}
		c.lat += f.Lat
		c.lng += f.Lng
		c.n++
	}

	indexes := make([]int, 0, len(cells))
	for idx := range cells {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]geo.Point, 0, len(indexes))
	for _, idx := range indexes {
		c := cells[idx]
		n := float64(c.n)
		out = append(out, geo.Point{Lat: c.lat / n, Lng: c.lng / n, Weight: n})
	}
	return out
}

func clampIndex(v float64, n int) int {
	i := int(math.Floor(v))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
