package geo

import (
	"errors"
	"math"
	"testing"
)

func TestPartition_TilesReconstructBounds(t *testing.T) {
	bounds := Bounds{MinLat: 47.1, MaxLat: 48.35, MinLng: -3.7, MaxLng: -1.15}
	res := Resolution{Vert: 400, Horiz: 640}

	for _, n := range []int{1, 2, 4} {
		tiles, err := Partition(bounds, res, n)
		if err != nil {
			t.Fatalf("Partition(n=%d) returned error: %v", n, err)
		}
		if len(tiles) != n*n {
			t.Fatalf("Partition(n=%d) len = %d, want %d", n, len(tiles), n*n)
		}

		for idx, tile := range tiles {
			if tile.Index != idx {
				t.Fatalf("n=%d tile %d Index = %d", n, idx, tile.Index)
			}
			if tile.Index != tile.Row*n+tile.Col {
				t.Fatalf("n=%d tile %d not row-major: row=%d col=%d", n, idx, tile.Row, tile.Col)
			}
			if tile.Resolution.Vert != res.Vert/float64(n) || tile.Resolution.Horiz != res.Horiz/float64(n) {
				t.Fatalf("n=%d tile %d resolution = %v, want parent/%d", n, idx, tile.Resolution, n)
			}
			if tile.Bounds.Height() <= 0 || tile.Bounds.Width() <= 0 {
				t.Fatalf("n=%d tile %d has empty area: %s", n, idx, tile.Bounds)
			}

			// Shared edges must match exactly: no gaps, no overlap.
			if tile.Col+1 < n {
				right := tiles[idx+1]
				if tile.Bounds.MaxLng != right.Bounds.MinLng {
					t.Fatalf("n=%d gap between %d and %d: %v != %v", n, idx, idx+1, tile.Bounds.MaxLng, right.Bounds.MinLng)
				}
			}
			if tile.Row+1 < n {
				above := tiles[idx+n]
				if tile.Bounds.MaxLat != above.Bounds.MinLat {
					t.Fatalf("n=%d gap between %d and %d: %v != %v", n, idx, idx+n, tile.Bounds.MaxLat, above.Bounds.MinLat)
				}
			}

			// Outer edges equal the parent's.
			if tile.Row == 0 && tile.Bounds.MinLat != bounds.MinLat {
				t.Fatalf("n=%d tile %d MinLat = %v, want %v", n, idx, tile.Bounds.MinLat, bounds.MinLat)
			}
			if tile.Row == n-1 && tile.Bounds.MaxLat != bounds.MaxLat {
				t.Fatalf("n=%d tile %d MaxLat = %v, want %v", n, idx, tile.Bounds.MaxLat, bounds.MaxLat)
			}
			if tile.Col == 0 && tile.Bounds.MinLng != bounds.MinLng {
				t.Fatalf("n=%d tile %d MinLng = %v, want %v", n, idx, tile.Bounds.MinLng, bounds.MinLng)
			}
			if tile.Col == n-1 && tile.Bounds.MaxLng != bounds.MaxLng {
				t.Fatalf("n=%d tile %d MaxLng = %v, want %v", n, idx, tile.Bounds.MaxLng, bounds.MaxLng)
			}
		}

		var area float64
		for _, tile := range tiles {
			area += tile.Bounds.Height() * tile.Bounds.Width()
		}
		want := bounds.Height() * bounds.Width()
		if math.Abs(area-want) > 1e-9 {
			t.Fatalf("n=%d total area = %v, want %v", n, area, want)
		}
	}
}

func TestPartition_SingleTileIsParent(t *testing.T) {
	bounds := Bounds{MinLat: 1, MaxLat: 2, MinLng: 3, MaxLng: 4}
	tiles, err := Partition(bounds, Resolution{Vert: 10, Horiz: 20}, 1)
	if err != nil {
		t.Fatalf("Partition returned error: %v", err)
	}
	if tiles[0].Bounds != bounds {
		t.Fatalf("tile bounds = %s, want %s", tiles[0].Bounds, bounds)
	}
	if tiles[0].Resolution != (Resolution{Vert: 10, Horiz: 20}) {
		t.Fatalf("tile resolution = %v, want parent", tiles[0].Resolution)
	}
}

func TestPartition_RejectsDegenerateInput(t *testing.T) {
	good := Bounds{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 1}
	tests := []struct {
		name   string
		bounds Bounds
		n      int
	}{
		{"zero grid", good, 0},
		{"negative grid", good, -2},
		{"zero height", Bounds{MinLat: 1, MaxLat: 1, MinLng: 0, MaxLng: 1}, 2},
		{"zero width", Bounds{MinLat: 0, MaxLat: 1, MinLng: 5, MaxLng: 5}, 2},
		{"inverted", Bounds{MinLat: 1, MaxLat: 0, MinLng: 0, MaxLng: 1}, 1},
		{"nan", Bounds{MinLat: math.NaN(), MaxLat: 1, MinLng: 0, MaxLng: 1}, 1},
		{"inf", Bounds{MinLat: 0, MaxLat: math.Inf(1), MinLng: 0, MaxLng: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles, err := Partition(tt.bounds, Resolution{Vert: 1, Horiz: 1}, tt.n)
			if !errors.Is(err, ErrInvalidPartition) {
				t.Fatalf("Partition error = %v, want ErrInvalidPartition", err)
			}
			if tiles != nil {
				t.Fatalf("Partition tiles = %v, want nil", tiles)
			}
		})
	}
}

func TestBounds_PanAndZoom(t *testing.T) {
	b := Bounds{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 20}

	panned := b.Pan(0.5, -0.25)
	if panned != (Bounds{MinLat: 5, MaxLat: 15, MinLng: -5, MaxLng: 15}) {
		t.Fatalf("Pan = %s", panned)
	}

	zoomed := b.Zoom(0.5)
	if zoomed != (Bounds{MinLat: 2.5, MaxLat: 7.5, MinLng: 5, MaxLng: 15}) {
		t.Fatalf("Zoom = %s", zoomed)
	}
}

func TestPoint_Key(t *testing.T) {
	p := Point{Lat: 47.5, Lng: -2.25, Weight: 1}
	if got := p.Key(); got != "47.5:-2.25:1" {
		t.Fatalf("Key = %q, want %q", got, "47.5:-2.25:1")
	}
}
