package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPartition is returned when bounds or grid size cannot produce a
// usable set of tiles.
var ErrInvalidPartition = errors.New("invalid partition")

// Tile is one cell of a partitioned query.
type Tile struct {
	Index      int
	Row        int
	Col        int
	Bounds     Bounds
	Resolution Resolution
}

// Partition splits bounds into an n x n grid in row-major order (index =
// row*n + col, rows along latitude). Tiles share their edges exactly and the
// outermost edges equal the input bounds. Each tile's resolution is the
// parent's divided by n on both axes.
func Partition(bounds Bounds, res Resolution, n int) ([]Tile, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: grid size %d", ErrInvalidPartition, n)
	}
	if !bounds.valid() {
		return nil, fmt.Errorf("%w: bounds %s", ErrInvalidPartition, bounds)
	}
	if math.IsNaN(res.Vert) || math.IsNaN(res.Horiz) {
		return nil, fmt.Errorf("%w: resolution %v", ErrInvalidPartition, res)
	}

	latEdges := edges(bounds.MinLat, bounds.MaxLat, n)
	lngEdges := edges(bounds.MinLng, bounds.MaxLng, n)
	tileRes := Resolution{Vert: res.Vert / float64(n), Horiz: res.Horiz / float64(n)}

	tiles := make([]Tile, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			tiles = append(tiles, Tile{
				Index: i*n + j,
				Row:   i,
				Col:   j,
				Bounds: Bounds{
					MinLat: latEdges[i],
					MaxLat: latEdges[i+1],
					MinLng: lngEdges[j],
					MaxLng: lngEdges[j+1],
				},
				Resolution: tileRes,
			})
		}
	}
	return tiles, nil
}

// edges returns n+1 cut points from lo to hi. The last one is hi itself so
// floating point drift never leaves a gap at the outer edge.
func edges(lo, hi float64, n int) []float64 {
	step := (hi - lo) / float64(n)
	out := make([]float64, n+1)
	for k := 0; k < n; k++ {
		out[k] = lo + float64(k)*step
	}
	out[n] = hi
	return out
}
