package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pilotdeck/internal/geo"
)

// shades from empty to densest.
var shades = []rune(" .:-=+*#%@")

// densityGrid sums point weights into a rows x cols grid covering b. Row 0
// is the northern edge. Points outside b are ignored.
func densityGrid(points []geo.Point, b geo.Bounds, rows, cols int) [][]float64 {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = make([]float64, cols)
	}
	h, w := b.Height(), b.Width()
	if h <= 0 || w <= 0 {
		return grid
	}
	for _, p := range points {
		if !b.Contains(p.Lat, p.Lng) {
			continue
		}
		row := cellIndex((b.MaxLat-p.Lat)/h, rows)
		col := cellIndex((p.Lng-b.MinLng)/w, cols)
		grid[row][col] += p.Weight
	}
	return grid
}

func cellIndex(frac float64, n int) int {
	i := int(math.Floor(frac * float64(n)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// shadeLevel maps v onto 0..levels-1 relative to max; any non-zero value
// gets at least level 1 so single fixes stay visible.
func shadeLevel(v, max float64, levels int) int {
	if v <= 0 || max <= 0 || levels < 2 {
		return 0
	}
	lvl := int(math.Ceil(v / max * float64(levels-1)))
	if lvl < 1 {
		lvl = 1
	}
	if lvl > levels-1 {
		lvl = levels - 1
	}
	return lvl
}

// renderHeat draws grid with the shade ramp, coloring each level from
// palette. An empty palette renders plain text.
func renderHeat(grid [][]float64, palette []string) string {
	max := 0.0
	for _, row := range grid {
		for _, v := range row {
			max = math.Max(max, v)
		}
	}

	styles := make([]lipgloss.Style, len(shades))
	for i := range styles {
		styles[i] = lipgloss.NewStyle()
		if i > 0 && len(palette) > 0 {
			c := palette[(i-1)*len(palette)/(len(shades)-1)]
			styles[i] = styles[i].Foreground(lipgloss.Color(c))
		}
	}

	var b strings.Builder
	for r, row := range grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			lvl := shadeLevel(v, max, len(shades))
			if lvl == 0 {
				b.WriteRune(shades[0])
				continue
			}
			b.WriteString(styles[lvl].Render(string(shades[lvl])))
		}
	}
	return b.String()
}
