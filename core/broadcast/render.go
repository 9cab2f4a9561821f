package broadcast

import (
	"strconv"
	"strings"

	"github.com/easycab-sim/central/core/registry"
)

// DefaultWidth and DefaultHeight are the fixed city grid dimensions.
const (
	DefaultWidth  = 20
	DefaultHeight = 20
)

// Renderer builds the derived grid view from a registry snapshot. The
// grid is recomputed on every render and never mutated elsewhere.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer returns a renderer for the given grid size, falling back
// to the 20x20 default for non-positive dimensions.
func NewRenderer(width, height int) Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return Renderer{Width: width, Height: height}
}

// Render lays out locations first and taxis last, so a taxi marker wins
// any contested cell. Entities outside the grid bounds are left off the
// view. Cells are indexed grid[y][x].
func (r Renderer) Render(snap registry.Snapshot) [][]string {
	grid := make([][]string, r.Height)
	for y := range grid {
		grid[y] = make([]string, r.Width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}
	for _, loc := range snap.Locations {
		if loc.Position.In(r.Width, r.Height) {
			grid[loc.Position.Y][loc.Position.X] = loc.ID
		}
	}
	for _, t := range snap.Taxis {
		if t.Position.In(r.Width, r.Height) {
			grid[t.Position.Y][t.Position.X] = strconv.Itoa(t.ID)
		}
	}
	return grid
}

// Frame renders the grid as text with a '#' border, one rune per cell,
// for the operator log.
func Frame(grid [][]string) string {
	if len(grid) == 0 {
		return ""
	}
	var b strings.Builder
	border := strings.Repeat("#", len(grid[0])+2)
	b.WriteString(border)
	b.WriteByte('\n')
	for _, row := range grid {
		b.WriteByte('#')
		for _, cell := range row {
			if cell == "" {
				cell = " "
			}
			b.WriteString(cell[:1])
		}
		b.WriteByte('#')
		b.WriteByte('\n')
	}
	b.WriteString(border)
	return b.String()
}
