package core

import (
	"fmt"
	"strings"

	"github.com/gpauusa/sms17-project/model"
)

// GridLayout selects whether the grid fills rows or columns first.
type GridLayout string

const (
	RowFirst    GridLayout = "row_first"
	ColumnFirst GridLayout = "column_first"
)

// ParseGridLayout maps a configuration string to a layout; empty means RowFirst.
func ParseGridLayout(s string) (GridLayout, error) {
	switch GridLayout(strings.ToLower(strings.TrimSpace(s))) {
	case "", RowFirst:
		return RowFirst, nil
	case ColumnFirst:
		return ColumnFirst, nil
	default:
		return "", fmt.Errorf("unknown grid layout %q", s)
	}
}

// GridPositionAllocator places nodes on a regular grid. The placement is
// deterministic and uses no randomness.
type GridPositionAllocator struct {
	MinX      float64    `yaml:"min_x" json:"min_x"`
	MinY      float64    `yaml:"min_y" json:"min_y"`
	DeltaX    float64    `yaml:"delta_x" json:"delta_x"`
	DeltaY    float64    `yaml:"delta_y" json:"delta_y"`
	GridWidth int        `yaml:"grid_width" json:"grid_width"`
	Layout    GridLayout `yaml:"layout_type" json:"layout_type"`
}

// PositionFor returns the starting position of node i. With RowFirst, node i
// sits in column i mod GridWidth of row i / GridWidth; ColumnFirst swaps the
// roles of rows and columns.
func (g GridPositionAllocator) PositionFor(i int) model.Vec2 {
	width := g.GridWidth
	if width < 1 {
		width = 1
	}
	a, b := i%width, i/width
	if g.Layout == ColumnFirst {
		return model.Vec2{X: g.MinX + float64(b)*g.DeltaX, Y: g.MinY + float64(a)*g.DeltaY}
	}
	return model.Vec2{X: g.MinX + float64(a)*g.DeltaX, Y: g.MinY + float64(b)*g.DeltaY}
}

// Place assigns grid positions to nodes in id order.
func (g GridPositionAllocator) Place(nodes []*model.Node) {
	for _, n := range nodes {
		n.Position = g.PositionFor(n.ID)
	}
}
