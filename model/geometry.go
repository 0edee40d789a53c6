package model

import "math"

// Vec2 is a point or velocity on the simulation plane, in metres (or m/s).
type Vec2 struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean distance between two points.
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Norm returns the length of v.
func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Rectangle is an axis-aligned area [MinX,MaxX] x [MinY,MaxY].
type Rectangle struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MinY float64 `yaml:"min_y" json:"min_y"`
	MaxY float64 `yaml:"max_y" json:"max_y"`
}

// Valid reports whether the rectangle is well formed: finite corners with
// min <= max on both axes.
func (r Rectangle) Valid() bool {
	for _, v := range [...]float64{r.MinX, r.MaxX, r.MinY, r.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

// Width returns the extent along X.
func (r Rectangle) Width() float64 { return r.MaxX - r.MinX }

// Height returns the extent along Y.
func (r Rectangle) Height() float64 { return r.MaxY - r.MinY }

// Contains reports whether p lies inside the rectangle, borders included.
func (r Rectangle) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}
