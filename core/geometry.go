package core

import (
	"math"

	"github.com/gpauusa/sms17-project/model"
)

// reflectInto folds a coordinate back inside [lo, hi] the way a ball bounces
// off a wall. flipped reports whether an odd number of bounces happened, in
// which case the velocity component must change sign. The fold works on the
// period 2*(hi-lo), so its cost does not depend on how far v overshoots.
func reflectInto(v, lo, hi float64) (out float64, flipped bool) {
	if hi <= lo {
		return lo, false
	}
	if v >= lo && v <= hi {
		return v, false
	}
	width := hi - lo
	var bounces float64
	if v > hi {
		bounces = math.Ceil((v - hi) / width)
	} else {
		bounces = math.Ceil((lo - v) / width)
	}

	m := math.Mod(v-lo, 2*width)
	if m < 0 {
		m += 2 * width
	}
	if m > width {
		m = 2*width - m
	}
	out = math.Min(math.Max(lo+m, lo), hi)
	return out, math.Mod(bounces, 2) == 1
}

// clampInto pins p inside r. Used for starting positions that sit on or
// slightly beyond a border because of floating point error.
func clampInto(p model.Vec2, r model.Rectangle) model.Vec2 {
	if p.X < r.MinX {
		p.X = r.MinX
	} else if p.X > r.MaxX {
		p.X = r.MaxX
	}
	if p.Y < r.MinY {
		p.Y = r.MinY
	} else if p.Y > r.MaxY {
		p.Y = r.MaxY
	}
	return p
}
