package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gpauusa/sms17-project/model"
	"github.com/gpauusa/sms17-project/randvar"
)

// MotionModel moves a node forward in simulated time.
type MotionModel interface {
	// Init prepares per-node state once the node has its starting position.
	Init(n *model.Node)
	// Step advances n by dt of simulated time.
	Step(n *model.Node, dt time.Duration)
}

// StaticMotionModel leaves nodes where they are.
type StaticMotionModel struct{}

func (StaticMotionModel) Init(n *model.Node) { n.Velocity = model.Vec2{} }

// Step for static motion does nothing.
func (StaticMotionModel) Step(*model.Node, time.Duration) {}

// WalkMode decides what triggers a new direction and speed.
type WalkMode string

const (
	// WalkModeDistance re-draws after ChangeDistance metres.
	WalkModeDistance WalkMode = "distance"
	// WalkModeTime re-draws after ChangeInterval of simulated time.
	WalkModeTime WalkMode = "time"
)

// ParseWalkMode maps a configuration string to a mode; empty means distance.
func ParseWalkMode(s string) (WalkMode, error) {
	switch WalkMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", WalkModeDistance:
		return WalkModeDistance, nil
	case WalkModeTime:
		return WalkModeTime, nil
	default:
		return "", fmt.Errorf("unknown walk mode %q", s)
	}
}

// WallBehaviour decides what a node does when it reaches the bounds.
type WallBehaviour string

const (
	// WallRedraw folds the node back inside and draws a fresh speed and a
	// heading pointing away from the wall.
	WallRedraw WallBehaviour = "redraw"
	// WallMirror folds the node back inside and mirrors the velocity
	// component normal to the wall, keeping the speed.
	WallMirror WallBehaviour = "mirror"
)

// ParseWallBehaviour maps a configuration string to a behaviour; empty means redraw.
func ParseWallBehaviour(s string) (WallBehaviour, error) {
	switch WallBehaviour(strings.ToLower(strings.TrimSpace(s))) {
	case "", WallRedraw:
		return WallRedraw, nil
	case WallMirror:
		return WallMirror, nil
	default:
		return "", fmt.Errorf("unknown wall behaviour %q", s)
	}
}

// MobilityConfig parameterises the bounded random walk.
type MobilityConfig struct {
	Bounds         model.Rectangle `yaml:"bounds" json:"bounds"`
	MinSpeed       float64         `yaml:"min_speed" json:"min_speed"` // m/s
	MaxSpeed       float64         `yaml:"max_speed" json:"max_speed"` // m/s
	Mode           WalkMode        `yaml:"mode" json:"mode"`
	ChangeInterval time.Duration   `yaml:"change_interval" json:"change_interval"`
	ChangeDistance float64         `yaml:"change_distance" json:"change_distance"` // metres
	Wall           WallBehaviour   `yaml:"wall" json:"wall"`
}

// RandomWalk2d is a bounded 2-D random walk. Each node keeps a heading and
// speed until its time or distance budget runs out, then draws new ones.
// Hitting a border folds the node back inside and then applies Wall, so
// nodes never leave Bounds.
type RandomWalk2d struct {
	cfg MobilityConfig
	rng *randvar.Stream

	// budget is the remaining seconds (time mode) or metres (distance mode)
	// before the node re-draws its velocity.
	budget map[int]float64
}

// NewRandomWalk2d builds a walk drawing directions and speeds from rng.
func NewRandomWalk2d(cfg MobilityConfig, rng *randvar.Stream) *RandomWalk2d {
	if cfg.Mode == "" {
		cfg.Mode = WalkModeDistance
	}
	if cfg.Wall == "" {
		cfg.Wall = WallRedraw
	}
	return &RandomWalk2d{cfg: cfg, rng: rng, budget: make(map[int]float64)}
}

// NewMotionModel picks the static model when nodes cannot move and the
// random walk otherwise.
func NewMotionModel(cfg MobilityConfig, rng *randvar.Stream) MotionModel {
	if cfg.MaxSpeed <= 0 {
		return StaticMotionModel{}
	}
	return NewRandomWalk2d(cfg, rng)
}

func (w *RandomWalk2d) Init(n *model.Node) {
	n.Position = clampInto(n.Position, w.cfg.Bounds)
	w.redraw(n)
}

func (w *RandomWalk2d) Step(n *model.Node, dt time.Duration) {
	if _, ok := w.budget[n.ID]; !ok {
		w.Init(n)
	}

	remaining := dt.Seconds()
	for remaining > 0 {
		speed := n.Velocity.Norm()
		seg := remaining
		switch w.cfg.Mode {
		case WalkModeTime:
			if w.cfg.ChangeInterval > 0 {
				seg = math.Min(seg, w.budget[n.ID])
			}
		default:
			if w.cfg.ChangeDistance > 0 && speed > 0 {
				seg = math.Min(seg, w.budget[n.ID]/speed)
			}
		}

		if seg > 0 {
			// A budget far below the float resolution of remaining would
			// never shrink it; finish the tick in one segment instead.
			if remaining-seg == remaining {
				seg = remaining
			}
			remaining -= seg
			if w.cfg.Mode == WalkModeTime {
				w.budget[n.ID] -= seg
			} else {
				w.budget[n.ID] -= seg * speed
			}
			// move may re-draw at a wall, which refills the budget.
			w.move(n, seg)
		}

		if w.budget[n.ID] <= 1e-9 {
			w.redraw(n)
		}
	}
}

func (w *RandomWalk2d) move(n *model.Node, seconds float64) {
	next := n.Position.Add(n.Velocity.Scale(seconds))

	x, flipX := reflectInto(next.X, w.cfg.Bounds.MinX, w.cfg.Bounds.MaxX)
	y, flipY := reflectInto(next.Y, w.cfg.Bounds.MinY, w.cfg.Bounds.MaxY)
	if flipX {
		n.Velocity.X = -n.Velocity.X
	}
	if flipY {
		n.Velocity.Y = -n.Velocity.Y
	}
	n.Position = model.Vec2{X: x, Y: y}

	if (flipX || flipY) && w.cfg.Wall == WallRedraw {
		away := n.Velocity
		w.redraw(n)
		if flipX && math.Signbit(n.Velocity.X) != math.Signbit(away.X) {
			n.Velocity.X = -n.Velocity.X
		}
		if flipY && math.Signbit(n.Velocity.Y) != math.Signbit(away.Y) {
			n.Velocity.Y = -n.Velocity.Y
		}
	}
}

func (w *RandomWalk2d) redraw(n *model.Node) {
	speed := w.rng.Float64Range(w.cfg.MinSpeed, w.cfg.MaxSpeed)
	heading := w.rng.Angle()
	n.Velocity = model.Vec2{X: speed * math.Cos(heading), Y: speed * math.Sin(heading)}

	switch w.cfg.Mode {
	case WalkModeTime:
		w.budget[n.ID] = w.cfg.ChangeInterval.Seconds()
	default:
		w.budget[n.ID] = w.cfg.ChangeDistance
	}
	if w.budget[n.ID] <= 0 {
		// No re-draw trigger configured: keep this velocity forever.
		w.budget[n.ID] = math.Inf(1)
	}
}
