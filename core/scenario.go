package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gpauusa/sms17-project/model"
)

// Scenario is the full configuration of one simulation run. Every value is
// fixed before the engine leaves the Configured state.
type Scenario struct {
	Seed      uint64        `yaml:"seed" json:"seed"`
	NodeCount int           `yaml:"node_count" json:"node_count"`
	Duration  time.Duration `yaml:"duration" json:"duration"`
	Tick      time.Duration `yaml:"tick" json:"tick"`

	Catalog  CatalogConfig         `yaml:"catalog" json:"catalog"`
	Layout   GridPositionAllocator `yaml:"layout" json:"layout"`
	Mobility MobilityConfig        `yaml:"mobility" json:"mobility"`
	Radio    PropagationConfig     `yaml:"radio" json:"radio"`
}

// DefaultScenario returns the reference setup: 30 nodes walking for 900 s
// in a 200 m square, sharing a 100-file catalog.
func DefaultScenario() *Scenario {
	return &Scenario{
		Seed:      1,
		NodeCount: 30,
		Duration:  900 * time.Second,
		Tick:      time.Second,
		Catalog: CatalogConfig{
			TotalFileCount:      100,
			MaxFileCountPerNode: 10,
			MinFileSize:         1024,     // 1 KiB
			MaxFileSize:         20971520, // 20 MiB
			ZipfSkew:            1.1,
			Strategy:            AssignWithoutReplacement,
			MaxResampleAttempts: DefaultMaxResampleAttempts,
		},
		Layout: GridPositionAllocator{
			MinX:      0,
			MinY:      0,
			DeltaX:    5,
			DeltaY:    10,
			GridWidth: 5,
			Layout:    RowFirst,
		},
		Mobility: MobilityConfig{
			Bounds:         model.Rectangle{MinX: -100, MaxX: 100, MinY: -100, MaxY: 100},
			MinSpeed:       2,
			MaxSpeed:       4,
			Mode:           WalkModeDistance,
			ChangeInterval: time.Second,
			ChangeDistance: 1,
			Wall:           WallRedraw,
		},
		Radio: DefaultPropagationConfig(),
	}
}

// Validate reports every configuration problem at once. The returned error
// matches ErrInvalidConfig and unwraps to one *ConfigError per problem.
func (sc *Scenario) Validate() error {
	if sc == nil {
		return &ConfigError{Field: "scenario", Reason: "is nil"}
	}
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if sc.NodeCount <= 0 {
		fail("node_count", "must be positive, got %d", sc.NodeCount)
	}
	if sc.Duration <= 0 {
		fail("duration", "must be positive, got %s", sc.Duration)
	}
	if sc.Tick <= 0 {
		fail("tick", "must be positive, got %s", sc.Tick)
	}

	cat := sc.Catalog
	if cat.TotalFileCount <= 0 {
		fail("catalog.total_file_count", "must be positive, got %d", cat.TotalFileCount)
	}
	if cat.MinFileCountPerNode < 0 || cat.MinFileCountPerNode > cat.MaxFileCountPerNode {
		fail("catalog.min_file_count_per_node", "need 0 <= min <= max_file_count_per_node, got %d",
			cat.MinFileCountPerNode)
	}
	if cat.MaxFileCountPerNode < 0 {
		fail("catalog.max_file_count_per_node", "must not be negative, got %d", cat.MaxFileCountPerNode)
	} else if cat.MaxFileCountPerNode > cat.TotalFileCount {
		fail("catalog.max_file_count_per_node", "%d exceeds total_file_count %d",
			cat.MaxFileCountPerNode, cat.TotalFileCount)
	}
	if cat.MinFileSize <= 0 {
		fail("catalog.min_file_size", "must be positive, got %d", cat.MinFileSize)
	}
	if cat.MaxFileSize < cat.MinFileSize {
		fail("catalog.max_file_size", "%d is below min_file_size %d", cat.MaxFileSize, cat.MinFileSize)
	}
	if !(cat.ZipfSkew > 0) || math.IsInf(cat.ZipfSkew, 0) {
		fail("catalog.zipf_skew", "must be a positive finite number, got %v", cat.ZipfSkew)
	}
	if _, err := ParseAssignStrategy(string(cat.Strategy)); err != nil {
		fail("catalog.strategy", "%v", err)
	}
	if cat.MaxResampleAttempts < 0 {
		fail("catalog.max_resample_attempts", "must not be negative, got %d", cat.MaxResampleAttempts)
	}

	lay := sc.Layout
	if lay.GridWidth < 1 {
		fail("layout.grid_width", "must be at least 1, got %d", lay.GridWidth)
	}
	if !finite(lay.MinX, lay.MinY) {
		fail("layout.origin", "min_x and min_y must be finite, got (%v, %v)", lay.MinX, lay.MinY)
	}
	if !finite(lay.DeltaX, lay.DeltaY) || lay.DeltaX < 0 || lay.DeltaY < 0 {
		fail("layout.delta", "must not be negative, got (%v, %v)", lay.DeltaX, lay.DeltaY)
	}
	if _, err := ParseGridLayout(string(lay.Layout)); err != nil {
		fail("layout.layout_type", "%v", err)
	}

	mob := sc.Mobility
	boundsOK := mob.Bounds.Valid()
	if !boundsOK {
		fail("mobility.bounds", "is not a well-formed rectangle: %+v", mob.Bounds)
	}
	speedOK := finite(mob.MinSpeed, mob.MaxSpeed) && mob.MinSpeed >= 0 && mob.MaxSpeed >= mob.MinSpeed
	if !speedOK {
		fail("mobility.speed", "need finite 0 <= min_speed <= max_speed, got [%v, %v]", mob.MinSpeed, mob.MaxSpeed)
	}
	if speedOK && boundsOK && sc.Tick > 0 {
		// A node may cross the area at most once per tick.
		side := math.Min(mob.Bounds.Width(), mob.Bounds.Height())
		if step := mob.MaxSpeed * sc.Tick.Seconds(); side > 0 && step > side {
			fail("mobility.max_speed", "%v m/s covers %v m per tick, more than the %v m bounds side",
				mob.MaxSpeed, step, side)
		}
	}
	if _, err := ParseWalkMode(string(mob.Mode)); err != nil {
		fail("mobility.mode", "%v", err)
	}
	if _, err := ParseWallBehaviour(string(mob.Wall)); err != nil {
		fail("mobility.wall", "%v", err)
	}
	if mob.ChangeInterval < 0 || !finite(mob.ChangeDistance) || mob.ChangeDistance < 0 {
		fail("mobility.change", "change_interval and change_distance must not be negative")
	}
	if boundsOK && lay.GridWidth >= 1 && sc.NodeCount > 0 {
		for i := 0; i < sc.NodeCount; i++ {
			if p := lay.PositionFor(i); !mob.Bounds.Contains(p) {
				fail("layout", "node %d starts at (%v, %v), outside mobility bounds", i, p.X, p.Y)
				break
			}
		}
	}

	radio := sc.Radio
	if !finite(radio.TxPowerDBm, radio.ReferenceLossDB, radio.RxSensitivityDBm) {
		fail("radio.power", "tx_power_dbm, reference_loss_db and rx_sensitivity_dbm must be finite, got (%v, %v, %v)",
			radio.TxPowerDBm, radio.ReferenceLossDB, radio.RxSensitivityDBm)
	}
	if !finite(radio.MaxRange) || !(radio.MaxRange > 0) {
		fail("radio.max_range", "must be positive, got %v", radio.MaxRange)
	}
	if !finite(radio.ReferenceDistance) || !(radio.ReferenceDistance > 0) {
		fail("radio.reference_distance", "must be positive, got %v", radio.ReferenceDistance)
	}
	if !finite(radio.PathLossExponent) || radio.PathLossExponent < 0 {
		fail("radio.path_loss_exponent", "must not be negative, got %v", radio.PathLossExponent)
	}
	fad := radio.Fading
	if !finite(fad.M0, fad.M1, fad.M2) || !(fad.M0 > 0) || !(fad.M1 > 0) || !(fad.M2 > 0) {
		fail("radio.fading", "m0, m1 and m2 must be positive, got (%v, %v, %v)", fad.M0, fad.M1, fad.M2)
	}
	if !finite(fad.Distance1, fad.Distance2) || fad.Distance1 < 0 || fad.Distance2 < fad.Distance1 {
		fail("radio.fading", "need 0 <= distance1 <= distance2, got (%v, %v)", fad.Distance1, fad.Distance2)
	}

	return errors.Join(errs...)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
