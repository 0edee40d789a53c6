package core

import (
	"math"

	"github.com/gpauusa/sms17-project/randvar"
)

// NakagamiConfig holds the shape parameters of the Nakagami-m fading model.
// The shape depends on the link distance: M0 below Distance1, M1 below
// Distance2 and M2 beyond.
type NakagamiConfig struct {
	Distance1 float64 `yaml:"distance1" json:"distance1"` // metres
	Distance2 float64 `yaml:"distance2" json:"distance2"` // metres
	M0        float64 `yaml:"m0" json:"m0"`
	M1        float64 `yaml:"m1" json:"m1"`
	M2        float64 `yaml:"m2" json:"m2"`
}

// PropagationConfig describes the radio channel shared by every node.
type PropagationConfig struct {
	// MaxRange is the hard cutoff: no link beyond this distance (metres).
	MaxRange float64 `yaml:"max_range" json:"max_range"`

	TxPowerDBm        float64 `yaml:"tx_power_dbm" json:"tx_power_dbm"`
	ReferenceDistance float64 `yaml:"reference_distance" json:"reference_distance"` // metres
	ReferenceLossDB   float64 `yaml:"reference_loss_db" json:"reference_loss_db"`
	PathLossExponent  float64 `yaml:"path_loss_exponent" json:"path_loss_exponent"`

	// RxSensitivityDBm is the weakest faded signal still considered a link.
	RxSensitivityDBm float64 `yaml:"rx_sensitivity_dbm" json:"rx_sensitivity_dbm"`

	Fading NakagamiConfig `yaml:"fading" json:"fading"`
}

// DefaultPropagationConfig mirrors an 802.11a ad-hoc channel: 25 m range,
// log-distance loss and Rayleigh-like fading (m = 1 at every distance).
func DefaultPropagationConfig() PropagationConfig {
	return PropagationConfig{
		MaxRange:          25,
		TxPowerDBm:        16.0206,
		ReferenceDistance: 1,
		ReferenceLossDB:   46.6777,
		PathLossExponent:  3,
		RxSensitivityDBm:  -96,
		Fading: NakagamiConfig{
			Distance1: 80,
			Distance2: 200,
			M0:        1,
			M1:        1,
			M2:        1,
		},
	}
}

// PathLossDB returns the deterministic log-distance loss at distance d.
func (pc PropagationConfig) PathLossDB(d float64) float64 {
	if d <= pc.ReferenceDistance {
		return pc.ReferenceLossDB
	}
	return pc.ReferenceLossDB + 10*pc.PathLossExponent*math.Log10(d/pc.ReferenceDistance)
}

// MeanRxPowerDBm is the received power before fading.
func (pc PropagationConfig) MeanRxPowerDBm(d float64) float64 {
	return pc.TxPowerDBm - pc.PathLossDB(d)
}

// shape returns the Nakagami m parameter for distance d.
func (nc NakagamiConfig) shape(d float64) float64 {
	switch {
	case d < nc.Distance1:
		return nc.M0
	case d < nc.Distance2:
		return nc.M1
	default:
		return nc.M2
	}
}

// Fade applies one Nakagami-m draw to a mean received power. The faded power
// in watts is Gamma(m, m/Ω) distributed, Ω being the mean power in watts.
func (nc NakagamiConfig) Fade(meanDBm, d float64, rng *randvar.Stream) float64 {
	m := nc.shape(d)
	if m <= 0 {
		return meanDBm
	}
	omega := dbmToWatts(meanDBm)
	faded := rng.Gamma(m, m/omega)
	if faded <= 0 {
		return math.Inf(-1)
	}
	return wattsToDBm(faded)
}

func dbmToWatts(dbm float64) float64 {
	return math.Pow(10, (dbm-30)/10)
}

func wattsToDBm(w float64) float64 {
	return 10*math.Log10(w) + 30
}
