package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/gpauusa/sms17-project/model"
	"github.com/gpauusa/sms17-project/randvar"
)

// DefaultMaxResampleAttempts bounds the rejection strategy per file slot.
const DefaultMaxResampleAttempts = 10000

// AssignStrategy selects how a node's initial files are drawn.
type AssignStrategy string

const (
	// AssignWithoutReplacement draws from a shrinking pool weighted by
	// Zipf popularity. It cannot starve.
	AssignWithoutReplacement AssignStrategy = "without_replacement"
	// AssignRejection draws Zipf ranks and redraws on duplicates, with a
	// bounded number of attempts per slot.
	AssignRejection AssignStrategy = "rejection"
)

// ParseAssignStrategy maps a configuration string to a strategy. The empty
// string selects AssignWithoutReplacement.
func ParseAssignStrategy(s string) (AssignStrategy, error) {
	switch AssignStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AssignWithoutReplacement:
		return AssignWithoutReplacement, nil
	case AssignRejection:
		return AssignRejection, nil
	default:
		return "", fmt.Errorf("unknown assignment strategy %q", s)
	}
}

// Assigner draws each node's initial inventory from the catalog. It keeps
// two streams for the whole run: one for how many files a node gets, one
// for which files.
type Assigner struct {
	minPerNode  int
	maxPerNode  int
	skew        float64
	strategy    AssignStrategy
	maxAttempts int

	count *randvar.Stream
	zipf  *randvar.Stream
}

// NewAssigner builds an Assigner from the catalog configuration.
func NewAssigner(cfg CatalogConfig, rng *randvar.Service) *Assigner {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = AssignWithoutReplacement
	}
	attempts := cfg.MaxResampleAttempts
	if attempts <= 0 {
		attempts = DefaultMaxResampleAttempts
	}
	return &Assigner{
		minPerNode:  cfg.MinFileCountPerNode,
		maxPerNode:  cfg.MaxFileCountPerNode,
		skew:        cfg.ZipfSkew,
		strategy:    strategy,
		maxAttempts: attempts,
		count:       rng.Stream("assign.count"),
		zipf:        rng.Stream("assign.zipf"),
	}
}

// Assign returns a deduplicated set of files keyed by id. The set holds
// UniformInt(MinFileCountPerNode, MaxFileCountPerNode) files, chosen by Zipf
// popularity over catalog order (file id 1 is the most popular).
func (a *Assigner) Assign(catalog []model.File) (map[int]model.File, error) {
	k := a.count.UniformInt(a.minPerNode, a.maxPerNode)
	if k > len(catalog) {
		return nil, fmt.Errorf("%w: %d files requested from a catalog of %d",
			ErrUnsatisfiableAssignment, k, len(catalog))
	}

	var (
		files map[int]model.File
		err   error
	)
	switch a.strategy {
	case AssignRejection:
		files, err = a.assignRejection(catalog, k)
	default:
		files, err = a.assignWithoutReplacement(catalog, k)
	}
	if err != nil {
		return nil, err
	}
	if err := verifyInventory(files, len(catalog), k); err != nil {
		return nil, err
	}
	return files, nil
}

func (a *Assigner) assignRejection(catalog []model.File, k int) (map[int]model.File, error) {
	files := make(map[int]model.File, k)
	for slot := 0; slot < k; slot++ {
		placed := false
		for attempt := 0; attempt < a.maxAttempts; attempt++ {
			f := catalog[a.zipf.ZipfRank(len(catalog), a.skew)-1]
			if _, dup := files[f.ID]; dup {
				continue
			}
			files[f.ID] = f
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("%w: slot %d of %d still duplicate after %d draws",
				ErrUnsatisfiableAssignment, slot+1, k, a.maxAttempts)
		}
	}
	return files, nil
}

func (a *Assigner) assignWithoutReplacement(catalog []model.File, k int) (map[int]model.File, error) {
	weights := make([]float64, len(catalog))
	total := 0.0
	for i := range catalog {
		weights[i] = math.Pow(float64(i+1), -a.skew)
		total += weights[i]
	}

	files := make(map[int]model.File, k)
	for len(files) < k {
		idx := a.zipf.WeightedIndex(weights, total)
		if idx < 0 {
			// Weights of unpopular ranks underflow to zero at high skew.
			return nil, fmt.Errorf("%w: only %d of %d files have a non-zero weight at skew %v",
				ErrUnsatisfiableAssignment, len(files), k, a.skew)
		}
		files[catalog[idx].ID] = catalog[idx]
		total -= weights[idx]
		weights[idx] = 0
		if total < 0 {
			total = 0
		}
		if total == 0 && len(files) < k {
			// Rounding drained the pool early; recompute from the remaining weights.
			total = remainingWeight(weights)
		}
	}
	return files, nil
}

func remainingWeight(weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}

// verifyInventory checks the per-node invariants. A failure here is a defect
// in the generator, not a user error.
func verifyInventory(files map[int]model.File, catalogSize, want int) error {
	if len(files) != want {
		return fmt.Errorf("%w: inventory holds %d files, want %d", ErrInvariantViolation, len(files), want)
	}
	for id, f := range files {
		if id != f.ID {
			return fmt.Errorf("%w: inventory key %d holds file %d", ErrInvariantViolation, id, f.ID)
		}
		if id < 1 || id > catalogSize {
			return fmt.Errorf("%w: file %d outside catalog [1, %d]", ErrInvariantViolation, id, catalogSize)
		}
	}
	return nil
}
