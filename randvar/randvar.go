// Package randvar provides the seeded random variate service shared by the
// catalog generator, the assignment generator, the mobility model and the
// fading model.
//
// A Service owns one named Stream per consumer. Each stream is a single
// evolving PCG sequence whose seed is derived from the service seed and the
// stream name, so a run is reproducible regardless of the order in which
// streams are first requested.
package randvar

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// Service hands out named, deterministic random streams.
type Service struct {
	seed uint64

	mu      sync.Mutex
	streams map[string]*Stream
}

// New returns a Service rooted at seed.
func New(seed uint64) *Service {
	return &Service{
		seed:    seed,
		streams: make(map[string]*Stream),
	}
}

// Seed returns the root seed of the service.
func (s *Service) Seed() uint64 { return s.seed }

// Stream returns the stream registered under name, creating it on first use.
// Later calls return the same stream; its state is never reset.
func (s *Service) Stream(name string) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.streams[name]; ok {
		return st
	}
	seed1, seed2 := deriveSeeds(s.seed, name)
	st := newStream(name, seed1, seed2)
	s.streams[name] = st
	return st
}

// deriveSeeds mixes the root seed with an FNV-1a hash of the stream name.
func deriveSeeds(seed uint64, name string) (uint64, uint64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	n := h.Sum64()
	return splitmix64(seed ^ n), splitmix64(seed + n + 0x9e3779b97f4a7c15)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

type zipfKey struct {
	n    int
	skew float64
}

// Stream is one evolving random sequence. Draws are serialised so that a
// stream shared across goroutines still yields a single ordered sequence.
type Stream struct {
	name string

	mu  sync.Mutex
	src *rand.PCG
	rng *rand.Rand

	zipfs  map[zipfKey]*rand.Zipf
	tables map[zipfKey][]float64
}

func newStream(name string, seed1, seed2 uint64) *Stream {
	src := rand.NewPCG(seed1, seed2)
	return &Stream{
		name:   name,
		src:    src,
		rng:    rand.New(src),
		zipfs:  make(map[zipfKey]*rand.Zipf),
		tables: make(map[zipfKey][]float64),
	}
}

// Name returns the stream's registration name.
func (s *Stream) Name() string { return s.name }

// UniformInt returns an integer uniformly distributed in [low, high].
func (s *Stream) UniformInt(low, high int) int {
	if high < low {
		low, high = high, low
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return low + s.rng.IntN(high-low+1)
}

// UniformInt64 is UniformInt for 64-bit bounds.
func (s *Stream) UniformInt64(low, high int64) int64 {
	if high < low {
		low, high = high, low
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return low + s.rng.Int64N(high-low+1)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Float64Range returns a value uniformly distributed in [low, high).
func (s *Stream) Float64Range(low, high float64) float64 {
	return low + s.Float64()*(high-low)
}

// Angle returns a direction uniformly distributed in [0, 2π).
func (s *Stream) Angle() float64 {
	return s.Float64Range(0, 2*math.Pi)
}

// ZipfRank returns a rank in [1, n] with P(k) proportional to k^-skew.
// Skews above 1 use math/rand's Zipf generator; 0 < skew <= 1 falls back to
// an inverse-CDF table, since rand.NewZipf requires s > 1.
func (s *Stream) ZipfRank(n int, skew float64) int {
	if n <= 1 {
		return 1
	}
	key := zipfKey{n: n, skew: skew}

	s.mu.Lock()
	defer s.mu.Unlock()

	if skew > 1 {
		z, ok := s.zipfs[key]
		if !ok {
			z = rand.NewZipf(s.rng, skew, 1, uint64(n-1))
			s.zipfs[key] = z
		}
		return int(z.Uint64()) + 1
	}

	cdf, ok := s.tables[key]
	if !ok {
		cdf = zipfCDF(n, skew)
		s.tables[key] = cdf
	}
	u := s.rng.Float64()
	idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
	if idx >= n {
		idx = n - 1
	}
	return idx + 1
}

func zipfCDF(n int, skew float64) []float64 {
	cdf := make([]float64, n)
	total := 0.0
	for k := 1; k <= n; k++ {
		total += math.Pow(float64(k), -skew)
		cdf[k-1] = total
	}
	for i := range cdf {
		cdf[i] /= total
	}
	return cdf
}

// WeightedIndex picks an index of weights with probability proportional to
// its weight. total must be the sum of weights. It returns -1 when total is
// not positive.
func (s *Stream) WeightedIndex(weights []float64, total float64) int {
	if total <= 0 || len(weights) == 0 {
		return -1
	}
	target := s.Float64() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i
		}
	}
	// Floating point drift can leave target just above acc.
	return last
}

// Gamma returns a Gamma(shape, rate) variate drawn from this stream.
func (s *Stream) Gamma(shape, rate float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := distuv.Gamma{Alpha: shape, Beta: rate, Src: s.src}
	return g.Rand()
}
