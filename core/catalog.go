package core

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gpauusa/sms17-project/model"
	"github.com/gpauusa/sms17-project/randvar"
)

// CatalogConfig sizes the simulation-wide file catalog.
type CatalogConfig struct {
	TotalFileCount      int     `yaml:"total_file_count" json:"total_file_count"`
	MinFileCountPerNode int     `yaml:"min_file_count_per_node" json:"min_file_count_per_node"`
	MaxFileCountPerNode int     `yaml:"max_file_count_per_node" json:"max_file_count_per_node"`
	MinFileSize         int64   `yaml:"min_file_size" json:"min_file_size"`
	MaxFileSize         int64   `yaml:"max_file_size" json:"max_file_size"`
	ZipfSkew            float64 `yaml:"zipf_skew" json:"zipf_skew"`

	// Strategy selects the assignment algorithm; see AssignStrategy.
	Strategy AssignStrategy `yaml:"strategy" json:"strategy"`
	// MaxResampleAttempts bounds the draws spent on one slot by the
	// rejection strategy. 0 means DefaultMaxResampleAttempts.
	MaxResampleAttempts int `yaml:"max_resample_attempts" json:"max_resample_attempts"`
}

// Catalog is the fixed set of files shared read-only by every node. It is
// built once; later Build calls return the same files.
type Catalog struct {
	cfg CatalogConfig
	rng *randvar.Stream

	once  sync.Once
	built atomic.Bool
	files []model.File
	bytes int64
}

// NewCatalog prepares a catalog whose sizes are drawn from rng.
func NewCatalog(cfg CatalogConfig, rng *randvar.Stream) *Catalog {
	return &Catalog{cfg: cfg, rng: rng}
}

// Build draws the catalog on first call and returns it. Concurrent first
// calls build it exactly once.
func (c *Catalog) Build() []model.File {
	c.once.Do(func() {
		files := make([]model.File, 0, c.cfg.TotalFileCount)
		var total int64
		for id := 1; id <= c.cfg.TotalFileCount; id++ {
			size := c.rng.UniformInt64(c.cfg.MinFileSize, c.cfg.MaxFileSize)
			files = append(files, model.File{ID: id, Size: size})
			total += size
		}
		c.files = files
		c.bytes = total
		c.built.Store(true)
	})
	return c.snapshot()
}

// Get returns the built catalog, or ErrCatalogNotBuilt before Build.
func (c *Catalog) Get() ([]model.File, error) {
	if !c.isBuilt() {
		return nil, ErrCatalogNotBuilt
	}
	return c.snapshot(), nil
}

// Lookup returns the file with the given id.
func (c *Catalog) Lookup(id int) (model.File, error) {
	if !c.isBuilt() {
		return model.File{}, ErrCatalogNotBuilt
	}
	if id < 1 || id > len(c.files) {
		return model.File{}, fmt.Errorf("file %d outside catalog [1, %d]", id, len(c.files))
	}
	return c.files[id-1], nil
}

// Len returns the number of files once built, zero before.
func (c *Catalog) Len() int {
	if !c.isBuilt() {
		return 0
	}
	return len(c.files)
}

// TotalBytes returns the sum of all file sizes once built.
func (c *Catalog) TotalBytes() int64 {
	if !c.isBuilt() {
		return 0
	}
	return c.bytes
}

func (c *Catalog) isBuilt() bool {
	return c.built.Load()
}

func (c *Catalog) snapshot() []model.File {
	out := make([]model.File, len(c.files))
	copy(out, c.files)
	return out
}
