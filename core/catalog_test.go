package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/gpauusa/sms17-project/randvar"
)

func testCatalogConfig() CatalogConfig {
	return DefaultScenario().Catalog
}

func TestCatalogBuild_DenseIDsAndSizesInRange(t *testing.T) {
	cfg := testCatalogConfig()
	c := NewCatalog(cfg, randvar.New(1).Stream("catalog.size"))

	files := c.Build()
	if len(files) != cfg.TotalFileCount {
		t.Fatalf("catalog has %d files, want %d", len(files), cfg.TotalFileCount)
	}
	var total int64
	for i, f := range files {
		if f.ID != i+1 {
			t.Fatalf("files[%d].ID = %d, want %d", i, f.ID, i+1)
		}
		if f.Size < cfg.MinFileSize || f.Size > cfg.MaxFileSize {
			t.Fatalf("file %d size %d outside [%d, %d]", f.ID, f.Size, cfg.MinFileSize, cfg.MaxFileSize)
		}
		total += f.Size
	}
	if got := c.TotalBytes(); got != total {
		t.Fatalf("TotalBytes = %d, want %d", got, total)
	}
	if got := c.Len(); got != cfg.TotalFileCount {
		t.Fatalf("Len = %d, want %d", got, cfg.TotalFileCount)
	}
}

func TestCatalogBuild_Idempotent(t *testing.T) {
	c := NewCatalog(testCatalogConfig(), randvar.New(7).Stream("catalog.size"))

	first := c.Build()
	second := c.Build()
	if len(first) != len(second) {
		t.Fatalf("second Build returned %d files, first returned %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("file %d changed between builds: %+v vs %+v", i, first[i], second[i])
		}
	}

	// Callers get copies; mutating one must not leak into the catalog.
	first[0].Size = -1
	if again := c.Build(); again[0].Size == -1 {
		t.Fatalf("Build returned shared backing storage")
	}
}

func TestCatalogBuild_ConcurrentFirstCall(t *testing.T) {
	c := NewCatalog(testCatalogConfig(), randvar.New(3).Stream("catalog.size"))

	const workers = 8
	results := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, f := range c.Build() {
				results[w] = append(results[w], f.Size)
			}
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		for i := range results[0] {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d saw size %d for file %d, worker 0 saw %d", w, results[w][i], i+1, results[0][i])
			}
		}
	}
}

func TestCatalogGetAndLookupBeforeBuild(t *testing.T) {
	c := NewCatalog(testCatalogConfig(), randvar.New(1).Stream("catalog.size"))

	if _, err := c.Get(); !errors.Is(err, ErrCatalogNotBuilt) {
		t.Fatalf("Get before Build: err = %v, want ErrCatalogNotBuilt", err)
	}
	if _, err := c.Lookup(1); !errors.Is(err, ErrCatalogNotBuilt) {
		t.Fatalf("Lookup before Build: err = %v, want ErrCatalogNotBuilt", err)
	}
	if c.Len() != 0 || c.TotalBytes() != 0 {
		t.Fatalf("unbuilt catalog reports Len=%d TotalBytes=%d", c.Len(), c.TotalBytes())
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog(testCatalogConfig(), randvar.New(1).Stream("catalog.size"))
	files := c.Build()

	f, err := c.Lookup(42)
	if err != nil {
		t.Fatalf("Lookup(42): %v", err)
	}
	if f != files[41] {
		t.Fatalf("Lookup(42) = %+v, want %+v", f, files[41])
	}
	for _, id := range []int{0, -1, len(files) + 1} {
		if _, err := c.Lookup(id); err == nil {
			t.Fatalf("Lookup(%d) succeeded, want error", id)
		}
	}
}

func TestCatalogBuild_FixedSizeWhenBoundsEqual(t *testing.T) {
	cfg := testCatalogConfig()
	cfg.MinFileSize = 4096
	cfg.MaxFileSize = 4096
	c := NewCatalog(cfg, randvar.New(1).Stream("catalog.size"))

	for _, f := range c.Build() {
		if f.Size != 4096 {
			t.Fatalf("file %d size = %d, want 4096", f.ID, f.Size)
		}
	}
}
