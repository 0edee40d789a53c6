package core

import (
	"errors"
	"testing"

	"github.com/gpauusa/sms17-project/model"
	"github.com/gpauusa/sms17-project/randvar"
)

func buildTestCatalog(t *testing.T, cfg CatalogConfig, seed uint64) []model.File {
	t.Helper()
	return NewCatalog(cfg, randvar.New(seed).Stream("catalog.size")).Build()
}

func TestAssign_CountWithinBoundsAndDistinct(t *testing.T) {
	for _, strategy := range []AssignStrategy{AssignWithoutReplacement, AssignRejection} {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := testCatalogConfig()
			cfg.MinFileCountPerNode = 2
			cfg.Strategy = strategy
			catalog := buildTestCatalog(t, cfg, 1)
			a := NewAssigner(cfg, randvar.New(11))

			for node := 0; node < 500; node++ {
				files, err := a.Assign(catalog)
				if err != nil {
					t.Fatalf("node %d: Assign: %v", node, err)
				}
				if len(files) < cfg.MinFileCountPerNode || len(files) > cfg.MaxFileCountPerNode {
					t.Fatalf("node %d got %d files, want [%d, %d]",
						node, len(files), cfg.MinFileCountPerNode, cfg.MaxFileCountPerNode)
				}
				for id, f := range files {
					if id != f.ID {
						t.Fatalf("node %d: key %d holds file %d", node, id, f.ID)
					}
					if id < 1 || id > len(catalog) {
						t.Fatalf("node %d: file id %d outside catalog", node, id)
					}
					if f != catalog[id-1] {
						t.Fatalf("node %d: file %+v does not match catalog entry %+v", node, f, catalog[id-1])
					}
				}
			}
		})
	}
}

func TestAssign_EveryCountIsReachable(t *testing.T) {
	cfg := testCatalogConfig()
	catalog := buildTestCatalog(t, cfg, 1)
	a := NewAssigner(cfg, randvar.New(5))

	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		files, err := a.Assign(catalog)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		seen[len(files)] = true
	}
	for k := 0; k <= cfg.MaxFileCountPerNode; k++ {
		if !seen[k] {
			t.Fatalf("no node received exactly %d files in 2000 draws", k)
		}
	}
}

func TestAssign_FullCatalogWhenMinEqualsMax(t *testing.T) {
	for _, strategy := range []AssignStrategy{AssignWithoutReplacement, AssignRejection} {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := testCatalogConfig()
			cfg.TotalFileCount = 3
			cfg.MinFileCountPerNode = 3
			cfg.MaxFileCountPerNode = 3
			cfg.Strategy = strategy
			catalog := buildTestCatalog(t, cfg, 1)
			a := NewAssigner(cfg, randvar.New(2))

			for node := 0; node < 50; node++ {
				files, err := a.Assign(catalog)
				if err != nil {
					t.Fatalf("node %d: Assign: %v", node, err)
				}
				for id := 1; id <= 3; id++ {
					if _, ok := files[id]; !ok {
						t.Fatalf("node %d is missing file %d: %v", node, id, files)
					}
				}
			}
		})
	}
}

func TestAssign_RejectionGivesUpAfterBudget(t *testing.T) {
	cfg := testCatalogConfig()
	cfg.TotalFileCount = 2
	cfg.MinFileCountPerNode = 2
	cfg.MaxFileCountPerNode = 2
	cfg.ZipfSkew = 60 // rank 1 almost surely on every draw
	cfg.Strategy = AssignRejection
	cfg.MaxResampleAttempts = 1
	catalog := buildTestCatalog(t, cfg, 1)

	_, err := NewAssigner(cfg, randvar.New(1)).Assign(catalog)
	if !errors.Is(err, ErrUnsatisfiableAssignment) {
		t.Fatalf("err = %v, want ErrUnsatisfiableAssignment", err)
	}
}

func TestAssign_ExtremeSkewIsUnsatisfiableForBothStrategies(t *testing.T) {
	for _, strategy := range []AssignStrategy{AssignWithoutReplacement, AssignRejection} {
		t.Run(string(strategy), func(t *testing.T) {
			cfg := testCatalogConfig()
			cfg.ZipfSkew = 400 // weights past the first few ranks underflow to zero
			cfg.MinFileCountPerNode = 10
			cfg.MaxFileCountPerNode = 10
			cfg.Strategy = strategy
			cfg.MaxResampleAttempts = 100
			catalog := buildTestCatalog(t, cfg, 1)

			_, err := NewAssigner(cfg, randvar.New(1)).Assign(catalog)
			if !errors.Is(err, ErrUnsatisfiableAssignment) {
				t.Fatalf("err = %v, want ErrUnsatisfiableAssignment", err)
			}
			if errors.Is(err, ErrInvariantViolation) {
				t.Fatalf("err = %v, must not report an invariant violation", err)
			}
		})
	}
}

func TestAssign_CountLargerThanCatalog(t *testing.T) {
	cfg := testCatalogConfig()
	cfg.MinFileCountPerNode = 10
	catalog := buildTestCatalog(t, cfg, 1)[:5]

	_, err := NewAssigner(cfg, randvar.New(1)).Assign(catalog)
	if !errors.Is(err, ErrUnsatisfiableAssignment) {
		t.Fatalf("err = %v, want ErrUnsatisfiableAssignment", err)
	}
}

func TestAssign_DeterministicForSeed(t *testing.T) {
	cfg := testCatalogConfig()
	catalog := buildTestCatalog(t, cfg, 1)
	a1 := NewAssigner(cfg, randvar.New(99))
	a2 := NewAssigner(cfg, randvar.New(99))

	for node := 0; node < 30; node++ {
		f1, err := a1.Assign(catalog)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		f2, err := a2.Assign(catalog)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if len(f1) != len(f2) {
			t.Fatalf("node %d: %d files vs %d files for the same seed", node, len(f1), len(f2))
		}
		for id := range f1 {
			if _, ok := f2[id]; !ok {
				t.Fatalf("node %d: file %d drawn by one run only", node, id)
			}
		}
	}
}

func TestAssign_PopularFilesDominate(t *testing.T) {
	cfg := testCatalogConfig()
	catalog := buildTestCatalog(t, cfg, 1)
	a := NewAssigner(cfg, randvar.New(4))

	counts := make(map[int]int)
	for node := 0; node < 2000; node++ {
		files, err := a.Assign(catalog)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		for id := range files {
			counts[id]++
		}
	}
	if counts[1] <= counts[50] || counts[1] <= counts[100] {
		t.Fatalf("file 1 held by %d nodes, file 50 by %d, file 100 by %d; want file 1 most common",
			counts[1], counts[50], counts[100])
	}
}

func TestParseAssignStrategy(t *testing.T) {
	cases := map[string]AssignStrategy{
		"":                    AssignWithoutReplacement,
		"without_replacement": AssignWithoutReplacement,
		" Rejection ":         AssignRejection,
	}
	for in, want := range cases {
		got, err := ParseAssignStrategy(in)
		if err != nil {
			t.Fatalf("ParseAssignStrategy(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseAssignStrategy(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseAssignStrategy("shuffle"); err == nil {
		t.Fatalf("ParseAssignStrategy(shuffle) succeeded, want error")
	}
}

func TestVerifyInventory(t *testing.T) {
	good := map[int]model.File{1: {ID: 1, Size: 10}, 3: {ID: 3, Size: 30}}
	if err := verifyInventory(good, 3, 2); err != nil {
		t.Fatalf("verifyInventory(good): %v", err)
	}

	bad := []struct {
		name  string
		files map[int]model.File
		want  int
	}{
		{"wrong count", good, 3},
		{"key mismatch", map[int]model.File{1: {ID: 2}}, 1},
		{"out of catalog", map[int]model.File{4: {ID: 4}}, 1},
	}
	for _, tc := range bad {
		if err := verifyInventory(tc.files, 3, tc.want); !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("%s: err = %v, want ErrInvariantViolation", tc.name, err)
		}
	}
}
