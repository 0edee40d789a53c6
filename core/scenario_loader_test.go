package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadScenario_OverridesOnTopOfDefaults(t *testing.T) {
	in := `
seed: 7
duration: 60s
catalog:
  total_file_count: 20
mobility:
  mode: time
  change_interval: 2s
`
	sc, err := LoadScenario(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Seed != 7 {
		t.Fatalf("Seed = %d, want 7", sc.Seed)
	}
	if sc.Duration != 60*time.Second {
		t.Fatalf("Duration = %s, want 60s", sc.Duration)
	}
	if sc.Catalog.TotalFileCount != 20 {
		t.Fatalf("TotalFileCount = %d, want 20", sc.Catalog.TotalFileCount)
	}
	if sc.Mobility.Mode != WalkModeTime || sc.Mobility.ChangeInterval != 2*time.Second {
		t.Fatalf("mobility = %+v, want time mode every 2s", sc.Mobility)
	}

	def := DefaultScenario()
	if sc.NodeCount != def.NodeCount {
		t.Fatalf("NodeCount = %d, want default %d", sc.NodeCount, def.NodeCount)
	}
	if sc.Catalog.MaxFileCountPerNode != def.Catalog.MaxFileCountPerNode {
		t.Fatalf("MaxFileCountPerNode = %d, want default %d",
			sc.Catalog.MaxFileCountPerNode, def.Catalog.MaxFileCountPerNode)
	}
	if sc.Radio != def.Radio {
		t.Fatalf("Radio = %+v, want defaults %+v", sc.Radio, def.Radio)
	}
}

func TestLoadScenario_EmptyInputGivesDefaults(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadScenario(empty): %v", err)
	}
	if !reflect.DeepEqual(sc, DefaultScenario()) {
		t.Fatalf("LoadScenario(empty) = %+v, want defaults", sc)
	}
}

func TestLoadScenario_JSONDocument(t *testing.T) {
	in := `{"seed": 9, "node_count": 12, "tick": "2s"}`
	sc, err := LoadScenario(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadScenario(json): %v", err)
	}
	if sc.Seed != 9 || sc.NodeCount != 12 || sc.Tick != 2*time.Second {
		t.Fatalf("got seed=%d nodes=%d tick=%s, want 9, 12, 2s", sc.Seed, sc.NodeCount, sc.Tick)
	}
}

func TestLoadScenario_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadScenario(strings.NewReader("seed: 1\nwarp_drive: true\n"))
	if err == nil {
		t.Fatalf("LoadScenario accepted an unknown key")
	}
}

func TestLoadScenario_RejectsInvalidValues(t *testing.T) {
	in := `
catalog:
  total_file_count: 5
  max_file_count_per_node: 10
`
	_, err := LoadScenario(strings.NewReader(in))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("LoadScenario = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte("node_count: 4\n"), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	sc, err := LoadScenarioFile(path)
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	if sc.NodeCount != 4 {
		t.Fatalf("NodeCount = %d, want 4", sc.NodeCount)
	}

	if _, err := LoadScenarioFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("LoadScenarioFile on a missing file succeeded")
	}
}

func TestLoadScenarioFile_ShippedConfigMatchesDefaults(t *testing.T) {
	sc, err := LoadScenarioFile(filepath.Join("..", "configs", "scenario.yaml"))
	if err != nil {
		t.Fatalf("LoadScenarioFile(configs/scenario.yaml): %v", err)
	}
	if !reflect.DeepEqual(sc, DefaultScenario()) {
		t.Fatalf("configs/scenario.yaml = %+v\nwant defaults %+v", sc, DefaultScenario())
	}
}

func TestLoadScenario_RejectsNonFiniteFloats(t *testing.T) {
	for _, in := range []string{
		"mobility:\n  max_speed: .nan\n",
		"mobility:\n  max_speed: .inf\n",
		"radio:\n  max_range: -.inf\n",
	} {
		if _, err := LoadScenario(strings.NewReader(in)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("LoadScenario(%q) err = %v, want ErrInvalidConfig", in, err)
		}
	}
}
