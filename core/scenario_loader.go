package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadScenario reads a YAML (or JSON) scenario from r on top of
// DefaultScenario, so a file only needs the values it changes. Unknown keys
// are rejected. The result is validated before it is returned.
func LoadScenario(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("LoadScenario: read failed: %w", err)
	}

	sc := DefaultScenario()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if yerr := dec.Decode(sc); yerr != nil && yerr != io.EOF {
		// fallback JSON
		sc = DefaultScenario()
		jdec := json.NewDecoder(bytes.NewReader(data))
		jdec.DisallowUnknownFields()
		if jerr := jdec.Decode(sc); jerr != nil {
			return nil, fmt.Errorf("LoadScenario: decode failed: %w", yerr)
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return sc, nil
}

// LoadScenarioFile opens path and calls LoadScenario.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	return LoadScenario(f)
}
