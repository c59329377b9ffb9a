package pack

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a pack definition from a YAML file.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a pack definition from YAML bytes.
func Parse(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pack YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pack: %w", err)
	}
	return &p, nil
}
