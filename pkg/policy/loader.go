package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML shape of a policy catalog document.
type catalogFile struct {
	Policies []policyDoc `yaml:"policies"`
}

// policyDoc mirrors Definition with triggers in their serialized form: a
// kind discriminator plus the variant's fields.
type policyDoc struct {
	ID             string         `yaml:"id"`
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Classification Classification `yaml:"classification"`
	Triggers       []triggerDoc   `yaml:"triggers"`
	Actions        []Action       `yaml:"actions"`
	DefaultEnabled bool           `yaml:"default_enabled"`
	Thresholds     []Threshold    `yaml:"thresholds"`
}

type triggerDoc struct {
	Kind        string   `yaml:"kind"`
	Actions     []string `yaml:"actions"`
	Patterns    []string `yaml:"patterns"`
	Special     string   `yaml:"special"`
	Field       string   `yaml:"field"`
	Op          string   `yaml:"op"`
	ThresholdID string   `yaml:"threshold_id"`
	Events      []string `yaml:"events"`
}

// LoadCatalog reads policy definitions from a YAML file and registers them
// into the registry.
func LoadCatalog(registry *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy catalog: %w", err)
	}
	return ParseCatalog(registry, data)
}

// ParseCatalog decodes policy definitions from YAML bytes and registers
// them into the registry.
func ParseCatalog(registry *Registry, data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse policy catalog YAML: %w", err)
	}

	for _, doc := range file.Policies {
		def := &Definition{
			ID:             doc.ID,
			Name:           doc.Name,
			Description:    doc.Description,
			Classification: doc.Classification,
			Actions:        doc.Actions,
			DefaultEnabled: doc.DefaultEnabled,
			Thresholds:     doc.Thresholds,
		}
		for i, td := range doc.Triggers {
			trigger, err := decodeTrigger(td)
			if err != nil {
				return fmt.Errorf("policy %s: trigger %d: %w", doc.ID, i, err)
			}
			def.Triggers = append(def.Triggers, trigger)
		}
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// decodeTrigger maps a serialized trigger onto its tagged variant. The kind
// set is closed; anything else is a configuration error.
func decodeTrigger(doc triggerDoc) (Trigger, error) {
	switch doc.Kind {
	case "action_match":
		return ActionMatch{Actions: doc.Actions}, nil
	case "data_pattern_match":
		return DataPatternMatch{Patterns: doc.Patterns, Special: doc.Special}, nil
	case "threshold_compare":
		return ThresholdCompare{Field: doc.Field, Op: doc.Op, ThresholdID: doc.ThresholdID}, nil
	case "event_match":
		return EventMatch{Events: doc.Events}, nil
	default:
		return nil, fmt.Errorf("unknown trigger kind '%s'", doc.Kind)
	}
}
