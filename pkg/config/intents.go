package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// IntentDef is one entry of the intent catalog: a canonical name plus the
// per-language example utterances used for similarity matching and optional
// regex patterns used as a classification shortcut.
//
// Catalog order is significant: similarity ties resolve to the intent
// declared first.
type IntentDef struct {
	Name     string              `json:"name" yaml:"name"`
	Examples map[string][]string `json:"examples" yaml:"examples"`
	Patterns map[string][]string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
}

type intentsFile struct {
	Intents []IntentDef `json:"intents" yaml:"intents"`
}

// LoadIntents loads the intent catalog from a YAML file, preserving
// declaration order.
func LoadIntents(path string) ([]IntentDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intents file: %w", err)
	}
	return ParseIntents(data)
}

// ParseIntents parses raw intent catalog YAML.
func ParseIntents(data []byte) ([]IntentDef, error) {
	var file intentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse intents file: %w", err)
	}

	seen := make(map[string]bool, len(file.Intents))
	for i, def := range file.Intents {
		if def.Name == "" {
			return nil, fmt.Errorf("intents[%d]: name cannot be empty", i)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate intent '%s'", def.Name)
		}
		seen[def.Name] = true

		total := 0
		for _, examples := range def.Examples {
			total += len(examples)
		}
		if total == 0 && len(def.Patterns) == 0 {
			return nil, fmt.Errorf("intent '%s' has no examples and no patterns", def.Name)
		}
	}
	return file.Intents, nil
}
