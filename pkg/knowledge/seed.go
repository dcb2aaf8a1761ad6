package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type seedFile struct {
	Records []Record `yaml:"records"`
}

// LoadSeed parses the YAML seed dataset. An empty path yields an empty
// dataset; malformed or incomplete records fail the load so a bad seed never
// half-populates a store.
func LoadSeed(path string) ([]Record, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	seen := make(map[string]bool, len(file.Records))
	for i, rec := range file.Records {
		if rec.ID == "" {
			return nil, fmt.Errorf("seed record %d has no id", i)
		}
		if rec.Type == "" {
			return nil, fmt.Errorf("seed record %s has no type", rec.ID)
		}
		if len(rec.Names) == 0 {
			return nil, fmt.Errorf("seed record %s has no names", rec.ID)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("seed record %s declared twice", rec.ID)
		}
		seen[rec.ID] = true
	}
	return file.Records, nil
}
