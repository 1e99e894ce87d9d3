package values

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk input for creating a new secret: metadata plus the
// plaintext key/value pairs that will become stringData.
type File struct {
	Name      string            `yaml:"name" json:"name"`
	Namespace string            `yaml:"namespace" json:"namespace"`
	Type      string            `yaml:"type,omitempty" json:"type,omitempty"`
	Values    map[string]string `yaml:"values" json:"values"`
}

// ParseFile reads and parses a values file (YAML or JSON).
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values file: %w", err)
	}

	var f File

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		// Try YAML first, then JSON.
		if err := yaml.Unmarshal(data, &f); err != nil {
			if jsonErr := json.Unmarshal(data, &f); jsonErr != nil {
				return nil, fmt.Errorf("parsing values file (tried YAML and JSON): %w", err)
			}
		}
	}

	return &f, nil
}

// ParseSetFlags parses --set key=value strings into a map.
func ParseSetFlags(pairs []string) (map[string]string, error) {
	result := make(map[string]string)

	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid value format: %s (expected key=value)", p)
		}
		result[parts[0]] = parts[1]
	}

	return result, nil
}

// Merge merges file values with --set values (--set takes precedence).
func Merge(fileValues, setValues map[string]string) map[string]string {
	result := make(map[string]string)

	for k, v := range fileValues {
		result[k] = v
	}
	for k, v := range setValues {
		result[k] = v
	}

	return result
}
