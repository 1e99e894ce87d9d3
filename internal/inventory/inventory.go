package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIVersion = "secretgate.io/v1alpha1"
	DefaultKind       = "SecretInventory"

	// DefaultPath is where the inventory lives relative to the repo root.
	DefaultPath = "secrets/inventory.yaml"
)

// SecretInventory represents the secrets/inventory.yaml file tracking every
// encrypted secret in the repository.
type SecretInventory struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	Secrets    []SecretEntry `yaml:"secrets"`
}

// SecretEntry records one encrypted secret file.
type SecretEntry struct {
	Name        string `yaml:"name"`
	Namespace   string `yaml:"namespace"`
	Path        string `yaml:"path"`
	Recipient   string `yaml:"recipient,omitempty"`
	EncryptedAt string `yaml:"encryptedAt"`
	Source      string `yaml:"source"` // "create" or "gate"
}

// Load reads and parses an inventory file.
func Load(path string) (*SecretInventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory file: %w", err)
	}

	var inv SecretInventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parsing inventory file: %w", err)
	}

	return &inv, nil
}

// Save writes a SecretInventory to a YAML file.
func Save(path string, inv *SecretInventory) error {
	if inv.APIVersion == "" {
		inv.APIVersion = DefaultAPIVersion
	}
	if inv.Kind == "" {
		inv.Kind = DefaultKind
	}

	data, err := yaml.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshalling inventory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing inventory file: %w", err)
	}

	return nil
}

// AddEntry adds a secret entry to the inventory.
// An existing entry with the same path is replaced.
func AddEntry(inv *SecretInventory, entry SecretEntry) {
	for i, e := range inv.Secrets {
		if e.Path == entry.Path {
			inv.Secrets[i] = entry
			return
		}
	}
	inv.Secrets = append(inv.Secrets, entry)
}

// RemoveEntry removes a secret entry by path.
// Returns an error if the entry is not found.
func RemoveEntry(inv *SecretInventory, path string) error {
	for i, e := range inv.Secrets {
		if e.Path == path {
			inv.Secrets = append(inv.Secrets[:i], inv.Secrets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("secret %q not found in inventory", path)
}

// FindEntry returns a pointer to the entry with the given path, or nil.
func FindEntry(inv *SecretInventory, path string) *SecretEntry {
	for i, e := range inv.Secrets {
		if e.Path == path {
			return &inv.Secrets[i]
		}
	}
	return nil
}

// FilterEntries returns entries matching the given namespace and/or source.
// Empty strings are treated as wildcards.
func FilterEntries(inv *SecretInventory, namespace, source string) []SecretEntry {
	var result []SecretEntry
	for _, e := range inv.Secrets {
		if namespace != "" && e.Namespace != namespace {
			continue
		}
		if source != "" && e.Source != source {
			continue
		}
		result = append(result, e)
	}
	return result
}

// NewInventory creates an empty SecretInventory with default fields.
func NewInventory() *SecretInventory {
	return &SecretInventory{
		APIVersion: DefaultAPIVersion,
		Kind:       DefaultKind,
		Secrets:    []SecretEntry{},
	}
}
