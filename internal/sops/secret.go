package sops

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SecretManifest holds the fields needed to generate a Kubernetes Secret.
type SecretManifest struct {
	Name       string
	Namespace  string
	Type       string
	StringData map[string]string
}

// BuildSecretYAML produces a plaintext Kubernetes Secret manifest, ready to
// be passed through Encrypt before it ever touches a repository.
func BuildSecretYAML(m SecretManifest) ([]byte, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("secret name is required")
	}
	if m.Namespace == "" {
		return nil, fmt.Errorf("secret namespace is required")
	}
	if len(m.StringData) == 0 {
		return nil, fmt.Errorf("secret has no values")
	}

	secretType := m.Type
	if secretType == "" {
		secretType = "Opaque"
	}

	secret := map[string]any{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata": map[string]any{
			"name":      m.Name,
			"namespace": m.Namespace,
		},
		"type":       secretType,
		"stringData": m.StringData,
	}

	out, err := yaml.Marshal(secret)
	if err != nil {
		return nil, fmt.Errorf("marshalling secret YAML: %w", err)
	}

	return out, nil
}
