package cmd

import (
	"strings"
	"testing"
)

func TestGenerateCreateFilename(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		secretName string
		want       string
		wantErr    bool
	}{
		{
			name:       "default pattern",
			pattern:    "{{.name}}.enc.yaml",
			secretName: "db-credentials",
			want:       "db-credentials.enc.yaml",
		},
		{
			name:       "plain filename",
			pattern:    "secret.yaml",
			secretName: "ignored",
			want:       "secret.yaml",
		},
		{
			name:       "invalid template",
			pattern:    "{{.name",
			secretName: "db-credentials",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generateCreateFilename(tt.pattern, tt.secretName)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRunCreateNonInteractiveRequiresValues(t *testing.T) {
	config := &CreateConfig{
		SecretName:      "my-secret",
		SecretNamespace: "default",
		SopsBin:         "sops",
	}

	err := runCreateNonInteractive(config)
	if err == nil {
		t.Fatal("expected error without values")
	}
	if !strings.Contains(err.Error(), "--values-file or --set") {
		t.Errorf("expected values requirement in error, got: %v", err)
	}
}

func TestHeaderURL(t *testing.T) {
	header := "# yaml-language-server: $schema=https://example.com/schema.json"
	if got := headerURL(header); got != "https://example.com/schema.json" {
		t.Errorf("expected schema URL, got %q", got)
	}

	// No marker falls back to the whole string
	if got := headerURL("https://example.com/raw"); got != "https://example.com/raw" {
		t.Errorf("expected passthrough, got %q", got)
	}
}
