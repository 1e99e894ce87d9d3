package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stuttgart-things/secretgate/internal/classify"
)

func TestCollectYAMLFiles(t *testing.T) {
	tmpDir := t.TempDir()

	writeFixture(t, tmpDir, "a.yaml", "kind: ConfigMap\n")
	writeFixture(t, tmpDir, "b.yml", "kind: ConfigMap\n")
	writeFixture(t, tmpDir, "notes.txt", "not yaml\n")

	subDir := filepath.Join(tmpDir, "nested")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	writeFixture(t, subDir, "c.yaml", "kind: ConfigMap\n")

	// Dot directories like .git are skipped
	dotDir := filepath.Join(tmpDir, ".git")
	if err := os.MkdirAll(dotDir, 0755); err != nil {
		t.Fatalf("failed to create dot dir: %v", err)
	}
	writeFixture(t, dotDir, "config.yaml", "kind: ConfigMap\n")

	files, err := collectYAMLFiles(tmpDir)
	if err != nil {
		t.Fatalf("collectYAMLFiles failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 YAML files, got %d: %v", len(files), files)
	}
	for _, f := range files {
		if strings.Contains(f, ".git") {
			t.Errorf("dot directory should be skipped, found %s", f)
		}
	}
}

func TestCollectYAMLFilesMissingDir(t *testing.T) {
	_, err := collectYAMLFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestPrintScanTable(t *testing.T) {
	var summary classify.Summary
	summary.Add(classify.FileReport{Path: "deployment.yaml", Class: classify.NotASecret})
	summary.Add(classify.FileReport{Path: "secret.enc.yaml", Class: classify.AlreadyEncrypted})
	summary.Add(classify.FileReport{Path: "leaky.yaml", Class: classify.PartiallyEncrypted, PlaintextKeys: []string{"password"}})
	summary.Add(classify.FileReport{Path: "broken.yaml", Class: classify.Malformed, Detail: "parsing YAML: found character that cannot start any token"})

	output := captureStdout(t, func() {
		printScanTable(summary)
	})

	headers := []string{"FILE", "STATE", "PLAINTEXT KEYS"}
	for _, h := range headers {
		if !strings.Contains(output, h) {
			t.Errorf("table output should contain header %q", h)
		}
	}

	dataChecks := []string{"deployment.yaml", "NOT_A_SECRET", "secret.enc.yaml", "ALREADY_ENCRYPTED", "leaky.yaml", "PARTIALLY_ENCRYPTED", "password"}
	for _, d := range dataChecks {
		if !strings.Contains(output, d) {
			t.Errorf("table output should contain %q", d)
		}
	}

	if !strings.Contains(output, "1 file(s) partially encrypted, 1 malformed") {
		t.Errorf("expected failure summary line, got: %s", output)
	}
	if !strings.Contains(output, "broken.yaml: parsing YAML") {
		t.Errorf("expected malformed detail line, got: %s", output)
	}
}
