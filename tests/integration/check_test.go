//go:build integration

package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const encryptedFixture = `apiVersion: v1
kind: Secret
metadata:
  name: db-credentials
  namespace: prod
type: Opaque
data:
  password: ENC[AES256_GCM,data:Tzh3cXc=,iv:abc,tag:def,type:str]
sops:
  age:
    - recipient: age1example
  lastmodified: "2026-01-01T00:00:00Z"
  version: 3.8.1
`

const partialFixture = `apiVersion: v1
kind: Secret
metadata:
  name: db-credentials
  namespace: prod
type: Opaque
stringData:
  password: hunter2
  token: ENC[AES256_GCM,data:Tzh3cXc=,iv:abc,tag:def,type:str]
sops:
  age:
    - recipient: age1example
`

const deploymentFixture = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  replicas: 2
`

// buildBinary builds the secretgate binary once per test
func buildBinary(t *testing.T) string {
	t.Helper()

	root := getProjectRoot(t)
	bin := filepath.Join(root, "secretgate-test")

	buildCmd := exec.Command("go", "build", "-o", "secretgate-test", ".")
	buildCmd.Dir = root
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build: %v\n%s", err, output)
	}
	t.Cleanup(func() { os.Remove(bin) })

	return bin
}

// TestCheckPassesEncryptedFile tests that a fully encrypted file passes the gate
func TestCheckPassesEncryptedFile(t *testing.T) {
	bin := buildBinary(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "secret.enc.yaml")
	if err := os.WriteFile(path, []byte(encryptedFixture), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cmd := exec.Command(bin, "check", "--check-only", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("check failed on encrypted file: %v\n%s", err, output)
	}
}

// TestCheckBlocksPartialFile tests that a partially encrypted file fails the gate
func TestCheckBlocksPartialFile(t *testing.T) {
	bin := buildBinary(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "secret.enc.yaml")
	if err := os.WriteFile(path, []byte(partialFixture), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cmd := exec.Command(bin, "check", "--check-only", path)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit for partial file, got success:\n%s", output)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "password") {
		t.Errorf("expected output to name the plaintext key, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "secretgate fix") {
		t.Errorf("expected remediation hint in output, got: %s", outputStr)
	}
}

// TestCheckIgnoresNonSecretFile tests that ordinary manifests pass untouched
func TestCheckIgnoresNonSecretFile(t *testing.T) {
	bin := buildBinary(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "deployment.yaml")
	if err := os.WriteFile(path, []byte(deploymentFixture), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cmd := exec.Command(bin, "check", "--check-only", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("check failed on non-secret file: %v\n%s", err, output)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to re-read fixture: %v", err)
	}
	if string(content) != deploymentFixture {
		t.Errorf("check modified a non-secret file")
	}
}

// TestCheckEncryptsPlaintextSecret tests the auto-encrypt path.
// Requires sops and SOPS_AGE_RECIPIENTS plus a git worktree.
func TestCheckEncryptsPlaintextSecret(t *testing.T) {
	if _, err := exec.LookPath("sops"); err != nil {
		t.Skip("sops not installed, skipping integration test")
	}
	if os.Getenv("SOPS_AGE_RECIPIENTS") == "" {
		t.Skip("SOPS_AGE_RECIPIENTS not set, skipping integration test")
	}

	bin := buildBinary(t)

	tmpDir := t.TempDir()
	initCmd := exec.Command("git", "init", tmpDir)
	if output, err := initCmd.CombinedOutput(); err != nil {
		t.Fatalf("git init failed: %v\n%s", err, output)
	}

	path := filepath.Join(tmpDir, "secret.yaml")
	plaintext := `apiVersion: v1
kind: Secret
metadata:
  name: api-token
  namespace: default
stringData:
  token: super-secret
`
	if err := os.WriteFile(path, []byte(plaintext), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cmd := exec.Command(bin, "check", path)
	cmd.Dir = tmpDir
	cmd.Env = os.Environ()
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, output)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to re-read file: %v", err)
	}
	if !strings.Contains(string(content), "ENC[") {
		t.Errorf("expected file to be encrypted in place, got:\n%s", content)
	}
	if !strings.Contains(string(content), "sops") {
		t.Errorf("expected sops metadata in encrypted file")
	}
}

// TestScanReportsStates tests the read-only directory scan
func TestScanReportsStates(t *testing.T) {
	bin := buildBinary(t)

	tmpDir := t.TempDir()
	fixtures := map[string]string{
		"encrypted.yaml":  encryptedFixture,
		"deployment.yaml": deploymentFixture,
	}
	for name, content := range fixtures {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}

	cmd := exec.Command(bin, "scan", tmpDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "ALREADY_ENCRYPTED") {
		t.Errorf("expected scan to report ALREADY_ENCRYPTED, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "NOT_A_SECRET") {
		t.Errorf("expected scan to report NOT_A_SECRET, got: %s", outputStr)
	}
}

// TestScanExitsNonZeroOnPartial tests the scan exit code on a blocking state
func TestScanExitsNonZeroOnPartial(t *testing.T) {
	bin := buildBinary(t)

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "partial.yaml"), []byte(partialFixture), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cmd := exec.Command(bin, "scan", tmpDir)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit for partial file, got success:\n%s", output)
	}
	if !strings.Contains(string(output), "PARTIALLY_ENCRYPTED") {
		t.Errorf("expected scan to report PARTIALLY_ENCRYPTED, got: %s", output)
	}
}

// TestSchemaFixesHeader tests the HelmRelease schema header hook
func TestSchemaFixesHeader(t *testing.T) {
	bin := buildBinary(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "helmrelease.yaml")
	release := `apiVersion: helm.toolkit.fluxcd.io/v2
kind: HelmRelease
metadata:
  name: web
spec:
  chartRef:
    kind: OCIRepository
    name: app-template
values:
  controllers: {}
# chart: bjw-s
`
	if err := os.WriteFile(path, []byte(release), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	// First run fixes the file and exits non-zero
	cmd := exec.Command(bin, "schema", path)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit after fixing header, got success:\n%s", output)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to re-read file: %v", err)
	}
	if !strings.HasPrefix(string(content), "# yaml-language-server:") {
		t.Errorf("expected schema header to be prepended, got:\n%s", content)
	}

	// Second run is a no-op and exits zero
	cmd = exec.Command(bin, "schema", path)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("expected clean exit on second run: %v\n%s", err, output)
	}
}

// TestVersionCommand tests the version command
func TestVersionCommand(t *testing.T) {
	bin := buildBinary(t)

	cmd := exec.Command(bin, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v\n%s", err, output)
	}

	if !strings.Contains(string(output), "secretgate") {
		t.Errorf("expected version output to contain 'secretgate', got: %s", output)
	}
}

// TestHelpCommand tests the help command
func TestHelpCommand(t *testing.T) {
	bin := buildBinary(t)

	cmd := exec.Command(bin, "--help")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("help command failed: %v\n%s", err, output)
	}

	outputStr := string(output)
	for _, sub := range []string{"check", "scan", "fix", "create", "schema", "list", "version"} {
		if !strings.Contains(outputStr, sub) {
			t.Errorf("expected help to mention %s command", sub)
		}
	}
}

// getProjectRoot returns the project root directory
func getProjectRoot(t *testing.T) string {
	t.Helper()

	projectRoot := filepath.Join("..", "..")
	if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); os.IsNotExist(err) {
		t.Fatalf("could not locate project root from tests/integration")
	}

	return projectRoot
}
