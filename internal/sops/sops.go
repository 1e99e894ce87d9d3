package sops

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
)

// DefaultBinary is the sops binary looked up on PATH unless overridden.
const DefaultBinary = "sops"

// CheckInstalled returns true if the given sops binary is on PATH.
func CheckInstalled(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// CheckAvailable verifies that the sops binary is installed and the
// SOPS_AGE_RECIPIENTS environment variable is set.
// It returns the recipients string on success.
func CheckAvailable(bin string) (string, error) {
	if !CheckInstalled(bin) {
		return "", fmt.Errorf("sops CLI not found: install from https://github.com/getsops/sops")
	}

	recipients := os.Getenv("SOPS_AGE_RECIPIENTS")
	if recipients == "" {
		return "", fmt.Errorf("SOPS_AGE_RECIPIENTS environment variable is not set")
	}

	return recipients, nil
}

// EncryptInPlace runs sops --encrypt --in-place on the file. Key discovery
// (creation rules, age recipients) is left entirely to sops.
func EncryptInPlace(bin, path string) error {
	return runInPlace(bin, "--encrypt", path)
}

// DecryptInPlace runs sops --decrypt --in-place on the file. Used only by
// the human remediation path, never by the gate itself.
func DecryptInPlace(bin, path string) error {
	return runInPlace(bin, "--decrypt", path)
}

func runInPlace(bin, mode, path string) error {
	cmd := exec.Command(bin, mode, "--in-place", path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		return fmt.Errorf("sops %s failed for %s: %s", mode, path, errMsg)
	}

	return nil
}

// Encrypt encrypts plaintext YAML with age encryption without touching the
// caller's files. It writes the plaintext to a temporary file, runs
// sops --encrypt, and returns the encrypted output.
func Encrypt(bin string, plaintext []byte, recipients string) ([]byte, error) {
	tmpFile, err := os.CreateTemp("", "secretgate-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(plaintext); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	tmpFile.Close()

	cmd := exec.Command(bin,
		"--encrypt",
		"--age", recipients,
		"--input-type", "yaml",
		"--output-type", "yaml",
		tmpFile.Name(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		return nil, fmt.Errorf("sops encrypt failed: %s", errMsg)
	}

	return stdout.Bytes(), nil
}
