package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stuttgart-things/secretgate/internal/classify"
	"github.com/stuttgart-things/secretgate/internal/gitops"
	"github.com/stuttgart-things/secretgate/internal/inventory"
	"github.com/stuttgart-things/secretgate/internal/sops"
)

var (
	checkSopsBin string
	checkOnly    bool
	checkNoStage bool
	checkOutput  string
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Gate secret files on their encryption state",
	Long: `Classifies each file as NOT_A_SECRET, ALREADY_ENCRYPTED,
NEEDS_INITIAL_ENCRYPTION, PARTIALLY_ENCRYPTED or MALFORMED.

Plaintext secrets are encrypted in place with SOPS and re-staged for the
commit. Partially encrypted files block the commit and are never touched:
deciding whether a plaintext value beside encrypted ones is intentional
needs a human.

Intended as a pre-commit hook; the hook framework supplies the file list.`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkSopsBin, "sops-bin", sops.DefaultBinary, "SOPS binary to invoke")
	checkCmd.Flags().BoolVar(&checkOnly, "check-only", false, "Classify and report only, never encrypt or stage")
	checkCmd.Flags().BoolVar(&checkNoStage, "no-stage", false, "Encrypt but skip git staging")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "Output format (text, json)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	config := &GateConfig{
		SopsBin:   checkSopsBin,
		CheckOnly: checkOnly,
		Stage:     !checkNoStage,
	}
	if checkOutput == "json" {
		config.Diag = os.Stderr
	}

	summary, err := runGate(args, config)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	if checkOutput == "json" {
		printSummaryJSON(summary)
	}

	if summary.Failed() {
		os.Exit(1)
	}
}

// runGate classifies each file in order and acts on the result. It returns a
// non-nil error only for fatal conditions (failed encryption or staging),
// which abort the run immediately: leaving a secret plaintext and unflagged
// is the exact failure this tool exists to prevent.
func runGate(files []string, config *GateConfig) (classify.Summary, error) {
	var summary classify.Summary

	for _, path := range files {
		report := classify.File(path)

		switch report.Class {
		case classify.NeedsInitialEncryption:
			if config.CheckOnly {
				fmt.Fprintln(config.diag(), warnStyle.Render(fmt.Sprintf("%s: plaintext secret, needs initial encryption", path)))
				break
			}
			if err := encryptAndStage(path, config); err != nil {
				summary.Add(report)
				return summary, err
			}

		case classify.PartiallyEncrypted:
			printPartialDiagnostic(config.diag(), report)

		case classify.Malformed:
			fmt.Fprintln(config.diag(), errorStyle.Render(fmt.Sprintf("%s: cannot confirm safety: %s", report.Path, report.Detail)))
		}

		summary.Add(report)
	}

	return summary, nil
}

// encryptAndStage performs the only mutations the gate is allowed: in-place
// encryption of a never-encrypted secret, and re-staging it for the commit.
func encryptAndStage(path string, config *GateConfig) error {
	meta := readSecretMeta(path)

	fmt.Fprintln(config.diag(), progressStyle.Render(fmt.Sprintf("Encrypting %s with SOPS...", path)))
	if err := sops.EncryptInPlace(config.SopsBin, path); err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	staged := []string{absPath}
	if invPath := recordEncryption(path, meta, config.diag()); invPath != "" {
		staged = append(staged, invPath)
	}

	if config.Stage {
		g, err := gitops.Open(filepath.Dir(path))
		if err != nil {
			return fmt.Errorf("re-staging %s: %w", path, err)
		}
		if err := g.StageFiles(staged); err != nil {
			return err
		}
		fmt.Fprintln(config.diag(), successStyle.Render(fmt.Sprintf("%s: encrypted and re-staged", path)))
		return nil
	}

	fmt.Fprintln(config.diag(), successStyle.Render(fmt.Sprintf("%s: encrypted", path)))
	return nil
}

// readSecretMeta extracts metadata.name/namespace before sops rewrites the
// file. Falls back to the filename when the manifest carries no metadata.
func readSecretMeta(path string) secretMeta {
	var meta secretMeta

	data, err := os.ReadFile(path)
	if err == nil {
		_ = yaml.Unmarshal(data, &meta)
	}
	if meta.Metadata.Name == "" {
		base := filepath.Base(path)
		meta.Metadata.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return meta
}

// recordEncryption adds the freshly encrypted file to the repo's secret
// inventory. Best effort: the gate must not fail a commit over bookkeeping.
// Returns the inventory path when it was updated, so it can be staged too.
func recordEncryption(path string, meta secretMeta, diag io.Writer) string {
	root, err := gitops.FindRepoRoot(filepath.Dir(path))
	if err != nil {
		return ""
	}

	invPath := filepath.Join(root, inventory.DefaultPath)
	inv, err := inventory.Load(invPath)
	if err != nil {
		inv = inventory.NewInventory()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		relPath = path
	}

	inventory.AddEntry(inv, inventory.SecretEntry{
		Name:        meta.Metadata.Name,
		Namespace:   meta.Metadata.Namespace,
		Path:        relPath,
		EncryptedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      "gate",
	})

	if err := os.MkdirAll(filepath.Dir(invPath), 0755); err != nil {
		return ""
	}
	if err := inventory.Save(invPath, inv); err != nil {
		fmt.Fprintln(diag, warnStyle.Render(fmt.Sprintf("warning: updating inventory failed: %v", err)))
		return ""
	}
	return invPath
}

// printPartialDiagnostic names the file, the offending keys, and the manual
// remediation. The file itself is never modified.
func printPartialDiagnostic(w io.Writer, report classify.FileReport) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s is partially encrypted", report.Path)))
	if len(report.PlaintextKeys) > 0 {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  plaintext keys: %s", strings.Join(report.PlaintextKeys, ", "))))
	}
	fmt.Fprintln(w, "  An encrypted file carries unencrypted values. Fix it manually:")
	fmt.Fprintf(w, "    secretgate fix %s\n", report.Path)
	fmt.Fprintf(w, "    (or: sops --decrypt --in-place %s, edit, re-add)\n", report.Path)
	fmt.Fprintln(w, "  The gate re-encrypts the fully decrypted file on the next commit.")
}

func printSummaryJSON(summary classify.Summary) {
	data, err := json.MarshalIndent(summary.Reports, "", "  ")
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error marshalling JSON: %v", err)))
		os.Exit(1)
	}
	fmt.Println(string(data))
}
