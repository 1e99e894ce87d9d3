package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/secretgate/internal/classify"
)

var scanOutput string

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Classify every YAML file under a directory",
	Long: `Walks a directory tree, classifies every .yaml/.yml file by encryption
state, and prints the result. Read-only: scan never encrypts and never stages.

Exits non-zero if any file is partially encrypted or malformed, so it can
back a CI job as well as a local audit.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	files, err := collectYAMLFiles(dir)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error walking %s: %v", dir, err)))
		os.Exit(1)
	}

	if len(files) == 0 {
		fmt.Println("No YAML files found.")
		return
	}

	var summary classify.Summary
	for _, path := range files {
		summary.Add(classify.File(path))
	}

	switch scanOutput {
	case "json":
		printSummaryJSON(summary)
	default:
		printScanTable(summary)
	}

	if summary.Failed() {
		os.Exit(1)
	}
}

// collectYAMLFiles gathers .yaml/.yml files under dir, skipping dot
// directories like .git.
func collectYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); strings.HasPrefix(name, ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func printScanTable(summary classify.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATE\tPLAINTEXT KEYS")
	fmt.Fprintln(w, "----\t-----\t--------------")

	for _, r := range summary.Reports {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, r.Class, strings.Join(r.PlaintextKeys, ", "))
	}

	w.Flush()

	if summary.Failed() {
		fmt.Println()
		fmt.Println(errorStyle.Render(fmt.Sprintf("%d file(s) partially encrypted, %d malformed",
			summary.Count(classify.PartiallyEncrypted), summary.Count(classify.Malformed))))
		for _, r := range summary.ByClass(classify.Malformed) {
			fmt.Println(errorStyle.Render(fmt.Sprintf("  %s: %s", r.Path, r.Detail)))
		}
	}
}
