package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/secretgate/internal/schema"
)

var (
	schemaURL       string
	schemaVerifyURL bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema [files...]",
	Short: "Pin the yaml-language-server schema header on HelmRelease files",
	Long: `Ensures every app-template HelmRelease manifest starts with the exact
yaml-language-server schema comment, replacing stale headers and prepending
missing ones.

Exits non-zero when any file was modified, so a pre-commit framework
re-stages the fixed files and runs the hook again.`,
	Run: runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaURL, "schema-url", "", "Override the pinned schema URL")
	schemaCmd.Flags().BoolVar(&schemaVerifyURL, "verify-url", false, "Verify the schema URL is reachable before fixing")

	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) {
	header := schema.DefaultHeader
	if schemaURL != "" {
		header = "# yaml-language-server: $schema=" + schemaURL
	}

	if schemaVerifyURL {
		url := headerURL(header)
		if err := schema.NewClient().VerifyURL(url); err != nil {
			fmt.Println(errorStyle.Render(fmt.Sprintf("schema URL check failed: %v", err)))
			os.Exit(1)
		}
	}

	modified := false
	for _, path := range args {
		changed, err := schema.FixFile(path, header)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			os.Exit(1)
		}
		if changed {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Fixed schema header in: %s", path)))
			modified = true
		}
	}

	if modified {
		os.Exit(1)
	}
}

// headerURL extracts the URL from a schema header line.
func headerURL(header string) string {
	const marker = "$schema="
	if idx := strings.Index(header, marker); idx >= 0 {
		return header[idx+len(marker):]
	}
	return header
}
