package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/secretgate/internal/gitops"
	"github.com/stuttgart-things/secretgate/internal/inventory"
)

var (
	listInventoryPath string
	listNamespace     string
	listSource        string
	listOutput        string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List encrypted secrets from the inventory",
	Long:  `Lists all secrets recorded in secrets/inventory.yaml, with optional filtering by namespace or source.`,
	Run:   runList,
}

func init() {
	listCmd.Flags().StringVar(&listInventoryPath, "inventory-path", inventory.DefaultPath, "Path to inventory.yaml")
	listCmd.Flags().StringVar(&listNamespace, "namespace", "", "Filter by namespace")
	listCmd.Flags().StringVar(&listSource, "source", "", "Filter by source (create, gate)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	// Resolve inventory path
	inventoryPath := listInventoryPath

	// If not absolute, try relative to repo root
	if !filepath.IsAbs(inventoryPath) {
		cwd, err := os.Getwd()
		if err == nil {
			repoRoot, err := gitops.FindRepoRoot(cwd)
			if err == nil {
				inventoryPath = filepath.Join(repoRoot, inventoryPath)
			}
		}
	}

	inv, err := inventory.Load(inventoryPath)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error loading inventory: %v", err)))
		os.Exit(1)
	}

	entries := inventory.FilterEntries(inv, listNamespace, listSource)

	if len(entries) == 0 {
		fmt.Println("No secrets found.")
		return
	}

	switch listOutput {
	case "json":
		printEntriesJSON(entries)
	default:
		printEntriesTable(entries)
	}
}

func printEntriesTable(entries []inventory.SecretEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNAMESPACE\tPATH\tENCRYPTED AT\tSOURCE")
	fmt.Fprintln(w, "----\t---------\t----\t------------\t------")

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Name, e.Namespace, e.Path, e.EncryptedAt, e.Source)
	}

	w.Flush()
}

func printEntriesJSON(entries []inventory.SecretEntry) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error marshalling JSON: %v", err)))
		os.Exit(1)
	}
	fmt.Println(string(data))
}
