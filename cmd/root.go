package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "secretgate",
	Short: "Pre-commit gate for SOPS-encrypted secrets",
	Long: `Secretgate keeps plaintext secrets out of git history. It classifies
Kubernetes secret manifests by encryption state, auto-encrypts new plaintext
secrets with SOPS, and blocks commits containing partially encrypted files.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(logo)
		_ = cmd.Usage()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
