package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/secretgate/internal/classify"
	"github.com/stuttgart-things/secretgate/internal/sops"
)

var fixSopsBin string

var fixCmd = &cobra.Command{
	Use:   "fix <file>",
	Short: "Interactively repair a partially encrypted secret",
	Long: `Fully decrypts a partially encrypted secret file so you can review
and edit it, then recommit. The gate re-encrypts the file on the next commit.

This command requires a terminal and an explicit confirmation: the gate never
auto-fixes partial encryption, because it cannot know whether a plaintext
value beside encrypted ones is intentional or a leak in progress.`,
	Args: cobra.ExactArgs(1),
	Run:  runFix,
}

func init() {
	fixCmd.Flags().StringVar(&fixSopsBin, "sops-bin", sops.DefaultBinary, "SOPS binary to invoke")

	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) {
	path := args[0]

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		fmt.Println(errorStyle.Render("fix is interactive and must run from a terminal, never from a hook"))
		os.Exit(1)
	}

	report := classify.File(path)

	switch report.Class {
	case classify.PartiallyEncrypted:
		// Fall through to the confirmation below.
	case classify.Malformed:
		fmt.Println(errorStyle.Render(fmt.Sprintf("%s: cannot parse file: %s", path, report.Detail)))
		os.Exit(1)
	default:
		fmt.Println(successStyle.Render(fmt.Sprintf("%s: nothing to fix (%s)", path, report.Class)))
		return
	}

	fmt.Println(warnStyle.Render(fmt.Sprintf("%s is partially encrypted", path)))
	if len(report.PlaintextKeys) > 0 {
		fmt.Printf("  plaintext keys: %s\n", strings.Join(report.PlaintextKeys, ", "))
	}
	fmt.Println()

	var confirm bool
	confirmForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Decrypt %s in place?", path)).
				Description("The whole file becomes plaintext so you can review every value. Edit it, re-add it, and the gate encrypts it again on commit.").
				Affirmative("Yes, decrypt").
				Negative("Cancel").
				Value(&confirm),
		),
	)

	if err := confirmForm.Run(); err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("confirmation: %v", err)))
		os.Exit(1)
	}

	if !confirm {
		fmt.Println("Cancelled.")
		return
	}

	fmt.Println(progressStyle.Render("Decrypting with SOPS..."))
	if err := sops.DecryptInPlace(fixSopsBin, path); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("%s decrypted", path)))
	fmt.Println("Review the values, remove anything that should not be there, then:")
	fmt.Printf("  git add %s && git commit\n", path)
}
