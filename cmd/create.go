package cmd

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/secretgate/internal/sops"
)

var (
	createName        string
	createNamespace   string
	createType        string
	createValuesFile  string
	createSetValues   []string
	createOutputDir   string
	createFilenamePat string
	createSopsBin     string
	createDryRun      bool

	// Git flags for create
	createGitBranch       string
	createGitCreateBranch bool
	createGitMessage      string
	createGitRemote       string
	createGitUser         string
	createGitToken        string
	createGitCommit       bool
	createGitPush         bool

	// PR flags for create
	createPR            bool
	createPRTitle       string
	createPRDescription string
	createPRLabels      []string
	createPRBase        string

	// Mode flags for create
	createInteractive    bool
	createNonInteractive bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a SOPS-encrypted Kubernetes Secret",
	Long: `Builds a Kubernetes Secret manifest from key/value input, encrypts it
with SOPS (age recipients from SOPS_AGE_RECIPIENTS), writes it to the output
directory, records it in the secret inventory, and optionally commits the
result via git.

The plaintext manifest only ever exists in memory and a sops temp file.`,
	Run: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Secret name")
	createCmd.Flags().StringVar(&createNamespace, "namespace", "", "Secret namespace")
	createCmd.Flags().StringVar(&createType, "type", "", "Secret type (default: Opaque)")
	createCmd.Flags().StringVarP(&createValuesFile, "values-file", "f", "", "YAML/JSON file with secret values")
	createCmd.Flags().StringSliceVar(&createSetValues, "set", nil, "Inline value (key=value, repeatable)")
	createCmd.Flags().StringVarP(&createOutputDir, "output-dir", "o", ".", "Output directory for the encrypted file")
	createCmd.Flags().StringVar(&createFilenamePat, "filename-pattern", "{{.name}}.enc.yaml", "Pattern for output filename")
	createCmd.Flags().StringVar(&createSopsBin, "sops-bin", sops.DefaultBinary, "SOPS binary to invoke")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Show encrypted output without writing files")

	// Git flags
	createCmd.Flags().BoolVar(&createGitCommit, "git-commit", false, "Commit the encrypted file")
	createCmd.Flags().BoolVar(&createGitPush, "git-push", false, "Push after committing")
	createCmd.Flags().StringVar(&createGitBranch, "git-branch", "", "Branch to use/create")
	createCmd.Flags().BoolVar(&createGitCreateBranch, "git-create-branch", false, "Create the branch if it doesn't exist")
	createCmd.Flags().StringVar(&createGitMessage, "git-message", "", "Commit message (default: auto-generated)")
	createCmd.Flags().StringVar(&createGitRemote, "git-remote", "origin", "Git remote name")
	createCmd.Flags().StringVar(&createGitUser, "git-user", "", "Git username (or GIT_USER/GITHUB_USER env)")
	createCmd.Flags().StringVar(&createGitToken, "git-token", "", "Git token (or GIT_TOKEN/GITHUB_TOKEN env)")

	// PR flags
	createCmd.Flags().BoolVar(&createPR, "create-pr", false, "Create a pull request after push")
	createCmd.Flags().StringVar(&createPRTitle, "pr-title", "", "PR title (default: auto-generated)")
	createCmd.Flags().StringVar(&createPRDescription, "pr-description", "", "PR description")
	createCmd.Flags().StringSliceVar(&createPRLabels, "pr-labels", nil, "PR labels (comma-separated)")
	createCmd.Flags().StringVar(&createPRBase, "pr-base", "main", "Base branch for PR")

	// Mode flags
	createCmd.Flags().BoolVarP(&createInteractive, "interactive", "i", false, "Force interactive mode")
	createCmd.Flags().BoolVar(&createNonInteractive, "non-interactive", false, "Force non-interactive mode")

	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) {
	fmt.Println(logo)

	config := &CreateConfig{
		SecretName:      createName,
		SecretNamespace: createNamespace,
		SecretType:      createType,
		ValuesFile:      createValuesFile,
		InlineValuesRaw: createSetValues,
		OutputDir:       createOutputDir,
		FilenamePattern: createFilenamePat,
		SopsBin:         createSopsBin,
		DryRun:          createDryRun,
	}

	// Build git config if any git flags are set
	if createGitCommit || createGitPush || createGitBranch != "" || createPR {
		config.GitConfig = &GitConfig{
			Commit:       true,
			Push:         createGitPush || createPR,
			CreateBranch: createGitCreateBranch,
			Message:      createGitMessage,
			Branch:       createGitBranch,
			Remote:       createGitRemote,
			User:         createGitUser,
			Token:        createGitToken,
		}
	}

	// Build PR config if PR flags are set
	if createPR || createPRTitle != "" || createPRDescription != "" || len(createPRLabels) > 0 {
		config.PRConfig = &PRConfig{
			Create:      createPR,
			Title:       createPRTitle,
			Description: createPRDescription,
			Labels:      createPRLabels,
			BaseBranch:  createPRBase,
		}
	}

	// Determine mode
	if createNonInteractive {
		config.Interactive = false
	} else if createInteractive {
		config.Interactive = true
	} else {
		config.Interactive = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	var err error
	if config.Interactive {
		err = runCreateInteractive(config)
	} else {
		err = runCreateNonInteractive(config)
	}

	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// generateCreateFilename creates a filename from the pattern and secret name
func generateCreateFilename(pattern, secretName string) (string, error) {
	tmpl, err := template.New("filename").Parse(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid filename pattern: %w", err)
	}

	data := map[string]string{
		"name": secretName,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing filename template: %w", err)
	}

	return buf.String(), nil
}
