package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/stuttgart-things/secretgate/internal/gitops"
	"github.com/stuttgart-things/secretgate/internal/sops"
	"github.com/stuttgart-things/secretgate/internal/values"
)

// destinationChoice holds the user's save destination decision
type destinationChoice struct {
	useGit   bool
	createPR bool
}

// runCreateInteractive runs the create command in interactive mode
func runCreateInteractive(config *CreateConfig) error {
	// 1. Check SOPS prerequisites
	fmt.Println(progressStyle.Render("Checking SOPS prerequisites..."))
	recipients, err := sops.CheckAvailable(config.SopsBin)
	if err != nil {
		return fmt.Errorf("SOPS prerequisites: %w", err)
	}
	fmt.Println(successStyle.Render("SOPS available (age encryption)"))

	// 2. Collect secret metadata (name + namespace + type)
	secretName := config.SecretName
	secretNamespace := config.SecretNamespace
	secretType := config.SecretType
	if secretType == "" {
		secretType = "Opaque"
	}

	if secretName == "" || secretNamespace == "" {
		metaForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Secret name").
					Description("Kubernetes Secret resource name").
					Placeholder("my-app-secret").
					Value(&secretName).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("secret name is required")
						}
						return nil
					}),

				huh.NewInput().
					Title("Secret namespace").
					Description("Kubernetes namespace for the Secret").
					Placeholder("default").
					Value(&secretNamespace).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("namespace is required")
						}
						return nil
					}),

				huh.NewSelect[string]().
					Title("Secret type").
					Description("Kubernetes Secret type").
					Options(
						huh.NewOption("Opaque", "Opaque"),
						huh.NewOption("kubernetes.io/dockerconfigjson", "kubernetes.io/dockerconfigjson"),
						huh.NewOption("kubernetes.io/tls", "kubernetes.io/tls"),
						huh.NewOption("kubernetes.io/basic-auth", "kubernetes.io/basic-auth"),
					).
					Value(&secretType),
			),
		)

		if err := metaForm.Run(); err != nil {
			return fmt.Errorf("secret metadata: %w", err)
		}
	}

	// 3. Collect secret values (values file and --set seed the map)
	stringData := make(map[string]string)
	if config.ValuesFile != "" {
		vf, err := values.ParseFile(config.ValuesFile)
		if err != nil {
			return fmt.Errorf("parsing values file: %w", err)
		}
		stringData = vf.Values
	}
	inline, err := values.ParseSetFlags(config.InlineValuesRaw)
	if err != nil {
		return fmt.Errorf("parsing --set values: %w", err)
	}
	stringData = values.Merge(stringData, inline)

	if err := collectSecretPairs(stringData); err != nil {
		return fmt.Errorf("collecting secret values: %w", err)
	}

	if len(stringData) == 0 {
		return fmt.Errorf("no secret values provided")
	}

	// 4. Generate Secret YAML
	fmt.Println(progressStyle.Render("\nGenerating Kubernetes Secret YAML..."))
	secretYAML, err := sops.BuildSecretYAML(sops.SecretManifest{
		Name:       secretName,
		Namespace:  secretNamespace,
		Type:       secretType,
		StringData: stringData,
	})
	if err != nil {
		return fmt.Errorf("generating secret YAML: %w", err)
	}

	// 5. Preview (pre-encryption) + confirm
	fmt.Println(progressStyle.Render("\nSecret YAML (pre-encryption):"))
	fmt.Println(yamlStyle.Render(string(secretYAML)))

	var confirm bool
	confirmForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Encrypt this secret?").
				Description("The secret will be encrypted with SOPS (age) before saving").
				Affirmative("Yes, encrypt").
				Negative("Cancel").
				Value(&confirm),
		),
	)

	if err := confirmForm.Run(); err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}

	if !confirm {
		fmt.Println("Cancelled.")
		return nil
	}

	// 6. Encrypt
	fmt.Println(progressStyle.Render("Encrypting with SOPS..."))
	encrypted, err := sops.Encrypt(config.SopsBin, secretYAML, recipients)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	fmt.Println(successStyle.Render("Encrypted successfully"))

	result := &CreateResult{
		SecretName:      secretName,
		SecretNamespace: secretNamespace,
		Content:         string(encrypted),
	}

	// 7. Dry run check
	if config.DryRun {
		config.SecretName = secretName
		return printCreateDryRun(result, config)
	}

	// 8. Destination — ask where to save
	destChoice, err := runDestinationChoice()
	if err != nil {
		return fmt.Errorf("destination choice: %w", err)
	}

	var outputDir string
	if destChoice.useGit {
		// For git, pick an output directory inside a repo
		for {
			selectedDir, err := promptOutputDir(config.OutputDir)
			if err != nil {
				return fmt.Errorf("directory selection: %w", err)
			}
			outputDir = selectedDir

			if _, err := gitops.FindRepoRoot(outputDir); err != nil {
				fmt.Println(errorStyle.Render("Error: Output directory is not in a git repository"))
				continue
			}
			break
		}
	} else {
		selectedDir, err := promptOutputDir(config.OutputDir)
		if err != nil {
			return fmt.Errorf("directory selection: %w", err)
		}
		outputDir = selectedDir
	}

	// Generate filename
	filename, err := generateCreateFilename(config.FilenamePattern, secretName)
	if err != nil {
		return fmt.Errorf("generating filename: %w", err)
	}

	outputPath := filepath.Join(outputDir, filename)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, encrypted, 0644); err != nil {
		return fmt.Errorf("writing encrypted file: %w", err)
	}
	result.OutputPath = outputPath
	fmt.Println(successStyle.Render(fmt.Sprintf("Saved: %s", outputPath)))

	// 9. Inventory and kustomization bookkeeping
	updateInventoryForCreate(result, recipients)
	updateKustomizationForCreate(result)

	// 10. Git operations
	if destChoice.useGit {
		config.OutputDir = outputDir

		if config.GitConfig == nil {
			gitConfig, err := runGitDetailsForm(destChoice.createPR)
			if err != nil {
				return fmt.Errorf("git options: %w", err)
			}
			config.GitConfig = gitConfig

			if destChoice.createPR {
				prConfig, err := runPROptionsForm()
				if err != nil {
					return fmt.Errorf("PR options: %w", err)
				}
				config.PRConfig = prConfig
			}
		}

		if err := executeCreateGitOperations(result, config); err != nil {
			return fmt.Errorf("git operations: %w", err)
		}
	}

	return nil
}

// collectSecretPairs prompts for key/value pairs until the user stops.
// Values use password echo mode so they never show on screen.
func collectSecretPairs(stringData map[string]string) error {
	for {
		addMore := len(stringData) == 0
		if len(stringData) > 0 {
			moreForm := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Add another value? (%d collected)", len(stringData))).
						Affirmative("Yes").
						Negative("Done").
						Value(&addMore),
				),
			)
			if err := moreForm.Run(); err != nil {
				return err
			}
		}
		if !addMore {
			return nil
		}

		var key, value string
		pairForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Key").
					Description("Secret data key, e.g. password or api-token").
					Value(&key).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("key is required")
						}
						return nil
					}),

				huh.NewInput().
					Title("Value").
					Description("Secret value (hidden)").
					EchoMode(huh.EchoModePassword).
					Value(&value).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("value is required")
						}
						return nil
					}),
			),
		)

		if err := pairForm.Run(); err != nil {
			return err
		}

		stringData[key] = value
	}
}

// runDestinationChoice asks whether to just save or also run git operations
func runDestinationChoice() (destinationChoice, error) {
	var mode string = "save"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the encrypted secret go?").
				Options(
					huh.NewOption("Save to directory", "save"),
					huh.NewOption("Save and commit via git", "git"),
					huh.NewOption("Save, commit, push, and open a PR", "pr"),
				).
				Value(&mode),
		),
	)

	if err := form.Run(); err != nil {
		return destinationChoice{}, err
	}

	return destinationChoice{
		useGit:   mode == "git" || mode == "pr",
		createPR: mode == "pr",
	}, nil
}

// promptOutputDir asks for the output directory
func promptOutputDir(defaultDir string) (string, error) {
	dir := defaultDir
	if dir == "" {
		dir = "."
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Description("Where to save the encrypted secret").
				Value(&dir).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("directory is required")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}
	return dir, nil
}

// runGitDetailsForm collects branch, commit message, and push options
func runGitDetailsForm(forPR bool) (*GitConfig, error) {
	var (
		branch       string
		createBranch bool = forPR
		message      string
		push         bool = forPR
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Branch").
				Description("Branch to commit on (empty = current branch)").
				Value(&branch),

			huh.NewConfirm().
				Title("Create the branch if it doesn't exist?").
				Value(&createBranch),

			huh.NewInput().
				Title("Commit message").
				Description("Empty for an auto-generated message").
				Value(&message),

			huh.NewConfirm().
				Title("Push after committing?").
				Value(&push),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}

	// PRs always need a push
	if forPR {
		push = true
	}

	return &GitConfig{
		Commit:       true,
		Push:         push,
		CreateBranch: createBranch && branch != "",
		Message:      message,
		Branch:       branch,
		Remote:       "origin",
	}, nil
}

// runPROptionsForm collects pull request options
func runPROptionsForm() (*PRConfig, error) {
	var (
		title       string
		description string
		base        string = "main"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("PR title").
				Description("Empty for an auto-generated title").
				Value(&title),

			huh.NewInput().
				Title("PR description").
				Value(&description),

			huh.NewInput().
				Title("Base branch").
				Value(&base),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}

	return &PRConfig{
		Create:      true,
		Title:       title,
		Description: description,
		BaseBranch:  base,
	}, nil
}
