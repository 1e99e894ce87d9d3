package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stuttgart-things/secretgate/internal/gitops"
	"github.com/stuttgart-things/secretgate/internal/inventory"
	"github.com/stuttgart-things/secretgate/internal/kustomize"
	"github.com/stuttgart-things/secretgate/internal/sops"
	"github.com/stuttgart-things/secretgate/internal/values"
)

// runCreateNonInteractive runs the create command in non-interactive mode
func runCreateNonInteractive(config *CreateConfig) error {
	if config.ValuesFile == "" && len(config.InlineValuesRaw) == 0 {
		return fmt.Errorf("--values-file or --set is required in non-interactive mode")
	}

	// Check SOPS prerequisites
	fmt.Println("Checking SOPS prerequisites...")
	recipients, err := sops.CheckAvailable(config.SopsBin)
	if err != nil {
		return fmt.Errorf("SOPS prerequisites: %w", err)
	}
	fmt.Println("SOPS available (age encryption)")

	// Collect secret values
	stringData := make(map[string]string)

	if config.ValuesFile != "" {
		vf, err := values.ParseFile(config.ValuesFile)
		if err != nil {
			return fmt.Errorf("parsing values file: %w", err)
		}
		stringData = vf.Values

		// File-level metadata fills in missing flags
		if config.SecretName == "" {
			config.SecretName = vf.Name
		}
		if config.SecretNamespace == "" {
			config.SecretNamespace = vf.Namespace
		}
		if config.SecretType == "" {
			config.SecretType = vf.Type
		}
	}

	// Name/namespace come from flags or the values file
	if config.SecretName == "" {
		return fmt.Errorf("--name is required (or a name field in the values file)")
	}
	if config.SecretNamespace == "" {
		return fmt.Errorf("--namespace is required (or a namespace field in the values file)")
	}

	inline, err := values.ParseSetFlags(config.InlineValuesRaw)
	if err != nil {
		return fmt.Errorf("parsing --set values: %w", err)
	}
	stringData = values.Merge(stringData, inline)

	if len(stringData) == 0 {
		return fmt.Errorf("no secret values provided")
	}

	// Generate Secret YAML
	fmt.Println("Generating Kubernetes Secret YAML...")
	secretYAML, err := sops.BuildSecretYAML(sops.SecretManifest{
		Name:       config.SecretName,
		Namespace:  config.SecretNamespace,
		Type:       config.SecretType,
		StringData: stringData,
	})
	if err != nil {
		return fmt.Errorf("generating secret YAML: %w", err)
	}

	// Encrypt
	fmt.Println("Encrypting with SOPS...")
	encrypted, err := sops.Encrypt(config.SopsBin, secretYAML, recipients)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	fmt.Println("Encrypted successfully")

	result := &CreateResult{
		SecretName:      config.SecretName,
		SecretNamespace: config.SecretNamespace,
		Content:         string(encrypted),
	}

	// Dry run
	if config.DryRun {
		return printCreateDryRun(result, config)
	}

	// Write encrypted file
	filename, err := generateCreateFilename(config.FilenamePattern, config.SecretName)
	if err != nil {
		return fmt.Errorf("generating filename: %w", err)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	outputPath := filepath.Join(config.OutputDir, filename)
	if err := os.WriteFile(outputPath, encrypted, 0644); err != nil {
		return fmt.Errorf("writing encrypted file: %w", err)
	}
	result.OutputPath = outputPath
	fmt.Printf("Saved: %s\n", outputPath)

	// Bookkeeping: inventory entry and sibling kustomization
	updateInventoryForCreate(result, recipients)
	updateKustomizationForCreate(result)

	// Git operations
	if config.GitConfig != nil {
		if err := executeCreateGitOperations(result, config); err != nil {
			return fmt.Errorf("git operations: %w", err)
		}
	}

	return nil
}

// updateInventoryForCreate records the new secret in the repo inventory.
// Best effort: a failed inventory write never fails the create.
func updateInventoryForCreate(result *CreateResult, recipients string) {
	root, err := gitops.FindRepoRoot(filepath.Dir(result.OutputPath))
	if err != nil {
		return
	}

	invPath := filepath.Join(root, inventory.DefaultPath)
	inv, err := inventory.Load(invPath)
	if err != nil {
		inv = inventory.NewInventory()
	}

	absPath, err := filepath.Abs(result.OutputPath)
	if err != nil {
		absPath = result.OutputPath
	}
	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		relPath = result.OutputPath
	}

	inventory.AddEntry(inv, inventory.SecretEntry{
		Name:        result.SecretName,
		Namespace:   result.SecretNamespace,
		Path:        relPath,
		Recipient:   recipients,
		EncryptedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      "create",
	})

	if err := os.MkdirAll(filepath.Dir(invPath), 0755); err != nil {
		return
	}
	if err := inventory.Save(invPath, inv); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("warning: updating inventory failed: %v", err)))
	}
}

// updateKustomizationForCreate appends the new secret to a sibling
// kustomization.yaml, if one exists.
func updateKustomizationForCreate(result *CreateResult) {
	dir := filepath.Dir(result.OutputPath)

	var kustomizationPath string
	for _, name := range []string{"kustomization.yaml", "kustomization.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			kustomizationPath = candidate
			break
		}
	}
	if kustomizationPath == "" {
		return
	}

	k, err := kustomize.Load(kustomizationPath)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("warning: reading kustomization failed: %v", err)))
		return
	}

	if added := kustomize.AddResource(k, filepath.Base(result.OutputPath)); !added {
		return
	}

	if err := kustomize.Save(kustomizationPath, k); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("warning: updating kustomization failed: %v", err)))
		return
	}
	fmt.Printf("Added %s to %s\n", filepath.Base(result.OutputPath), kustomizationPath)
}

// executeCreateGitOperations stages, commits, and optionally pushes the new
// secret, then opens a PR if requested.
func executeCreateGitOperations(result *CreateResult, config *CreateConfig) error {
	// Resolve credentials if pushing
	user, token := config.GitConfig.User, config.GitConfig.Token
	if config.GitConfig.Push {
		var err error
		user, token, err = gitops.ResolveCredentials(user, token)
		if err != nil {
			return err
		}
	} else {
		user, token = gitops.ResolveCredentialsOptional(user, token)
	}

	repoPath, err := gitops.FindRepoRoot(config.OutputDir)
	if err != nil {
		return fmt.Errorf("output directory is not in a git repository: %w", err)
	}
	g, err := gitops.New(repoPath, user, token)
	if err != nil {
		return err
	}

	// Create or check out branch if requested
	if config.GitConfig.CreateBranch && config.GitConfig.Branch != "" {
		fmt.Printf("Creating branch: %s\n", config.GitConfig.Branch)
		if err := g.CreateBranch(config.GitConfig.Branch); err != nil {
			return err
		}
	} else if config.GitConfig.Branch != "" {
		fmt.Printf("Checking out branch: %s\n", config.GitConfig.Branch)
		if err := g.CheckoutBranch(config.GitConfig.Branch); err != nil {
			return err
		}
	}

	// Stage the encrypted file plus any bookkeeping files
	staged := []string{result.OutputPath}
	invPath := filepath.Join(repoPath, inventory.DefaultPath)
	if _, err := os.Stat(invPath); err == nil {
		staged = append(staged, invPath)
	}
	for _, name := range []string{"kustomization.yaml", "kustomization.yml"} {
		candidate := filepath.Join(filepath.Dir(result.OutputPath), name)
		if _, err := os.Stat(candidate); err == nil {
			staged = append(staged, candidate)
			break
		}
	}

	fmt.Println("Staging files...")
	if err := g.StageFiles(staged); err != nil {
		return err
	}

	// Commit
	message := config.GitConfig.Message
	if message == "" {
		message = fmt.Sprintf("Add encrypted secret %s/%s", result.SecretNamespace, result.SecretName)
	}
	fmt.Printf("Committing: %s\n", message)
	if err := g.Commit(message, user, ""); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Committed successfully"))

	// Push if requested
	if config.GitConfig.Push {
		remote := config.GitConfig.Remote
		if remote == "" {
			remote = "origin"
		}
		fmt.Printf("Pushing to %s...\n", remote)
		if err := g.Push(remote); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Pushed successfully"))

		// Create PR if requested (after successful push)
		if config.PRConfig != nil && config.PRConfig.Create {
			if err := executeCreatePR(result, config, g); err != nil {
				return fmt.Errorf("creating pull request: %w", err)
			}
		}
	}

	return nil
}

func executeCreatePR(result *CreateResult, config *CreateConfig, g *gitops.GitOps) error {
	title := config.PRConfig.Title
	if title == "" {
		title = fmt.Sprintf("Add encrypted secret %s/%s", result.SecretNamespace, result.SecretName)
	}

	description := config.PRConfig.Description
	if description == "" {
		description = fmt.Sprintf("Adds the SOPS-encrypted secret `%s` in namespace `%s`.", result.SecretName, result.SecretNamespace)
	}

	head, err := g.GetCurrentBranch()
	if err != nil {
		return err
	}

	pr, err := gitops.CreatePR(gitops.PRConfig{
		Title:       title,
		Description: description,
		Labels:      config.PRConfig.Labels,
		BaseBranch:  config.PRConfig.BaseBranch,
		HeadBranch:  head,
	}, g.RepoPath)
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Pull request created: %s", pr.URL)))
	return nil
}

// printCreateDryRun shows what would be written without actually writing files
func printCreateDryRun(result *CreateResult, config *CreateConfig) error {
	fmt.Println("\n=== DRY RUN - No files written ===")

	filename, err := generateCreateFilename(config.FilenamePattern, result.SecretName)
	if err != nil {
		filename = fmt.Sprintf("%s.enc.yaml", result.SecretName)
	}

	path := filepath.Join(config.OutputDir, filename)
	fmt.Printf("Would write: %s\n", path)
	fmt.Printf("  Secret: %s/%s\n", result.SecretNamespace, result.SecretName)
	fmt.Println()

	// Show truncated encrypted content
	lines := strings.Split(result.Content, "\n")
	preview := result.Content
	if len(lines) > 20 {
		preview = strings.Join(lines[:20], "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-20)
	}
	fmt.Println(yamlStyle.Render(preview))

	return nil
}
