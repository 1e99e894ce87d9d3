package gitops

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitOps handles git operations for the secretgate CLI.
type GitOps struct {
	RepoPath string
	repo     *git.Repository
	auth     *http.BasicAuth
}

// New creates a GitOps instance for an existing repo.
func New(repoPath string, user, token string) (*GitOps, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	g := &GitOps{
		RepoPath: repoPath,
		repo:     repo,
	}

	if user != "" && token != "" {
		g.auth = &http.BasicAuth{
			Username: user,
			Password: token,
		}
	}

	return g, nil
}

// Open locates the repository containing startPath and opens it. This is how
// the gate finds the repo a pre-commit hook is running in.
func Open(startPath string) (*GitOps, error) {
	root, err := FindRepoRoot(startPath)
	if err != nil {
		return nil, err
	}
	return New(root, "", "")
}

// FindRepoRoot walks up from startPath until it finds a .git directory.
func FindRepoRoot(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	for {
		gitDir := filepath.Join(absPath, ".git")
		if _, err := os.Stat(gitDir); err == nil {
			return absPath, nil
		}

		parent := filepath.Dir(absPath)
		if parent == absPath {
			return "", fmt.Errorf("not a git repository")
		}
		absPath = parent
	}
}

// StageFiles re-stages files so an auto-encrypted secret lands in the same
// commit the hook is gating.
func (g *GitOps) StageFiles(files []string) error {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	for _, f := range files {
		relPath, err := filepath.Rel(g.RepoPath, f)
		if err != nil {
			relPath = f
		}

		absPath := filepath.Join(g.RepoPath, relPath)
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", absPath)
		}

		if err := worktree.AddGlob(relPath); err != nil {
			return fmt.Errorf("staging %s: %w", relPath, err)
		}
	}

	return nil
}

// Commit creates a commit with the staged changes.
func (g *GitOps) Commit(message, authorName, authorEmail string) error {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if authorName == "" {
		authorName = "secretgate"
	}
	if authorEmail == "" {
		authorEmail = "secretgate@automated"
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

// Push pushes to remote.
func (g *GitOps) Push(remote string) error {
	if g.auth == nil {
		return fmt.Errorf("git credentials required for push")
	}

	err := g.repo.Push(&git.PushOptions{
		RemoteName: remote,
		Auth:       g.auth,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pushing: %w", err)
	}

	return nil
}
