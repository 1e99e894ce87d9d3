package gitops_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/stuttgart-things/secretgate/internal/gitops"
)

// initTestRepo creates a git repository with one committed file and returns
// its path.
func initTestRepo(t *testing.T) string {
	t.Helper()

	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("initializing repo: %v", err)
	}

	readme := filepath.Join(repoPath, "README.md")
	if err := os.WriteFile(readme, []byte("# test\n"), 0644); err != nil {
		t.Fatal(err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	_, err = worktree.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@test",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	return repoPath
}

func TestNew(t *testing.T) {
	repoPath := initTestRepo(t)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid repo", path: repoPath, wantErr: false},
		{name: "nonexistent path", path: "/nonexistent/path", wantErr: true},
		{name: "not a git repo", path: t.TempDir(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gitops.New(tt.path, "", "")
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFindRepoRoot(t *testing.T) {
	t.Run("finds root from nested directory", func(t *testing.T) {
		repoPath := initTestRepo(t)

		nested := filepath.Join(repoPath, "apps", "base", "secrets")
		if err := os.MkdirAll(nested, 0755); err != nil {
			t.Fatal(err)
		}

		found, err := gitops.FindRepoRoot(nested)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found != repoPath {
			t.Errorf("expected %q, got %q", repoPath, found)
		}
	})

	t.Run("errors outside a repo", func(t *testing.T) {
		_, err := gitops.FindRepoRoot(t.TempDir())
		if err == nil {
			t.Fatal("expected error outside a git repository")
		}
	})
}

func TestStageFiles(t *testing.T) {
	repoPath := initTestRepo(t)

	secretPath := filepath.Join(repoPath, "secret.enc.yaml")
	if err := os.WriteFile(secretPath, []byte("stringData:\n  key: ENC[...]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := gitops.New(repoPath, "", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := g.StageFiles([]string{secretPath}); err != nil {
		t.Fatalf("StageFiles failed: %v", err)
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	status, err := worktree.Status()
	if err != nil {
		t.Fatal(err)
	}

	fileStatus := status.File("secret.enc.yaml")
	if fileStatus.Staging != git.Added {
		t.Errorf("expected secret.enc.yaml to be staged as added, got %c", fileStatus.Staging)
	}
}

func TestStageFiles_MissingFile(t *testing.T) {
	repoPath := initTestRepo(t)

	g, err := gitops.New(repoPath, "", "")
	if err != nil {
		t.Fatal(err)
	}

	err = g.StageFiles([]string{filepath.Join(repoPath, "ghost.yaml")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCommit(t *testing.T) {
	repoPath := initTestRepo(t)

	secretPath := filepath.Join(repoPath, "secret.enc.yaml")
	if err := os.WriteFile(secretPath, []byte("sops:\n  version: 3.9.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := gitops.New(repoPath, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.StageFiles([]string{secretPath}); err != nil {
		t.Fatal(err)
	}

	if err := g.Commit("add encrypted secret", "", ""); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	branch, err := g.GetCurrentBranch()
	if err != nil {
		t.Fatalf("GetCurrentBranch failed: %v", err)
	}
	if branch == "" {
		t.Error("expected a branch name after commit")
	}
}

func TestResolveCredentialsOptional(t *testing.T) {
	t.Setenv("GIT_USER", "")
	t.Setenv("GIT_TOKEN", "")
	t.Setenv("GITHUB_USER", "env-user")
	t.Setenv("GITHUB_TOKEN", "env-token")

	user, token := gitops.ResolveCredentialsOptional("", "")
	if user != "env-user" || token != "env-token" {
		t.Errorf("expected env fallback, got user=%q token=%q", user, token)
	}

	user, token = gitops.ResolveCredentialsOptional("flag-user", "flag-token")
	if user != "flag-user" || token != "flag-token" {
		t.Errorf("flags must win over environment, got user=%q token=%q", user, token)
	}
}
