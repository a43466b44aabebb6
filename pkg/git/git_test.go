package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initRepo creates a git repository with a single commit. Tests are
// skipped when git is not installed.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("hello\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	run("add", "README")
	run("commit", "-m", "initial commit")
	return dir
}

func TestHeadCommit(t *testing.T) {
	dir := initRepo(t)

	commit, err := HeadCommit(dir)
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if len(commit) < 7 {
		t.Errorf("expected an abbreviated hash, got %q", commit)
	}
}

func TestHeadCommitNoCommits(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}

	if _, err := HeadCommit(dir); err == nil {
		t.Error("expected error for repository without commits")
	}
	if got := HeadCommitOptional(dir); got != "" {
		t.Errorf("HeadCommitOptional = %q, want empty", got)
	}
}

func TestHeadCommitOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	if IsRepo(dir) {
		t.Skip("temp dir unexpectedly inside a repository")
	}
	if got := HeadCommitOptional(dir); got != "" {
		t.Errorf("HeadCommitOptional = %q, want empty", got)
	}
}

func TestIsRepo(t *testing.T) {
	dir := initRepo(t)
	if !IsRepo(dir) {
		t.Error("IsRepo should be true inside a repository")
	}
}
