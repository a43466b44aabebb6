// Package git wraps the git subprocess calls gittask needs. The commit
// identifier is treated as an opaque string; it is only ever attached to a
// task when it is completed.
package git

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// HeadCommit returns the abbreviated HEAD commit hash for the repository
// containing dir.
func HeadCommit(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git: rev-parse failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// HeadCommitOptional returns the abbreviated HEAD hash, or the empty
// string when dir is not a repository or has no commits yet. Completing a
// task must not fail just because the repository is empty.
func HeadCommitOptional(dir string) string {
	commit, err := HeadCommit(dir)
	if err != nil {
		return ""
	}
	return commit
}
