// Package storage implements the task persistence layer: location
// resolution, the filename identity scheme, CRUD over a directory of
// markdown task files, the multi-project registry, and cross-project
// aggregation.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// tasksDirName is the records subdirectory created under a project root or
// the home directory.
const tasksDirName = ".tasks"

var (
	// ErrNotVersioned indicates no ancestor directory contains a .git marker.
	ErrNotVersioned = errors.New("storage: not inside a git repository")
	// ErrNoHomeDirectory indicates the user home directory could not be resolved.
	ErrNoHomeDirectory = errors.New("storage: home directory unavailable")
)

// Location is a resolved task storage root: the owning directory plus its
// .tasks subdirectory. Global marks the user-wide location under the home
// directory.
type Location struct {
	Root     string
	TasksDir string
	Global   bool
}

// FindProject resolves the project location starting from the current
// working directory.
func FindProject() (*Location, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("storage: current directory: %w", err)
	}
	return FindProjectFrom(cwd)
}

// FindProjectFrom walks upward from start until it finds a directory
// containing a .git entry, which becomes the project root. Returns
// ErrNotVersioned when the filesystem root is reached without a match.
func FindProjectFrom(start string) (*Location, error) {
	current := filepath.Clean(start)
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return &Location{
				Root:     current,
				TasksDir: filepath.Join(current, tasksDirName),
			}, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrNotVersioned
		}
		current = parent
	}
}

// Global resolves the user-wide location at ~/.tasks.
func Global() (*Location, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHomeDirectory, err)
	}
	return &Location{
		Root:     home,
		TasksDir: filepath.Join(home, tasksDirName),
		Global:   true,
	}, nil
}

// Exists reports whether the tasks directory is present on disk.
func (l *Location) Exists() bool {
	info, err := os.Stat(l.TasksDir)
	return err == nil && info.IsDir()
}

// EnsureExists creates the tasks directory (and missing parents).
// Idempotent.
func (l *Location) EnsureExists() error {
	if err := os.MkdirAll(l.TasksDir, 0o750); err != nil {
		return fmt.Errorf("storage: create tasks directory %s: %w", l.TasksDir, err)
	}
	return nil
}
