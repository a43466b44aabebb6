package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// registryFileName is the registry file inside the global tasks directory.
const registryFileName = ".projects"

// ProjectRegistry is the persisted set of project root paths used for
// cross-project aggregation. Membership is unordered; display ordering is
// the caller's concern.
type ProjectRegistry struct {
	path     string
	projects map[string]struct{}
}

// LoadRegistry loads the registry from its default path,
// ~/.tasks/.projects.
func LoadRegistry() (*ProjectRegistry, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHomeDirectory, err)
	}
	return LoadRegistryFrom(filepath.Join(home, tasksDirName, registryFileName))
}

// LoadRegistryFrom loads the registry at path, one project path per
// non-blank line. An absent file yields an empty registry.
func LoadRegistryFrom(path string) (*ProjectRegistry, error) {
	r := &ProjectRegistry{
		path:     path,
		projects: make(map[string]struct{}),
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read registry %s: %w", path, err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			r.projects[line] = struct{}{}
		}
	}
	return r, nil
}

// Save writes the registry back to disk, one path per line with a trailing
// newline when non-empty. Entries are written sorted purely for stable
// files; the set itself carries no order.
func (r *ProjectRegistry) Save() error {
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("storage: create registry directory: %w", err)
		}
	}
	paths := r.Projects()
	var content string
	if len(paths) > 0 {
		content = strings.Join(paths, "\n") + "\n"
	}
	if err := os.WriteFile(r.path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("storage: write registry %s: %w", r.path, err)
	}
	return nil
}

// Link registers a project path and persists the registry when the path is
// new. Existing paths are canonicalized first; a path may be registered
// before it exists, in which case it is kept as given. Returns whether the
// path was newly inserted.
func (r *ProjectRegistry) Link(path string) (bool, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return false, err
	}
	if _, ok := r.projects[canonical]; ok {
		return false, nil
	}
	r.projects[canonical] = struct{}{}
	if err := r.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// Unlink removes a project path, trying the path verbatim and then its
// canonical form, persisting when something was removed. Returns whether a
// path was removed.
func (r *ProjectRegistry) Unlink(path string) (bool, error) {
	removed := r.remove(path)
	if !removed {
		if canonical, err := canonicalize(path); err == nil {
			removed = r.remove(canonical)
		}
	}
	if !removed {
		return false, nil
	}
	if err := r.Save(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *ProjectRegistry) remove(path string) bool {
	if _, ok := r.projects[path]; !ok {
		return false
	}
	delete(r.projects, path)
	return true
}

// Projects returns the registered paths sorted alphabetically for display.
func (r *ProjectRegistry) Projects() []string {
	paths := make([]string, 0, len(r.projects))
	for p := range r.projects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered projects.
func (r *ProjectRegistry) Len() int {
	return len(r.projects)
}

// IsEmpty reports whether no projects are registered.
func (r *ProjectRegistry) IsEmpty() bool {
	return len(r.projects) == 0
}

// FindProject resolves a project name to its registered path. Matching is
// case-insensitive on the path's basename: an exact match wins, otherwise
// a prefix match succeeds only when it is unambiguous. Two or more prefix
// candidates fail closed.
func (r *ProjectRegistry) FindProject(name string) (string, bool) {
	lower := strings.ToLower(name)
	for p := range r.projects {
		if strings.ToLower(filepath.Base(p)) == lower {
			return p, true
		}
	}
	var matches []string
	for p := range r.projects {
		if strings.HasPrefix(strings.ToLower(filepath.Base(p)), lower) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

// canonicalize resolves path to an absolute, symlink-free form when it
// exists on disk, and leaves it as given otherwise.
func canonicalize(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("storage: canonicalize %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("storage: canonicalize %s: %w", path, err)
	}
	return resolved, nil
}
