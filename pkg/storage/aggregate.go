package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/entrhq/gittask/pkg/logging"
	"github.com/entrhq/gittask/pkg/task"
)

var (
	// ErrInvalidID indicates an identifier string that does not parse as an
	// unsigned integer.
	ErrInvalidID = errors.New("storage: invalid task id")
	// ErrProjectNotFound indicates a qualified identifier naming an
	// unknown or ambiguous project.
	ErrProjectNotFound = errors.New("storage: project not found")
	// ErrNoDefaultLocation indicates a bare identifier with no location to
	// resolve it against.
	ErrNoDefaultLocation = errors.New("storage: no default location available")
)

// AggregatedTask is a task together with the project it belongs to, for
// cross-project views. It is a read-only composition, never persisted.
type AggregatedTask struct {
	Task        *task.Task
	Project     string
	ProjectPath string
}

// QualifiedID renders the task's cross-project identifier, project:id.
func (a *AggregatedTask) QualifiedID() string {
	return fmt.Sprintf("%s:%d", a.Project, a.Task.ID)
}

// ListAggregated lists tasks from every registered project that currently
// resolves, tagging each with its project name (directory basename) and
// root. Unreachable or unresolvable projects are logged and skipped.
// Results are sorted by project name, then task ID.
func ListAggregated(registry *ProjectRegistry, filter *TaskFilter) ([]*AggregatedTask, error) {
	log, _ := logging.NewLogger("aggregate")
	var results []*AggregatedTask
	for _, projectPath := range registry.Projects() {
		if _, err := os.Stat(projectPath); err != nil {
			log.Warnf("skipping missing project path %s", projectPath)
			continue
		}
		name := filepath.Base(projectPath)
		location, err := FindProjectFrom(projectPath)
		if err != nil {
			log.Warnf("skipping project %s: %v", projectPath, err)
			continue
		}
		store := NewFileStore(location)
		tasks, err := store.List(filter)
		if err != nil {
			log.Warnf("skipping project %s: %v", projectPath, err)
			continue
		}
		for _, t := range tasks {
			results = append(results, &AggregatedTask{
				Task:        t,
				Project:     name,
				ProjectPath: location.Root,
			})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Project != results[j].Project {
			return results[i].Project < results[j].Project
		}
		return results[i].Task.ID < results[j].Task.ID
	})
	return results, nil
}

// ResolveQualifiedID resolves an identifier string that is either a bare
// unsigned integer ("7") or qualified by project name ("gittask:7"). Bare
// identifiers resolve against defaultLocation, which must be non-nil;
// qualified ones resolve the project through the registry.
func ResolveQualifiedID(idStr string, registry *ProjectRegistry, defaultLocation *Location) (*Location, uint64, error) {
	if projectName, idPart, ok := strings.Cut(idStr, ":"); ok {
		id, err := strconv.ParseUint(idPart, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidID, idPart)
		}
		projectPath, found := registry.FindProject(projectName)
		if !found {
			return nil, 0, fmt.Errorf("%w: %q", ErrProjectNotFound, projectName)
		}
		location, err := FindProjectFrom(projectPath)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q: %v", ErrProjectNotFound, projectName, err)
		}
		return location, id, nil
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidID, idStr)
	}
	if defaultLocation == nil {
		return nil, 0, ErrNoDefaultLocation
	}
	return defaultLocation, id, nil
}

// ProjectStatus describes one registered project for display.
type ProjectStatus struct {
	Path        string
	Name        string
	Exists      bool
	HasTasksDir bool
	OpenTasks   int
	TotalTasks  int
}

// ProjectStatuses inspects every registered project and returns statuses
// sorted by name.
func ProjectStatuses(registry *ProjectRegistry) []*ProjectStatus {
	var statuses []*ProjectStatus
	for _, p := range registry.Projects() {
		statuses = append(statuses, projectStatus(p))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func projectStatus(path string) *ProjectStatus {
	status := &ProjectStatus{
		Path: path,
		Name: filepath.Base(path),
	}
	if _, err := os.Stat(path); err != nil {
		return status
	}
	status.Exists = true
	if _, err := os.Stat(filepath.Join(path, tasksDirName)); err != nil {
		return status
	}
	status.HasTasksDir = true
	location, err := FindProjectFrom(path)
	if err != nil {
		return status
	}
	tasks, err := NewFileStore(location).List(&TaskFilter{IncludeArchived: true})
	if err != nil {
		return status
	}
	status.TotalTasks = len(tasks)
	for _, t := range tasks {
		if t.IsOpen() {
			status.OpenTasks++
		}
	}
	return status
}
