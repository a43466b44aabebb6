package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/entrhq/gittask/pkg/logging"
	"github.com/entrhq/gittask/pkg/task"
)

var (
	// ErrNotInitialized indicates the tasks directory is missing when a
	// write was attempted. Run `gittask init` to create it.
	ErrNotInitialized = errors.New("storage: tasks directory not initialized")
	// ErrTaskNotFound indicates no task file carries the requested ID.
	ErrTaskNotFound = errors.New("storage: task not found")
)

// TaskFilter selects tasks for listing. Zero-valued fields match
// everything; Tags requires every listed tag to be present. Archived tasks
// are excluded unless IncludeArchived is set.
type TaskFilter struct {
	Kind            task.Kind
	Status          task.Status
	Priority        task.Priority
	Tags            []string
	IncludeArchived bool
}

// Matches reports whether t passes every criterion of the filter.
func (f *TaskFilter) Matches(t *task.Task) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	if !f.IncludeArchived && t.Status == task.StatusArchived {
		return false
	}
	return true
}

// TaskStats summarizes a location's tasks. Overdue counts open tasks whose
// due date has passed.
type TaskStats struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Archived   int
	Overdue    int
	Tasks      int
	Todos      int
	Ideas      int
}

// FileStore provides CRUD, filtering, and stats over the task files of a
// single location. Operations are synchronous and per-call atomic at most;
// nothing spans multiple files transactionally.
type FileStore struct {
	location *Location
	log      *logging.Logger
}

// NewFileStore creates a store over the given location.
func NewFileStore(location *Location) *FileStore {
	log, _ := logging.NewLogger("storage")
	return &FileStore{location: location, log: log}
}

// Location returns the location this store operates over.
func (s *FileStore) Location() *Location {
	return s.location
}

// Create assigns the next free ID to t and writes its file. The draft's ID
// is ignored. Fails with ErrNotInitialized when the tasks directory does
// not exist.
func (s *FileStore) Create(t *task.Task) (*task.Task, error) {
	if !s.location.Exists() {
		return nil, ErrNotInitialized
	}
	id, err := NextID(s.location.TasksDir)
	if err != nil {
		return nil, err
	}
	t.ID = id
	content, err := task.Serialize(t)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(s.taskPath(t), content); err != nil {
		return nil, err
	}
	return t, nil
}

// Read loads the task with the given ID.
func (s *FileStore) Read(id uint64) (*task.Task, error) {
	path, err := s.findTaskFile(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return task.Parse(raw)
}

// Update rewrites the file holding t.ID. The current file is located by
// its decoded ID rather than by t's computed filename, because a title
// change moves the task to a new name. On a rename the new file is written
// before the old one is removed, so a crash in between leaves a duplicate
// rather than a lost task.
func (s *FileStore) Update(t *task.Task) error {
	oldPath, err := s.findTaskFile(t.ID)
	if err != nil {
		return err
	}
	content, err := task.Serialize(t)
	if err != nil {
		return err
	}
	newPath := s.taskPath(t)
	if err := writeAtomic(newPath, content); err != nil {
		return err
	}
	if oldPath != newPath {
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("storage: remove %s: %w", oldPath, err)
		}
	}
	return nil
}

// Delete removes the file holding the given ID.
func (s *FileStore) Delete(id uint64) error {
	path, err := s.findTaskFile(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// List returns every task matching the filter, sorted by ID. An absent
// tasks directory yields an empty slice. Files that cannot be read or
// parsed are logged and skipped; partial results beat total failure for a
// read-only aggregate.
func (s *FileStore) List(filter *TaskFilter) ([]*task.Task, error) {
	if !s.location.Exists() {
		return nil, nil
	}
	entries, err := os.ReadDir(s.location.TasksDir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", s.location.TasksDir, err)
	}
	var tasks []*task.Task
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		path := filepath.Join(s.location.TasksDir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.log.Warnf("skipping unreadable task file %s: %v", path, err)
			continue
		}
		t, err := task.Parse(raw)
		if err != nil {
			s.log.Warnf("skipping malformed task file %s: %v", path, err)
			continue
		}
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Stats tallies all tasks in the location, archived included.
func (s *FileStore) Stats() (*TaskStats, error) {
	all, err := s.List(&TaskFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	stats := &TaskStats{Total: len(all)}
	today := task.Today()
	for _, t := range all {
		switch t.Status {
		case task.StatusPending:
			stats.Pending++
		case task.StatusInProgress:
			stats.InProgress++
		case task.StatusCompleted:
			stats.Completed++
		case task.StatusArchived:
			stats.Archived++
		}
		switch t.Kind {
		case task.KindTask:
			stats.Tasks++
		case task.KindTodo:
			stats.Todos++
		case task.KindIdea:
			stats.Ideas++
		}
		if t.IsOpen() && t.Due != nil && t.Due.Before(today) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (s *FileStore) taskPath(t *task.Task) string {
	return filepath.Join(s.location.TasksDir, t.Filename())
}

// findTaskFile scans the tasks directory for the file whose decoded
// filename ID matches. Directory iteration order decides ties if external
// writers ever produce duplicate IDs.
func (s *FileStore) findTaskFile(id uint64) (string, error) {
	if !s.location.Exists() {
		return "", fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	entries, err := os.ReadDir(s.location.TasksDir)
	if err != nil {
		return "", fmt.Errorf("storage: scan %s: %w", s.location.TasksDir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		if fileID, ok := DecodeID(e.Name()); ok && fileID == id {
			return filepath.Join(s.location.TasksDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrTaskNotFound, id)
}

// writeAtomic writes data via a temporary file and rename so readers never
// observe a half-written task.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: rename %s: %w", path, err)
	}
	return nil
}
