package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/gittask/pkg/task"
)

// seedProject creates a git project with n tasks and links it.
func seedProject(t *testing.T, r *ProjectRegistry, parent, name string, n int) string {
	t.Helper()
	path := makeProject(t, parent, name)
	loc, err := FindProjectFrom(path)
	require.NoError(t, err)
	require.NoError(t, loc.EnsureExists())
	store := NewFileStore(loc)
	for i := 0; i < n; i++ {
		_, err := store.Create(task.New(0, task.KindTask, "Task"))
		require.NoError(t, err)
	}
	_, err = r.Link(path)
	require.NoError(t, err)
	return path
}

func TestListAggregated(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	seedProject(t, r, parent, "zebra", 2)
	seedProject(t, r, parent, "apple", 1)

	results, err := ListAggregated(r, &TaskFilter{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Sorted by project name, then task ID.
	assert.Equal(t, "apple", results[0].Project)
	assert.Equal(t, "zebra", results[1].Project)
	assert.Equal(t, "zebra", results[2].Project)
	assert.Equal(t, uint64(1), results[1].Task.ID)
	assert.Equal(t, uint64(2), results[2].Task.ID)

	assert.Equal(t, "apple:1", results[0].QualifiedID())
	assert.Equal(t, "apple", filepath.Base(results[0].ProjectPath))
}

func TestListAggregatedSkipsMissingProjects(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	seedProject(t, r, parent, "alive", 1)
	_, err := r.Link(filepath.Join(parent, "vanished"))
	require.NoError(t, err)

	results, err := ListAggregated(r, &TaskFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alive", results[0].Project)
}

func TestListAggregatedSkipsUnversionedProjects(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	// Registered and present on disk, but not a git project.
	plain := filepath.Join(parent, "plain")
	require.NoError(t, os.MkdirAll(plain, 0o750))
	_, err := r.Link(plain)
	require.NoError(t, err)

	results, err := ListAggregated(r, &TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListAggregatedAppliesFilter(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	path := seedProject(t, r, parent, "proj", 2)

	loc, err := FindProjectFrom(path)
	require.NoError(t, err)
	store := NewFileStore(loc)
	first, err := store.Read(1)
	require.NoError(t, err)
	first.Status = task.StatusInProgress
	require.NoError(t, store.Update(first))

	results, err := ListAggregated(r, &TaskFilter{Status: task.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].Task.ID)
}

func TestResolveQualifiedID(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	seedProject(t, r, parent, "gittask", 0)
	defaultLoc, err := FindProjectFrom(makeRepo(t))
	require.NoError(t, err)

	loc, id, err := ResolveQualifiedID("gittask:7", r, defaultLoc)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, "gittask", filepath.Base(loc.Root))

	loc, id, err = ResolveQualifiedID("7", r, defaultLoc)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, defaultLoc, loc)
}

func TestResolveQualifiedIDErrors(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	seedProject(t, r, parent, "gittask", 0)
	defaultLoc, err := FindProjectFrom(makeRepo(t))
	require.NoError(t, err)

	_, _, err = ResolveQualifiedID("nope:7", r, defaultLoc)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, _, err = ResolveQualifiedID("gittask:seven", r, defaultLoc)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, _, err = ResolveQualifiedID("seven", r, defaultLoc)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, _, err = ResolveQualifiedID("7", r, nil)
	assert.ErrorIs(t, err, ErrNoDefaultLocation)
}

func TestProjectStatuses(t *testing.T) {
	r := newTestRegistry(t)
	parent := t.TempDir()
	path := seedProject(t, r, parent, "busy", 3)

	loc, err := FindProjectFrom(path)
	require.NoError(t, err)
	store := NewFileStore(loc)
	done, err := store.Read(3)
	require.NoError(t, err)
	done.Complete("")
	require.NoError(t, store.Update(done))

	_, err = r.Link(filepath.Join(parent, "ghost"))
	require.NoError(t, err)

	statuses := ProjectStatuses(r)
	require.Len(t, statuses, 2)

	assert.Equal(t, "busy", statuses[0].Name)
	assert.True(t, statuses[0].Exists)
	assert.True(t, statuses[0].HasTasksDir)
	assert.Equal(t, 3, statuses[0].TotalTasks)
	assert.Equal(t, 2, statuses[0].OpenTasks)

	assert.Equal(t, "ghost", statuses[1].Name)
	assert.False(t, statuses[1].Exists)
}
