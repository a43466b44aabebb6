package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeID(t *testing.T) {
	tests := []struct {
		name string
		want uint64
		ok   bool
	}{
		{name: "fix-auth-bug-001.md", want: 1, ok: true},
		{name: "test-task-999.md", want: 999, ok: true},
		{name: "test-42.md", want: 42, ok: true},
		{name: "multi-word-slug-007.md", want: 7, ok: true},
		{name: "test.md", ok: false},
		{name: "test-abc.md", ok: false},
		{name: "-5.md", want: 5, ok: true},
	}
	for _, tt := range tests {
		id, ok := DecodeID(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.want, id, tt.name)
		}
	}
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
}

func TestNextIDEmptyDir(t *testing.T) {
	id, err := NextID(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestNextIDMissingDir(t *testing.T) {
	id, err := NextID(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestNextIDScansFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "task-001.md")
	touch(t, dir, "another-task-005.md")
	touch(t, dir, "third-task-003.md")

	id, err := NextID(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), id)
}

func TestNextIDIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "task-001.md")
	touch(t, dir, "task-999.txt")
	touch(t, dir, "no-id.md")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub-7.md"), 0o750))

	id, err := NextID(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)
}

func TestMaxID(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a-1.md")
	touch(t, dir, "b-10.md")
	touch(t, dir, "c-5.md")

	max, err := MaxID(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), max)
}
