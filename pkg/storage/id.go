package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DecodeID recovers a task ID from a filename of the form {slug}-{id}.md.
// It takes the stem, finds the last hyphen, and parses the suffix as an
// unsigned decimal. The slug portion is ignored entirely, which is what
// lets a renamed title keep its identity.
func DecodeID(filename string) (uint64, bool) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	i := strings.LastIndex(stem, "-")
	if i == -1 {
		return 0, false
	}
	id, err := strconv.ParseUint(stem[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// MaxID scans tasksDir for .md files and returns the highest decodable ID,
// or 0 when the directory is absent or holds no task files.
func MaxID(tasksDir string) (uint64, error) {
	entries, err := os.ReadDir(tasksDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: scan %s: %w", tasksDir, err)
	}
	var max uint64
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		if id, ok := DecodeID(e.Name()); ok && id > max {
			max = id
		}
	}
	return max, nil
}

// NextID returns the next unused task ID for tasksDir. There is no
// persisted counter: the directory listing is authoritative, so IDs
// survive arbitrary external file manipulation. The scan is not atomic,
// so two processes creating tasks concurrently can compute the same ID.
func NextID(tasksDir string) (uint64, error) {
	max, err := MaxID(tasksDir)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
