// Package task defines the task model and its on-disk markdown
// representation: a YAML front-matter block followed by a free-form
// description body.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// ParseStatus parses a user-supplied status string, accepting common
// spelling variants.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "pending":
		return StatusPending, nil
	case "in-progress", "inprogress", "in_progress":
		return StatusInProgress, nil
	case "completed", "done":
		return StatusCompleted, nil
	case "archived":
		return StatusArchived, nil
	default:
		return "", fmt.Errorf("task: unknown status %q", s)
	}
}

// Priority indicates how urgent a task is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority parses a user-supplied priority string.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow, nil
	case "medium", "med":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical", "crit":
		return PriorityCritical, nil
	default:
		return "", fmt.Errorf("task: unknown priority %q", s)
	}
}

// Kind classifies what sort of entry a task is.
type Kind string

const (
	KindTask Kind = "task"
	KindTodo Kind = "todo"
	KindIdea Kind = "idea"
)

// ParseKind parses a user-supplied kind string.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "task":
		return KindTask, nil
	case "todo":
		return KindTodo, nil
	case "idea":
		return KindIdea, nil
	default:
		return "", fmt.Errorf("task: unknown kind %q", s)
	}
}

// Task is a single task entry. The ID is immutable once assigned by the
// store; the filename is derived from the current title plus the ID, so a
// title change renames the file without changing identity.
type Task struct {
	ID           uint64    `yaml:"id"`
	Title        string    `yaml:"title"`
	Status       Status    `yaml:"status"`
	Priority     Priority  `yaml:"priority"`
	Kind         Kind      `yaml:"kind"`
	Tags         []string  `yaml:"tags,omitempty"`
	Due          *Date     `yaml:"due,omitempty"`
	Created      time.Time `yaml:"created"`
	Updated      time.Time `yaml:"updated"`
	ClosedCommit string    `yaml:"closed_commit,omitempty"`
	// Description is the markdown body below the front matter.
	Description string `yaml:"-"`
}

// New creates a task with default status and priority. Timestamps are
// normalized to UTC at second precision so they survive serialization
// unchanged.
func New(id uint64, kind Kind, title string) *Task {
	now := time.Now().UTC().Truncate(time.Second)
	return &Task{
		ID:       id,
		Title:    title,
		Status:   StatusPending,
		Priority: PriorityMedium,
		Kind:     kind,
		Created:  now,
		Updated:  now,
	}
}

// Slug derives the filename slug from the current title: lowercase with
// runs of non-alphanumeric characters collapsed to single hyphens.
func (t *Task) Slug() string {
	return Slugify(t.Title)
}

// Filename returns the on-disk name for this task, e.g. "fix-auth-bug-001.md".
// The ID is zero-padded to three digits; wider IDs render at natural width.
func (t *Task) Filename() string {
	return fmt.Sprintf("%s-%03d.md", t.Slug(), t.ID)
}

// IsOpen reports whether the task is still actionable (pending or
// in-progress).
func (t *Task) IsOpen() bool {
	return t.Status == StatusPending || t.Status == StatusInProgress
}

// Complete marks the task completed, recording the commit identifier the
// work was closed at. An empty commit is allowed when no repository state
// is available.
func (t *Task) Complete(commit string) {
	t.Status = StatusCompleted
	t.ClosedCommit = commit
	t.Touch()
}

// Touch updates the last-modified timestamp.
func (t *Task) Touch() {
	t.Updated = time.Now().UTC().Truncate(time.Second)
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen, with no leading or trailing hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
