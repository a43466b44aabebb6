package task

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// ErrMalformedRecord indicates a task file whose front-matter block is
// missing, unclosed, or not valid YAML.
var ErrMalformedRecord = errors.New("task: malformed record")

// Parse deserializes a raw task file into a Task. The file must open with
// a front-matter delimiter line; everything after the closing delimiter,
// trimmed, becomes the description.
func Parse(raw []byte) (*Task, error) {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, frontMatterDelimiter) {
		return nil, fmt.Errorf("%w: missing front-matter delimiter", ErrMalformedRecord)
	}
	rest := s[len(frontMatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontMatterDelimiter)
	if idx == -1 {
		return nil, fmt.Errorf("%w: unclosed front-matter block", ErrMalformedRecord)
	}
	block := rest[:idx]
	body := rest[idx+len("\n"+frontMatterDelimiter):]

	var t Task
	var err error
	if err = yaml.Unmarshal([]byte(block), &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if t.ID == 0 {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if t.Title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrMalformedRecord)
	}
	// Absent enum fields default rather than erroring; present ones are
	// normalized through the parse helpers so spelling variants load.
	if t.Status == "" {
		t.Status = StatusPending
	} else if t.Status, err = ParseStatus(string(t.Status)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	} else if t.Priority, err = ParsePriority(string(t.Priority)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if t.Kind == "" {
		t.Kind = KindTask
	} else if t.Kind, err = ParseKind(string(t.Kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	t.Description = strings.TrimSpace(body)
	return &t, nil
}

// Serialize renders a Task to its on-disk byte representation: front
// matter between delimiter lines, then a blank line and the description
// when one is present. Empty optional fields are omitted from the block
// entirely.
func Serialize(t *Task) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("task: serialize: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(frontMatterDelimiter + "\n")
	sb.Write(yamlBytes)
	sb.WriteString(frontMatterDelimiter + "\n")
	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}
