package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSessionIDStable(t *testing.T) {
	first := SessionID()
	if first == "" {
		t.Fatal("expected a non-empty session id")
	}
	if second := SessionID(); second != first {
		t.Errorf("session id changed between calls: %q then %q", first, second)
	}
}

// The log directory is resolved once per process, so a single test covers
// the whole file lifecycle.
func TestLoggerLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	logger, err := NewLogger("storage")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Infof("created task %d", 42)
	logger.Warnf("skipping %s", "broken.md")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	home, _ := os.UserHomeDir()
	path := filepath.Join(home, ".gittask", "logs", SessionID()+".log")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(raw)
	for _, want := range []string{"[storage]", "[INFO]", "created task 42", "[WARN]", "skipping broken.md"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
}
