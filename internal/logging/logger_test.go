package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// reset returns the package to its unconfigured state between tests; the
// logger holds process-wide state by design.
func reset() {
	Close()
	mu.Lock()
	enabled = false
	logsDir = ""
	minLevel = LevelInfo
	mu.Unlock()
}

func TestConfigure_CreatesLogsDirAndWrites(t *testing.T) {
	t.Cleanup(reset)
	dataDir := t.TempDir()

	if err := Configure(dataDir, true, "debug"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	Get(CategoryChat).Info("turn handled for %s", "ada")
	Get(CategoryChat).Debug("window size %d", 50)
	Close()

	data, err := os.ReadFile(filepath.Join(dataDir, "logs", "chat.log"))
	if err != nil {
		t.Fatalf("Failed to read chat log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "[INFO] turn handled for ada") {
		t.Errorf("Expected info line in log, got:\n%s", content)
	}
	if !strings.Contains(content, "[DEBUG] window size 50") {
		t.Errorf("Expected debug line in log, got:\n%s", content)
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(reset)
	dataDir := t.TempDir()

	if err := Configure(dataDir, true, "warn"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	l := Get(CategoryStore)
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept warn")
	l.Error("kept error")
	Close()

	data, err := os.ReadFile(filepath.Join(dataDir, "logs", "store.log"))
	if err != nil {
		t.Fatalf("Failed to read store log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "dropped") {
		t.Errorf("Expected sub-warn lines filtered, got:\n%s", content)
	}
	if !strings.Contains(content, "kept warn") || !strings.Contains(content, "kept error") {
		t.Errorf("Expected warn and error lines kept, got:\n%s", content)
	}
}

func TestDisabledLoggingIsNoOp(t *testing.T) {
	t.Cleanup(reset)
	dataDir := t.TempDir()

	if err := Configure(dataDir, false, "info"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	Chat("never written")
	Daydream("never written")
	Close()

	if _, err := os.Stat(filepath.Join(dataDir, "logs")); !os.IsNotExist(err) {
		t.Error("Expected no logs directory when debug mode is off")
	}
}

func TestUnconfiguredLoggingDoesNotPanic(t *testing.T) {
	t.Cleanup(reset)
	reset()

	Store("no-op before Configure")
	StartTimer(CategoryModel, "generate").Stop()
}
