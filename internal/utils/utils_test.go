package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, closeFn, err := NewLogger("debug", "json", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info().Str("component", "test").Msg("hello")
	log.Debug().Msg("details")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) || !strings.Contains(string(data), "details") {
		t.Fatalf("unexpected log contents %s", data)
	}
}

func TestNewLoggerDefaultsLevel(t *testing.T) {
	log, closeFn, err := NewLogger("nonsense", "console", "")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer closeFn()
	if log.GetLevel().String() != "info" {
		t.Fatalf("expected info level, got %s", log.GetLevel())
	}
}

func TestNewLoggerBadPath(t *testing.T) {
	if _, _, err := NewLogger("info", "json", filepath.Join(t.TempDir(), "missing", "app.log")); err == nil {
		t.Fatalf("expected error for unwritable log path")
	}
}

func TestGetUserDataDir(t *testing.T) {
	if dir := GetUserDataDir(); !strings.Contains(dir, "phonelogin") {
		t.Fatalf("unexpected data dir %q", dir)
	}
}
