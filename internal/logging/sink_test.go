package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRouterWithoutFile(t *testing.T) {
	var console bytes.Buffer
	r := NewRouter(&console, nil)
	NewLogger("t", DEBUG, r).Debug("to console")
	if !strings.Contains(console.String(), "to console") {
		t.Errorf("console should receive every entry without a file, got %q", console.String())
	}
}

func TestRouterSplitsByLevel(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewLogger("t", DEBUG, NewRouter(&console, &file))

	logger.Info("info entry")
	logger.Error("error entry")

	if strings.Contains(console.String(), "info entry") {
		t.Error("INFO should not reach the console when a file is configured")
	}
	if !strings.Contains(console.String(), "error entry") {
		t.Error("ERROR should reach the console")
	}
	if !strings.Contains(file.String(), "info entry") || !strings.Contains(file.String(), "error entry") {
		t.Errorf("file should receive both entries, got %q", file.String())
	}
}

func TestEntryLevel(t *testing.T) {
	tests := map[string]string{
		"[2026-01-01 00:00:00] WARN [x] f.go:1 fn msg\n": "WARN",
		"garbage": "",
		"[ts] ":   "",
	}
	for in, want := range tests {
		if got := entryLevel([]byte(in)); got != want {
			t.Errorf("entryLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRotatingFileWritesOnFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	rf, err := OpenRotatingFile(path, 1, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	defer rf.Close()

	fmt.Fprintln(rf, "hello")
	if err := rf.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestRotatingFileRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	rf, err := OpenRotatingFile(path, 1, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	defer rf.Close()

	chunk := bytes.Repeat([]byte("x"), 1024*1024)
	for i := 0; i < 3; i++ {
		if _, err := rf.Write(chunk); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := rf.Flush(); err != nil {
			t.Fatalf("Flush %d: %v", i, err)
		}
	}

	for _, name := range []string{"debug.log.1", "debug.log.2"} {
		if _, err := os.Stat(filepath.Join(filepath.Dir(path), name)); err != nil {
			t.Errorf("expected backup %s: %v", name, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("backups beyond maxBackups should be dropped")
	}
}

func TestRotatingFileClosed(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "debug.log"), 1, 1)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := rf.Write([]byte("late")); err == nil {
		t.Error("Write after Close should fail")
	}
}
