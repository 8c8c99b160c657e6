package logging

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const flushInterval = 5 * time.Second

// RotatingFile is a buffered log file that rolls over to numbered backups
// (path.1, path.2, ...) once it grows past maxSizeMB.
type RotatingFile struct {
	path       string
	maxBytes   int64
	maxBackups int

	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	timer  *time.Timer
	closed bool
}

// OpenRotatingFile opens path for appending and starts the periodic flush.
func OpenRotatingFile(path string, maxSizeMB, maxBackups int) (*RotatingFile, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxBackups < 0 {
		maxBackups = 0
	}
	rf := &RotatingFile{
		path:       path,
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	rf.timer = time.AfterFunc(flushInterval, rf.tick)
	return rf, nil
}

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", rf.path, err)
	}
	rf.file = f
	rf.buf = bufio.NewWriterSize(f, 64*1024)
	return nil
}

func (rf *RotatingFile) tick() {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.closed {
		return
	}
	if err := rf.flushLocked(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] log flush: %v\n", err)
	}
	rf.timer.Reset(flushInterval)
}

func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.closed {
		return 0, fmt.Errorf("log file %s is closed", rf.path)
	}
	return rf.buf.Write(p)
}

// Flush writes buffered entries to disk and rotates if the size limit is hit.
func (rf *RotatingFile) Flush() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.closed {
		return fmt.Errorf("log file %s is closed", rf.path)
	}
	return rf.flushLocked()
}

func (rf *RotatingFile) flushLocked() error {
	if err := rf.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush log buffer: %w", err)
	}
	info, err := rf.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < rf.maxBytes {
		return nil
	}
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file before rotation: %w", err)
	}
	rotateErr := rf.shiftBackups()
	if err := rf.open(); err != nil {
		return err
	}
	return rotateErr
}

// shiftBackups renames path.N-1 -> path.N down to path -> path.1, dropping
// the oldest backup. With zero backups the current file is removed.
func (rf *RotatingFile) shiftBackups() error {
	if rf.maxBackups == 0 {
		if err := os.Remove(rf.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove log file: %w", err)
		}
		return nil
	}
	oldest := fmt.Sprintf("%s.%d", rf.path, rf.maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete oldest backup %s: %w", oldest, err)
	}
	for i := rf.maxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", rf.path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, fmt.Sprintf("%s.%d", rf.path, i+1)); err != nil {
			return fmt.Errorf("failed to rename backup %s: %w", from, err)
		}
	}
	if err := os.Rename(rf.path, rf.path+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rename log file: %w", err)
	}
	return nil
}

// Close stops the flush timer and flushes remaining entries.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.closed {
		return nil
	}
	rf.closed = true
	rf.timer.Stop()
	if err := rf.buf.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] log flush on close: %v\n", err)
	}
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Router sends WARN and ERROR entries to the console and everything to the
// debug file. Without a file, everything goes to the console.
type Router struct {
	console io.Writer
	file    io.Writer
}

func NewRouter(console, file io.Writer) *Router {
	return &Router{console: console, file: file}
}

func (r *Router) Write(p []byte) (int, error) {
	if r.file == nil {
		return r.console.Write(p)
	}
	n, err := r.file.Write(p)
	if lvl := entryLevel(p); lvl == "WARN" || lvl == "ERROR" {
		if _, cerr := r.console.Write(p); cerr != nil && err == nil {
			err = cerr
		}
	}
	return n, err
}

// entryLevel extracts LEVEL from "[ts] LEVEL [component] ...".
func entryLevel(p []byte) string {
	i := bytes.Index(p, []byte("] "))
	if i < 0 {
		return ""
	}
	rest := p[i+2:]
	j := bytes.IndexByte(rest, ' ')
	if j < 0 {
		return ""
	}
	return string(rest[:j])
}
