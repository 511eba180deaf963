package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const logFilePrefix = "prescriptions-"

// RotatingLogger writes to one log file per ISO week and starts a numbered
// sibling file when the current one reaches maxFileSize.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSeq  int
	currentSize int64
}

// NewRotatingLogger creates a rotating logger. Files are opened lazily on the
// first write. A maxFileSize of zero disables size rotation.
func NewRotatingLogger(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
	}
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) fileName(week string, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("%s%s.log", logFilePrefix, week)
	}
	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, seq)
}

// open switches to the file for week/seq, appending when it already exists.
// Caller must hold mu.
func (rl *RotatingLogger) open(week string, seq int) error {
	if rl.currentFile != nil {
		_ = rl.currentFile.Close()
		rl.currentFile = nil
	}

	path := filepath.Join(rl.logDir, rl.fileName(week, seq))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rl.currentFile = file
	rl.currentWeek = week
	rl.currentSeq = seq
	rl.currentSize = size
	return nil
}

// openForWeek picks the first file of the week that still has room.
// Caller must hold mu.
func (rl *RotatingLogger) openForWeek(week string) error {
	for seq := 0; ; seq++ {
		info, err := os.Stat(filepath.Join(rl.logDir, rl.fileName(week, seq)))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return rl.open(week, seq)
		}
	}
}

// Write implements io.Writer
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	switch {
	case rl.currentFile == nil || rl.currentWeek != week:
		if err := rl.openForWeek(week); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize > 0 && rl.currentSize+int64(len(p)) > rl.maxFileSize:
		if err := rl.open(week, rl.currentSeq+1); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// CleanupOldLogs removes log files last modified before the retention window
// and returns how many were deleted.
func (rl *RotatingLogger) CleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	rl.mu.Lock()
	var current string
	if rl.currentFile != nil {
		current = filepath.Base(rl.currentFile.Name())
	}
	rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == current || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Close closes the current log file
func (rl *RotatingLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}
