// Package pidfile guards against concurrent monitor instances by claiming a
// PID file for the lifetime of the process.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning indicates that another chatwatcher process holds the
// PID file.
var ErrAlreadyRunning = errors.New("chatwatcher already running")

// File manages a process ID file.
type File struct {
	path string
}

// New creates a File for the given path. Nothing is claimed until
// CheckAndClaim is called.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the path to the PID file.
func (f *File) Path() string {
	return f.path
}

// Write writes the current process's PID to the file atomically via a
// temporary file and rename.
func (f *File) Write() error {
	pidStr := strconv.Itoa(os.Getpid())

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create PID file directory; %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(pidStr), 0o644); err != nil {
		return fmt.Errorf("failed to write temporary PID file; %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename PID file; %w", err)
	}

	return nil
}

// Read reads and returns the PID from the file.
func (f *File) Read() (int, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file; %w", err)
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		return 0, errors.New("empty PID file")
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file; %w", err)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID %d; must be positive", pid)
	}

	return pid, nil
}

// Remove removes the PID file if it exists. A missing file is not an error.
func (f *File) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file; %w", err)
	}
	return nil
}

// IsStale reports whether the file references a process that is no longer
// running. A missing file is not stale; there is nothing to be stale.
func (f *File) IsStale() (bool, error) {
	pid, err := f.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		if _, statErr := os.Stat(f.path); os.IsNotExist(statErr) {
			// Deleted between Read and Stat.
			return false, nil
		}
		return false, fmt.Errorf("PID file exists but unreadable; %w", err)
	}

	// Signal 0 probes for existence without signalling.
	err = syscall.Kill(pid, 0)
	if err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return true, nil
		}
		if errors.Is(err, syscall.EPERM) {
			// Running, just not ours to signal.
			return false, nil
		}
		return false, fmt.Errorf("failed to check process; %w", err)
	}

	return false, nil
}

// CheckAndClaim claims the PID file for the current process. A stale file
// left by a dead process is replaced; a live holder yields
// ErrAlreadyRunning.
func (f *File) CheckAndClaim() error {
	if _, err := os.Stat(f.path); os.IsNotExist(err) {
		return f.Write()
	}

	stale, err := f.IsStale()
	if err != nil {
		return fmt.Errorf("failed to check if PID file is stale; %w", err)
	}

	if stale {
		if err := f.Remove(); err != nil {
			return fmt.Errorf("failed to remove stale PID file; %w", err)
		}
		return f.Write()
	}

	return ErrAlreadyRunning
}
