package pidfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestWriteCreatesFileWithCurrentPID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")

	f := New(pidPath)
	if err := f.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	content, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatalf("failed to read PID file: %v", err)
	}

	want := strconv.Itoa(os.Getpid())
	if string(content) != want {
		t.Errorf("PID file content = %q, want %q", string(content), want)
	}
}

func TestWriteCreatesParentDirectory(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "run", "nested", "chatwatcher.pid")

	f := New(pidPath)
	if err := f.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := os.Stat(pidPath); os.IsNotExist(err) {
		t.Error("Write() did not create file in nested directory")
	}
}

func TestReadTrimsWhitespace(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
	if err := os.WriteFile(pidPath, []byte("  12345\n"), 0o644); err != nil {
		t.Fatalf("failed to create test PID file: %v", err)
	}

	pid, err := New(pidPath).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if pid != 12345 {
		t.Errorf("Read() = %d, want 12345", pid)
	}
}

func TestReadRejectsBadContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"non_numeric", "not-a-number"},
		{"negative", "-1"},
		{"zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
			if err := os.WriteFile(pidPath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to create test PID file: %v", err)
			}

			if _, err := New(pidPath).Read(); err == nil {
				t.Errorf("Read() expected error for content %q", tt.content)
			}
		})
	}
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nonexistent.pid")

	if err := New(pidPath).Remove(); err != nil {
		t.Errorf("Remove() error = %v, want nil for missing file", err)
	}
}

func TestIsStale(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "nonexistent.pid")

		stale, err := New(pidPath).IsStale()
		if err != nil {
			t.Fatalf("IsStale() error = %v", err)
		}
		if stale {
			t.Error("IsStale() = true for missing file, want false")
		}
	})

	t.Run("live process", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
		pid := strconv.Itoa(os.Getpid())
		if err := os.WriteFile(pidPath, []byte(pid), 0o644); err != nil {
			t.Fatalf("failed to create test PID file: %v", err)
		}

		stale, err := New(pidPath).IsStale()
		if err != nil {
			t.Fatalf("IsStale() error = %v", err)
		}
		if stale {
			t.Error("IsStale() = true for current process, want false")
		}
	})

	t.Run("dead process", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
		// A PID near the int32 max is never in use.
		if err := os.WriteFile(pidPath, []byte("2147483647"), 0o644); err != nil {
			t.Fatalf("failed to create test PID file: %v", err)
		}

		stale, err := New(pidPath).IsStale()
		if err != nil {
			t.Fatalf("IsStale() error = %v", err)
		}
		if !stale {
			t.Error("IsStale() = false for dead process PID, want true")
		}
	})

	t.Run("invalid content", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
		if err := os.WriteFile(pidPath, []byte("invalid"), 0o644); err != nil {
			t.Fatalf("failed to create test PID file: %v", err)
		}

		if _, err := New(pidPath).IsStale(); err == nil {
			t.Error("IsStale() expected error for invalid content")
		}
	})
}

func TestCheckAndClaim(t *testing.T) {
	t.Run("no existing file", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")

		if err := New(pidPath).CheckAndClaim(); err != nil {
			t.Fatalf("CheckAndClaim() error = %v", err)
		}

		content, err := os.ReadFile(pidPath)
		if err != nil {
			t.Fatalf("failed to read PID file: %v", err)
		}
		if string(content) != strconv.Itoa(os.Getpid()) {
			t.Errorf("PID file content = %q, want current PID", string(content))
		}
	})

	t.Run("stale file replaced", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
		if err := os.WriteFile(pidPath, []byte("2147483647"), 0o644); err != nil {
			t.Fatalf("failed to create test PID file: %v", err)
		}

		if err := New(pidPath).CheckAndClaim(); err != nil {
			t.Fatalf("CheckAndClaim() error = %v, want nil for stale file", err)
		}

		content, err := os.ReadFile(pidPath)
		if err != nil {
			t.Fatalf("failed to read PID file: %v", err)
		}
		if string(content) != strconv.Itoa(os.Getpid()) {
			t.Errorf("PID file content = %q, want current PID", string(content))
		}
	})

	t.Run("live holder rejected", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "chatwatcher.pid")
		pid := strconv.Itoa(os.Getpid())
		if err := os.WriteFile(pidPath, []byte(pid), 0o644); err != nil {
			t.Fatalf("failed to create test PID file: %v", err)
		}

		err := New(pidPath).CheckAndClaim()
		if !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("CheckAndClaim() error = %v, want ErrAlreadyRunning", err)
		}
	})
}
