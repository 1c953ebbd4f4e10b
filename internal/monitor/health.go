package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HealthSnapshot is the JSON document persisted to the health file. External
// consumers (the API server, ops tooling) read it to observe engine state
// without talking to the engine directly.
type HealthSnapshot struct {
	Status              string          `json:"status"`
	Connected           bool            `json:"connected"`
	MonitoredChats      int             `json:"monitored_chat_count"`
	LastEventAgeSeconds *float64        `json:"last_event_age_seconds"`
	LastPollAt          *time.Time      `json:"last_poll_at"`
	LastResync          *ResyncSnapshot `json:"last_resync"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// ResyncSnapshot summarizes the most recent resync attempt for the health
// file.
type ResyncSnapshot struct {
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
	Status string    `json:"status"`
}

// HealthReporter writes health snapshots to a file. Writes are rate limited
// to at most one per interval unless forced; the file is replaced atomically
// so readers never observe a partial document.
type HealthReporter struct {
	path     string
	interval time.Duration
	snapshot func() HealthSnapshot
	logger   *slog.Logger

	mu        sync.Mutex
	lastWrite time.Time

	writeMu   sync.Mutex
	lastSeq   uint64
	inflight  sync.WaitGroup
	seqSource uint64
}

// NewHealthReporter creates a reporter that persists snapshots produced by
// the snapshot function to path, writing at most once per interval unless
// forced.
func NewHealthReporter(path string, interval time.Duration, snapshot func() HealthSnapshot, logger *slog.Logger) *HealthReporter {
	return &HealthReporter{
		path:     path,
		interval: interval,
		snapshot: snapshot,
		logger:   logger,
	}
}

// Write captures a snapshot and persists it in the background. Unless force
// is set, the call is a no-op when the last write happened less than the
// configured interval ago. Persistence failures are logged and never
// propagate to the ingestion paths.
func (h *HealthReporter) Write(force bool) {
	h.mu.Lock()
	if !force && !h.lastWrite.IsZero() && time.Since(h.lastWrite) < h.interval {
		h.mu.Unlock()
		return
	}
	h.lastWrite = time.Now()
	h.seqSource++
	seq := h.seqSource
	h.mu.Unlock()

	snap := h.snapshot()

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.persist(seq, snap)
	}()
}

// Flush blocks until all in-flight writes have completed. Called during
// shutdown so the final snapshot lands before the process exits.
func (h *HealthReporter) Flush() {
	h.inflight.Wait()
}

// persist serializes writes and drops any snapshot that has been superseded
// by a newer one, so the file always converges on the latest state.
func (h *HealthReporter) persist(seq uint64, snap HealthSnapshot) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if seq < h.lastSeq {
		return
	}
	h.lastSeq = seq

	if err := writeHealthFile(h.path, snap); err != nil {
		h.logger.Warn("failed to write health file", "path", h.path, "error", err)
	}
}

// writeHealthFile writes the snapshot to a temporary file and renames it
// into place.
func writeHealthFile(path string, snap HealthSnapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create health file directory; %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal health snapshot; %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary health file; %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename health file into place; %w", err)
	}

	return nil
}

// ReadHealthFile reads and parses a health snapshot previously written by a
// HealthReporter. Used by the API server to serve health without reaching
// into the engine.
func ReadHealthFile(path string) (*HealthSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read health file; %w", err)
	}

	var snap HealthSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse health file; %w", err)
	}

	return &snap, nil
}
