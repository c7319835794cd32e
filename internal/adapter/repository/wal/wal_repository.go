package wal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/docqa/internal/domain"
)

const (
	segmentPrefix = "audit-"
	segmentSuffix = ".wal"
	filePerm      = 0644
)

// ErrFull is returned when a write would exceed the configured disk budget.
var ErrFull = errors.New("wal: disk budget exhausted")

// WALRepository is a segmented, newline-delimited JSON log of audit events
// written while the stream buffer is unreachable.
type WALRepository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu          sync.Mutex
	segment     *os.File
	segmentSize int64
	totalSize   int64
	pending     int
}

// NewWALRepository opens dir, creating it if needed, and resumes appending to
// its newest segment.
func NewWALRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*WALRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory %s: %w", dir, err)
	}

	w := &WALRepository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "audit_wal"),
	}

	segments, err := w.segments()
	if err != nil {
		return nil, err
	}
	for _, s := range segments {
		info, err := os.Stat(s)
		if err != nil {
			return nil, fmt.Errorf("failed to stat WAL segment %s: %w", s, err)
		}
		w.totalSize += info.Size()
	}
	if err := w.resume(segments); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends one event.
func (w *WALRepository) Write(ctx context.Context, event domain.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event for WAL: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.totalSize+int64(len(data)) > w.maxTotalSize {
		return fmt.Errorf("%w (%d + %d > %d)", ErrFull, w.totalSize, len(data), w.maxTotalSize)
	}
	if w.segment == nil || w.segmentSize >= w.maxSegmentSize {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	n, err := w.segment.Write(data)
	w.segmentSize += int64(n)
	w.totalSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to WAL segment: %w", err)
	}
	w.pending++
	return nil
}

// Replay feeds every stored event, oldest first, to handler. It stops at the
// first handler error; already delivered events are delivered again on the
// next replay.
func (w *WALRepository) Replay(ctx context.Context, handler func(event domain.AuditEvent) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.closeSegment(); err != nil {
		w.logger.Warn("failed to close WAL segment before replay", "error", err)
	}

	segments, err := w.segments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}
	w.logger.Info("replaying audit WAL", "segment_count", len(segments))

	replayed := 0
	for _, path := range segments {
		n, err := replaySegment(ctx, path, handler, w.logger)
		replayed += n
		if err != nil {
			return err
		}
	}

	w.logger.Info("audit WAL replay completed", "events", replayed)
	return nil
}

func replaySegment(ctx context.Context, path string, handler func(domain.AuditEvent) error, logger *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open segment %s for replay: %w", path, err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		var event domain.AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			logger.Warn("skipping corrupt WAL record", "segment", filepath.Base(path), "error", err)
			continue
		}
		if err := handler(event); err != nil {
			return n, fmt.Errorf("replay handler failed: %w", err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("error scanning segment %s: %w", path, err)
	}
	return n, nil
}

// Truncate deletes every segment and starts a fresh one.
func (w *WALRepository) Truncate(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.closeSegment(); err != nil {
		w.logger.Warn("failed to close WAL segment before truncate", "error", err)
	}

	segments, err := w.segments()
	if err != nil {
		return err
	}
	for _, path := range segments {
		if err := os.Remove(path); err != nil {
			w.logger.Error("failed to remove WAL segment", "path", path, "error", err)
		}
	}

	w.totalSize = 0
	w.pending = 0
	w.logger.Info("audit WAL truncated", "segments", len(segments))
	return w.rotate()
}

// Pending reports how many events were written since the last truncate by
// this process.
func (w *WALRepository) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Close flushes and closes the open segment.
func (w *WALRepository) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeSegment()
}

func (w *WALRepository) resume(segments []string) error {
	if len(segments) == 0 {
		return w.rotate()
	}
	latest := segments[len(segments)-1]
	info, err := os.Stat(latest)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latest, err)
	}
	if info.Size() >= w.maxSegmentSize {
		return w.rotate()
	}

	f, err := os.OpenFile(latest, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latest, err)
	}
	w.segment, w.segmentSize = f, info.Size()
	w.logger.Info("resumed audit WAL segment", "path", latest, "size", w.segmentSize)
	return nil
}

func (w *WALRepository) rotate() error {
	if err := w.closeSegment(); err != nil {
		w.logger.Error("failed to close WAL segment before rotating", "error", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s%020d%s", segmentPrefix, time.Now().UnixNano(), segmentSuffix))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create WAL segment %s: %w", path, err)
	}
	w.segment, w.segmentSize = f, 0
	w.logger.Debug("rotated audit WAL segment", "path", path)
	return nil
}

func (w *WALRepository) closeSegment() error {
	if w.segment == nil {
		return nil
	}
	syncErr := w.segment.Sync()
	closeErr := w.segment.Close()
	w.segment = nil
	return errors.Join(syncErr, closeErr)
}

func (w *WALRepository) segments() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAL directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			out = append(out, filepath.Join(w.dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}
