package wal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/V4T54L/docqa/internal/domain"
)

func setupTestWAL(t *testing.T, maxSegmentSize, maxTotalSize int64) *WALRepository {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wal, err := NewWALRepository(t.TempDir(), maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create WALRepository: %v", err)
	}
	t.Cleanup(func() { wal.Close() })
	return wal
}

func newEvent(question string) domain.AuditEvent {
	return domain.AuditEvent{ID: uuid.NewString(), TenantID: "tenantA", Question: question, Engine: "keyword"}
}

func TestWAL_WriteAndReplay(t *testing.T) {
	wal := setupTestWAL(t, 1024, 10*1024)

	events := []domain.AuditEvent{newEvent("q1"), newEvent("q2"), newEvent("q3")}
	for _, event := range events {
		if err := wal.Write(context.Background(), event); err != nil {
			t.Fatalf("failed to write event: %v", err)
		}
	}
	if wal.Pending() != 3 {
		t.Errorf("expected 3 pending events, got %d", wal.Pending())
	}
	wal.Close()

	// Re-open to simulate a restart.
	reopened, err := NewWALRepository(wal.dir, 1024, 10*1024, wal.logger)
	if err != nil {
		t.Fatalf("failed to re-open WAL: %v", err)
	}
	defer reopened.Close()

	var replayed []domain.AuditEvent
	err = reopened.Replay(context.Background(), func(event domain.AuditEvent) error {
		replayed = append(replayed, event)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to replay events: %v", err)
	}

	if len(replayed) != len(events) {
		t.Fatalf("expected %d replayed events, got %d", len(events), len(replayed))
	}
	for i, event := range events {
		if replayed[i].ID != event.ID || replayed[i].Question != event.Question {
			t.Errorf("replayed event mismatch at index %d: got %+v, want %+v", i, replayed[i], event)
		}
	}
}

func TestWAL_ReplayStopsOnHandlerError(t *testing.T) {
	wal := setupTestWAL(t, 1024, 10*1024)
	for _, q := range []string{"q1", "q2", "q3"} {
		if err := wal.Write(context.Background(), newEvent(q)); err != nil {
			t.Fatalf("failed to write event: %v", err)
		}
	}

	calls := 0
	err := wal.Replay(context.Background(), func(event domain.AuditEvent) error {
		calls++
		if calls == 2 {
			return errors.New("redis down again")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected replay error, got nil")
	}
	if calls != 2 {
		t.Errorf("expected replay to stop after 2 calls, got %d", calls)
	}
}

func TestWAL_SkipsCorruptRecords(t *testing.T) {
	wal := setupTestWAL(t, 1024, 10*1024)
	if err := wal.Write(context.Background(), newEvent("good")); err != nil {
		t.Fatalf("failed to write event: %v", err)
	}
	wal.Close()

	corrupt := filepath.Join(wal.dir, segmentPrefix+"99999999999999999999"+segmentSuffix)
	if err := os.WriteFile(corrupt, []byte("{not json\n"), filePerm); err != nil {
		t.Fatalf("failed to write corrupt segment: %v", err)
	}

	count := 0
	if err := wal.Replay(context.Background(), func(domain.AuditEvent) error { count++; return nil }); err != nil {
		t.Fatalf("failed to replay: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 valid event, got %d", count)
	}
}

func TestWAL_SegmentRotation(t *testing.T) {
	// Small segments force rotation.
	wal := setupTestWAL(t, 100, 10*1024)

	for i := 0; i < 5; i++ {
		if err := wal.Write(context.Background(), newEvent("a question long enough to fill a segment")); err != nil {
			t.Fatalf("failed to write event: %v", err)
		}
	}

	segments, err := wal.segments()
	if err != nil {
		t.Fatalf("failed to get segments: %v", err)
	}
	if len(segments) < 2 {
		t.Errorf("expected at least 2 segments, got %d", len(segments))
	}
}

func TestWAL_Truncate(t *testing.T) {
	wal := setupTestWAL(t, 1024, 1024)

	if err := wal.Write(context.Background(), newEvent("some data")); err != nil {
		t.Fatalf("failed to write event: %v", err)
	}
	if err := wal.Truncate(context.Background()); err != nil {
		t.Fatalf("failed to truncate WAL: %v", err)
	}

	segments, _ := wal.segments()
	if len(segments) != 1 {
		t.Fatalf("expected 1 fresh segment after truncate, got %d", len(segments))
	}
	info, _ := os.Stat(segments[0])
	if info.Size() != 0 {
		t.Errorf("expected new segment to be empty, size is %d", info.Size())
	}
	if wal.Pending() != 0 {
		t.Errorf("expected no pending events, got %d", wal.Pending())
	}
}

func TestWAL_MaxTotalSize(t *testing.T) {
	wal := setupTestWAL(t, 100, 300)

	var err error
	for i := 0; i < 10; i++ {
		if err = wal.Write(context.Background(), newEvent("some data that will fill up the WAL")); err != nil {
			break
		}
	}

	if !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull when writing beyond max total size, got %v", err)
	}
}
