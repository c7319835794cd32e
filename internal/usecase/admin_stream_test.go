package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/domain/mocks"
)

func TestAdminStreamUseCase(t *testing.T) {
	repo := &mocks.MockStreamAdminRepository{
		Groups:  []domain.ConsumerGroupInfo{{Name: "audit-sink", Consumers: 1}},
		Trimmed: 42,
	}
	uc := NewAdminStreamUseCase(repo, "docqa:audit", "docqa:audit:dlq")

	groups, err := uc.GetGroupInfo(context.Background(), "docqa:audit")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "audit-sink" {
		t.Errorf("unexpected groups: %+v", groups)
	}

	n, err := uc.TrimStream(context.Background(), "docqa:audit:dlq", 10)
	if err != nil || n != 42 {
		t.Errorf("expected 42 trimmed, got %d (%v)", n, err)
	}

	if _, err := uc.GetGroupInfo(context.Background(), "other:stream"); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("expected ErrUnknownStream, got %v", err)
	}
	if _, err := uc.TrimStream(context.Background(), "other:stream", 10); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("expected ErrUnknownStream, got %v", err)
	}
}

func TestAdminStreamUseCase_StreamSummaryTail(t *testing.T) {
	repo := &mocks.MockStreamAdminRepository{
		Summary: &domain.AuditStreamSummary{Stream: "docqa:audit", Length: 3},
	}
	uc := NewAdminStreamUseCase(repo, "docqa:audit")

	tests := []struct {
		requested int64
		want      int64
	}{
		{requested: 0, want: DefaultRecentEvents},
		{requested: -5, want: DefaultRecentEvents},
		{requested: 25, want: 25},
		{requested: MaxRecentEvents + 1, want: MaxRecentEvents},
	}
	for _, tt := range tests {
		summary, err := uc.GetStreamSummary(context.Background(), "docqa:audit", tt.requested)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if summary.Length != 3 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		if repo.LastRecent != tt.want {
			t.Errorf("requested %d: repository asked for %d, want %d", tt.requested, repo.LastRecent, tt.want)
		}
	}

	if _, err := uc.GetStreamSummary(context.Background(), "other:stream", 10); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("expected ErrUnknownStream, got %v", err)
	}
}
