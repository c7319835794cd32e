package usecase

import (
	"context"
	"errors"

	"github.com/V4T54L/docqa/internal/domain"
)

// ErrUnknownStream is returned for streams other than the audit streams.
var ErrUnknownStream = errors.New("unknown stream")

// AdminStreamUseCase exposes read and trim operations over the audit streams.
type AdminStreamUseCase struct {
	repo    domain.StreamAdminRepository
	streams map[string]struct{}
}

// NewAdminStreamUseCase creates a new AdminStreamUseCase limited to streams.
func NewAdminStreamUseCase(repo domain.StreamAdminRepository, streams ...string) *AdminStreamUseCase {
	allowed := make(map[string]struct{}, len(streams))
	for _, s := range streams {
		allowed[s] = struct{}{}
	}
	return &AdminStreamUseCase{repo: repo, streams: allowed}
}

func (uc *AdminStreamUseCase) check(stream string) error {
	if _, ok := uc.streams[stream]; !ok {
		return ErrUnknownStream
	}
	return nil
}

// DefaultRecentEvents is how many of the newest events a stream summary
// tallies when the caller does not say.
const DefaultRecentEvents = 100

// MaxRecentEvents bounds the tail a single summary may scan.
const MaxRecentEvents = 10000

// GetStreamSummary describes an audit stream by its newest events. recent is
// clamped to MaxRecentEvents; zero or less means DefaultRecentEvents.
func (uc *AdminStreamUseCase) GetStreamSummary(ctx context.Context, stream string, recent int64) (*domain.AuditStreamSummary, error) {
	if err := uc.check(stream); err != nil {
		return nil, err
	}
	switch {
	case recent <= 0:
		recent = DefaultRecentEvents
	case recent > MaxRecentEvents:
		recent = MaxRecentEvents
	}
	return uc.repo.GetStreamSummary(ctx, stream, recent)
}

func (uc *AdminStreamUseCase) GetGroupInfo(ctx context.Context, stream string) ([]domain.ConsumerGroupInfo, error) {
	if err := uc.check(stream); err != nil {
		return nil, err
	}
	return uc.repo.GetGroupInfo(ctx, stream)
}

func (uc *AdminStreamUseCase) GetConsumerInfo(ctx context.Context, stream, group string) ([]domain.ConsumerInfo, error) {
	if err := uc.check(stream); err != nil {
		return nil, err
	}
	return uc.repo.GetConsumerInfo(ctx, stream, group)
}

func (uc *AdminStreamUseCase) GetPendingSummary(ctx context.Context, stream, group string) (*domain.PendingMessageSummary, error) {
	if err := uc.check(stream); err != nil {
		return nil, err
	}
	return uc.repo.GetPendingSummary(ctx, stream, group)
}

func (uc *AdminStreamUseCase) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	if err := uc.check(stream); err != nil {
		return 0, err
	}
	return uc.repo.TrimStream(ctx, stream, maxLen)
}
