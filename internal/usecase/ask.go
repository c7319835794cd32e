package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/search"
	"github.com/V4T54L/docqa/internal/tenant"
)

const (
	MinQuestionLength = 1
	MaxQuestionLength = 1000
)

// ErrQuestionLength is returned for questions outside the accepted length.
var ErrQuestionLength = fmt.Errorf("question must be between %d and %d characters", MinQuestionLength, MaxQuestionLength)

// ValidateQuestion checks the question length in characters.
func ValidateQuestion(question string) error {
	n := utf8.RuneCountInString(question)
	if n < MinQuestionLength || n > MaxQuestionLength {
		return ErrQuestionLength
	}
	return nil
}

// Fingerprinter reports the version of a tenant's document set.
type Fingerprinter interface {
	Fingerprint(tenantID string) string
}

// AuditRecorder receives one event per answered question.
type AuditRecorder interface {
	Record(ctx context.Context, event *domain.AuditEvent) error
}

// AskUseCase answers questions within the caller's tenant.
type AskUseCase struct {
	engine   search.Engine
	versions Fingerprinter
	cache    domain.AnswerCache
	cacheTTL time.Duration
	audit    AuditRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// AskOption configures optional collaborators.
type AskOption func(*AskUseCase)

// WithAnswerCache enables caching answers for ttl.
func WithAnswerCache(cache domain.AnswerCache, ttl time.Duration) AskOption {
	return func(uc *AskUseCase) {
		uc.cache = cache
		uc.cacheTTL = ttl
	}
}

// WithAuditTrail records every answered question.
func WithAuditTrail(audit AuditRecorder) AskOption {
	return func(uc *AskUseCase) { uc.audit = audit }
}

// WithMetrics reports outcomes to m.
func WithMetrics(m *metrics.Metrics) AskOption {
	return func(uc *AskUseCase) { uc.metrics = m }
}

// NewAskUseCase creates a new AskUseCase.
func NewAskUseCase(engine search.Engine, versions Fingerprinter, logger *slog.Logger, opts ...AskOption) *AskUseCase {
	uc := &AskUseCase{
		engine:   engine,
		versions: versions,
		logger:   logger.With("component", "ask_usecase"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Ask validates the question and searches only tc's documents.
func (uc *AskUseCase) Ask(ctx context.Context, tc tenant.Context, question string) (domain.Answer, error) {
	tenantID := tc.TenantID()
	if err := ValidateQuestion(question); err != nil {
		uc.count(tenantID, "invalid")
		return domain.Answer{}, err
	}

	start := time.Now()
	key := uc.cacheKey(tenantID, question)

	answer, hit := uc.cached(ctx, key)
	if !hit {
		var err error
		answer, err = uc.engine.Search(ctx, tenantID, question)
		if err != nil {
			uc.count(tenantID, "error")
			return domain.Answer{}, err
		}
		uc.store(ctx, key, answer)
	}

	if answer.Found() {
		uc.count(tenantID, "answered")
	} else {
		uc.count(tenantID, "no_information")
	}

	uc.recordAudit(ctx, &domain.AuditEvent{
		TenantID:  tenantID,
		Question:  question,
		Source:    answer.Source,
		Answered:  answer.Found(),
		Engine:    uc.engine.Name(),
		CacheHit:  hit,
		LatencyMS: time.Since(start).Milliseconds(),
	})

	return answer, nil
}

// cacheKey is scoped by tenant and by the tenant's current document set, so a
// reload never serves answers from the previous set.
func (uc *AskUseCase) cacheKey(tenantID, question string) string {
	sum := sha256.Sum256([]byte(question))
	return fmt.Sprintf("docqa:answer:%s:%s:%s:%s",
		tenantID, uc.versions.Fingerprint(tenantID), uc.engine.Name(), hex.EncodeToString(sum[:]))
}

func (uc *AskUseCase) cached(ctx context.Context, key string) (domain.Answer, bool) {
	if uc.cache == nil {
		return domain.Answer{}, false
	}
	answer, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("answer cache lookup failed", "error", err)
		ok = false
	}
	if uc.metrics != nil {
		if ok {
			uc.metrics.AnswerCacheHits.Inc()
		} else {
			uc.metrics.AnswerCacheMisses.Inc()
		}
	}
	return answer, ok
}

func (uc *AskUseCase) store(ctx context.Context, key string, answer domain.Answer) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, answer, uc.cacheTTL); err != nil {
		uc.logger.Warn("answer cache store failed", "error", err)
	}
}

func (uc *AskUseCase) recordAudit(ctx context.Context, event *domain.AuditEvent) {
	if uc.audit == nil {
		return
	}
	// The answer is already computed; a cancelled request must not drop its
	// audit record.
	if err := uc.audit.Record(context.WithoutCancel(ctx), event); err != nil {
		uc.logger.Error("failed to record audit event", "error", err, "tenant_id", event.TenantID)
	}
}

func (uc *AskUseCase) count(tenantID, outcome string) {
	if uc.metrics != nil {
		uc.metrics.AskTotal.WithLabelValues(tenantID, outcome).Inc()
	}
}
