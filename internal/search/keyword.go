package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/domain"
)

// KeywordEngine scores documents by the share of question keywords they
// contain.
type KeywordEngine struct {
	docs    DocumentSource
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewKeywordEngine creates a KeywordEngine over docs.
func NewKeywordEngine(docs DocumentSource, logger *slog.Logger, m *metrics.Metrics) *KeywordEngine {
	return &KeywordEngine{
		docs:    docs,
		logger:  logger.With("component", "keyword_engine"),
		metrics: m,
	}
}

func (e *KeywordEngine) Name() string { return "keyword" }

// Search returns the best matching document's answer, or the no-information
// answer when nothing scores at least MinRelevanceScore.
func (e *KeywordEngine) Search(ctx context.Context, tenantID, question string) (domain.Answer, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.SearchDuration.WithLabelValues(e.Name()).Observe(time.Since(start).Seconds())
		}
	}()

	documents := e.docs.Documents(tenantID)
	if len(documents) == 0 {
		e.logger.Warn("no documents for tenant", "tenant_id", tenantID)
		return domain.NoAnswer(), nil
	}

	keywords := Keywords(question)
	if len(keywords) == 0 {
		e.logger.Info("no keywords extracted", "tenant_id", tenantID)
		return domain.NoAnswer(), nil
	}
	e.logger.Debug("extracted keywords", "tenant_id", tenantID, "keywords", keywords)

	var (
		best      domain.Document
		bestScore float64
	)
	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return domain.Answer{}, err
		}
		if doc.TenantID != tenantID {
			continue
		}
		score := matchScore(keywords, Normalize(doc.Content))
		e.logger.Debug("scored document", "tenant_id", tenantID, "title", doc.Title, "score", score)
		// Strictly greater keeps the earliest document on ties.
		if score > bestScore {
			best, bestScore = doc, score
		}
	}

	if bestScore == 0 || bestScore < MinRelevanceScore {
		e.logger.Info("no relevant document", "tenant_id", tenantID, "best_score", bestScore)
		return domain.NoAnswer(), nil
	}

	e.logger.Info("found answer", "tenant_id", tenantID, "title", best.Title, "score", bestScore)
	return domain.Answer{
		Text:   ExtractAnswer(keywords, best.Content),
		Source: best.Title,
		Score:  bestScore,
	}, nil
}
