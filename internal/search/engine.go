// Package search answers a question from one tenant's documents.
package search

import (
	"context"

	"github.com/V4T54L/docqa/internal/domain"
)

// MinRelevanceScore is the lowest score a document may have to be selected.
const MinRelevanceScore = 0.1

// Engine answers a question using only the named tenant's documents.
type Engine interface {
	Search(ctx context.Context, tenantID, question string) (domain.Answer, error)
	Name() string
}

// DocumentSource is the read side of the document store.
type DocumentSource interface {
	Documents(tenantID string) []domain.Document
	Document(tenantID, id string) (domain.Document, bool)
	Fingerprint(tenantID string) string
}
