package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/philippgille/chromem-go"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/domain"
)

const (
	// EmbeddingDimensions is the size of the hashed keyword vectors.
	EmbeddingDimensions = 512

	collectionName = "documents"
	tenantMetaKey  = "tenant_id"
	titleMetaKey   = "title"
)

var errNoFeatures = errors.New("search: text has no keywords to embed")

// HashEmbed maps text to a unit vector by feature hashing its keywords.
// Identical keyword multisets always produce identical vectors.
func HashEmbed(text string) ([]float32, error) {
	keywords := Keywords(text)
	if len(keywords) == 0 {
		return nil, errNoFeatures
	}

	vec := make([]float32, EmbeddingDimensions)
	for _, kw := range keywords {
		h := xxhash.Sum64String(kw)
		idx := h % EmbeddingDimensions
		if h&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, errNoFeatures
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func hashEmbeddingFunc() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		return HashEmbed(text)
	}
}

// tenantIndex is one tenant's private vector database, tagged with the
// store fingerprint it was built from.
type tenantIndex struct {
	mu          sync.Mutex
	fingerprint string
	built       bool
	db          *chromem.DB
	collection  *chromem.Collection
}

// SemanticEngine ranks documents by cosine similarity of hashed keyword
// vectors. Every tenant gets its own chromem database.
type SemanticEngine struct {
	docs          DocumentSource
	minSimilarity float32
	logger        *slog.Logger
	metrics       *metrics.Metrics
	indexes       sync.Map // tenant ID -> *tenantIndex
}

// NewSemanticEngine creates a SemanticEngine over docs.
func NewSemanticEngine(docs DocumentSource, minSimilarity float64, logger *slog.Logger, m *metrics.Metrics) *SemanticEngine {
	return &SemanticEngine{
		docs:          docs,
		minSimilarity: float32(minSimilarity),
		logger:        logger.With("component", "semantic_engine"),
		metrics:       m,
	}
}

func (e *SemanticEngine) Name() string { return "semantic" }

// Search returns the answer extracted from the most similar document.
func (e *SemanticEngine) Search(ctx context.Context, tenantID, question string) (domain.Answer, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.SearchDuration.WithLabelValues(e.Name()).Observe(time.Since(start).Seconds())
		}
	}()

	keywords := Keywords(question)
	if len(keywords) == 0 {
		e.logger.Info("no keywords extracted", "tenant_id", tenantID)
		return domain.NoAnswer(), nil
	}

	coll, err := e.collectionFor(ctx, tenantID)
	if err != nil {
		return domain.Answer{}, err
	}
	if coll == nil || coll.Count() == 0 {
		e.logger.Warn("no indexed documents for tenant", "tenant_id", tenantID)
		return domain.NoAnswer(), nil
	}

	results, err := coll.Query(ctx, question, 1, map[string]string{tenantMetaKey: tenantID}, nil)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("querying tenant %s index: %w", tenantID, err)
	}
	if len(results) == 0 {
		return domain.NoAnswer(), nil
	}

	top := results[0]
	if top.Similarity < e.minSimilarity {
		e.logger.Info("no relevant document", "tenant_id", tenantID, "best_similarity", top.Similarity)
		return domain.NoAnswer(), nil
	}

	doc, ok := e.docs.Document(tenantID, top.ID)
	if !ok || doc.TenantID != tenantID {
		// The snapshot changed between indexing and lookup.
		e.logger.Warn("indexed document no longer in store", "tenant_id", tenantID, "document_id", top.ID)
		return domain.NoAnswer(), nil
	}

	e.logger.Info("found answer", "tenant_id", tenantID, "title", doc.Title, "similarity", top.Similarity)
	return domain.Answer{
		Text:   ExtractAnswer(keywords, doc.Content),
		Source: doc.Title,
		Score:  float64(top.Similarity),
	}, nil
}

// collectionFor returns the tenant's collection, rebuilding it when the
// store fingerprint has moved on.
func (e *SemanticEngine) collectionFor(ctx context.Context, tenantID string) (*chromem.Collection, error) {
	v, _ := e.indexes.LoadOrStore(tenantID, &tenantIndex{})
	idx := v.(*tenantIndex)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	fp := e.docs.Fingerprint(tenantID)
	if idx.built && idx.fingerprint == fp {
		return idx.collection, nil
	}

	db := chromem.NewDB()
	coll, err := db.GetOrCreateCollection(collectionName, nil, hashEmbeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("creating index for tenant %s: %w", tenantID, err)
	}

	var batch []chromem.Document
	for _, doc := range e.docs.Documents(tenantID) {
		if doc.TenantID != tenantID {
			continue
		}
		vec, err := HashEmbed(doc.Content)
		if err != nil {
			e.logger.Debug("skipping document without keywords", "tenant_id", tenantID, "title", doc.Title)
			continue
		}
		batch = append(batch, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  map[string]string{tenantMetaKey: tenantID, titleMetaKey: doc.Title},
			Embedding: vec,
		})
	}
	if len(batch) > 0 {
		if err := coll.AddDocuments(ctx, batch, 1); err != nil {
			return nil, fmt.Errorf("indexing tenant %s: %w", tenantID, err)
		}
	}

	idx.db, idx.collection = db, coll
	idx.fingerprint, idx.built = fp, true
	e.logger.Info("rebuilt tenant index", "tenant_id", tenantID, "documents", len(batch))
	return coll, nil
}
