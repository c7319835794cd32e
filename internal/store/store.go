// Package store keeps each tenant's documents in memory, partitioned by
// tenant. Every partition is replaced as a whole; readers observe either the
// previous or the next complete snapshot.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/V4T54L/docqa/internal/adapter/metrics"
	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/tenant"
)

// snapshot is immutable once published.
type snapshot struct {
	docs        []domain.Document
	fingerprint string
	loadedAt    time.Time
}

// partition belongs to exactly one tenant. mu serialises that tenant's
// loaders only.
type partition struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// DocumentStore holds the per-tenant document sets.
type DocumentStore struct {
	baseDir    string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	partitions sync.Map // tenant ID -> *partition
	owners     sync.Map // tenant directory -> tenant ID
	loaded     atomic.Int64
}

// New creates an empty store reading tenant directories below baseDir.
func New(baseDir string, logger *slog.Logger, m *metrics.Metrics) *DocumentStore {
	return &DocumentStore{
		baseDir: baseDir,
		logger:  logger.With("component", "document_store"),
		metrics: m,
	}
}

// LoadTenant reads the tenant's directory and swaps in the new set. It
// returns the number of documents now held for the tenant.
func (s *DocumentStore) LoadTenant(tenantID string) int {
	dir, err := s.tenantDir(tenantID)
	if err == nil {
		err = s.claimDir(dir, tenantID)
	}
	if err != nil {
		s.logger.Error("refusing to load tenant", "tenant_id", tenantID, "error", err)
		return 0
	}

	// The whole read and swap is serialised per tenant so a slower reload
	// cannot overwrite a newer set.
	p := s.partitionFor(tenantID)
	p.mu.Lock()
	defer p.mu.Unlock()

	docs := s.readTenantDir(tenantID, dir)
	p.current.Store(&snapshot{
		docs:        docs,
		fingerprint: fingerprint(docs),
		loadedAt:    time.Now().UTC(),
	})

	if s.metrics != nil {
		s.metrics.DocumentsLoaded.WithLabelValues(tenantID).Set(float64(len(docs)))
	}
	s.logger.Info("loaded tenant documents", "tenant_id", tenantID, "count", len(docs))
	return len(docs)
}

// LoadAll loads every tenant, at most concurrency at a time. Load faults are
// isolated per tenant; only cancellation is reported.
func (s *DocumentStore) LoadAll(ctx context.Context, tenantIDs []string, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, id := range tenantIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.LoadTenant(id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("loaded documents for all tenants", "tenants", len(tenantIDs))
	return nil
}

// Documents returns a copy of the tenant's current set, or nil if the tenant
// was never loaded.
func (s *DocumentStore) Documents(tenantID string) []domain.Document {
	snap := s.snapshot(tenantID)
	if snap == nil {
		return nil
	}
	out := make([]domain.Document, 0, len(snap.docs))
	for _, d := range snap.docs {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out
}

// Document returns one document of the tenant by ID.
func (s *DocumentStore) Document(tenantID, id string) (domain.Document, bool) {
	snap := s.snapshot(tenantID)
	if snap == nil {
		return domain.Document{}, false
	}
	for _, d := range snap.docs {
		if d.ID == id && d.TenantID == tenantID {
			return d, true
		}
	}
	return domain.Document{}, false
}

// Titles returns the tenant's document titles in load order.
func (s *DocumentStore) Titles(tenantID string) []string {
	docs := s.Documents(tenantID)
	titles := make([]string, len(docs))
	for i, d := range docs {
		titles[i] = d.Title
	}
	return titles
}

// DocumentCount returns how many documents the tenant currently has.
func (s *DocumentStore) DocumentCount(tenantID string) int {
	snap := s.snapshot(tenantID)
	if snap == nil {
		return 0
	}
	return len(snap.docs)
}

// LoadedTenantCount returns how many tenants have been loaded at least once.
func (s *DocumentStore) LoadedTenantCount() int {
	return int(s.loaded.Load())
}

// Fingerprint identifies the tenant's current snapshot by content. It is
// empty for tenants never loaded.
func (s *DocumentStore) Fingerprint(tenantID string) string {
	snap := s.snapshot(tenantID)
	if snap == nil {
		return ""
	}
	return snap.fingerprint
}

func (s *DocumentStore) snapshot(tenantID string) *snapshot {
	v, ok := s.partitions.Load(tenantID)
	if !ok {
		return nil
	}
	return v.(*partition).current.Load()
}

// claimDir binds dir to tenantID for the life of the store.
func (s *DocumentStore) claimDir(dir, tenantID string) error {
	owner, _ := s.owners.LoadOrStore(dir, tenantID)
	if owner.(string) != tenantID {
		return fmt.Errorf("%w: directory %s already belongs to tenant %q", tenant.ErrInvalidTenantID, dir, owner)
	}
	return nil
}

func (s *DocumentStore) partitionFor(tenantID string) *partition {
	if v, ok := s.partitions.Load(tenantID); ok {
		return v.(*partition)
	}
	v, existed := s.partitions.LoadOrStore(tenantID, &partition{})
	if !existed {
		s.loaded.Add(1)
	}
	return v.(*partition)
}

func fingerprint(docs []domain.Document) string {
	h := sha256.New()
	for _, d := range docs {
		h.Write([]byte(d.Title))
		h.Write([]byte{0})
		h.Write([]byte(d.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
