package usecase

import (
	"context"
	"log/slog"

	"github.com/V4T54L/docqa/internal/domain"
	"github.com/V4T54L/docqa/internal/tenant"
)

// TenantLoader replaces one tenant's document set.
type TenantLoader interface {
	LoadTenant(tenantID string) int
}

// TenantDirectory lists the configured tenants.
type TenantDirectory interface {
	Lookup(tenantID string) (tenant.Record, bool)
	TenantIDs() []string
}

// ReloadUseCase re-reads tenant documents on administrative request and
// announces reloads to other replicas.
type ReloadUseCase struct {
	loader    TenantLoader
	tenants   TenantDirectory
	publisher domain.ReloadPublisher
	logger    *slog.Logger
}

// NewReloadUseCase creates a new ReloadUseCase. publisher may be nil.
func NewReloadUseCase(loader TenantLoader, tenants TenantDirectory, publisher domain.ReloadPublisher, logger *slog.Logger) *ReloadUseCase {
	return &ReloadUseCase{
		loader:    loader,
		tenants:   tenants,
		publisher: publisher,
		logger:    logger.With("component", "reload_usecase"),
	}
}

// ReloadTenant reloads a configured tenant and returns its document count.
func (uc *ReloadUseCase) ReloadTenant(ctx context.Context, tenantID string) (int, error) {
	if _, ok := uc.tenants.Lookup(tenantID); !ok {
		return 0, tenant.ErrNotFound
	}
	n := uc.loader.LoadTenant(tenantID)
	uc.publish(ctx, tenantID)
	return n, nil
}

// ReloadAll reloads every configured tenant.
func (uc *ReloadUseCase) ReloadAll(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, id := range uc.tenants.TenantIDs() {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		counts[id] = uc.loader.LoadTenant(id)
		uc.publish(ctx, id)
	}
	return counts, nil
}

// ApplyRemote handles a reload announced by another replica. Tenants unknown
// to this replica are ignored.
func (uc *ReloadUseCase) ApplyRemote(tenantID string) {
	if _, ok := uc.tenants.Lookup(tenantID); !ok {
		uc.logger.Warn("ignoring reload for unknown tenant", "tenant_id", tenantID)
		return
	}
	n := uc.loader.LoadTenant(tenantID)
	uc.logger.Info("applied remote reload", "tenant_id", tenantID, "count", n)
}

func (uc *ReloadUseCase) publish(ctx context.Context, tenantID string) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishReload(ctx, tenantID); err != nil {
		uc.logger.Warn("failed to announce reload", "tenant_id", tenantID, "error", err)
	}
}
