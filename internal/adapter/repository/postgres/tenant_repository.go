package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/V4T54L/docqa/internal/tenant"
)

const tenantSchema = `
CREATE TABLE IF NOT EXISTS tenants (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS tenant_api_keys (
	api_key    TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL REFERENCES tenants (id),
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	expires_at TIMESTAMPTZ
);
`

// Only active, unexpired credentials are loaded.
const selectTenantKeys = `
SELECT k.api_key, t.id, t.display_name
FROM tenant_api_keys k
JOIN tenants t ON t.id = k.tenant_id
WHERE k.is_active = true AND (k.expires_at IS NULL OR k.expires_at > NOW())
ORDER BY t.id, k.api_key`

// TenantRepository reads the tenant table from PostgreSQL. It is read once at
// startup; the registry built from it never changes afterwards.
type TenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *sql.DB, logger *slog.Logger) *TenantRepository {
	return &TenantRepository{db: db, logger: logger.With("component", "postgres_tenant_repository")}
}

// EnsureSchema creates the tenant tables when missing.
func (r *TenantRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, tenantSchema); err != nil {
		return fmt.Errorf("failed to create tenant schema: %w", err)
	}
	return nil
}

type tenantKeyRow struct {
	key         string
	tenantID    string
	displayName string
}

// LoadTable reads every active credential with its tenant.
func (r *TenantRepository) LoadTable(ctx context.Context) (tenant.Table, error) {
	rows, err := r.db.QueryContext(ctx, selectTenantKeys)
	if err != nil {
		return tenant.Table{}, fmt.Errorf("failed to query tenant keys: %w", err)
	}
	defer rows.Close()

	var result []tenantKeyRow
	for rows.Next() {
		var row tenantKeyRow
		if err := rows.Scan(&row.key, &row.tenantID, &row.displayName); err != nil {
			return tenant.Table{}, fmt.Errorf("failed to scan tenant key: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return tenant.Table{}, fmt.Errorf("failed to read tenant keys: %w", err)
	}

	table, err := buildTable(result)
	if err != nil {
		return tenant.Table{}, err
	}
	r.logger.Info("loaded tenant table", "tenants", len(table.DisplayNames), "credentials", len(table.Keys))
	return table, nil
}

func buildTable(rows []tenantKeyRow) (tenant.Table, error) {
	table := tenant.Table{
		Keys:         make(map[string]string, len(rows)),
		DisplayNames: make(map[string]string),
	}
	for _, row := range rows {
		if err := tenant.ValidateID(row.tenantID); err != nil {
			return tenant.Table{}, err
		}
		table.Keys[row.key] = row.tenantID
		table.DisplayNames[row.tenantID] = row.displayName
	}
	return table, nil
}
