package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/V4T54L/docqa/internal/domain"
)

const auditTable = "ask_audit"

const auditSchema = `
CREATE TABLE IF NOT EXISTS ask_audit (
	event_id     UUID PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	question     TEXT NOT NULL,
	source       TEXT,
	answered     BOOLEAN NOT NULL,
	engine       TEXT NOT NULL,
	cache_hit    BOOLEAN NOT NULL DEFAULT FALSE,
	latency_ms   BIGINT NOT NULL,
	pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
	received_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ask_audit_tenant_received_idx ON ask_audit (tenant_id, received_at DESC);
`

var auditColumns = []string{
	"event_id", "tenant_id", "question", "source", "answered",
	"engine", "cache_hit", "latency_ms", "pii_redacted", "received_at",
}

var errBufferNotSupported = errors.New("postgres audit repository is a sink, not a buffer")

// AuditRepository is the durable sink of the ask audit trail.
type AuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAuditRepository creates a new PostgreSQL audit sink.
func NewAuditRepository(db *sql.DB, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger.With("component", "postgres_audit_repository")}
}

// EnsureSchema creates the audit table when missing.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to create %s schema: %w", auditTable, err)
	}
	return nil
}

// WriteBatch copies events into a staging table and upserts them on
// event_id, so redelivered batches are idempotent.
func (r *AuditRepository) WriteBatch(ctx context.Context, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer txn.Rollback()

	const staging = auditTable + "_staging"
	if _, err := txn.ExecContext(ctx, `CREATE TEMP TABLE `+staging+` (LIKE `+auditTable+` INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(staging, auditColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare COPY: %w", err)
	}
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, auditRow(e)...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to COPY audit event %s: %w", e.ID, err)
		}
	}
	// Flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("failed to flush COPY: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close COPY: %w", err)
	}

	if _, err := txn.ExecContext(ctx, upsertAuditSQL(staging)); err != nil {
		return fmt.Errorf("failed to upsert audit events: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit batch: %w", err)
	}

	r.logger.Debug("wrote audit batch", "count", len(events))
	return nil
}

func auditRow(e domain.AuditEvent) []interface{} {
	var source sql.NullString
	if e.Source != "" {
		source = sql.NullString{String: e.Source, Valid: true}
	}
	return []interface{}{
		e.ID, e.TenantID, e.Question, source, e.Answered,
		e.Engine, e.CacheHit, e.LatencyMS, e.PIIRedacted, e.ReceivedAt,
	}
}

func upsertAuditSQL(staging string) string {
	cols := pq.QuoteIdentifier(auditColumns[0])
	updates := ""
	for i, c := range auditColumns[1:] {
		q := pq.QuoteIdentifier(c)
		cols += ", " + q
		if i > 0 {
			updates += ", "
		}
		updates += q + " = EXCLUDED." + q
	}
	return `INSERT INTO ` + auditTable + ` (` + cols + `) SELECT ` + cols + ` FROM ` + staging +
		` ON CONFLICT (event_id) DO UPDATE SET ` + updates
}

func (r *AuditRepository) BufferEvent(ctx context.Context, event domain.AuditEvent) error {
	return errBufferNotSupported
}

func (r *AuditRepository) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.AuditEvent, error) {
	return nil, errBufferNotSupported
}

func (r *AuditRepository) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	return errBufferNotSupported
}

func (r *AuditRepository) MoveToDLQ(ctx context.Context, events []domain.AuditEvent) error {
	return errBufferNotSupported
}
