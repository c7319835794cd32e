package domain

import "time"

// AuditEvent records one answered question for the per-tenant audit trail.
type AuditEvent struct {
	ID              string    `json:"event_id"`
	TenantID        string    `json:"tenant_id"`
	Question        string    `json:"question"`
	Source          string    `json:"source,omitempty"`
	Answered        bool      `json:"answered"`
	Engine          string    `json:"engine"`
	CacheHit        bool      `json:"cache_hit,omitempty"`
	LatencyMS       int64     `json:"latency_ms"`
	ReceivedAt      time.Time `json:"received_at"`
	PIIRedacted     bool      `json:"pii_redacted,omitempty"`
	StreamMessageID string    `json:"-"`
}
