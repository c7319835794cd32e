package domain

// ConsumerGroupInfo represents information about a Redis Stream consumer group.
type ConsumerGroupInfo struct {
	Name            string `json:"name"`
	Consumers       int64  `json:"consumers"`
	Pending         int64  `json:"pending"`
	LastDeliveredID string `json:"last_delivered_id"`
}

// ConsumerInfo represents information about a specific consumer in a group.
type ConsumerInfo struct {
	Name    string `json:"name"`
	Pending int64  `json:"pending"`
	IdleMS  int64  `json:"idle_ms"`
}

// PendingMessageSummary provides a summary of pending messages for a consumer group.
type PendingMessageSummary struct {
	Total          int64            `json:"total"`
	FirstMessageID string           `json:"first_message_id,omitempty"`
	LastMessageID  string           `json:"last_message_id,omitempty"`
	ConsumerTotals map[string]int64 `json:"consumer_totals,omitempty"`
}

// AuditStreamSummary describes an audit stream by its contents: how much it
// holds, what the newest event was and which tenants the recent tail covers.
type AuditStreamSummary struct {
	Stream         string           `json:"stream"`
	Length         int64            `json:"length"`
	Groups         int64            `json:"groups"`
	EntriesAdded   int64            `json:"entries_added"`
	FirstEntryID   string           `json:"first_entry_id,omitempty"`
	LastEntryID    string           `json:"last_entry_id,omitempty"`
	LastEvent      *AuditEvent      `json:"last_event,omitempty"`
	Undecodable    int              `json:"undecodable"`
	RecentByTenant map[string]int64 `json:"recent_by_tenant"`
	RecentAnswered int64            `json:"recent_answered"`
	RecentScanned  int              `json:"recent_scanned"`
}
