package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/V4T54L/docqa/internal/domain"
)

// MockAuditRepository is a mock implementation of domain.AuditRepository for testing.
type MockAuditRepository struct {
	mu              sync.Mutex
	BufferedEvents  []domain.AuditEvent
	WrittenEvents   []domain.AuditEvent
	AckedMessageIDs []string
	DLQEvents       []domain.AuditEvent
	ReadBatchResult []domain.AuditEvent
	WriteCalls      int
	BufferErr       error
	ReadErr         error
	WriteErr        error
	AckErr          error
	DLQErr          error
}

func (m *MockAuditRepository) BufferEvent(ctx context.Context, event domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BufferErr != nil {
		return m.BufferErr
	}
	m.BufferedEvents = append(m.BufferedEvents, event)
	return nil
}

func (m *MockAuditRepository) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.ReadBatchResult, nil
}

func (m *MockAuditRepository) WriteBatch(ctx context.Context, events []domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.WrittenEvents = append(m.WrittenEvents, events...)
	return nil
}

func (m *MockAuditRepository) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedMessageIDs = append(m.AckedMessageIDs, messageIDs...)
	return nil
}

func (m *MockAuditRepository) MoveToDLQ(ctx context.Context, events []domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DLQErr != nil {
		return m.DLQErr
	}
	m.DLQEvents = append(m.DLQEvents, events...)
	return nil
}

// Buffered returns a copy of the buffered events.
func (m *MockAuditRepository) Buffered() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEvent, len(m.BufferedEvents))
	copy(out, m.BufferedEvents)
	return out
}

// MockAnswerCache is an in-memory domain.AnswerCache.
type MockAnswerCache struct {
	mu      sync.Mutex
	Entries map[string]domain.Answer
	GetErr  error
	SetErr  error
	Gets    int
	Sets    int
}

func (m *MockAnswerCache) Get(ctx context.Context, key string) (domain.Answer, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return domain.Answer{}, false, m.GetErr
	}
	a, ok := m.Entries[key]
	return a, ok, nil
}

func (m *MockAnswerCache) Set(ctx context.Context, key string, answer domain.Answer, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Entries == nil {
		m.Entries = make(map[string]domain.Answer)
	}
	m.Entries[key] = answer
	return nil
}

// Keys returns the cached keys.
func (m *MockAnswerCache) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	return keys
}

// MockReloadPublisher records published tenant IDs.
type MockReloadPublisher struct {
	mu        sync.Mutex
	Published []string
	Err       error
}

func (m *MockReloadPublisher) PublishReload(ctx context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, tenantID)
	return nil
}

// MockStreamAdminRepository returns canned stream views.
type MockStreamAdminRepository struct {
	Summary    *domain.AuditStreamSummary
	LastRecent int64
	Groups     []domain.ConsumerGroupInfo
	Consumers  []domain.ConsumerInfo
	Pending    *domain.PendingMessageSummary
	Trimmed    int64
	Err        error
}

func (m *MockStreamAdminRepository) GetStreamSummary(ctx context.Context, stream string, recent int64) (*domain.AuditStreamSummary, error) {
	m.LastRecent = recent
	return m.Summary, m.Err
}

func (m *MockStreamAdminRepository) GetGroupInfo(ctx context.Context, stream string) ([]domain.ConsumerGroupInfo, error) {
	return m.Groups, m.Err
}

func (m *MockStreamAdminRepository) GetConsumerInfo(ctx context.Context, stream, group string) ([]domain.ConsumerInfo, error) {
	return m.Consumers, m.Err
}

func (m *MockStreamAdminRepository) GetPendingSummary(ctx context.Context, stream, group string) (*domain.PendingMessageSummary, error) {
	return m.Pending, m.Err
}

func (m *MockStreamAdminRepository) TrimStream(ctx context.Context, stream string, maxLen int64) (int64, error) {
	return m.Trimmed, m.Err
}
