package session

import (
	"context"
	"sync"
	"time"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// sweepInterval is how often the background sweeper prunes expired sessions.
// Expiry is also checked lazily on Get, so reads never see a stale session
// between sweeps.
const sweepInterval = time.Minute

// MemoryStore is an in-memory Store. When capacity is reached the
// least-recently-updated session is evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl         time.Duration
	maxSessions int
	maxHistory  int

	done chan struct{}
}

// NewMemoryStore creates an in-memory session store and starts its expiry
// sweeper.
func NewMemoryStore(cfg config.SessionConfig) *MemoryStore {
	store := &MemoryStore{
		sessions:    make(map[string]*Session),
		ttl:         cfg.SessionTTL(),
		maxSessions: cfg.MaxSessions,
		maxHistory:  cfg.MaxHistory,
		done:        make(chan struct{}),
	}
	go store.sweep()
	return store
}

// Get retrieves a session by id, treating expired sessions as absent.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(sess, time.Now()) {
		delete(m.sessions, id)
		metrics.DecActiveSessions()
		return nil, ErrNotFound
	}
	return sess.clone(), nil
}

// Save upserts a session, stamping UpdatedAt. Inserting a new session at
// capacity evicts the least-recently-updated one.
func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess.UpdatedAt = time.Now().UTC()

	if _, exists := m.sessions[sess.ID]; !exists {
		if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
			m.evictOldest()
		}
		metrics.IncActiveSessions()
	}
	m.sessions[sess.ID] = sess.clone()
	return nil
}

// Delete removes a session by id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	metrics.DecActiveSessions()
	return nil
}

// AddMessage appends one history entry to a stored session.
func (m *MemoryStore) AddMessage(_ context.Context, id, role, content string) error {
	if id == "" {
		return ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok || m.expired(sess, time.Now()) {
		return ErrNotFound
	}
	sess.AppendMessage(role, content, m.maxHistory)
	return nil
}

// CheckConnection always succeeds for the memory backend.
func (m *MemoryStore) CheckConnection(_ context.Context) error {
	return nil
}

// Close stops the sweeper and releases all sessions.
func (m *MemoryStore) Close() error {
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
	return nil
}

// Count returns the number of stored sessions, expired or not.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(sess *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(sess.UpdatedAt) > m.ttl
}

// evictOldest removes the least-recently-updated session. Caller holds the
// write lock.
func (m *MemoryStore) evictOldest() {
	var oldestID string
	var oldestAt time.Time
	for id, sess := range m.sessions {
		if oldestID == "" || sess.UpdatedAt.Before(oldestAt) {
			oldestID, oldestAt = id, sess.UpdatedAt
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		metrics.DecActiveSessions()
	}
}

func (m *MemoryStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for id, sess := range m.sessions {
				if m.expired(sess, now) {
					delete(m.sessions, id)
					metrics.DecActiveSessions()
				}
			}
			m.mu.Unlock()
		}
	}
}
