// Package session persists conversation state between turns. It supports
// pluggable backends: an in-memory store with TTL sweeping for tests and
// single-node deployments, and a redis store for anything shared.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
)

// Standard errors for session store operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID is returned when the session id is empty.
	ErrInvalidID = errors.New("invalid session id")

	// ErrInvalidInput is returned when the session is nil or has no id.
	ErrInvalidInput = errors.New("invalid session")
)

// Store persists sessions. Implementations must be safe for concurrent use.
// Save stamps UpdatedAt and refreshes the backend TTL; sessions past their
// TTL surface as ErrNotFound.
type Store interface {
	// Get retrieves a session by id.
	Get(ctx context.Context, id string) (*Session, error)

	// Save upserts a session and refreshes its TTL.
	Save(ctx context.Context, sess *Session) error

	// Delete removes a session by id.
	Delete(ctx context.Context, id string) error

	// AddMessage appends one history entry to a stored session.
	AddMessage(ctx context.Context, id, role, content string) error

	// CheckConnection verifies the backend is reachable.
	CheckConnection(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// NewStore builds the configured session store backend.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		logging.Infof("Creating memory session store (max_sessions=%d, ttl=%ds)",
			cfg.MaxSessions, cfg.TTLSeconds)
		return NewMemoryStore(cfg), nil

	case "redis":
		logging.Infof("Creating redis session store at %s", cfg.Redis.Address)
		return NewRedisStore(cfg)

	default:
		return nil, fmt.Errorf("unknown session backend: %s (supported: memory, redis)", cfg.Backend)
	}
}
