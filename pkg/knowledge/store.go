// Package knowledge stores the tourism dataset and answers the structured
// queries the dialog layer produces: typed searches, name lookups, practical
// info by category, and itineraries by length. Stores also resolve extracted
// entity values to record IDs, which is how the NLU layer upgrades a fuzzy
// surface form into a canonical reference.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
)

// Search pagination bounds.
const (
	defaultSearchLimit = 5
	maxSearchLimit     = 25
)

// ErrNotFound is returned when no record answers the query.
var ErrNotFound = errors.New("knowledge record not found")

// Store is the query surface over the tourism dataset. Search methods return
// at most limit records ranked by match quality; a missing match is an empty
// slice, not an error. Lookup methods return ok=false when nothing is close
// enough. GetPracticalInfo returns ErrNotFound for unknown categories.
type Store interface {
	SearchAttractions(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error)
	SearchRestaurants(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error)
	SearchHotels(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error)
	SearchEvents(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error)
	SearchFAQs(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error)

	LookupAttraction(ctx context.Context, name, language string) (Record, bool, error)
	LookupLocation(ctx context.Context, name, language string) (Record, bool, error)

	GetPracticalInfo(ctx context.Context, category, language string) (Record, error)
	ListItineraries(ctx context.Context, days int, language string) ([]Record, error)

	// ResolveEntity maps an extracted entity value to a record ID. The
	// signature matches the NLU layer's resolver dependency, so a Store
	// plugs in directly.
	ResolveEntity(ctx context.Context, entityType, value, language string) (string, bool, error)

	CheckConnection(ctx context.Context) error
	Close() error
}

// NewStore creates a knowledge store for the configured backend and loads the
// seed dataset into it.
func NewStore(cfg config.KnowledgeConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		records, err := LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge seed: %w", err)
		}
		logging.Infof("Creating in-memory knowledge store with %d seed records", len(records))
		return NewMemoryStore(records), nil
	case "sqlite":
		logging.Infof("Creating sqlite knowledge store at %s", cfg.SQLitePath)
		return NewSQLiteStore(cfg)
	default:
		return nil, fmt.Errorf("unknown knowledge backend: %s (supported: memory, sqlite)", cfg.Backend)
	}
}
