package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore keeps the dataset in a slice and matches in process. Matching
// looks at every language's name at once, so Arabic queries find records
// seeded with English IDs and vice versa.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
}

// NewMemoryStore creates a store over a copy of records. Seed order is
// preserved and acts as the tie-breaker for equally ranked matches.
func NewMemoryStore(records []Record) *MemoryStore {
	store := &MemoryStore{
		records: make([]Record, 0, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	for _, rec := range records {
		store.add(rec)
	}
	return store
}

func (m *MemoryStore) add(rec Record) {
	if idx, ok := m.byID[rec.ID]; ok {
		m.records[idx] = rec.clone()
		return
	}
	m.byID[rec.ID] = len(m.records)
	m.records = append(m.records, rec.clone())
}

// Upsert inserts or replaces a record by ID.
func (m *MemoryStore) Upsert(rec Record) error {
	if rec.ID == "" || rec.Type == "" {
		return fmt.Errorf("record needs an id and a type")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(rec)
	return nil
}

func (m *MemoryStore) SearchAttractions(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return m.search(TypeAttraction, query, filters, limit), nil
}

func (m *MemoryStore) SearchRestaurants(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return m.search(TypeRestaurant, query, filters, limit), nil
}

func (m *MemoryStore) SearchHotels(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return m.search(TypeHotel, query, filters, limit), nil
}

func (m *MemoryStore) SearchEvents(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return m.search(TypeEvent, query, filters, limit), nil
}

func (m *MemoryStore) SearchFAQs(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return m.search(TypeFAQ, query, filters, limit), nil
}

func (m *MemoryStore) search(recType, query string, filters map[string]string, limit int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rankRecords(m.records, recType, query, filters, limit)
}

func (m *MemoryStore) LookupAttraction(ctx context.Context, name, language string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := bestNameMatch(m.records, TypeAttraction, name)
	return rec, ok, nil
}

func (m *MemoryStore) LookupLocation(ctx context.Context, name, language string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := bestNameMatch(m.records, TypeLocation, name)
	return rec, ok, nil
}

func (m *MemoryStore) GetPracticalInfo(ctx context.Context, category, language string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.Type != TypePracticalInfo {
			continue
		}
		if strings.EqualFold(rec.Fields["category"], category) || rec.ID == category {
			return rec.clone(), nil
		}
	}
	return Record{}, fmt.Errorf("practical info %q: %w", category, ErrNotFound)
}

func (m *MemoryStore) ListItineraries(ctx context.Context, days int, language string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if rec.Type != TypeItinerary {
			continue
		}
		if days > 0 && rec.Fields["days"] != strconv.Itoa(days) {
			continue
		}
		out = append(out, rec.clone())
	}
	return out, nil
}

func (m *MemoryStore) ResolveEntity(ctx context.Context, entityType, value, language string) (string, bool, error) {
	recType, ok := resolvableType(entityType)
	if !ok {
		return "", false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := bestNameMatch(m.records, recType, value)
	if !ok {
		return "", false, nil
	}
	return rec.ID, true, nil
}

// resolvableType maps entity types onto record types. Entity types without a
// backing record domain are not resolvable.
func resolvableType(entityType string) (string, bool) {
	switch entityType {
	case "attraction":
		return TypeAttraction, true
	case "location":
		return TypeLocation, true
	default:
		return "", false
	}
}

func (m *MemoryStore) CheckConnection(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// Count reports the number of stored records.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
