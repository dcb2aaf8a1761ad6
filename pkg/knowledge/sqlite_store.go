package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// SQLiteStore persists records in a single table with the localized payload
// as a JSON column. Rows are prefiltered by type in SQL and ranked in Go with
// the same matcher as the memory store, so both backends order results
// identically. The dataset is a curated tourism corpus, small enough that
// per-type scans stay cheap.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLiteStore opens (or creates) the database, applies the schema, and
// loads the seed file when the table is empty.
func NewSQLiteStore(cfg config.KnowledgeConfig) (*SQLiteStore, error) {
	if cfg.SQLitePath == "" {
		return nil, fmt.Errorf("sqlite knowledge backend requires a database path")
	}

	dsn := cfg.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &SQLiteStore{db: db, timeout: cfg.Timeout()}

	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping knowledge database: %w", err)
	}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.seedIfEmpty(ctx, cfg.SeedFile); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id       TEXT PRIMARY KEY,
		type     TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		data     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_type ON records(type);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize knowledge schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) seedIfEmpty(ctx context.Context, seedFile string) error {
	if seedFile == "" {
		return nil
	}
	count, err := s.count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	records, err := LoadSeed(seedFile)
	if err != nil {
		return fmt.Errorf("failed to load knowledge seed: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	for _, rec := range records {
		if err := upsertTx(ctx, tx, rec); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit knowledge seed: %w", err)
	}
	logging.Infof("Seeded knowledge database with %d records from %s", len(records), seedFile)
	return nil
}

// Upsert inserts or replaces a record by ID. The row keeps its rowid on
// update so seed order remains the ranking tie-breaker.
func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" || rec.Type == "" {
		return fmt.Errorf("record needs an id and a type")
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return upsertTx(ctx, s.db, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertTx(ctx context.Context, db execer, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	const stmt = `
	INSERT INTO records (id, type, location, data) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET type = excluded.type, location = excluded.location, data = excluded.data
	`
	if _, err := db.ExecContext(ctx, stmt, rec.ID, rec.Type, rec.Location, string(data)); err != nil {
		metrics.RecordStoreError("knowledge_sqlite", "upsert")
		return fmt.Errorf("failed to store record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) SearchAttractions(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return s.search(ctx, TypeAttraction, query, filters, limit)
}

func (s *SQLiteStore) SearchRestaurants(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return s.search(ctx, TypeRestaurant, query, filters, limit)
}

func (s *SQLiteStore) SearchHotels(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return s.search(ctx, TypeHotel, query, filters, limit)
}

func (s *SQLiteStore) SearchEvents(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return s.search(ctx, TypeEvent, query, filters, limit)
}

func (s *SQLiteStore) SearchFAQs(ctx context.Context, query string, filters map[string]string, language string, limit int) ([]Record, error) {
	return s.search(ctx, TypeFAQ, query, filters, limit)
}

func (s *SQLiteStore) search(ctx context.Context, recType, query string, filters map[string]string, limit int) ([]Record, error) {
	records, err := s.loadByType(ctx, recType)
	if err != nil {
		return nil, err
	}
	return rankRecords(records, recType, query, filters, limit), nil
}

func (s *SQLiteStore) LookupAttraction(ctx context.Context, name, language string) (Record, bool, error) {
	return s.lookup(ctx, TypeAttraction, name)
}

func (s *SQLiteStore) LookupLocation(ctx context.Context, name, language string) (Record, bool, error) {
	return s.lookup(ctx, TypeLocation, name)
}

func (s *SQLiteStore) lookup(ctx context.Context, recType, name string) (Record, bool, error) {
	records, err := s.loadByType(ctx, recType)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := bestNameMatch(records, recType, name)
	return rec, ok, nil
}

func (s *SQLiteStore) GetPracticalInfo(ctx context.Context, category, language string) (Record, error) {
	records, err := s.loadByType(ctx, TypePracticalInfo)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range records {
		if strings.EqualFold(rec.Fields["category"], category) || rec.ID == category {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("practical info %q: %w", category, ErrNotFound)
}

func (s *SQLiteStore) ListItineraries(ctx context.Context, days int, language string) ([]Record, error) {
	records, err := s.loadByType(ctx, TypeItinerary)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range records {
		if days > 0 && rec.Fields["days"] != strconv.Itoa(days) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQLiteStore) ResolveEntity(ctx context.Context, entityType, value, language string) (string, bool, error) {
	recType, ok := resolvableType(entityType)
	if !ok {
		return "", false, nil
	}
	rec, ok, err := s.lookup(ctx, recType, value)
	if err != nil || !ok {
		return "", false, err
	}
	return rec.ID, true, nil
}

// loadByType reads all rows of one type in insertion order and decodes the
// JSON payload.
func (s *SQLiteStore) loadByType(ctx context.Context, recType string) ([]Record, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM records WHERE type = ? ORDER BY rowid`, recType)
	if err != nil {
		metrics.RecordStoreError("knowledge_sqlite", "query")
		return nil, fmt.Errorf("failed to query records of type %s: %w", recType, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			metrics.RecordStoreError("knowledge_sqlite", "scan")
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			logging.Warnf("Skipping undecodable knowledge record: %v", err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError("knowledge_sqlite", "iterate")
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// opContext bounds a single store operation with the configured timeout when
// the caller's context carries no deadline of its own.
func (s *SQLiteStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SQLiteStore) CheckConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
