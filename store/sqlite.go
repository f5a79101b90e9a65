package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/marsscrape/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const (
	selectSnapshot = `SELECT record FROM mars_snapshot WHERE id = 1`

	upsertSnapshot = `INSERT INTO mars_snapshot (id, record, scraped_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET record = excluded.record, scraped_at = excluded.scraped_at`
)

// SQLite stores the snapshot as JSON in a single-row table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// Every pooled connection to ":memory:" would be a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Latest(ctx context.Context) (*models.Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, selectSnapshot).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "failed to read snapshot", err)
	}

	var rec models.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStore, "stored snapshot is corrupt", err)
	}
	return &rec, nil
}

func (s *SQLite) Replace(ctx context.Context, rec *models.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeStore, "failed to encode snapshot", err)
	}
	_, err = s.db.ExecContext(ctx, upsertSnapshot, string(raw), rec.ScrapedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeStore, "failed to write snapshot", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
