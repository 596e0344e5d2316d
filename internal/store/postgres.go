package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // registers the "postgres" driver
	"github.com/meetinsight/meeting-insight/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS meeting_analyses (
	id          UUID PRIMARY KEY,
	filename    TEXT NOT NULL,
	method      TEXT NOT NULL,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps analyses in PostgreSQL. Roles, settings and uploads
// remain on the FileStore.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, pings and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// AppendAnalyses inserts all analyses in one transaction.
func (s *PostgresStore) AppendAnalyses(ctx context.Context, analyses []model.Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
	INSERT INTO meeting_analyses (id, filename, method, data, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`
	for _, a := range analyses {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode analysis %s: %w", a.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, a.ID, a.Metadata.Filename, a.AnalysisMethod, data, a.CreatedAt); err != nil {
			return fmt.Errorf("insert analysis %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// ListAnalyses returns every analysis, oldest first.
func (s *PostgresStore) ListAnalyses(ctx context.Context) ([]model.Analysis, error) {
	const query = `SELECT data FROM meeting_analyses ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	analyses := []model.Analysis{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a model.Analysis
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("decode analysis row: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
