package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RohanKhanal14/lambda-monorepo/internal/storage"
)

// Store is a SQLite implementation of DeliveryStore.
type Store struct {
	db *sql.DB
}

var _ storage.DeliveryStore = (*Store)(nil)

// New opens (creating if needed) the delivery journal at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			repo TEXT,
			ref TEXT,
			before_sha TEXT,
			after_sha TEXT,
			changed_files INTEGER NOT NULL DEFAULT 0,
			pipelines TEXT,
			results TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_created ON deliveries(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_repo ON deliveries(repo)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) RecordDelivery(ctx context.Context, d *storage.Delivery) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	pipelines, err := json.Marshal(d.Pipelines)
	if err != nil {
		return fmt.Errorf("marshal pipelines: %w", err)
	}
	results, err := json.Marshal(d.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `INSERT INTO deliveries (id, event, repo, ref, before_sha, after_sha, changed_files, pipelines, results, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		d.ID, d.Event, d.Repo, d.Ref, d.Before, d.After,
		d.ChangedFiles, string(pipelines), string(results), d.CreatedAt)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}

	return nil
}

func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]*storage.Delivery, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, event, repo, ref, before_sha, after_sha, changed_files, pipelines, results, created_at
	          FROM deliveries ORDER BY created_at DESC, id LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*storage.Delivery
	for rows.Next() {
		var d storage.Delivery
		var pipelines, results string
		if err := rows.Scan(&d.ID, &d.Event, &d.Repo, &d.Ref, &d.Before, &d.After,
			&d.ChangedFiles, &pipelines, &results, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if pipelines != "" {
			if err := json.Unmarshal([]byte(pipelines), &d.Pipelines); err != nil {
				return nil, fmt.Errorf("unmarshal pipelines: %w", err)
			}
		}
		if results != "" {
			if err := json.Unmarshal([]byte(results), &d.Results); err != nil {
				return nil, fmt.Errorf("unmarshal results: %w", err)
			}
		}
		out = append(out, &d)
	}

	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
