// Package sourcestore implements the external persistent store of approved
// sources on top of the shared Postgres pool, the same backing store used
// by the long-term archive tier.
package sourcestore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/store"
)

// Store is a Postgres-backed external.SourceStore.
type Store struct {
	db *store.DB
}

// New returns a Store bound to db.
func New(db *store.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new approved source record.
func (s *Store) Create(ctx context.Context, rec external.SourceRecord) (external.SourceRecord, error) {
	query := `
		INSERT INTO source_records (notebook_id, title, url, status, tags, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, notebook_id, title, url, status, tags, content, created_at`

	out := external.SourceRecord{}
	err := s.db.Pool.QueryRow(ctx, query,
		rec.NotebookID, rec.Title, rec.URL, rec.Status, rec.Tags, rec.Content,
	).Scan(&out.ID, &out.NotebookID, &out.Title, &out.URL, &out.Status, &out.Tags, &out.Content, &out.CreatedAt)
	if err != nil {
		return external.SourceRecord{}, fmt.Errorf("creating source record: %w", err)
	}
	return out, nil
}

// Update overwrites the mutable fields of an existing source record.
func (s *Store) Update(ctx context.Context, rec external.SourceRecord) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE source_records
		SET title = $2, url = $3, status = $4, tags = $5, content = $6
		WHERE id = $1`,
		rec.ID, rec.Title, rec.URL, rec.Status, rec.Tags, rec.Content)
	if err != nil {
		return fmt.Errorf("updating source record: %w", err)
	}
	return nil
}

// List returns every source for one notebook, newest first.
func (s *Store) List(ctx context.Context, notebookID string) ([]external.SourceRecord, error) {
	return s.query(ctx, `
		SELECT id, notebook_id, title, url, status, tags, content, created_at
		FROM source_records WHERE notebook_id = $1 ORDER BY created_at DESC`, notebookID)
}

// ListAll returns every source record across every notebook, newest first.
func (s *Store) ListAll(ctx context.Context) ([]external.SourceRecord, error) {
	return s.query(ctx, `
		SELECT id, notebook_id, title, url, status, tags, content, created_at
		FROM source_records ORDER BY created_at DESC`)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]external.SourceRecord, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing source records: %w", err)
	}
	defer rows.Close()

	var out []external.SourceRecord
	for rows.Next() {
		var r external.SourceRecord
		if err := rows.Scan(&r.ID, &r.NotebookID, &r.Title, &r.URL, &r.Status, &r.Tags, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning source record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns a single source record by ID.
func (s *Store) Get(ctx context.Context, id string) (external.SourceRecord, error) {
	var r external.SourceRecord
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, notebook_id, title, url, status, tags, content, created_at
		FROM source_records WHERE id = $1`, id,
	).Scan(&r.ID, &r.NotebookID, &r.Title, &r.URL, &r.Status, &r.Tags, &r.Content, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return external.SourceRecord{}, fmt.Errorf("source record %s not found", id)
		}
		return external.SourceRecord{}, fmt.Errorf("getting source record: %w", err)
	}
	return r, nil
}

// Delete removes a source record.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM source_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting source record: %w", err)
	}
	return nil
}

// SetTags overwrites a source record's tag list.
func (s *Store) SetTags(ctx context.Context, id string, tags []string) error {
	_, err := s.db.Pool.Exec(ctx, `UPDATE source_records SET tags = $2 WHERE id = $1`, id, tags)
	if err != nil {
		return fmt.Errorf("setting source record tags: %w", err)
	}
	return nil
}
