package memory

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Role is the speaker tag on a recorded exchange.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Exchange is one role-tagged message in the append-only recent-exchanges
// log.
type Exchange struct {
	ID         int64
	NotebookID string
	Role       Role
	Content    string
	Topic      string
	Entity     string
	Timestamp  time.Time
	Summarized bool
}

// RecentExchanges is the SQLite-backed, WAL-journaled recent-exchanges
// tier. It also holds the archive access-counter side table, since the
// archive itself is write-once.
type RecentExchanges struct {
	db *sql.DB
}

// NewRecentExchanges opens (creating if absent) <dataDir>/memory/recall_memory.db
// with WAL journaling and a 5s busy-timeout, per the shared-file access
// pattern the archive and recent tiers both rely on.
func NewRecentExchanges(ctx context.Context, dataDir string) (*RecentExchanges, error) {
	path := filepath.Join(dataDir, "memory", "recall_memory.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening recent-exchanges db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		notebook_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		topic TEXT,
		entity TEXT,
		timestamp DATETIME NOT NULL,
		summarized INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_notebook ON exchanges(notebook_id, timestamp);

	CREATE TABLE IF NOT EXISTS archive_access_counters (
		archive_record_id TEXT PRIMARY KEY,
		access_count INTEGER NOT NULL DEFAULT 0,
		last_accessed_at DATETIME
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing recent-exchanges schema: %w", err)
	}

	return &RecentExchanges{db: db}, nil
}

// Close closes the underlying database handle.
func (r *RecentExchanges) Close() error { return r.db.Close() }

// Append records one exchange. The log is append-only; nothing ever
// updates or deletes a row here except the summarization-compaction flag
// flip below.
func (r *RecentExchanges) Append(ctx context.Context, e Exchange) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchanges (notebook_id, role, content, topic, entity, timestamp, summarized) VALUES (?, ?, ?, ?, ?, ?, 0)`,
		e.NotebookID, e.Role, e.Content, e.Topic, e.Entity, e.Timestamp)
	return err
}

// Since returns every exchange for a notebook at or after ts, oldest first
// — a single consistent read per notebook, per the briefing pipeline's
// snapshot requirement.
func (r *RecentExchanges) Since(ctx context.Context, notebookID string, ts time.Time) ([]Exchange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, notebook_id, role, content, topic, entity, timestamp, summarized
		 FROM exchanges WHERE notebook_id = ? AND timestamp >= ? ORDER BY timestamp ASC`,
		notebookID, ts)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		var summarized int
		if err := rows.Scan(&e.ID, &e.NotebookID, &e.Role, &e.Content, &e.Topic, &e.Entity, &e.Timestamp, &summarized); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		e.Summarized = summarized != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// UnsummarizedCount reports how many exchanges for a notebook have not yet
// been folded into the archive — the Ambient Orchestrator's compression
// trigger compares this against a threshold of 100.
func (r *RecentExchanges) UnsummarizedCount(ctx context.Context, notebookID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exchanges WHERE notebook_id = ? AND summarized = 0`, notebookID).Scan(&n)
	return n, err
}

// MarkSummarized flips the summarized flag for a batch of exchange IDs,
// idempotently — re-marking an already-summarized row is a no-op.
func (r *RecentExchanges) MarkSummarized(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `UPDATE exchanges SET summarized = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("marking exchange %d summarized: %w", id, err)
		}
	}
	return nil
}

// BumpArchiveAccess increments the side-table access counter for an
// archive record, working around the vector store's write-once records.
func (r *RecentExchanges) BumpArchiveAccess(ctx context.Context, archiveRecordID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO archive_access_counters (archive_record_id, access_count, last_accessed_at)
		VALUES (?, 1, ?)
		ON CONFLICT(archive_record_id) DO UPDATE SET
			access_count = access_count + 1,
			last_accessed_at = excluded.last_accessed_at`,
		archiveRecordID, time.Now())
	return err
}
