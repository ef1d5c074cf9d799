package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kestrelresearch/scout/internal/collect"
)

// Signals is the append-only user-signal log, sharing the recent-exchanges
// SQLite handle since both are per-notebook FIFO logs with the same
// durability requirements.
type Signals struct {
	re *RecentExchanges
}

// NewSignals returns a Signals log backed by re's database handle.
func NewSignals(re *RecentExchanges) (*Signals, error) {
	schema := `CREATE TABLE IF NOT EXISTS user_signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		notebook_id TEXT NOT NULL,
		signal_type TEXT NOT NULL,
		item_id TEXT,
		query TEXT,
		timestamp DATETIME NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_signals_notebook ON user_signals(notebook_id, timestamp);`
	if _, err := re.db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initializing signals schema: %w", err)
	}
	return &Signals{re: re}, nil
}

// Record appends one signal. Signals are never mutated; the log is
// monotonically non-decreasing in count for a given notebook.
func (s *Signals) Record(ctx context.Context, sig collect.UserSignal) error {
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	meta, err := json.Marshal(sig.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling signal metadata: %w", err)
	}
	_, err = s.re.db.ExecContext(ctx,
		`INSERT INTO user_signals (notebook_id, signal_type, item_id, query, timestamp, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
		sig.NotebookID, sig.Type, sig.ItemID, sig.Query, sig.Timestamp, string(meta))
	return err
}

// Since returns every signal for a notebook at or after ts, oldest first.
func (s *Signals) Since(ctx context.Context, notebookID string, ts time.Time) ([]collect.UserSignal, error) {
	rows, err := s.re.db.QueryContext(ctx,
		`SELECT signal_type, item_id, query, timestamp, metadata FROM user_signals
		 WHERE notebook_id = ? AND timestamp >= ? ORDER BY timestamp ASC`,
		notebookID, ts)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	var out []collect.UserSignal
	for rows.Next() {
		var sig collect.UserSignal
		var itemID, query, metaRaw *string
		if err := rows.Scan(&sig.Type, &itemID, &query, &sig.Timestamp, &metaRaw); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		sig.NotebookID = notebookID
		if itemID != nil {
			sig.ItemID = *itemID
		}
		if query != nil {
			sig.Query = *query
		}
		if metaRaw != nil && *metaRaw != "" {
			_ = json.Unmarshal([]byte(*metaRaw), &sig.Metadata)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// Count returns the total number of signals recorded for a notebook,
// usable as a coarse law-check that the log only ever grows.
func (s *Signals) Count(ctx context.Context, notebookID string) (int, error) {
	var n int
	err := s.re.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_signals WHERE notebook_id = ?`, notebookID).Scan(&n)
	return n, err
}
