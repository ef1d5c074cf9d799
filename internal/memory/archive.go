// Package memory implements the three-tier memory store: working facts,
// recent exchanges, and the long-term vector-indexed archive.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kestrelresearch/scout/internal/store"
)

// Namespace is the archive access-control tag carried by every record.
type Namespace string

const (
	NamespaceSystem     Namespace = "SYSTEM"
	NamespaceSupervisor Namespace = "SUPERVISOR"
	NamespaceGatherer   Namespace = "GATHERER"
)

// ArchiveRecord is one write-once entry in the long-term archive.
type ArchiveRecord struct {
	ID               string
	Content          string
	ContentType      string
	SourceType       string
	SourceNotebookID string
	Topics           []string
	Entities         []string
	Importance       float64
	Namespace        Namespace
	Embedding        pgvector.Vector
	CreatedAt        time.Time
}

// ArchiveCreateInput is the input for writing a new archive record.
type ArchiveCreateInput struct {
	Content          string
	ContentType      string
	SourceType       string
	SourceNotebookID string
	Topics           []string
	Entities         []string
	Importance       float64
	Namespace        Namespace
	Embedding        pgvector.Vector
}

// ArchiveSearchInput is a namespace-scoped semantic search request.
type ArchiveSearchInput struct {
	QueryEmbedding pgvector.Vector
	Limit          int
	MinSimilarity  float64
	// Reader identifies who is asking: the Supervisor, or one notebook's
	// Gatherer. Exactly one of these should be set.
	AsSupervisor     bool
	AsGathererNotebook string
	// CrossNotebook, only meaningful when AsSupervisor is true, lifts the
	// restriction to the Supervisor's own namespace and allows reading all
	// namespaces across all notebooks.
	CrossNotebook bool
}

// ArchiveSearchResult is an archive record with its similarity score.
type ArchiveSearchResult struct {
	ArchiveRecord
	Similarity float64
}

// Archive is the Postgres + pgvector backed long-term tier. Records are
// immutable once written; the access-counter side table lives in the
// recent-exchanges SQLite store since the vector store has no in-place
// update primitive worth relying on.
type Archive struct {
	db *store.DB
}

// NewArchive returns an Archive bound to db.
func NewArchive(db *store.DB) *Archive {
	return &Archive{db: db}
}

// Write inserts a new, immutable archive record.
func (a *Archive) Write(ctx context.Context, input ArchiveCreateInput) (*ArchiveRecord, error) {
	query := `
		INSERT INTO archive_records (content, content_type, source_type, source_notebook_id, topics, entities, importance, namespace, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, content, content_type, source_type, source_notebook_id, topics, entities, importance, namespace, created_at`

	rec := &ArchiveRecord{}
	err := a.db.Pool.QueryRow(ctx, query,
		input.Content, input.ContentType, input.SourceType, input.SourceNotebookID,
		input.Topics, input.Entities, input.Importance, input.Namespace, input.Embedding,
	).Scan(
		&rec.ID, &rec.Content, &rec.ContentType, &rec.SourceType, &rec.SourceNotebookID,
		&rec.Topics, &rec.Entities, &rec.Importance, &rec.Namespace, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("writing archive record: %w", err)
	}
	return rec, nil
}

// Search performs a namespace-scoped cosine-similarity search. Namespace
// violations fail closed: they return an empty result and no error, so
// "not permitted" and "nothing matched" look the same to the caller.
func (a *Archive) Search(ctx context.Context, notebookID string, input ArchiveSearchInput) ([]ArchiveSearchResult, error) {
	var conditions []string
	var args []any
	argN := 1

	switch {
	case input.AsSupervisor && input.CrossNotebook:
		// Supervisor with cross_notebook=true may read every namespace.
	case input.AsSupervisor:
		conditions = append(conditions, fmt.Sprintf("(namespace = 'SYSTEM' OR namespace = 'SUPERVISOR')"))
	case input.AsGathererNotebook != "":
		conditions = append(conditions, fmt.Sprintf(
			"(namespace = 'SYSTEM' OR (namespace = 'GATHERER' AND source_notebook_id = $%d))", argN))
		args = append(args, input.AsGathererNotebook)
		argN++
	default:
		// Neither reader role specified: fail closed.
		return nil, nil
	}

	embeddingArgN := argN
	args = append(args, input.QueryEmbedding)
	argN++

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	minSim := input.MinSimilarity
	if minSim <= 0 {
		minSim = 0.3
	}

	where := ""
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ") + " AND "
	}

	query := fmt.Sprintf(`
		SELECT id, content, content_type, source_type, source_notebook_id, topics, entities, importance, namespace, created_at,
		       (1 - (embedding <=> $%d))::FLOAT AS similarity
		FROM archive_records
		WHERE %sembedding IS NOT NULL
		  AND (1 - (embedding <=> $%d)) >= %f
		ORDER BY embedding <=> $%d
		LIMIT %d`,
		embeddingArgN, where, embeddingArgN, minSim, embeddingArgN, limit)

	rows, err := a.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var results []ArchiveSearchResult
	for rows.Next() {
		var r ArchiveSearchResult
		if err := rows.Scan(
			&r.ID, &r.Content, &r.ContentType, &r.SourceType, &r.SourceNotebookID,
			&r.Topics, &r.Entities, &r.Importance, &r.Namespace, &r.CreatedAt, &r.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scanning archive result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetByID returns a single record if the reader's namespace scope permits
// it, and (nil, nil) otherwise — same fail-closed contract as Search.
func (a *Archive) GetByID(ctx context.Context, id string, asSupervisor bool, crossNotebook bool, gathererNotebook string) (*ArchiveRecord, error) {
	rec := &ArchiveRecord{}
	err := a.db.Pool.QueryRow(ctx, `
		SELECT id, content, content_type, source_type, source_notebook_id, topics, entities, importance, namespace, created_at
		FROM archive_records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Content, &rec.ContentType, &rec.SourceType, &rec.SourceNotebookID,
		&rec.Topics, &rec.Entities, &rec.Importance, &rec.Namespace, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting archive record: %w", err)
	}

	if !canAccess(rec, asSupervisor, crossNotebook, gathererNotebook) {
		return nil, nil
	}
	return rec, nil
}

// canAccess implements the namespace isolation rule: SYSTEM is visible to
// all, SUPERVISOR to any Supervisor read, GATHERER only to the owning
// notebook's Gatherer and to a cross-notebook Supervisor read. Any other
// namespace is denied.
func canAccess(rec *ArchiveRecord, asSupervisor, crossNotebook bool, gathererNotebook string) bool {
	switch rec.Namespace {
	case NamespaceSystem:
		return true
	case NamespaceSupervisor:
		return asSupervisor
	case NamespaceGatherer:
		return (asSupervisor && crossNotebook) || (gathererNotebook != "" && gathererNotebook == rec.SourceNotebookID)
	default:
		return false
	}
}
