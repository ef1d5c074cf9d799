package memory

import pgvector "github.com/pgvector/pgvector-go"

// NewEmbeddingVector adapts a raw embedding slice into the pgvector value
// the archive's columns are typed as.
func NewEmbeddingVector(v []float32) pgvector.Vector {
	return pgvector.NewVector(v)
}
