// Package simple provides deterministic, dependency-free fallback
// implementations of the embedding and chat-completion capability
// contracts, used when no external model backend is configured.
package simple

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/kestrelresearch/scout/internal/external"
)

// Embedder generates pseudo-embeddings by hashing words into vector
// dimensions. Not semantically meaningful, but deterministic and
// sufficient for exercising dedup/similarity code paths without a real
// model backend.
type Embedder struct{}

// NewEmbedder returns a deterministic fallback Embedder.
func NewEmbedder() *Embedder { return &Embedder{} }

// Dimensions returns external.Dimensions.
func (e *Embedder) Dimensions() int { return external.Dimensions }

// Embed hashes words (and bigrams, to capture some ordering) into
// dimension indices and L2-normalizes the result.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	dims := external.Dimensions
	vec := make([]float32, dims)

	words := tokenize(text)
	for _, word := range words {
		idx := hashTo(word, dims)
		vec[idx] += 1.0
	}
	for i := 0; i < len(words)-1; i++ {
		idx := hashTo(words[i]+" "+words[i+1], dims)
		vec[idx] += 0.5
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func hashTo(s string, dims int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64() % uint64(dims)
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	for _, c := range ".,;:!?()[]{}\"'`~@#$%^&*+=|\\/<>" {
		text = strings.ReplaceAll(text, string(c), " ")
	}
	fields := strings.Fields(text)
	var out []string
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// ChatCompleter is a sentinel fallback that never calls out to a model; it
// returns an empty response so callers exercise their deterministic
// fallback paths (judgment -> DEFER_TO_USER, discovery -> default intent
// analysis and flat-confidence ranking, briefing -> structured summary).
type ChatCompleter struct{}

// NewChatCompleter returns the sentinel fallback completer.
func NewChatCompleter() *ChatCompleter { return &ChatCompleter{} }

func (c *ChatCompleter) Complete(_ context.Context, _, _ string, _ external.ChatOptions) (string, error) {
	return "", nil
}
