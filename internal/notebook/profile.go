// Package notebook defines the Notebook Profile and its atomic,
// file-backed persistence as collector.yaml.
package notebook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// CollectionMode controls whether the Ambient Orchestrator schedules
// collection runs for a notebook automatically.
type CollectionMode string

const (
	ModeManual    CollectionMode = "manual"
	ModeAutomatic CollectionMode = "automatic"
	ModeHybrid    CollectionMode = "hybrid"
)

// ApprovalMode controls how the Gatherer disposes of collected items.
type ApprovalMode string

const (
	ApprovalAuto   ApprovalMode = "auto" // trust_me: approve all immediately
	ApprovalReview ApprovalMode = "review"
	ApprovalMixed  ApprovalMode = "mixed"
)

// SourceEntry is one kind-specific configuration entry inside Sources.
// Its Value shape depends on Kind (URL list, filing descriptor, keyword, ...)
// and is kept as a free-form map so Sources can hold heterogeneous kinds
// without a discriminated union per kind.
type SourceEntry struct {
	Kind  string         `yaml:"kind"`
	Value map[string]any `yaml:"value"`
}

// Schedule controls how often and how much a notebook collects per run.
type Schedule struct {
	Frequency    time.Duration `yaml:"frequency"`
	MaxItemsPerRun int         `yaml:"max_items_per_run"`
}

// Filters bound what the Gatherer will accept during scoring.
type Filters struct {
	MaxAgeDays   int     `yaml:"max_age_days" validate:"gte=0"`
	MinRelevance float64 `yaml:"min_relevance" validate:"gte=0,lte=1"`
	Language     string  `yaml:"language"`
}

// Profile is the persisted research configuration for one notebook.
// Mutated only via explicit Update calls and written atomically.
type Profile struct {
	NotebookID      string         `yaml:"notebook_id" validate:"required"`
	Subject         string         `yaml:"subject"`
	Intent          string         `yaml:"intent"`
	FocusAreas      []string       `yaml:"focus_areas"`
	ExcludedTopics  []string       `yaml:"excluded_topics"`
	DisabledSources []string       `yaml:"disabled_sources"`
	CollectionMode  CollectionMode `yaml:"collection_mode" validate:"omitempty,oneof=manual automatic hybrid"`
	ApprovalMode    ApprovalMode   `yaml:"approval_mode" validate:"omitempty,oneof=auto review mixed"`
	Sources         []SourceEntry  `yaml:"sources"`
	Schedule        Schedule       `yaml:"schedule"`
	Filters         Filters        `yaml:"filters"`
	CreatedAt       time.Time      `yaml:"created_at"`
	UpdatedAt       time.Time      `yaml:"updated_at"`
}

// Store persists Profiles at <data>/notebooks/<notebook_id>/collector.yaml.
type Store struct {
	dataDir string
}

// NewStore returns a Profile store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) path(notebookID string) string {
	return filepath.Join(s.dataDir, "notebooks", notebookID, "collector.yaml")
}

// List enumerates every notebook with a persisted profile, implementing
// external.NotebookStore directly from the on-disk layout rather than
// requiring a separate registry service. ctx is unused — the read is a
// local directory listing — but kept to satisfy the interface signature.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, "notebooks"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing notebooks dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Load reads a notebook's profile. A missing file is not an error: callers
// get a zero-value default so reads tolerate absence (spec-mandated).
func (s *Store) Load(notebookID string) (Profile, error) {
	data, err := os.ReadFile(s.path(notebookID))
	if os.IsNotExist(err) {
		return Profile{NotebookID: notebookID}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile for %s: %w", notebookID, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile for %s: %w", notebookID, err)
	}
	return p, nil
}

// Save writes the profile atomically: render to a temp file in the same
// directory, then rename over the target so concurrent readers never see a
// partial write.
func (s *Store) Save(p Profile) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile for %s: %w", p.NotebookID, err)
	}
	p.UpdatedAt = time.Now()

	target := s.path(p.NotebookID)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating notebook dir: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing profile temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("committing profile: %w", err)
	}
	return nil
}

// Guidance reads the optional notebook.md human-readable guidance appended
// to the relevance-scoring prompt. An absent file yields an empty string.
func (s *Store) Guidance(notebookID string) (string, error) {
	path := filepath.Join(s.dataDir, "notebooks", notebookID, "notebook.md")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading notebook.md for %s: %w", notebookID, err)
	}
	return string(data), nil
}
