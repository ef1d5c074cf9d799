package supervisor

import (
	"context"
	"testing"

	"github.com/kestrelresearch/scout/internal/notebook"
)

func TestBuildTask_WithoutEmbedderSkipsNoveltySearch(t *testing.T) {
	s := New(Deps{})
	profile := notebook.Profile{
		NotebookID: "nb1",
		Intent:     "track widget industry news",
		FocusAreas: []string{"widgets"},
	}

	task := s.buildTask(context.Background(), profile, "specific query", []string{"smart query"})

	if task.NotebookID != "nb1" || task.Intent != profile.Intent {
		t.Errorf("expected task fields to mirror the profile, got %+v", task)
	}
	if task.SpecificQuery != "specific query" {
		t.Errorf("expected specific query to be carried through, got %q", task.SpecificQuery)
	}
	if len(task.AvoidSimilarTo) != 0 {
		t.Errorf("expected no novelty samples without an embedder, got %v", task.AvoidSimilarTo)
	}
}

func TestBuildTask_EmptyIntentSkipsNoveltySearch(t *testing.T) {
	s := New(Deps{})
	profile := notebook.Profile{NotebookID: "nb1"}

	task := s.buildTask(context.Background(), profile, "", nil)

	if len(task.AvoidSimilarTo) != 0 {
		t.Errorf("expected no novelty samples with an empty intent, got %v", task.AvoidSimilarTo)
	}
}
