package gatherer

import (
	"context"
	"testing"

	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/notebook"
)

type fakeSourceStore struct {
	records []external.SourceRecord
}

func (f *fakeSourceStore) Create(ctx context.Context, rec external.SourceRecord) (external.SourceRecord, error) {
	return rec, nil
}
func (f *fakeSourceStore) Update(ctx context.Context, rec external.SourceRecord) error { return nil }
func (f *fakeSourceStore) List(ctx context.Context, notebookID string) ([]external.SourceRecord, error) {
	return f.records, nil
}
func (f *fakeSourceStore) ListAll(ctx context.Context) ([]external.SourceRecord, error) {
	return f.records, nil
}
func (f *fakeSourceStore) Get(ctx context.Context, id string) (external.SourceRecord, error) {
	return external.SourceRecord{}, nil
}
func (f *fakeSourceStore) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeSourceStore) SetTags(ctx context.Context, id string, tags []string) error {
	return nil
}

func TestAssembleKeywords_SmartQueriesTakePriority(t *testing.T) {
	g := &Gatherer{}
	task := CollectionTask{SmartQueries: []string{"quantum dots"}}
	profile := notebook.Profile{Subject: "physics"}

	got := g.assembleKeywords(context.Background(), task, profile)

	if len(got) < 1 || got[0] != "quantum dots" {
		t.Fatalf("expected smart query first, got %v", got)
	}
}

func TestAssembleKeywords_SpecificQueryInsertedAtFront(t *testing.T) {
	g := &Gatherer{}
	task := CollectionTask{SmartQueries: []string{"a", "b"}, SpecificQuery: "urgent topic"}
	profile := notebook.Profile{Subject: "physics"}

	got := g.assembleKeywords(context.Background(), task, profile)

	if len(got) == 0 || got[0] != "urgent topic" {
		t.Fatalf("expected specific query at front, got %v", got)
	}
}

func TestAssembleKeywords_StaticFallbackWhenNothingElseProduced(t *testing.T) {
	g := &Gatherer{notebookID: "nb1", deps: Deps{}}
	task := CollectionTask{}
	profile := notebook.Profile{Subject: "rust", FocusAreas: []string{"async runtimes", "compiler internals"}}

	got := g.assembleKeywords(context.Background(), task, profile)

	if len(got) == 0 {
		t.Fatal("expected a fallback keyword set, got none")
	}
	foundSubject := false
	for _, k := range got {
		if k == "rust" {
			foundSubject = true
		}
	}
	if !foundSubject {
		t.Errorf("expected subject %q to appear somewhere in fallback keywords, got %v", "rust", got)
	}
}

func TestAssembleKeywords_SubjectAlwaysGuaranteedEvenWithSmartQueries(t *testing.T) {
	g := &Gatherer{}
	task := CollectionTask{SmartQueries: []string{"unrelated term"}}
	profile := notebook.Profile{Subject: "batteries"}

	got := g.assembleKeywords(context.Background(), task, profile)

	found := false
	for _, k := range got {
		if k == "batteries" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected subject to be guaranteed present, got %v", got)
	}
}

func TestAnalyzeCoverageGaps_NoSourcesReturnsNil(t *testing.T) {
	g := &Gatherer{notebookID: "nb1", deps: Deps{Sources: &fakeSourceStore{}}}
	profile := notebook.Profile{FocusAreas: []string{"a", "b"}}

	got := g.analyzeCoverageGaps(context.Background(), profile)
	if got != nil {
		t.Errorf("expected nil with no existing sources, got %v", got)
	}
}

func TestAnalyzeCoverageGaps_UnderRepresentedAreaSurfaces(t *testing.T) {
	store := &fakeSourceStore{records: []external.SourceRecord{
		{Title: "well covered article", Content: "covered covered covered covered covered"},
		{Title: "another well covered piece", Content: "covered again and again"},
	}}
	g := &Gatherer{notebookID: "nb1", deps: Deps{Sources: store}}
	profile := notebook.Profile{FocusAreas: []string{"covered", "neglected"}}

	gaps := g.analyzeCoverageGaps(context.Background(), profile)

	found := false
	for _, gap := range gaps {
		if gap == "neglected" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the under-mentioned focus area to surface as a gap, got %v", gaps)
	}
	for _, gap := range gaps {
		if gap == "covered" {
			t.Errorf("did not expect the well-covered focus area in gaps, got %v", gaps)
		}
	}
}

func TestContainsString(t *testing.T) {
	if !containsString([]string{"a", "b"}, "a") {
		t.Error("expected containsString to find present element")
	}
	if containsString([]string{"a", "b"}, "c") {
		t.Error("expected containsString to reject absent element")
	}
}

func TestFirstN(t *testing.T) {
	if got := firstN([]string{"a", "b", "c"}, 2); len(got) != 2 {
		t.Errorf("expected firstN to truncate to 2, got %v", got)
	}
	if got := firstN([]string{"a"}, 5); len(got) != 1 {
		t.Errorf("expected firstN to leave a short slice untouched, got %v", got)
	}
}
