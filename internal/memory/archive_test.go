package memory

import "testing"

func TestCanAccess_SystemNamespaceAlwaysVisible(t *testing.T) {
	rec := &ArchiveRecord{Namespace: NamespaceSystem, SourceNotebookID: "nb1"}
	if !canAccess(rec, false, false, "") {
		t.Error("expected SYSTEM namespace to be visible to any reader")
	}
	if !canAccess(rec, true, true, "nb2") {
		t.Error("expected SYSTEM namespace to be visible to the Supervisor too")
	}
}

func TestCanAccess_SupervisorNamespaceRequiresSupervisorReader(t *testing.T) {
	rec := &ArchiveRecord{Namespace: NamespaceSupervisor}
	if !canAccess(rec, true, false, "") {
		t.Error("expected SUPERVISOR namespace visible to the Supervisor")
	}
	if canAccess(rec, false, false, "nb1") {
		t.Error("expected SUPERVISOR namespace hidden from a non-Supervisor reader")
	}
}

func TestCanAccess_GathererNamespaceScopedToOwningNotebook(t *testing.T) {
	rec := &ArchiveRecord{Namespace: NamespaceGatherer, SourceNotebookID: "nb1"}

	if !canAccess(rec, false, false, "nb1") {
		t.Error("expected the owning notebook's Gatherer to read its own records")
	}
	if canAccess(rec, false, false, "nb2") {
		t.Error("expected a different notebook's Gatherer to be denied")
	}
	if canAccess(rec, false, false, "") {
		t.Error("expected a reader with no Gatherer notebook context to be denied")
	}
}

func TestCanAccess_SupervisorCrossNotebookSeesGathererRecords(t *testing.T) {
	rec := &ArchiveRecord{Namespace: NamespaceGatherer, SourceNotebookID: "nb1"}

	if !canAccess(rec, true, true, "") {
		t.Error("expected a cross-notebook Supervisor read to see any GATHERER record")
	}
	if canAccess(rec, true, false, "") {
		t.Error("expected a non-cross-notebook Supervisor read to be denied a GATHERER record")
	}
}

func TestCanAccess_UnknownNamespaceFailsClosed(t *testing.T) {
	rec := &ArchiveRecord{Namespace: Namespace("UNKNOWN")}
	if canAccess(rec, true, true, "nb1") {
		t.Error("expected an unrecognized namespace to fail closed")
	}
}
