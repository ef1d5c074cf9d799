package gatherer

import (
	"testing"
	"time"
)

func TestExtractPublicationDate_ISOFormat(t *testing.T) {
	got, ok := extractPublicationDate("Report", "Published 2024-03-15 in the morning edition.")
	if !ok {
		t.Fatal("expected ISO date to be extracted")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractPublicationDate_LongForm(t *testing.T) {
	got, ok := extractPublicationDate("Report", "Filed on March 15, 2024 by staff.")
	if !ok {
		t.Fatal("expected long-form date to be extracted")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractPublicationDate_USSlashFormat(t *testing.T) {
	got, ok := extractPublicationDate("Report", "Dateline: 3/15/2024 staff writer.")
	if !ok {
		t.Fatal("expected slash-form date to be extracted")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractPublicationDate_NoDateFound(t *testing.T) {
	_, ok := extractPublicationDate("Report", "No date anywhere in this text at all.")
	if ok {
		t.Error("expected no date to be found")
	}
}

func TestExtractPublicationDate_RejectsImplausibleFutureDate(t *testing.T) {
	future := time.Now().AddDate(5, 0, 0).Format("2006-01-02")
	_, ok := extractPublicationDate("Report", "Scheduled for "+future+" release.")
	if ok {
		t.Error("expected a far-future date to be rejected as implausible")
	}
}

func TestExtractPublicationDate_RejectsImplausiblyOldDate(t *testing.T) {
	_, ok := extractPublicationDate("Report", "Archived from 1950-01-01 records.")
	if ok {
		t.Error("expected a date more than 20 years old to be rejected as implausible")
	}
}

func TestExtractPublicationDate_OnlyScansPrefixOfContent(t *testing.T) {
	padding := make([]byte, datePrefixLen+50)
	for i := range padding {
		padding[i] = 'x'
	}
	content := string(padding) + " 2024-03-15"
	_, ok := extractPublicationDate("Report", content)
	if ok {
		t.Error("expected a date beyond the scanned prefix to be missed")
	}
}
