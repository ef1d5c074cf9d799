// Package collect defines the closed record types that flow through the
// collection pipeline: fetched and collected items, source health, the
// approval queue, and the user-signal log.
package collect

import "time"

// SourceKind identifies which Unified Fetcher adapter produced an item.
type SourceKind string

const (
	KindFeed          SourceKind = "feed"
	KindWebPage       SourceKind = "web_page"
	KindFiling        SourceKind = "filing"
	KindVideoChannel  SourceKind = "video_channel"
	KindVideoKeyword  SourceKind = "video_keyword"
	KindPaperCategory SourceKind = "paper_category"
	KindPaperQuery    SourceKind = "paper_query"
	KindNewsKeyword   SourceKind = "news_keyword"
)

// ItemStatus is the lifecycle state of a CollectedItem.
type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusApproved ItemStatus = "approved"
	StatusRejected ItemStatus = "rejected"
	StatusExpired  ItemStatus = "expired"
)

// FetchedItem is the raw output of a single Unified Fetcher adapter call,
// before dedup, scoring, or contextualization.
type FetchedItem struct {
	Title         string
	URL           string
	Content       string
	Summary       string
	SourceName    string
	SourceKind    SourceKind
	SourceURL     string
	PublishedDate *time.Time
	Metadata      map[string]string
	ContentHash   string

	// HealthKey is the Unified Fetcher's (kind, entry) health-tracker key
	// this item was fetched under, carried through so rejection feedback
	// can degrade the right source without re-deriving it.
	HealthKey string

	// Language is the item's detected or declared language code (e.g.
	// "en"), matched against NotebookProfile.Filters.Language.
	Language string
}

// CollectedItem is a FetchedItem after Gatherer processing: deduped, scored,
// and (optionally) contextualized against the archive. It is ephemeral until
// approved or rejected.
type CollectedItem struct {
	ID          string
	Title       string
	URL         string
	Content     string
	Preview     string
	SourceName  string
	SourceKind  SourceKind
	CollectedAt time.Time

	// Scoring
	RelevanceScore    float64
	SourceTrust       float64
	FreshnessScore    float64
	OverallConfidence float64
	ConfidenceReasons []string

	// Dedup
	ContentHash string
	IsDuplicate bool
	DuplicateOf string

	// HealthKey mirrors FetchedItem.HealthKey — the source this item came
	// from, for rejection-driven health degradation.
	HealthKey string
	Language  string

	// Temporal / contextualization
	DeltaSummary    string
	IsNewTopic      bool
	TemporalContext string
	KnowledgeOverlap float64
	RelatedTitles    []string

	Status ItemStatus
}

// Preview80 returns the first 80 characters of the title, used when building
// RelatedTitles references in contextualization output.
func Preview80(title string) string {
	if len(title) <= 80 {
		return title
	}
	return title[:80]
}

// Health is the health bucket of a Source Health Record.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthFailing  Health = "failing"
	HealthDead     Health = "dead"
)

// SourceHealthRecord tracks the operational status of one source endpoint
// (one (kind, entry) pair in the Unified Fetcher's config).
type SourceHealthRecord struct {
	Key             string // stable identity for the (kind, entry) pair
	Health          Health
	LastSuccess     time.Time
	LastFailure     time.Time
	FailureCount    int
	AvgResponseTime time.Duration
	ItemsCollected  int
}

// Trust returns the scoring weight associated with the record's health
// bucket, per the Gatherer's scoring contract.
func (r SourceHealthRecord) Trust() float64 {
	switch r.Health {
	case HealthHealthy:
		return 0.9
	case HealthDegraded:
		return 0.6
	case HealthFailing, HealthDead:
		return 0.3
	default:
		return 0.5
	}
}

// ApprovalQueueEntry holds a CollectedItem awaiting a decision. Entries
// expire 7 days after queueing.
type ApprovalQueueEntry struct {
	Item       CollectedItem
	QueuedAt   time.Time
	ExpiresAt  time.Time
	ReviewNote string
}

// QueueTTL is the default lifetime of an approval queue entry.
const QueueTTL = 7 * 24 * time.Hour

// Expired reports whether the entry's TTL has elapsed as of now.
func (e ApprovalQueueEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// SignalType is the closed union of recordable user-signal kinds.
type SignalType string

const (
	SignalView              SignalType = "view"
	SignalClick             SignalType = "click"
	SignalIgnore            SignalType = "ignore"
	SignalItemApproved      SignalType = "item_approved"
	SignalItemRejected      SignalType = "item_rejected"
	SignalSourceApproved    SignalType = "source_approved"
	SignalSourceRejected    SignalType = "source_rejected"
	SignalUserCapture       SignalType = "user_capture"
	SignalTopicInterest     SignalType = "topic_interest"
	SignalContentHighlighted SignalType = "content_highlighted"
	SignalSearchMiss        SignalType = "search_miss"
)

// UserSignal is one append-only entry in a notebook's signal log.
type UserSignal struct {
	NotebookID string
	Type       SignalType
	ItemID     string
	Query      string
	Timestamp  time.Time
	Metadata   map[string]string
}

// RejectionFeedback classifies why an item was rejected, driving adaptive
// behavior in the Gatherer.
type RejectionFeedback string

const (
	FeedbackWrongTopic  RejectionFeedback = "wrong_topic"
	FeedbackBadSource   RejectionFeedback = "bad_source"
	FeedbackTooOld      RejectionFeedback = "too_old"
	FeedbackAlreadyKnew RejectionFeedback = "already_knew"
	FeedbackOther       RejectionFeedback = "other"
)
