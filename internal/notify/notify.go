// Package notify is the event bus used to fan out
// notify_source_updated-style completion notices to UI channels, adapted
// from the teacher's NATS client/publisher pair.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kestrelresearch/scout/internal/external"
)

// Client wraps a NATS connection used purely for fire-and-forget event
// publication; the core never blocks a collection/approval path on it.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to url, logging (not failing) on disconnect/reconnect.
func NewClient(url string, logger *slog.Logger) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("notify: disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("notify: reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to notify bus: %w", err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// Close closes the connection without draining it.
func (c *Client) Close() {
	c.conn.Close()
}

// IsConnected reports the current connection state.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// envelope is the wire shape for every published event.
type envelope struct {
	Type       string         `json:"type"`
	NotebookID string         `json:"notebook_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data"`
}

func subject(notebookID, eventType string) string {
	return fmt.Sprintf("scout.%s.%s", notebookID, eventType)
}

// Notify publishes an event. Failure is logged and swallowed — per the
// error-handling design, a notification failure is never allowed to
// invalidate the approval or completion it describes.
func (c *Client) Notify(ctx context.Context, event external.Event) error {
	payload, err := json.Marshal(envelope{
		Type:       event.Type,
		NotebookID: event.NotebookID,
		Timestamp:  event.Timestamp,
		Data:       event.Data,
	})
	if err != nil {
		c.logger.Warn("notify: marshal failed", "type", event.Type, "error", err)
		return nil
	}
	if err := c.conn.Publish(subject(event.NotebookID, event.Type), payload); err != nil {
		c.logger.Warn("notify: publish failed", "type", event.Type, "error", err)
		return nil
	}
	return nil
}

// Event type constants fanned out by the collection/approval pipeline.
const (
	EventItemCollected            = "item_collected"
	EventItemApproved             = "item_approved"
	EventBriefingGenerated        = "briefing_generated"
	EventSourceProcessingCompleted = "source_processing_completed"
)
