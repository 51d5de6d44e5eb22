// Package notify publishes run records to NATS so other systems can follow
// a migration as it happens.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
)

const flushTimeout = 5 * time.Second

// Publisher is the subset of *nats.Conn used to publish.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON payload of a published record.
type Event struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	Reference string    `json:"reference,omitempty"`
	Layout    string    `json:"layout,omitempty"`
	NewLayout string    `json:"new_layout,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is a pipeline.Sink publishing each record on
// "{subject}.{kind}", e.g. "layoutswap.records.commit".
type Notifier struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	now     func() time.Time
}

// New creates a Notifier on an existing publisher.
func New(pub Publisher, subject string) *Notifier {
	return &Notifier{pub: pub, subject: subject, now: time.Now}
}

// Connect dials NATS at url and returns a Notifier owning the connection.
func Connect(url, subject string) (*Notifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("layoutswap"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := New(conn, subject)
	n.conn = conn
	slog.Info("NATS notifier connected", "url", conn.ConnectedUrlRedacted(), "subject", subject)
	return n, nil
}

// Subject returns the subject a record of kind is published on.
func (n *Notifier) Subject(kind pipeline.RecordKind) string {
	return n.subject + "." + string(kind)
}

// Emit implements pipeline.Sink.
func (n *Notifier) Emit(_ context.Context, rec pipeline.Record) error {
	event := Event{
		RunID:     rec.RunID,
		Kind:      string(rec.Kind),
		URL:       rec.URL,
		Reference: rec.Reference,
		Layout:    rec.Layout,
		NewLayout: rec.NewLayout,
		Timestamp: n.now().UTC(),
	}
	if rec.Result != nil {
		event.Status = string(rec.Result.Status)
		event.Error = rec.Result.Error
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.pub.Publish(n.Subject(rec.Kind), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes a connection opened by Connect.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	defer n.conn.Close()
	if err := n.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}
