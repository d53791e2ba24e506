/*
Package notify defines the notification hand-off boundary.

PURPOSE:
  The credit engine and the sweep scheduler DECIDE what to send and when;
  delivery (push, SMS, e-mail) is an external collaborator. This package
  holds the envelope those decisions produce and the Notifier interface
  the delivery mechanism implements.

IMPLEMENTATIONS:
  - LogNotifier: structured-log delivery, the default for development
  - Capture: in-memory sink for tests

SEE ALSO:
  - credit/ledger.go: High-utilization alerts
  - api/scheduler.go: Reminder sweep emissions
*/
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the delivery-agnostic payload handed to a Notifier.
type Envelope struct {
	ID        string
	VendorID  string
	Type      string
	Title     string
	Message   string
	Priority  string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Notifier delivers envelopes. Implementations must be safe for
// concurrent use; the scheduler may emit from multiple sweeps over time.
type Notifier interface {
	Send(ctx context.Context, env Envelope) error
}

// =============================================================================
// LOG NOTIFIER - Structured-log delivery
// =============================================================================

type LogNotifier struct {
	Log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) Send(_ context.Context, env Envelope) error {
	n.Log.WithFields(logrus.Fields{
		"notification_id": env.ID,
		"vendor_id":       env.VendorID,
		"type":            env.Type,
		"priority":        env.Priority,
	}).Info(env.Title)
	return nil
}

// =============================================================================
// CAPTURE - In-memory sink for tests
// =============================================================================

type Capture struct {
	mu   sync.Mutex
	sent []Envelope

	// FailFor makes Send return this error for matching vendor IDs,
	// to exercise partial-failure isolation in the scheduler.
	FailFor map[string]error
}

func NewCapture() *Capture {
	return &Capture{FailFor: make(map[string]error)}
}

func (c *Capture) Send(_ context.Context, env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.FailFor[env.VendorID]; ok {
		return err
	}
	c.sent = append(c.sent, env)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (c *Capture) Sent() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}
