// Package notify provides user notifications: desktop notifications via
// D-Bus, or log lines when no desktop is available.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Transient is the timeout used for short-lived status toasts.
const Transient int32 = 5000

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// Log writes notifications to a logger instead of the desktop.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Notify(n Notification) (uint32, error) {
	ev := l.Logger.Info()
	if n.Urgency == UrgencyCritical {
		ev = l.Logger.Warn()
	}
	ev.Str("body", n.Body).Msg(n.Title)
	return 0, nil
}

func (Log) Close(_ uint32) error { return nil }

// Multi fans a notification out to several notifiers and returns the
// first error.
type Multi []Notifier

func (m Multi) Notify(n Notification) (uint32, error) {
	var (
		id       uint32
		firstErr error
	)
	for _, notifier := range m {
		got, err := notifier.Notify(n)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if id == 0 {
			id = got
		}
	}
	return id, firstErr
}

func (m Multi) Close(id uint32) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.Close(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Mock records notifications for tests.
type Mock struct {
	mu   sync.Mutex
	sent []Notification
}

func (m *Mock) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return uint32(len(m.sent)), nil //nolint:gosec // test counter
}

func (m *Mock) Close(_ uint32) error { return nil }

// Sent returns a copy of the recorded notifications.
func (m *Mock) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

// Titles returns the titles of the recorded notifications.
func (m *Mock) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, n := range m.sent {
		out[i] = n.Title
	}
	return out
}

var (
	_ Notifier = Log{}
	_ Notifier = Multi(nil)
	_ Notifier = (*Mock)(nil)
)
