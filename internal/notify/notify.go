// Package notify delivers violation events to external systems.
//
// Two transports are provided: an MQTT publisher for proctoring dashboards
// and a hook runner that pipes each event as JSON into local executables.
package notify

import (
	"context"
	"errors"
	"time"
)

// Event describes one flagged frame.
type Event struct {
	SessionID      string    `json:"session_id,omitempty"`
	Warnings       []string  `json:"warnings"`
	Gadgets        []string  `json:"gadgets"`
	HeadStatus     string    `json:"head_status"`
	HandCount      int       `json:"hand_count"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi sends each event to every notifier in order.
type Multi []Notifier

// Notify delivers ev to all notifiers and joins their errors.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }
