// Package publisher defines the notification interface for collection
// changes. Downstream consumers (gallery cache refresh, backups) subscribe to
// the configured topic.
package publisher

import "context"

// Publisher delivers a payload to a named topic.
type Publisher interface {
	// Publish sends the payload and returns a backend-specific message ID.
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
