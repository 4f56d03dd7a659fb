package ports

import "context"

// Notifier delivers a human-readable message about a lifecycle event.
// Delivery is at-most-once; failures are absorbed by the caller.
type Notifier interface {
	SendNotification(ctx context.Context, recipient string, subject string, body string) error
}
