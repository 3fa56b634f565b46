package interfaces

import "context"

// Notifier delivers a text message to one recipient.
type Notifier interface {
	Name() string
	Send(ctx context.Context, recipientID, text string) error
}
