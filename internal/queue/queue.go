package queue

import "context"

const (
	// EventQueue is the work queue for notification events.
	EventQueue = "notifications"
	// EventDLQ receives events rejected as unparseable or invalid.
	EventDLQ = "dlq.notifications"
)

// Publisher publishes event messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg EventMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg EventMessage) error

// Consumer consumes event messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
