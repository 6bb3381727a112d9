// Package eventbus defines the contract for publishing domain events.
package eventbus

import (
	"context"

	"github.com/obmenka/settlement/pkg/events"
)

// HandlerFunc consumes a published event.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus emits domain events to registered handlers. Emit is called after the
// owning store transaction commits; handler failures must not affect
// settlement outcomes.
type Bus interface {
	// Register registers a handler for a specific event type.
	Register(eventType string, handler HandlerFunc)
	// Emit dispatches the event to all handlers registered for its type.
	Emit(ctx context.Context, event events.Event) error
}
