package port

import (
	"context"

	"relaybot/internal/core/domain"
)

type Handler interface {
	// Handle runs one unit of work for an event. It may issue remote calls through client.
	Handle(ctx context.Context, client Client, event *domain.Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, client Client, event *domain.Event) error

func (f HandlerFunc) Handle(ctx context.Context, client Client, event *domain.Event) error {
	return f(ctx, client, event)
}

type CommandRegistry interface {
	// Register appends a handler under a command name.
	Register(name string, handler Handler)
	// RegisterCatchAll appends a handler invoked for every button press.
	RegisterCatchAll(handler Handler)
	// Lookup returns the handlers registered for a command name, in registration order.
	Lookup(name string) []Handler
	// CatchAll returns the button press handlers, in registration order.
	CatchAll() []Handler
	// ListCommands returns the names of all registered commands.
	ListCommands() []string
}
