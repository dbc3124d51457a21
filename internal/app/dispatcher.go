package app

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoHandler is returned when a request has no registered handler.
	ErrNoHandler = errors.New("no handler registered")

	// ErrDuplicateHandler is returned when a second handler is registered for a request name.
	ErrDuplicateHandler = errors.New("handler already registered")
)

// Request is a command or query routed by the Dispatcher.
// RequestName must not depend on field values: it is read from the zero
// value at registration.
type Request interface {
	RequestName() string
}

// Command is a request that changes state. Commands run inside a unit of work.
type Command interface {
	Request
	isCommand()
}

// command is embedded by every command request.
type command struct{}

func (command) isCommand() {}

// outboundCommand is embedded by commands that call an outside service. Their
// handlers open the unit of work around the writes themselves, so no
// transaction is held while the call is in flight.
type outboundCommand struct{ command }

func (outboundCommand) ownsUnitOfWork() {}

type unitOfWorkOwner interface {
	ownsUnitOfWork()
}

// HandlerFunc is the untyped form of a request handler as seen by behaviors.
type HandlerFunc func(ctx context.Context, req Request) (any, error)

// Behavior wraps a handler with cross-cutting logic. It runs code before
// calling next, may inspect the response after, and must pass ctx through.
type Behavior func(next HandlerFunc) HandlerFunc

// Dispatcher routes each request to the single handler registered for its
// name, through the configured behaviors. The registry is built at startup;
// registering after the first Dispatch is not supported.
type Dispatcher struct {
	handlers  map[string]HandlerFunc
	behaviors []Behavior
}

// NewDispatcher creates a dispatcher. The first behavior is the outermost.
func NewDispatcher(behaviors ...Behavior) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[string]HandlerFunc),
		behaviors: behaviors,
	}
}

// Handle registers h as the handler for Req.
func Handle[Req Request, Res any](d *Dispatcher, h func(ctx context.Context, req Req) (Res, error)) error {
	var zero Req
	name := zero.RequestName()
	if _, exists := d.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}
	d.handlers[name] = func(ctx context.Context, req Request) (any, error) {
		typed, ok := req.(Req)
		if !ok {
			return nil, fmt.Errorf("request %q has type %T, want %T", name, req, zero)
		}
		return h(ctx, typed)
	}
	return nil
}

// Registered reports whether a handler exists for the request name.
func (d *Dispatcher) Registered(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Dispatch runs req through the behavior chain and its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, ok := d.handlers[req.RequestName()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, req.RequestName())
	}

	for i := len(d.behaviors) - 1; i >= 0; i-- {
		h = d.behaviors[i](h)
	}
	return h(ctx, req)
}

// Send dispatches req and asserts the handler's response type.
func Send[Res any](ctx context.Context, d *Dispatcher, req Request) (Res, error) {
	var zero Res
	out, err := d.Dispatch(ctx, req)
	if err != nil {
		return zero, err
	}
	res, ok := out.(Res)
	if !ok {
		return zero, fmt.Errorf("request %q returned %T, want %T", req.RequestName(), out, zero)
	}
	return res, nil
}
