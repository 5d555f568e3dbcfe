// Package events delivers AuthenticatedEvent to interested parties after a
// bind commits.
package events

import (
	"context"
	"errors"

	"casbinder/internal/binder/models"
)

// Handler is anything that reacts to a committed bind.
type Handler interface {
	OnAuthenticated(ctx context.Context, event models.AuthenticatedEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event models.AuthenticatedEvent) error

func (f HandlerFunc) OnAuthenticated(ctx context.Context, event models.AuthenticatedEvent) error {
	return f(ctx, event)
}

// Dispatcher fans an event out to every registered handler in order.
// A failing handler does not stop the rest; failures are joined.
type Dispatcher struct {
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	d := &Dispatcher{}
	for _, h := range handlers {
		d.Register(h)
	}
	return d
}

// Register appends h. Nil handlers are ignored.
func (d *Dispatcher) Register(h Handler) {
	if h == nil {
		return
	}
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) OnAuthenticated(ctx context.Context, event models.AuthenticatedEvent) error {
	var errs []error
	for _, h := range d.handlers {
		if err := h.OnAuthenticated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
