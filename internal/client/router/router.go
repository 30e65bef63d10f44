// Package router fans inbound transport events out to local subscribers and
// serializes local events outward. Fan-out is synchronous and ordered; a
// failing handler never prevents the remaining handlers from running.
package router

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Sender is the outbound side of the router, implemented by the transport
// session.
type Sender interface {
	Send(event string, payload any) error
}

// Handler receives the raw payload of one event.
type Handler func(data json.RawMessage)

// Subscription is the explicit unsubscribe handle returned by Subscribe.
type Subscription struct {
	router *Router
	event  string
	id     uint64
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.router != nil {
		s.router.unsubscribe(s.event, s.id)
	}
}

type subscriber struct {
	id uint64
	fn Handler
}

// Router is the presence & event router.
type Router struct {
	sender Sender
	logger *slog.Logger

	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]subscriber
}

// New creates a router publishing outbound events through sender.
func New(sender Sender, logger *slog.Logger) *Router {
	return &Router{
		sender:   sender,
		logger:   logger,
		handlers: make(map[string][]subscriber),
	}
}

// Subscribe registers a handler for the named event. Handlers for one event
// fire in subscription order.
func (r *Router) Subscribe(event string, fn Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.handlers[event] = append(r.handlers[event], subscriber{id: r.nextID, fn: fn})
	return &Subscription{router: r, event: event, id: r.nextID}
}

func (r *Router) unsubscribe(event string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.handlers[event]
	for i, sub := range subs {
		if sub.id == id {
			r.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends one event outward through the transport session.
func (r *Router) Publish(event string, payload any) error {
	return r.sender.Send(event, payload)
}

// Emit delivers one inbound event to local subscribers, in subscription
// order. A panicking handler is isolated and logged; the rest still run.
func (r *Router) Emit(event string, data json.RawMessage) {
	r.mu.Lock()
	subs := make([]subscriber, len(r.handlers[event]))
	copy(subs, r.handlers[event])
	r.mu.Unlock()

	for _, sub := range subs {
		r.invoke(event, sub, data)
	}
}

func (r *Router) invoke(event string, sub subscriber, data json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Event handler panicked",
				"event", event,
				"panic", rec)
		}
	}()
	sub.fn(data)
}
