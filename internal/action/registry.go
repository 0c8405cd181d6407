// Package action implements the action-dispatch engine: selecting
// Action-typed nodes whose activation has crossed a firing threshold,
// running their associated code (either a named in-process handler or a
// restricted inline expression), and pinning them below threshold so they
// don't immediately re-fire.
//
// A node's "code" attribute is never executed as an operating-system
// process or loaded as a dynamically-compiled plugin — Go has no safe
// equivalent of exec()/importlib for arbitrary source text. Instead, code
// that looks like a bare handler reference is resolved against an
// in-process Registry of named Go functions, and anything else is run
// through a small restricted statement evaluator (see evaluator.go).
package action

import (
	"context"
	"sync"

	"github.com/nidhogg/cogkernel/internal/activation"
	"github.com/nidhogg/cogkernel/internal/graph"
)

// Context is the bundle of state a Handler or inline fragment can touch.
type Context struct {
	Graph      *graph.Graph
	Activation *activation.Manager
	NodeID     string
	Focus      string // id of the currently most-active node, if any
	Text       string // most recently ingested text, if any

	// Locker guards Graph/Activation. A handler that needs to block on I/O
	// must call Locker.Unlock() before the blocking call and Locker.Lock()
	// before touching Graph/Activation again; RunEligible always re-enters
	// with the lock held.
	Locker sync.Locker
}

// Handler is a named action implementation, looked up by the bare name (or
// file stem) found in an Action node's code attribute.
type Handler func(ctx context.Context, ac *Context) error

// Registry maps handler names to implementations.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
