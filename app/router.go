// Package app assembles message handlers into a single dispatching unit.
package app

import (
	"context"
	"fmt"
	"regexp"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// isPath defines which paths we accept for routing.
var isPath = regexp.MustCompile(`^[a-z0-9_]+/[a-z0-9_]+$`).MatchString

// Router is a top level handler that dispatches transactions by the path of
// the message they carry.
type Router struct {
	handlers map[string]lez.Handler
}

var _ lez.Registry = (*Router)(nil)
var _ lez.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]lez.Handler),
	}
}

// Handle implements lez.Registry interface. Path must be in the form of
// "<module>/<operation>". Registering a handler for the same path twice is a
// programmer error and panics.
func (r *Router) Handle(m lez.Msg, h lez.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.handlers[path]; ok {
		panic(fmt.Sprintf("re-registering route: %q", path))
	}
	r.handlers[path] = h
}

// handler returns the registered Handler for this path, or a notFoundHandler
// if no path matches. This method always returns a non-nil Handler.
func (r *Router) handler(tx lez.Tx) lez.Handler {
	msg, err := tx.GetMsg()
	if err != nil {
		return notFoundHandler(fmt.Sprint(err))
	}
	if h, ok := r.handlers[msg.Path()]; ok {
		return h
	}
	return notFoundHandler(msg.Path())
}

// Check dispatches to the proper handler based on path.
func (r *Router) Check(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.CheckResult, error) {
	return r.handler(tx).Check(ctx, db, tx)
}

// Deliver dispatches to the proper handler based on path.
func (r *Router) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.DeliverResult, error) {
	return r.handler(tx).Deliver(ctx, db, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments provided.
type notFoundHandler string

func (path notFoundHandler) Check(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx) (*lez.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
