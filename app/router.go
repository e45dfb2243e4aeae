package app

import (
	"fmt"
	"regexp"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
)

// isPath is the RegExp to ensure the routes make sense.
var isPath = regexp.MustCompile(`^[a-z0-9_/]+$`).MatchString

// Router allows to register many handlers with different paths and to
// direct each message to the registered handler.
type Router struct {
	handlers map[string]vault.Handler
}

var _ vault.Registry = (*Router)(nil)
var _ vault.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]vault.Handler),
	}
}

// Handle implements the Registry interface. This function panics if a handler
// for given message is already registered or when the message path is
// invalid.
func (r *Router) Handle(m vault.Msg, h vault.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path %q", path))
	}
	if _, ok := r.handlers[path]; ok {
		panic(fmt.Sprintf("re-registering route %q", path))
	}
	r.handlers[path] = h
}

// Handler returns the registered Handler for this message. If no handler is
// registered a not found handler that always fails is returned instead.
func (r *Router) Handler(m vault.Msg) vault.Handler {
	path := m.Path()
	h, ok := r.handlers[path]
	if !ok {
		return notFoundHandler(path)
	}
	return h
}

// Check dispatches the transaction to the handler registered for the message
// path.
func (r *Router) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot obtain message")
	}
	return r.Handler(msg).Check(ctx, db, tx)
}

// Deliver dispatches the transaction to the handler registered for the
// message path.
func (r *Router) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot obtain message")
	}
	return r.Handler(msg).Deliver(ctx, db, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments provided.
type notFoundHandler string

func (path notFoundHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
