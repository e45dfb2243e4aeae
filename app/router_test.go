package app

import (
	"context"
	"testing"

	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	r := NewRouter()

	msg := &vaulttest.Msg{RoutePath: "wallet/submit_transaction"}
	h := &vaulttest.Handler{}
	r.Handle(msg, h)

	db := store.MemStore()
	ctx := context.Background()

	_, err := r.Handler(msg).Deliver(ctx, db, &vaulttest.Tx{Msg: msg})
	require.NoError(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())

	// An unknown path resolves to a handler that always fails.
	unknown := &vaulttest.Msg{RoutePath: "wallet/unknown"}
	_, err = r.Handler(unknown).Deliver(ctx, db, &vaulttest.Tx{Msg: unknown})
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
}

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()

	msg := &vaulttest.Msg{RoutePath: "wallet/execute_transaction"}
	h := &vaulttest.Handler{}
	r.Handle(msg, h)

	db := store.MemStore()
	ctx := context.Background()
	tx := &vaulttest.Tx{Msg: msg}

	// The router is itself a handler and routes by the message path.
	_, err := r.Check(ctx, db, tx)
	require.NoError(t, err)
	_, err = r.Deliver(ctx, db, tx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.CheckCallCount())
	assert.Equal(t, 1, h.DeliverCallCount())
}

func TestRouterRegistrationPanics(t *testing.T) {
	r := NewRouter()
	msg := &vaulttest.Msg{RoutePath: "wallet/confirm_transaction"}
	r.Handle(msg, &vaulttest.Handler{})

	assert.Panics(t, func() {
		r.Handle(msg, &vaulttest.Handler{})
	})
	assert.Panics(t, func() {
		r.Handle(&vaulttest.Msg{RoutePath: "INVALID PATH"}, &vaulttest.Handler{})
	})
}
