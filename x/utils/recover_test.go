package utils

import (
	"context"
	"testing"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/stretchr/testify/assert"
)

type panicHandler struct{}

var _ vault.Handler = panicHandler{}

func (panicHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	panic("check exploded")
}

func (panicHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	panic("deliver exploded")
}

func TestRecovery(t *testing.T) {
	r := NewRecovery()
	db := store.MemStore()
	ctx := context.Background()

	_, err := r.Check(ctx, db, &vaulttest.Tx{}, panicHandler{})
	assert.True(t, errors.ErrPanic.Is(err), "unexpected error: %+v", err)

	_, err = r.Deliver(ctx, db, &vaulttest.Tx{}, panicHandler{})
	assert.True(t, errors.ErrPanic.Is(err), "unexpected error: %+v", err)

	// Without a panic the handler result passes through untouched.
	h := &vaulttest.Handler{}
	_, err = r.Deliver(ctx, db, &vaulttest.Tx{}, h)
	assert.NoError(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())
}
