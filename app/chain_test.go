package app

import (
	"context"
	"testing"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/store"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainDecorators(t *testing.T) {
	db := store.MemStore()
	ctx := context.Background()

	d1 := &vaulttest.Decorator{}
	d2 := &vaulttest.Decorator{}
	h := &vaulttest.Handler{}

	var nilDecorator *vaulttest.Decorator
	stack := ChainDecorators(d1, nilDecorator, nil).
		Chain(d2).
		WithHandler(h)

	_, err := stack.Deliver(ctx, db, &vaulttest.Tx{})
	require.NoError(t, err)
	assert.Equal(t, 1, d1.DeliverCallCount())
	assert.Equal(t, 1, d2.DeliverCallCount())
	assert.Equal(t, 1, h.DeliverCallCount())

	_, err = stack.Check(ctx, db, &vaulttest.Tx{})
	require.NoError(t, err)
	assert.Equal(t, 1, d1.CheckCallCount())
	assert.Equal(t, 1, h.CheckCallCount())
}

func TestChainStopsOnDecoratorError(t *testing.T) {
	db := store.MemStore()
	ctx := context.Background()

	fail := errors.Wrap(errors.ErrUnauthorized, "no access")
	bad := &vaulttest.Decorator{DeliverErr: fail}
	h := &vaulttest.Handler{}

	stack := ChainDecorators(vault.Decorator(bad)).WithHandler(h)

	_, err := stack.Deliver(ctx, db, &vaulttest.Tx{})
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
	assert.Equal(t, 0, h.DeliverCallCount())
}
