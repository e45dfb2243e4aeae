package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockTimeContext(t *testing.T) {
	bg := context.Background()

	if _, err := BlockTime(bg); err == nil {
		t.Fatal("block time must not be present in an empty context")
	}

	now := time.Now()
	got, err := BlockTime(WithBlockTime(bg, now))
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), got, "block time is always normalized to UTC")
}

func TestHeightContext(t *testing.T) {
	bg := context.Background()

	if _, ok := GetHeight(bg); ok {
		t.Fatal("height must not be present in an empty context")
	}

	ctx := WithHeight(bg, 1234)
	height, ok := GetHeight(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(1234), height)

	assert.Panics(t, func() { WithHeight(ctx, 1235) })
}

func TestChainIDContext(t *testing.T) {
	bg := context.Background()

	assert.Panics(t, func() { GetChainID(bg) })
	assert.Panics(t, func() { WithChainID(bg, "no") }, "chain ID too short")

	ctx := WithChainID(bg, "crawltoll-1")
	assert.Equal(t, "crawltoll-1", GetChainID(ctx))
	assert.Panics(t, func() { WithChainID(ctx, "crawltoll-2") })
}

func TestLoggerContext(t *testing.T) {
	bg := context.Background()

	assert.Equal(t, DefaultLogger, GetLogger(bg))

	ctx := WithLogInfo(bg, "module", "wallet")
	assert.NotNil(t, GetLogger(ctx))
}
