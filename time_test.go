package vault

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixTimeConversion(t *testing.T) {
	now := time.Now()
	ut := AsUnixTime(now)
	assert.Equal(t, now.Unix(), int64(ut))
	assert.Equal(t, now.Unix(), ut.Time().Unix())

	// Below a second precision is dropped.
	assert.Equal(t, ut, ut.Add(999*time.Millisecond))
	assert.Equal(t, ut+90, ut.Add(90*time.Second))
	assert.Equal(t, ut-60, ut.Add(-time.Minute))
}

func TestUnixTimeValidate(t *testing.T) {
	assert.NoError(t, UnixTime(0).Validate())
	assert.NoError(t, UnixTime(1700000000).Validate())
	assert.Error(t, UnixTime(-1).Validate())
	assert.True(t, UnixTime(0).IsZero())
	assert.False(t, UnixTime(1).IsZero())
}

func TestUnixTimeJSON(t *testing.T) {
	var ut UnixTime

	require.NoError(t, json.Unmarshal([]byte(`1700000000`), &ut))
	assert.Equal(t, UnixTime(1700000000), ut)

	require.NoError(t, json.Unmarshal([]byte(`"2023-11-14T22:13:20Z"`), &ut))
	assert.Equal(t, UnixTime(1700000000), ut)

	assert.Error(t, json.Unmarshal([]byte(`-5`), &ut))
	assert.Error(t, json.Unmarshal([]byte(`"garbage"`), &ut))
}

func TestUnixDurationJSON(t *testing.T) {
	var d UnixDuration

	require.NoError(t, json.Unmarshal([]byte(`120`), &d))
	assert.Equal(t, AsUnixDuration(2*time.Minute), d)

	require.NoError(t, json.Unmarshal([]byte(`"2h10s"`), &d))
	assert.Equal(t, AsUnixDuration(2*time.Hour+10*time.Second), d)

	assert.Error(t, json.Unmarshal([]byte(`"garbage"`), &d))

	raw, err := json.Marshal(AsUnixDuration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, `3600`, string(raw))
}

func TestIsExpired(t *testing.T) {
	now := time.Now().UTC()
	ctx := WithBlockTime(context.Background(), now)

	assert.True(t, IsExpired(ctx, AsUnixTime(now.Add(-time.Minute))))
	assert.False(t, IsExpired(ctx, AsUnixTime(now.Add(time.Minute))))

	// Expiration is inclusive of the current block time.
	assert.True(t, IsExpired(ctx, AsUnixTime(now)))
}

func TestPastAndFuture(t *testing.T) {
	now := time.Now().UTC()
	ctx := WithBlockTime(context.Background(), now)

	assert.True(t, InThePast(ctx, now.Add(-time.Second)))
	assert.False(t, InThePast(ctx, now))
	assert.True(t, InTheFuture(ctx, now.Add(time.Second)))
	assert.False(t, InTheFuture(ctx, now))
}
