package orm

import (
	"testing"

	"github.com/crawltoll/vault/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceIncrements(t *testing.T) {
	db := store.MemStore()

	s := NewSequence("wallet", "id")

	for i := int64(1); i < 10; i++ {
		val, err := s.NextInt(db)
		require.NoError(t, err)
		assert.Equal(t, i, val)
	}

	// values are big endian so bytes.Compare order matches int order
	raw, err := s.NextVal(db)
	require.NoError(t, err)
	assert.Equal(t, int64(10), DecodeSequence(raw))
}

func TestSequenceLatestDoesNotIncrement(t *testing.T) {
	db := store.MemStore()

	s := NewSequence("wallet", "id")

	latest, _, err := s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	_, err = s.NextInt(db)
	require.NoError(t, err)

	latest, _, err = s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest)

	latest, _, err = s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest)
}

func TestSequencesAreIndependent(t *testing.T) {
	db := store.MemStore()

	a := NewSequence("wallet", "id")
	b := NewSequence("factory", "id")

	for i := 0; i < 3; i++ {
		_, err := a.NextInt(db)
		require.NoError(t, err)
	}
	val, err := b.NextInt(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}
