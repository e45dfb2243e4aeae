package orm

import (
	"testing"

	"github.com/crawltoll/vault/errors"
	"github.com/crawltoll/vault/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelBucketPutAndOne(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("refs", &MultiRef{})

	m, err := NewMultiRef([]byte("first"))
	require.NoError(t, err)
	key, err := b.Put(db, []byte("one"), m)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), key)

	var res MultiRef
	require.NoError(t, b.One(db, []byte("one"), &res))
	assert.Equal(t, m.Refs, res.Refs)

	err = b.One(db, []byte("unknown"), &res)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestModelBucketPutSequence(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("refs", &MultiRef{},
		WithIDSequence(NewSequence("refs", "id")))

	m, err := NewMultiRef([]byte("data"))
	require.NoError(t, err)

	// no key given, the sequence provides one
	key, err := b.Put(db, nil, m)
	require.NoError(t, err)
	assert.Equal(t, int64(1), DecodeSequence(key))

	key, err = b.Put(db, nil, m)
	require.NoError(t, err)
	assert.Equal(t, int64(2), DecodeSequence(key))
}

func TestModelBucketDeleteAndHas(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("refs", &MultiRef{})

	m, err := NewMultiRef([]byte("data"))
	require.NoError(t, err)
	_, err = b.Put(db, []byte("one"), m)
	require.NoError(t, err)

	require.NoError(t, b.Has(db, []byte("one")))
	require.NoError(t, b.Delete(db, []byte("one")))

	err = b.Has(db, []byte("one"))
	assert.True(t, errors.ErrNotFound.Is(err))
	err = b.Delete(db, []byte("one"))
	assert.True(t, errors.ErrNotFound.Is(err))
	err = b.Has(db, nil)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestModelBucketByIndex(t *testing.T) {
	db := store.MemStore()

	firstRef := func(obj Object) ([]byte, error) {
		ref, ok := obj.Value().(*MultiRef)
		if !ok {
			return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
		}
		return ref.Refs[0], nil
	}
	b := NewModelBucket("refs", &MultiRef{},
		WithIndex("first", firstRef, false))

	ma, err := NewMultiRef([]byte("shared"), []byte("x"))
	require.NoError(t, err)
	mb, err := NewMultiRef([]byte("shared"), []byte("y"))
	require.NoError(t, err)
	mc, err := NewMultiRef([]byte("lonely"))
	require.NoError(t, err)

	_, err = b.Put(db, []byte("a"), ma)
	require.NoError(t, err)
	_, err = b.Put(db, []byte("b"), mb)
	require.NoError(t, err)
	_, err = b.Put(db, []byte("c"), mc)
	require.NoError(t, err)

	var res []*MultiRef
	keys, err := b.ByIndex(db, "first", []byte("shared"), &res)
	require.NoError(t, err)
	assert.Len(t, res, 2)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, keys)

	// no match is not an error, just empty
	var none []*MultiRef
	keys, err = b.ByIndex(db, "first", []byte("unknown"), &none)
	require.NoError(t, err)
	assert.Nil(t, keys)
	assert.Len(t, none, 0)

	// a slice of values works as well
	var vals []MultiRef
	_, err = b.ByIndex(db, "first", []byte("lonely"), &vals)
	require.NoError(t, err)
	assert.Len(t, vals, 1)
}

func TestModelBucketWrongModelType(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("refs", &MultiRef{})

	_, err := b.Put(db, []byte("one"), &Counter{Count: 1})
	assert.True(t, errors.ErrType.Is(err))
}
