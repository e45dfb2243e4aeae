package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type op struct {
	key    []byte
	value  []byte // nil means delete
	delete bool
}

func setOp(key, value []byte) op {
	return op{key: key, value: value}
}

func delOp(key []byte) op {
	return op{key: key, delete: true}
}

func (o op) apply(t *testing.T, kv KVStore) {
	t.Helper()
	if o.delete {
		require.NoError(t, kv.Delete(o.key))
	} else {
		require.NoError(t, kv.Set(o.key, o.value))
	}
}

func pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

func get(t *testing.T, kv ReadOnlyKVStore, key []byte) []byte {
	t.Helper()
	v, err := kv.Get(key)
	require.NoError(t, err)
	return v
}

func has(t *testing.T, kv ReadOnlyKVStore, key []byte) bool {
	t.Helper()
	ok, err := kv.Has(key)
	require.NoError(t, err)
	return ok
}

// TestBTreeCacheGetSet does basic sanity checks on our cache.
//
// Other tests should handle deletes, setting same value,
// iterating over ranges, and general fuzzing.
func TestBTreeCacheGetSet(t *testing.T) {
	// devnull is a black hole... just to keep our types proper
	devnull := BTreeCacheable{EmptyKVStore{}}

	// base is the root of our data, we can layer on top and
	// all queries should work
	base := devnull.CacheWrap()

	// make sure the btree is empty at start but returns results
	// that are written to it
	k, v := []byte("french"), []byte("fry")
	assert.Nil(t, get(t, base, k))
	assert.False(t, has(t, base, k))
	require.NoError(t, base.Set(k, v))
	assert.Equal(t, v, get(t, base, k))
	assert.True(t, has(t, base, k))

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assert.Equal(t, v, get(t, cache, k))
	assert.True(t, has(t, cache, k))

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assert.Nil(t, get(t, cache, k2))
	assert.False(t, has(t, cache, k2))
	require.NoError(t, cache.Set(k2, v2))
	assert.Equal(t, v2, get(t, cache, k2))
	assert.Nil(t, get(t, base, k2))
	assert.True(t, has(t, cache, k2))
	assert.False(t, has(t, base, k2))

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	assert.Equal(t, v, get(t, base, k))
	assert.Equal(t, v2, get(t, base, k2))
	assert.True(t, has(t, base, k))
	assert.True(t, has(t, base, k2))

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	assert.Equal(t, v, get(t, c2, k))
	assert.Equal(t, v2, get(t, c2, k2))
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()

	// and commit another
	c3 := base.CacheWrap()
	assert.Equal(t, v, get(t, c3, k))
	assert.Equal(t, v2, get(t, c3, k2))
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	// make sure it commits proper
	assert.Nil(t, get(t, base, k))
	assert.Equal(t, v2, get(t, base, k2))
	assert.Nil(t, get(t, base, k3))

	// and to test devnull....
	require.NoError(t, base.Write())
	assert.Nil(t, get(t, devnull, k2))
}

// TestBTreeCacheConflicts checks that we can handle
// overwriting values and deleting underlying values.
func TestBTreeCacheConflicts(t *testing.T) {
	// devnull is a black hole... just to keep our types proper
	devnull := BTreeCacheable{EmptyKVStore{}}

	// make 10 keys and 20 values....
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []op
		childOps      []op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model // Key is what we query, Value is what we expect
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []op{setOp(ks[1], vs[1]), setOp(ks[2], vs[2])},
			childOps:      []op{setOp(ks[1], vs[11]), setOp(ks[3], vs[7]), delOp(ks[2])},
			parentQueries: []Model{pair(ks[1], vs[1]), pair(ks[2], vs[2]), pair(ks[3], nil)},
			childQueries:  []Model{pair(ks[1], vs[11]), pair(ks[2], nil), pair(ks[3], vs[7])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent := devnull.CacheWrap()
			for _, op := range tc.parentOps {
				op.apply(t, parent)
			}

			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				op.apply(t, child)
			}

			// now check the parent is unaffected
			for j, q := range tc.parentQueries {
				assert.Equal(t, q.Value, get(t, parent, q.Key), "%d", j)
				assert.Equal(t, q.Value != nil, has(t, parent, q.Key), "%d", j)
			}

			// the child shows changes
			for j, q := range tc.childQueries {
				assert.Equal(t, q.Value, get(t, child, q.Key), "%d", j)
				assert.Equal(t, q.Value != nil, has(t, child, q.Key), "%d", j)
			}

			// write child to parent and make sure it also shows proper data
			require.NoError(t, child.Write())
			for j, q := range tc.childQueries {
				assert.Equal(t, q.Value, get(t, parent, q.Key), "%d", j)
				assert.Equal(t, q.Value != nil, has(t, parent, q.Key), "%d", j)
			}
		})
	}
}

// TestSliceIterator makes sure the basic slice iterator works.
func TestSliceIterator(t *testing.T) {
	const Size = 10

	ks := randKeys(Size, 8)
	vs := randKeys(Size, 40)

	models := make([]Model, Size)
	for i := 0; i < Size; i++ {
		models[i].Key = ks[i]
		models[i].Value = vs[i]
	}

	// make sure proper iteration works
	iter, i := NewSliceIterator(models), 0
	for ; iter.Valid(); i++ {
		assert.True(t, i < Size)
		assert.Equal(t, ks[i], iter.Key())
		assert.Equal(t, vs[i], iter.Value())
		require.NoError(t, iter.Next())
	}
	assert.Equal(t, Size, i)

	// iterator is invalid after close
	trash := NewSliceIterator(models)
	assert.True(t, trash.Valid())
	trash.Close()
	assert.False(t, trash.Valid())
}

// TestBTreeCacheBasicIterator makes sure the basic iterator
// works. Includes random deletes, but not nested iterators.
func TestBTreeCacheBasicIterator(t *testing.T) {
	const Size = 50
	const DeleteCount = 20
	const TotalSize = Size + DeleteCount

	models := make([]Model, TotalSize)
	for i := 0; i < TotalSize; i++ {
		models[i].Key = randBytes(8)
		models[i].Value = randBytes(40)
	}

	devnull := BTreeCacheable{EmptyKVStore{}}
	base := devnull.CacheWrap()
	// add them all to the cache
	for i := 0; i < TotalSize; i++ {
		require.NoError(t, base.Set(models[i].Key, models[i].Value))
	}
	// delete the first chunk
	for i := 0; i < DeleteCount; i++ {
		require.NoError(t, base.Delete(models[i].Key))
	}
	models = models[DeleteCount:]

	// sort all remaining key/value pairs... this is our expected results
	sort.Slice(models, func(i, j int) bool {
		return bytes.Compare(models[i].Key, models[j].Key) < 0
	})

	// iterate over everything
	verifyIterator(t, models, fwd(t, base, nil, nil))
	// iterate with lower end defined
	verifyIterator(t, models[10:], fwd(t, base, models[10].Key, nil))
	// iterate with upper end defined
	verifyIterator(t, models[:Size-8], fwd(t, base, nil, models[Size-8].Key))
	// iterate with both ends defined
	verifyIterator(t, models[17:28], fwd(t, base, models[17].Key, models[28].Key))

	// and now in reverse....
	verifyIterator(t, reverse(models), rev(t, base, nil, nil))
	// iterate with lower end defined
	verifyIterator(t, reverse(models[34:]), rev(t, base, models[34].Key, nil))
	// iterate with upper end defined
	verifyIterator(t, reverse(models[:19]), rev(t, base, nil, models[19].Key))
	// iterate with both ends defined
	verifyIterator(t, reverse(models[6:26]), rev(t, base, models[6].Key, models[26].Key))
}

// TestBTreeCacheLayeredIterator tests iterating over ranges that span both
// the parent and child caches, combining different values, overwrites, and
// deletes.
func TestBTreeCacheLayeredIterator(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}
	parent := devnull.CacheWrap()

	keys := [][]byte{
		[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e"),
	}
	for _, k := range keys {
		require.NoError(t, parent.Set(k, []byte("old")))
	}

	child := parent.CacheWrap()
	// overwrite b, delete c, add f
	require.NoError(t, child.Set(keys[1], []byte("new")))
	require.NoError(t, child.Delete(keys[2]))
	require.NoError(t, child.Set([]byte("f"), []byte("new")))

	expect := []Model{
		pair(keys[0], []byte("old")),
		pair(keys[1], []byte("new")),
		pair(keys[3], []byte("old")),
		pair(keys[4], []byte("old")),
		pair([]byte("f"), []byte("new")),
	}

	verifyIterator(t, expect, fwd(t, child, nil, nil))
	verifyIterator(t, reverse(expect), rev(t, child, nil, nil))

	// the parent view is unaffected until the child writes
	verifyIterator(t, []Model{
		pair(keys[0], []byte("old")),
		pair(keys[1], []byte("old")),
		pair(keys[2], []byte("old")),
		pair(keys[3], []byte("old")),
		pair(keys[4], []byte("old")),
	}, fwd(t, parent, nil, nil))

	require.NoError(t, child.Write())
	verifyIterator(t, expect, fwd(t, parent, nil, nil))
}

func fwd(t *testing.T, kv ReadOnlyKVStore, start, end []byte) Iterator {
	t.Helper()
	iter, err := kv.Iterator(start, end)
	require.NoError(t, err)
	return iter
}

func rev(t *testing.T, kv ReadOnlyKVStore, start, end []byte) Iterator {
	t.Helper()
	iter, err := kv.ReverseIterator(start, end)
	require.NoError(t, err)
	return iter
}

func verifyIterator(t *testing.T, models []Model, iter Iterator) {
	t.Helper()
	// make sure proper iteration works
	for i := 0; i < len(models); i++ {
		require.True(t, iter.Valid(), "%d", i)
		assert.Equal(t, models[i].Key, iter.Key(), "%d", i)
		assert.Equal(t, models[i].Value, iter.Value(), "%d", i)
		require.NoError(t, iter.Next())
	}
	assert.False(t, iter.Valid())
	iter.Close()
}

// reverse returns a copy of the slice with elements in reverse order.
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// randKeys returns a slice of count keys, all of given length.
func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(length)
	}
	return res
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}
