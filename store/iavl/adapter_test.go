package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitStoreCommitAndReload(t *testing.T) {
	dir, err := ioutil.TempDir("", "iavl-adapter")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	kv := NewCommitStore(dir, "test")
	require.NoError(t, kv.LoadLatestVersion())

	k, v := []byte("balance"), []byte("100")

	cache := kv.CacheWrap()
	require.NoError(t, cache.Set(k, v))
	require.NoError(t, cache.Write())

	id, err := kv.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.NotEmpty(t, id.Hash)

	got, err := kv.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestCacheIsolation(t *testing.T) {
	kv := MockCommitStore()
	require.NoError(t, kv.LoadLatestVersion())

	k, v := []byte("owner"), []byte("alice")

	// a btree wrap on top of the tree cache can be discarded
	// without touching committed state
	cache := kv.CacheWrap()
	scratch := cache.CacheWrap()
	require.NoError(t, scratch.Set(k, v))
	got, err := scratch.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)
	scratch.Discard()

	got, err = cache.Get(k)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheIterator(t *testing.T) {
	kv := MockCommitStore()
	require.NoError(t, kv.LoadLatestVersion())

	cache := kv.CacheWrap()
	pairs := map[string]string{
		"a": "1",
		"b": "2",
		"c": "3",
	}
	for k, v := range pairs {
		require.NoError(t, cache.Set([]byte(k), []byte(v)))
	}

	iter, err := cache.Iterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for iter.Valid() {
		keys = append(keys, string(iter.Key()))
		require.NoError(t, iter.Next())
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	riter, err := cache.ReverseIterator(nil, nil)
	require.NoError(t, err)
	defer riter.Close()

	keys = nil
	for riter.Valid() {
		keys = append(keys, string(riter.Key()))
		require.NoError(t, riter.Next())
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}
