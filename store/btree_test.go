package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lez-one/lez/errors"
)

// TestBTreeCacheGetSet does basic sanity checks on our cache.
//
// Other tests handle deletes, overwrites and iterating over ranges.
func TestBTreeCacheGetSet(t *testing.T) {
	// devnull is a black hole, just to keep our types proper.
	devnull := BTreeCacheable{EmptyKVStore{}}

	// base is the root of our data, we can layer on top and all queries
	// should work.
	base := devnull.CacheWrap()

	k, v := []byte("french"), []byte("fry")
	got, err := base.Get(k)
	require.NoError(t, err)
	assert.Nil(t, got)
	has, err := base.Has(k)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, base.Set(k, v))
	got, err = base.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	// now layer another btree on top and make sure that we see base data
	cache := base.CacheWrap()
	got, err = cache.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))
	got, err = cache.Get(k2)
	require.NoError(t, err)
	assert.Equal(t, v2, got)
	got, err = base.Get(k2)
	require.NoError(t, err)
	assert.Nil(t, got)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	got, err = base.Get(k2)
	require.NoError(t, err)
	assert.Equal(t, v2, got)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()
	got, err = base.Get(k3)
	require.NoError(t, err)
	assert.Nil(t, got)

	// and commit another
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	got, err = base.Get(k)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = base.Get(k2)
	require.NoError(t, err)
	assert.Equal(t, v2, got)
}

// TestBTreeCacheConflicts checks that we can handle overwriting values and
// deleting underlying values.
func TestBTreeCacheConflicts(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}
	parent := devnull.CacheWrap()

	require.NoError(t, parent.Set([]byte("a"), []byte("1")))
	require.NoError(t, parent.Set([]byte("b"), []byte("2")))

	child := parent.CacheWrap()
	require.NoError(t, child.Set([]byte("a"), []byte("11")))
	require.NoError(t, child.Set([]byte("c"), []byte("7")))
	require.NoError(t, child.Delete([]byte("b")))

	// parent is unaffected until the write
	queries := []struct {
		store ReadOnlyKVStore
		key   string
		want  string
	}{
		{parent, "a", "1"},
		{parent, "b", "2"},
		{parent, "c", ""},
		{child, "a", "11"},
		{child, "b", ""},
		{child, "c", "7"},
	}
	for _, q := range queries {
		got, err := q.store.Get([]byte(q.key))
		require.NoError(t, err)
		if q.want == "" {
			assert.Nil(t, got, q.key)
		} else {
			assert.Equal(t, []byte(q.want), got, q.key)
		}
	}

	require.NoError(t, child.Write())
	got, err := parent.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("11"), got)
	got, err = parent.Get([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBTreeCacheIterator(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, base.Set([]byte("k3"), []byte("v3")))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set([]byte("k2"), []byte("v2")))
	require.NoError(t, cache.Delete([]byte("k3")))
	require.NoError(t, cache.Set([]byte("k4"), []byte("v4")))

	// the merged view must hide k3 and interleave the cached writes
	it, err := cache.Iterator(nil, nil)
	require.NoError(t, err)
	assertIterKeys(t, it, "k1", "k2", "k4")

	// an explicit range excludes the end key
	it, err = cache.Iterator([]byte("k2"), []byte("k4"))
	require.NoError(t, err)
	assertIterKeys(t, it, "k2")

	// reverse walks the same range backwards
	it, err = cache.ReverseIterator(nil, nil)
	require.NoError(t, err)
	assertIterKeys(t, it, "k4", "k2", "k1")
}

func TestNilKeyRejected(t *testing.T) {
	db := MemStore()
	err := db.Set(nil, []byte("x"))
	assert.True(t, errors.ErrInput.Is(err))
	_, err = db.Get(nil)
	assert.True(t, errors.ErrInput.Is(err))
}

func assertIterKeys(t testing.TB, it Iterator, keys ...string) {
	t.Helper()
	defer it.Release()
	for _, want := range keys {
		key, _, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, want, string(key))
	}
	_, _, err := it.Next()
	assert.True(t, errors.ErrIteratorDone.Is(err))
}
