package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/lez-one/lez/errors"
)

// DefaultFreeListSize is the size we hold for free nodes in the btree.
const DefaultFreeListSize = btree.DefaultFreeListSize

// BTreeCacheable adds a simple btree-based CacheWrap strategy to a KVStore.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap returns a BTreeCacheWrap that can be later written to this
// store, or rolled back.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns a simple implementation useful for tests. There is no
// persistence here.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

///////////////////////////////////////////////
// Actual CacheWrap implementation

// BTreeCacheWrap places a btree cache over a KVStore.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this kv store. Use
// ReadOnlyKVStore to emphasize that all writes must go through the Batch.
//
// free may be nil, but set to an existing list to reuse it for memory
// savings.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap layers another BTree on top of this one. Don't change horses in
// mid-stream.
//
// Uses NonAtomicBatch as it is only backed by another in-memory batch.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a non-atomic batch that eventually may write to our
// cachewrap.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write syncs with the underlying store and then cleans up.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard invalidates this CacheWrap and releases all data.
func (b BTreeCacheWrap) Discard() {
	for stop := false; !stop; {
		rem := b.bt.DeleteMin()
		stop = (rem == nil)
	}
}

// Set writes to the BTree and to the batch.
func (b BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrInput, "nil key")
	}
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	return b.batch.Set(key, value)
}

// Delete marks the key as removed in the BTree and the batch.
func (b BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrInput, "nil key")
	}
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	return b.batch.Delete(key)
}

// Get reads from the BTree if the key was written in this wrap, otherwise
// from the backing store.
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.Wrap(errors.ErrInput, "nil key")
	}
	res := b.bt.Get(bKey{key})
	if res != nil {
		switch t := res.(type) {
		case setItem:
			return t.value, nil
		case deletedItem:
			return nil, nil
		default:
			return nil, errors.Wrapf(errors.ErrHuman, "unknown item in btree: %#v", res)
		}
	}
	return b.back.Get(key)
}

// Has behaves like Get, but only returns existence.
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if key == nil {
		return false, errors.Wrap(errors.ErrInput, "nil key")
	}
	res := b.bt.Get(bKey{key})
	if res != nil {
		switch res.(type) {
		case setItem:
			return true, nil
		case deletedItem:
			return false, nil
		default:
			return false, errors.Wrapf(errors.ErrHuman, "unknown item in btree: %#v", res)
		}
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order. Combines the backing
// store data with the uncommitted writes of this wrap.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	pairs, err := b.mergedRange(start, end)
	if err != nil {
		return nil, err
	}
	return newSliceIterator(pairs, false), nil
}

// ReverseIterator over a domain of keys in descending order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	pairs, err := b.mergedRange(start, end)
	if err != nil {
		return nil, err
	}
	return newSliceIterator(pairs, true), nil
}

// mergedRange materializes the requested key range, overlaying uncommitted
// btree state on top of the backing store.
func (b BTreeCacheWrap) mergedRange(start, end []byte) ([]keyValue, error) {
	live := make(map[string][]byte)
	var order []string

	it, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Release()
	for {
		key, value, err := it.Next()
		if err != nil {
			if errors.ErrIteratorDone.Is(err) {
				break
			}
			return nil, err
		}
		if _, ok := live[string(key)]; !ok {
			order = append(order, string(key))
		}
		live[string(key)] = value
	}

	walk := func(item btree.Item) bool {
		switch t := item.(type) {
		case setItem:
			if _, ok := live[string(t.key)]; !ok {
				order = append(order, string(t.key))
			}
			live[string(t.key)] = t.value
		case deletedItem:
			delete(live, string(t.key))
		}
		return true
	}
	if start == nil && end == nil {
		b.bt.Ascend(walk)
	} else if start == nil {
		b.bt.AscendLessThan(bKey{end}, walk)
	} else if end == nil {
		b.bt.AscendGreaterOrEqual(bKey{start}, walk)
	} else {
		b.bt.AscendRange(bKey{start}, bKey{end}, walk)
	}

	pairs := make([]keyValue, 0, len(live))
	for _, key := range order {
		if value, ok := live[key]; ok {
			pairs = append(pairs, keyValue{key: []byte(key), value: value})
		}
	}
	sortKeyValues(pairs)
	return pairs, nil
}

/////////////////////////////////////////////////////////
// btree items

// bKey is a query-only item, used to look up real items by key.
type bKey struct {
	key []byte
}

var _ btree.Item = bKey{}

func (k bKey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

func (k bKey) Key() []byte {
	return k.key
}

type keyer interface {
	Key() []byte
}

type setItem struct {
	bKey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{bKey{key}, value}
}

type deletedItem struct {
	bKey
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bKey{key}}
}
