package store

import "github.com/lez-one/lez"

// Move references for all storage types into this package for shorter names
// everywhere.

type ReadOnlyKVStore = lez.ReadOnlyKVStore
type KVStore = lez.KVStore
type SetDeleter = lez.SetDeleter
type Batch = lez.Batch
type Iterator = lez.Iterator
type CacheableKVStore = lez.CacheableKVStore
type KVCacheWrap = lez.KVCacheWrap
