/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary index, derived from the account address.
* Easy queries for one and iteration over a prefix range.
*/
package orm

import (
	"github.com/lez-one/lez"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
	Validate() error
}

// ModelBucket is a storage engine for models of a single type. All keys are
// stored under a common bucket prefix so that buckets sharing a database do
// not collide.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db lez.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns whether an entity with given primary key exists.
	Has(db lez.ReadOnlyKVStore, key []byte) (bool, error)

	// Put saves given model in the database. The model is validated
	// before being written.
	Put(db lez.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db lez.KVStore, key []byte) error

	// DBKey returns the raw database key a primary key maps to. Useful
	// when the same entry must be read outside of the bucket.
	DBKey(key []byte) []byte
}
