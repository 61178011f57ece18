package orm

import (
	"reflect"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// NewModelBucket returns a ModelBucket instance operating directly on the
// KVStore. The model instance is used only to enforce that all stored and
// loaded entities are of the same type.
func NewModelBucket(name string, m Model) ModelBucket {
	return &modelBucket{
		prefix: []byte(name + ":"),
		model:  reflect.TypeOf(m),
	}
}

type modelBucket struct {
	prefix []byte
	model  reflect.Type
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) DBKey(key []byte) []byte {
	// Long version of append(mb.prefix, key...) that does not modify the
	// prefix slice.
	dbkey := make([]byte, len(mb.prefix)+len(key))
	copy(dbkey, mb.prefix)
	copy(dbkey[len(mb.prefix):], key)
	return dbkey
}

func (mb *modelBucket) One(db lez.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.assertModelType(dest); err != nil {
		return err
	}
	raw, err := db.Get(mb.DBKey(key))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal into %T", dest)
	}
	return nil
}

func (mb *modelBucket) Has(db lez.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(mb.DBKey(key))
}

func (mb *modelBucket) Put(db lez.KVStore, key []byte, m Model) error {
	if err := mb.assertModelType(m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(err, "cannot marshal %T", m)
	}
	if err := db.Set(mb.DBKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db lez.KVStore, key []byte) error {
	dbkey := mb.DBKey(key)
	ok, err := db.Has(dbkey)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "no entity under given key")
	}
	return db.Delete(dbkey)
}

func (mb *modelBucket) assertModelType(m Model) error {
	if m == nil {
		return errors.Wrap(errors.ErrType, "nil model")
	}
	if t := reflect.TypeOf(m); t != mb.model {
		return errors.Wrapf(errors.ErrType, "%s cannot be used with a bucket of %s", t, mb.model)
	}
	return nil
}
