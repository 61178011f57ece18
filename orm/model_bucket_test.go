package orm

import (
	"testing"

	"github.com/near/borsh-go"

	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/leztest/assert"
	"github.com/lez-one/lez/store"
)

type counter struct {
	Count uint64
}

func (c *counter) Marshal() ([]byte, error) {
	return borsh.Serialize(*c)
}

func (c *counter) Unmarshal(data []byte) error {
	return borsh.Deserialize(c, data)
}

func (c *counter) Validate() error {
	if c.Count > 1000 {
		return errors.Wrap(errors.ErrState, "too big")
	}
	return nil
}

type badModel struct{ counter }

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	err := b.Put(db, []byte("c1"), &counter{Count: 1})
	assert.Nil(t, err)

	var c counter
	err = b.One(db, []byte("c1"), &c)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), c.Count)

	ok, err := b.Has(db, []byte("c1"))
	assert.Nil(t, err)
	assert.Equal(t, true, ok)
	ok, err = b.Has(db, []byte("unknown"))
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	err = b.One(db, []byte("unknown"), &c)
	assert.IsErr(t, errors.ErrNotFound, err)

	err = b.Delete(db, []byte("c1"))
	assert.Nil(t, err)
	err = b.Delete(db, []byte("c1"))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestModelBucketPutValidates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	err := b.Put(db, []byte("c1"), &counter{Count: 9999})
	assert.IsErr(t, errors.ErrState, err)
	ok, err := b.Has(db, []byte("c1"))
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
}

func TestModelBucketTypeChecked(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	err := b.Put(db, []byte("b1"), &badModel{})
	assert.IsErr(t, errors.ErrType, err)

	assert.Nil(t, b.Put(db, []byte("c1"), &counter{Count: 2}))
	var bad badModel
	err = b.One(db, []byte("c1"), &bad)
	assert.IsErr(t, errors.ErrType, err)
}

func TestModelBucketsDoNotCollide(t *testing.T) {
	db := store.MemStore()
	one := NewModelBucket("one", &counter{})
	two := NewModelBucket("two", &counter{})

	assert.Nil(t, one.Put(db, []byte("k"), &counter{Count: 1}))
	assert.Nil(t, two.Put(db, []byte("k"), &counter{Count: 2}))

	var c counter
	assert.Nil(t, one.One(db, []byte("k"), &c))
	assert.Equal(t, uint64(1), c.Count)
	assert.Nil(t, two.One(db, []byte("k"), &c))
	assert.Equal(t, uint64(2), c.Count)
}
