package store

// EmptyKVStore never holds any data. It is a valid backing store for a cache
// wrap that should keep everything in memory, and a useful zero-value in
// tests.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }

func (EmptyKVStore) Has(key []byte) (bool, error) { return false, nil }

func (EmptyKVStore) Set(key, value []byte) error { return nil }

func (EmptyKVStore) Delete(key []byte) error { return nil }

func (e EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return newSliceIterator(nil, false), nil
}

func (e EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return newSliceIterator(nil, true), nil
}

func (e EmptyKVStore) NewBatch() Batch { return NewNonAtomicBatch(e) }

////////////////////////////////////////////////
// Batch

// Op is one write operation recorded by a batch.
type Op struct {
	IsDelete bool
	Key      []byte
	Value    []byte
}

// Apply performs the operation on the given writer.
func (o Op) Apply(out SetDeleter) error {
	if o.IsDelete {
		return out.Delete(o.Key)
	}
	return out.Set(o.Key, o.Value)
}

// SetOp builds an Op to set a value.
func SetOp(key, value []byte) Op {
	return Op{IsDelete: false, Key: key, Value: value}
}

// DelOp builds an Op to delete a value.
func DelOp(key []byte) Op {
	return Op{IsDelete: true, Key: key}
}

// NonAtomicBatch just piles up ops and executes them later on the underlying
// store. Can be used when there is no better option (for in-memory stores).
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

// NewNonAtomicBatch creates an empty batch to be later written to the
// KVStore.
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{
		out: out,
	}
}

// Set adds a set operation to the batch.
func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

// Delete adds a delete operation to the batch.
func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// Write writes all the ops to the underlying store and resets the batch.
func (b *NonAtomicBatch) Write() error {
	for _, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

// ShowOps returns the ops recorded so far, mostly for testing and debugging.
func (b *NonAtomicBatch) ShowOps() []Op {
	return append([]Op(nil), b.ops...)
}
