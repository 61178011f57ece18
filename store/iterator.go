package store

import (
	"bytes"
	"sort"

	"github.com/lez-one/lez/errors"
)

type keyValue struct {
	key   []byte
	value []byte
}

func sortKeyValues(pairs []keyValue) {
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].key, pairs[j].key) < 0
	})
}

// sliceIterator wraps an in-memory snapshot of key/value pairs.
type sliceIterator struct {
	data []keyValue
	idx  int
}

var _ Iterator = (*sliceIterator)(nil)

func newSliceIterator(pairs []keyValue, reverse bool) *sliceIterator {
	if reverse {
		rev := make([]keyValue, len(pairs))
		for i, kv := range pairs {
			rev[len(pairs)-1-i] = kv
		}
		pairs = rev
	}
	return &sliceIterator{data: pairs}
}

func (s *sliceIterator) Next() (key, value []byte, err error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.Wrap(errors.ErrIteratorDone, "slice iterator")
	}
	kv := s.data[s.idx]
	s.idx++
	return kv.key, kv.value, nil
}

func (s *sliceIterator) Release() {
	s.data = nil
	s.idx = 0
}
