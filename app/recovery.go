package app

import (
	"context"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// Recovery is a decorator to recover from panics in transactions, so we can
// return them as normal errors instead of killing the process.
type Recovery struct{}

var _ lez.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator.
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors.
func (r Recovery) Check(ctx context.Context, db lez.KVStore, tx lez.Tx, next lez.Checker) (res *lez.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, db, tx)
}

// Deliver turns panics into normal errors.
func (r Recovery) Deliver(ctx context.Context, db lez.KVStore, tx lez.Tx, next lez.Deliverer) (res *lez.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}
