package lez

import (
	"context"
	"reflect"

	"github.com/lez-one/lez/errors"
)

// Msg is a request to perform one state transition. Messages form a closed
// set of typed operations; each message declares its routing path and
// validates its own content, without any access to state.
type Msg interface {
	Path() string
	Validate() error
}

// Tx carries a single message through the processing pipeline.
type Tx interface {
	GetMsg() (Msg, error)
}

// CheckResult is returned from a preliminary, state-read-only inspection of
// a transaction.
type CheckResult struct {
	// GasAllocated is the cost the sender pays when the transaction is
	// included.
	GasAllocated int64
}

// ChainedCall is an action delegated to another program. The multisig never
// touches external accounts itself; an approved proposal is executed by
// handing this structure to the runtime.
type ChainedCall struct {
	Program ProgramID
	// Data is the opaque instruction payload for the target program. It
	// is never interpreted here.
	Data []byte
	// AccountCount is the number of target accounts the call expects at
	// execution time.
	AccountCount uint8
	// Seeds prove ownership of any derived addresses the target needs.
	Seeds [][IdentitySize]byte
}

// DeliverResult is returned from a state mutating execution of a
// transaction.
type DeliverResult struct {
	// Data is operation specific output, eg. the derived address of a
	// created account.
	Data []byte
	// ChainedCalls are delegated actions the runtime must perform in the
	// same atomic unit as this delivery. If any of them fails, the whole
	// delivery is rolled back.
	ChainedCalls []ChainedCall
}

// Handler handles one message type. Check must not modify state; Deliver
// performs a single atomic check-and-mutate step.
type Handler interface {
	Check(ctx context.Context, db KVStore, tx Tx) (*CheckResult, error)
	Deliver(ctx context.Context, db KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality like recovery
// from panics, without being bound to a specific message type.
type Decorator interface {
	Check(ctx context.Context, db KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx context.Context, db KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Checker is a subset of Handler for halfway through decorator chains.
type Checker interface {
	Check(ctx context.Context, db KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler for halfway through decorator chains.
type Deliverer interface {
	Deliver(ctx context.Context, db KVStore, tx Tx) (*DeliverResult, error)
}

// Registry is an accumulator of message handlers, keyed by message path.
type Registry interface {
	// Handle assigns the handler to the message's path. Registering two
	// handlers for one path is a programmer error and panics.
	Handle(Msg, Handler)
}

// LoadMsg extracts the message from the transaction into the destination and
// validates it. The destination must be a pointer to the expected message
// type.
func LoadMsg(tx Tx, destination Msg) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrEmpty, "message")
	}
	if got, want := reflect.TypeOf(msg), reflect.TypeOf(destination); got != want {
		return errors.Wrapf(errors.ErrType, "want %s, got %s", want, got)
	}
	reflect.ValueOf(destination).Elem().Set(reflect.ValueOf(msg).Elem())
	return destination.Validate()
}
