package leztest

import (
	"context"
	"crypto/rand"

	"github.com/lez-one/lez"
)

type contextKey int

const signersKey contextKey = iota

// CtxAuth reads transaction signers from the context. Tests and the
// in-memory sequencer seed the context with WithSigners before handing it to
// handlers.
type CtxAuth struct{}

var _ lez.Authenticator = CtxAuth{}

// WithSigners returns a context carrying the given signers.
func WithSigners(ctx context.Context, signers ...lez.AccountID) context.Context {
	return context.WithValue(ctx, signersKey, signers)
}

func (CtxAuth) Signers(ctx context.Context) []lez.AccountID {
	signers, _ := ctx.Value(signersKey).([]lez.AccountID)
	return signers
}

func (a CtxAuth) HasSigner(ctx context.Context, id lez.AccountID) bool {
	for _, s := range a.Signers(ctx) {
		if s.Equals(id) {
			return true
		}
	}
	return false
}

// Tx is a minimal lez.Tx implementation carrying a fixed message.
type Tx struct {
	Msg lez.Msg
}

var _ lez.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (lez.Msg, error) {
	return tx.Msg, nil
}

// RandAccountID returns a random account id. Panics on entropy failure,
// test only.
func RandAccountID() lez.AccountID {
	var id lez.AccountID
	if _, err := rand.Read(id[:]); err != nil {
		panic(err)
	}
	return id
}

// RandProgramID returns a random program id. Test only.
func RandProgramID() lez.ProgramID {
	var id lez.ProgramID
	if _, err := rand.Read(id[:]); err != nil {
		panic(err)
	}
	return id
}

// RandCreateKey returns a random 32 byte create key. Test only.
func RandCreateKey() [lez.IdentitySize]byte {
	var key [lez.IdentitySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		panic(err)
	}
	return key
}
