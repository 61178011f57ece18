package lez

import "context"

// Authenticator tells who signed the transaction being processed. The
// sequencer verifies signatures before delivery; handlers only consult this
// interface, so the same handler code runs under the real runtime and under
// test doubles.
type Authenticator interface {
	// Signers returns the account ids that authorized the current
	// transaction, in order. May be empty.
	Signers(ctx context.Context) []AccountID

	// HasSigner returns true iff the given account authorized the
	// current transaction.
	HasSigner(ctx context.Context, id AccountID) bool
}

// MainSigner returns the first signer of the current transaction, or the
// zero id when there is none.
func MainSigner(ctx context.Context, auth Authenticator) AccountID {
	signers := auth.Signers(ctx)
	if len(signers) == 0 {
		return AccountID{}
	}
	return signers[0]
}
