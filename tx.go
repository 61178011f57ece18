package lez

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/lez-one/lez/errors"
)

// SignedTx is the wire level transaction submitted to the sequencer. The
// instruction payload is a module specific encoding of a Msg; the sequencer
// decodes it and routes the message to the owning program.
//
// Signature cryptography is the wallet's concern. This type only defines the
// canonical byte representation that is signed and hashed, which must be
// identical across implementations.
type SignedTx struct {
	Program  ProgramID   `json:"program_id"`
	Accounts []AccountID `json:"accounts"`
	Signer   AccountID   `json:"signer"`
	Nonce    uint64      `json:"nonce"`
	// Instruction is the encoded message, opaque at this level.
	Instruction HexBytes `json:"instruction"`
	Signature   HexBytes `json:"signature,omitempty"`
}

// SignBytes returns the canonical representation of the transaction without
// its signature. This is what the wallet signs and what the transaction hash
// commits to.
func (tx *SignedTx) SignBytes() ([]byte, error) {
	clone := *tx
	clone.Signature = nil
	raw, err := json.Marshal(&clone)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// Hash returns the transaction hash as 64 hex characters.
func (tx *SignedTx) Hash() (string, error) {
	raw, err := tx.SignBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Validate performs shallow transaction checks that need no state access.
func (tx *SignedTx) Validate() error {
	if tx.Program.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "program id")
	}
	if tx.Signer.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "signer")
	}
	if len(tx.Instruction) == 0 {
		return errors.Wrap(errors.ErrEmpty, "instruction")
	}
	if len(tx.Signature) == 0 {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	return nil
}
