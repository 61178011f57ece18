package lez

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/lez-one/lez/errors"
	"golang.org/x/crypto/ed25519"
)

// IdentitySize is the byte length of every on-chain identity: account ids,
// program ids and create keys. Identities are rendered as 64 lowercase hex
// characters.
const IdentitySize = 32

// AccountID identifies an account on chain. For externally owned accounts it
// is derived from the owner's public key, for program state it is a derived
// address (PDA).
type AccountID [IdentitySize]byte

// ProgramID identifies a program binary. It shares the rendering rules of
// AccountID but names code, not state.
type ProgramID [IdentitySize]byte

// AccountIDFromPubKey derives the account id owned by the given ed25519
// public key.
func AccountIDFromPubKey(pub ed25519.PublicKey) AccountID {
	var id AccountID
	h := sha256.Sum256(pub)
	copy(id[:], h[:])
	return id
}

// ParseAccountID decodes a 64 character hex string, with an optional 0x
// prefix, into an account id.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	raw, err := parseHex32(s)
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}

// ParseProgramID decodes a 64 character hex string, with an optional 0x
// prefix, into a program id.
func ParseProgramID(s string) (ProgramID, error) {
	var id ProgramID
	raw, err := parseHex32(s)
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}

func parseHex32(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != hex.EncodedLen(IdentitySize) {
		return nil, errors.Wrapf(errors.ErrInput, "must be %d hex characters, got %d", hex.EncodedLen(IdentitySize), len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

func (a AccountID) Equals(o AccountID) bool {
	return a == o
}

// IsZero returns true for the all-zero id, which is never a valid account.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccountID) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	id, err := ParseAccountID(enc)
	if err != nil {
		return err
	}
	*a = id
	return nil
}

func (p ProgramID) String() string {
	return hex.EncodeToString(p[:])
}

func (p ProgramID) IsZero() bool {
	return p == ProgramID{}
}

func (p ProgramID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *ProgramID) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	id, err := ParseProgramID(enc)
	if err != nil {
		return err
	}
	*p = id
	return nil
}

// HexBytes is a byte slice that renders as a hex string in JSON, overriding
// the standard base64 []byte encoding. Instruction payloads use it.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	val, err := hex.DecodeString(strings.TrimPrefix(enc, "0x"))
	if err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	*h = val
	return nil
}

func (h HexBytes) Equals(o HexBytes) bool {
	return bytes.Equal(h, o)
}
