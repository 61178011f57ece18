package leztest

import (
	"context"
	"sync"

	"golang.org/x/crypto/ed25519"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/orm"
	"github.com/lez-one/lez/store"
)

// Decoder parses a wire instruction into a typed message. Each program
// supplies its own.
type Decoder func(raw []byte) (lez.Msg, error)

// CallRunner performs the chained calls a delivery emitted. The production
// runtime dispatches them to the target programs; tests plug in their own
// behavior. A non-nil error aborts the whole delivery.
type CallRunner func(db lez.KVStore, calls []lez.ChainedCall) error

// Sequencer is an in-memory stand-in for the transaction ordering service.
// It verifies signatures, enforces per-signer nonces, executes deliveries
// inside a cache wrap and commits only fully successful transactions. This
// mirrors the atomicity contract of the production runtime: a failed
// delivery, including a failed chained call, leaves no trace in state.
//
// Nonce counters live in the store, not beside it, and advance inside the
// same cache wrap as the delivery they belong to.
type Sequencer struct {
	mu      sync.Mutex
	db      lez.CacheableKVStore
	handler lez.Handler
	decode  Decoder
	program lez.ProgramID
	runner  CallRunner
	keys    map[lez.AccountID]ed25519.PublicKey
}

// NewSequencer starts an empty chain state serving one program. A nil
// runner accepts all chained calls without doing anything.
func NewSequencer(program lez.ProgramID, handler lez.Handler, decode Decoder, runner CallRunner) *Sequencer {
	return &Sequencer{
		db:      store.MemStore(),
		handler: handler,
		decode:  decode,
		program: program,
		runner:  runner,
		keys:    make(map[lez.AccountID]ed25519.PublicKey),
	}
}

// RegisterKey announces a public key to the sequencer, so that transactions
// signed by it can be verified. Returns the derived account id.
func (s *Sequencer) RegisterKey(pub ed25519.PublicKey) lez.AccountID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := lez.AccountIDFromPubKey(pub)
	s.keys[id] = pub
	return id
}

// SubmitTx verifies, delivers and commits a single transaction. On success
// the transaction hash is returned and the signer's nonce advances by one.
// On any failure state is untouched and the same nonce stays valid.
func (s *Sequencer) SubmitTx(ctx context.Context, tx *lez.SignedTx) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := tx.Validate(); err != nil {
		return "", err
	}
	if tx.Program != s.program {
		return "", errors.Wrapf(errors.ErrNotFound, "unknown program %s", tx.Program)
	}
	if err := s.verifySignature(tx); err != nil {
		return "", err
	}
	seq := nonceSequence(tx.Signer)
	want, _, err := seq.Latest(s.db)
	if err != nil {
		return "", err
	}
	if tx.Nonce != uint64(want) {
		return "", errors.Wrapf(errors.ErrInput, "bad nonce: want %d, got %d", want, tx.Nonce)
	}

	msg, err := s.decode(tx.Instruction)
	if err != nil {
		return "", err
	}

	ctx = WithSigners(ctx, tx.Signer)
	cache := s.db.CacheWrap()
	res, err := s.handler.Deliver(ctx, cache, &Tx{Msg: msg})
	if err != nil {
		cache.Discard()
		return "", err
	}
	if s.runner != nil && len(res.ChainedCalls) > 0 {
		if err := s.runner(cache, res.ChainedCalls); err != nil {
			cache.Discard()
			return "", errors.Wrap(err, "chained call failed")
		}
	}
	// The nonce advances within the same wrap as the delivery, so a
	// discarded transaction never consumes its nonce.
	if _, err := seq.NextVal(cache); err != nil {
		cache.Discard()
		return "", err
	}
	if err := cache.Write(); err != nil {
		return "", err
	}
	return tx.Hash()
}

// Account returns the raw data stored under the given account id, or nil
// when the account does not exist. Program state accounts live in the
// shared "acct" keyspace.
func (s *Sequencer) Account(ctx context.Context, id lez.AccountID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Get(accountKey(id))
}

// Nonce returns the next nonce expected from the given signer.
func (s *Sequencer) Nonce(ctx context.Context, signer lez.AccountID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := nonceSequence(signer)
	latest, _, err := seq.Latest(s.db)
	return uint64(latest), err
}

func (s *Sequencer) verifySignature(tx *lez.SignedTx) error {
	pub, ok := s.keys[tx.Signer]
	if !ok {
		return errors.Wrapf(errors.ErrUnauthorized, "unknown signer %s", tx.Signer)
	}
	raw, err := tx.SignBytes()
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, raw, tx.Signature) {
		return errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	return nil
}

func accountKey(id lez.AccountID) []byte {
	key := append([]byte("acct:"), id[:]...)
	return key
}

// nonceSequence is the store-backed counter of committed transactions per
// signer. The value of the counter is the next expected nonce.
func nonceSequence(signer lez.AccountID) orm.Sequence {
	return orm.NewSequence("nonce", signer.String())
}
