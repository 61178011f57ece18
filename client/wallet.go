package client

import (
	"crypto/rand"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ed25519"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// Wallet holds one ed25519 signing key loaded from disk. The key file
// contains the 64 byte private key hex encoded, and the account id is
// derived from the embedded public key.
type Wallet struct {
	priv ed25519.PrivateKey
	id   lez.AccountID
}

// GenerateWallet creates a fresh key and writes it to the given path. The
// file is created with owner-only permissions and never overwritten.
func GenerateWallet(path string) (*Wallet, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Wrapf(errors.ErrState, "key file %q already exists", path)
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "cannot create wallet dir: %v", err)
		}
	}
	enc := hex.EncodeToString(priv)
	if err := ioutil.WriteFile(path, []byte(enc+"\n"), 0600); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot write key file: %v", err)
	}
	return &Wallet{priv: priv, id: lez.AccountIDFromPubKey(pub)}, nil
}

// LoadWallet reads the key file at the given path.
func LoadWallet(path string) (*Wallet, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "cannot read key file %q: %v", path, err)
	}
	enc := strings.TrimSpace(string(raw))
	priv, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "key file %q is not hex", path)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	key := ed25519.PrivateKey(priv)
	pub := key.Public().(ed25519.PublicKey)
	return &Wallet{priv: key, id: lez.AccountIDFromPubKey(pub)}, nil
}

// NewWalletFromKey wraps an in-memory private key. Used by tests.
func NewWalletFromKey(priv ed25519.PrivateKey) *Wallet {
	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{priv: priv, id: lez.AccountIDFromPubKey(pub)}
}

// AccountID returns the wallet owner's account id.
func (w *Wallet) AccountID() lez.AccountID {
	return w.id
}

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() ed25519.PublicKey {
	return w.priv.Public().(ed25519.PublicKey)
}

// SignTx signs the transaction in place and returns it.
func (w *Wallet) SignTx(tx *lez.SignedTx) (*lez.SignedTx, error) {
	raw, err := tx.SignBytes()
	if err != nil {
		return nil, err
	}
	tx.Signature = ed25519.Sign(w.priv, raw)
	return tx, nil
}
