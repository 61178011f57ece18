package client

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/leztest"
)

func TestHTTPSequencerSubmitTx(t *testing.T) {
	var gotTx lez.SignedTx
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/v1/transactions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotTx))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"tx_hash": "abcd1234",
		})
	}))
	defer srv.Close()

	seq := NewHTTPSequencer(srv.URL, false)
	tx := &lez.SignedTx{
		Program:     leztest.RandProgramID(),
		Signer:      leztest.RandAccountID(),
		Nonce:       7,
		Instruction: lez.HexBytes{1, 2, 3},
		Signature:   lez.HexBytes{4, 5, 6},
	}
	hash, err := seq.SubmitTx(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", hash)
	assert.Equal(t, tx.Program, gotTx.Program)
	assert.Equal(t, tx.Nonce, gotTx.Nonce)
	assert.Equal(t, tx.Instruction, gotTx.Instruction)
}

func TestHTTPSequencerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "bad nonce: want 3, got 7",
		})
	}))
	defer srv.Close()

	seq := NewHTTPSequencer(srv.URL, false)
	_, err := seq.SubmitTx(context.Background(), &lez.SignedTx{
		Program:     leztest.RandProgramID(),
		Signer:      leztest.RandAccountID(),
		Instruction: lez.HexBytes{1},
		Signature:   lez.HexBytes{2},
	})
	assert.True(t, errors.ErrNetwork.Is(err))
	assert.Contains(t, err.Error(), "bad nonce")
}

func TestHTTPSequencerAccount(t *testing.T) {
	id := leztest.RandAccountID()
	payload := []byte{0xaa, 0xbb}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts/"+id.String(), r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    hex.EncodeToString(payload),
		})
	}))
	defer srv.Close()

	seq := NewHTTPSequencer(srv.URL, false)
	raw, err := seq.Account(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestHTTPSequencerMissingAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    "",
		})
	}))
	defer srv.Close()

	seq := NewHTTPSequencer(srv.URL, false)
	raw, err := seq.Account(context.Background(), leztest.RandAccountID())
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestHTTPSequencerNonce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"nonce":   42,
		})
	}))
	defer srv.Close()

	seq := NewHTTPSequencer(srv.URL, false)
	nonce, err := seq.Nonce(context.Background(), leztest.RandAccountID())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), nonce)
}

func TestHTTPSequencerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	seq := NewHTTPSequencer(srv.URL, false)
	_, err := seq.Nonce(context.Background(), leztest.RandAccountID())
	assert.True(t, errors.ErrNetwork.Is(err))
}
