package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	log "github.com/helinwang/log15"
	"github.com/imroc/req"
	"github.com/tidwall/gjson"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
)

// Sequencer is the external collaborator that orders and commits signed
// transactions. The client never interprets chain state beyond what these
// three calls return.
type Sequencer interface {
	// SubmitTx submits a signed transaction and returns its hash once
	// the sequencer accepted it.
	SubmitTx(ctx context.Context, tx *lez.SignedTx) (string, error)

	// Account returns the raw data of the account, or nil when the
	// account does not exist.
	Account(ctx context.Context, id lez.AccountID) ([]byte, error)

	// Nonce returns the next nonce expected from the given signer.
	Nonce(ctx context.Context, signer lez.AccountID) (uint64, error)
}

// HTTPSequencer talks to a sequencer node over its JSON HTTP API.
type HTTPSequencer struct {
	base   string
	client *req.Req
	debug  bool
}

var _ Sequencer = (*HTTPSequencer)(nil)

// NewHTTPSequencer initializes a client for the sequencer at the given base
// URL, e.g. "http://127.0.0.1:3040".
func NewHTTPSequencer(baseURL string, debug bool) *HTTPSequencer {
	return &HTTPSequencer{
		base:   strings.TrimSuffix(baseURL, "/"),
		client: req.New(),
		debug:  debug,
	}
}

func (s *HTTPSequencer) SubmitTx(ctx context.Context, tx *lez.SignedTx) (string, error) {
	if s.debug {
		log.Debug("submitting transaction", "program", tx.Program, "signer", tx.Signer, "nonce", tx.Nonce)
	}
	result, err := s.call(ctx, "POST", s.base+"/v1/transactions", req.BodyJSON(tx))
	if err != nil {
		return "", err
	}
	hash := result.Get("tx_hash").String()
	if hash == "" {
		return "", errors.Wrap(errors.ErrNetwork, "sequencer returned no tx_hash")
	}
	return hash, nil
}

func (s *HTTPSequencer) Account(ctx context.Context, id lez.AccountID) ([]byte, error) {
	result, err := s.call(ctx, "GET", s.base+"/v1/accounts/"+id.String())
	if err != nil {
		return nil, err
	}
	data := result.Get("data")
	if !data.Exists() || data.String() == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(data.String())
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetwork, "malformed account data")
	}
	return raw, nil
}

func (s *HTTPSequencer) Nonce(ctx context.Context, signer lez.AccountID) (uint64, error) {
	result, err := s.call(ctx, "GET", s.base+"/v1/nonces/"+signer.String())
	if err != nil {
		return 0, err
	}
	return result.Get("nonce").Uint(), nil
}

// call performs one HTTP round trip and peels the uniform response
// envelope: {"success": bool, "error": string, ...}.
func (s *HTTPSequencer) call(ctx context.Context, method, url string, vs ...interface{}) (*gjson.Result, error) {
	header := req.Header{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	vs = append(vs, header, ctx)

	var (
		r   *req.Resp
		err error
	)
	switch method {
	case "POST":
		r, err = s.client.Post(url, vs...)
	default:
		r, err = s.client.Get(url, vs...)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "sequencer unreachable: %v", err)
	}
	if s.debug {
		log.Debug("sequencer response", "url", url, "status", r.Response().StatusCode)
	}
	if code := r.Response().StatusCode; code != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrNetwork, "sequencer returned %s", r.Response().Status)
	}

	result := gjson.ParseBytes(r.Bytes())
	if result.Get("success").Exists() && !result.Get("success").Bool() {
		msg := result.Get("error").String()
		if msg == "" {
			msg = "unknown sequencer error"
		}
		return nil, errors.Wrap(errors.ErrNetwork, fmt.Sprintf("sequencer: %s", msg))
	}
	return &result, nil
}
