package client

import (
	"context"
	"encoding/hex"

	log "github.com/helinwang/log15"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/errors"
	"github.com/lez-one/lez/x/multisig"
)

// Client exposes every multisig operation as a typed call. Mutations build a
// signed transaction and hand it to the sequencer; reads fetch accounts by
// their derived address and decode them locally.
type Client struct {
	seq     Sequencer
	wallet  *Wallet
	program lez.ProgramID
}

// NewClient binds a wallet and a program id to a sequencer connection.
func NewClient(seq Sequencer, wallet *Wallet, program lez.ProgramID) *Client {
	return &Client{seq: seq, wallet: wallet, program: program}
}

// CreateResult is the response of a successful multisig creation.
type CreateResult struct {
	TxHash           string        `json:"tx_hash"`
	MultisigStatePDA lez.AccountID `json:"multisig_state_pda"`
	CreateKey        string        `json:"create_key"`
}

// ProposeResult is the response of a successful proposal creation.
type ProposeResult struct {
	TxHash        string        `json:"tx_hash"`
	ProposalIndex uint64        `json:"proposal_index"`
	ProposalPDA   lez.AccountID `json:"proposal_pda"`
}

// VoteResult is the response of a successful approve or reject.
type VoteResult struct {
	TxHash        string `json:"tx_hash"`
	ProposalIndex uint64 `json:"proposal_index"`
	Action        string `json:"action"`
}

// ExecuteResult is the response of a successful execution.
type ExecuteResult struct {
	TxHash        string `json:"tx_hash"`
	ProposalIndex uint64 `json:"proposal_index"`
}

// ProposalSummary is one entry of a proposal listing. A proposal whose
// account cannot be fetched is reported with status "Missing".
type ProposalSummary struct {
	Index              uint64        `json:"index"`
	Proposer           string        `json:"proposer,omitempty"`
	TargetProgramID    string        `json:"target_program_id,omitempty"`
	TargetAccountCount uint8         `json:"target_account_count"`
	ApprovedCount      int           `json:"approved_count"`
	RejectedCount      int           `json:"rejected_count"`
	Status             string        `json:"status"`
	ProposalPDA        lez.AccountID `json:"proposal_pda"`
}

// ListProposalsResult is the response of a proposal listing.
type ListProposalsResult struct {
	Proposals        []ProposalSummary `json:"proposals"`
	TransactionIndex uint64            `json:"transaction_index"`
}

// StateInfo is the decoded multisig state for external consumption.
type StateInfo struct {
	CreateKey        string   `json:"create_key"`
	Threshold        uint8    `json:"threshold"`
	MemberCount      uint8    `json:"member_count"`
	Members          []string `json:"members"`
	TransactionIndex uint64   `json:"transaction_index"`
}

// StateResult is the response of a state query.
type StateResult struct {
	State            StateInfo     `json:"state"`
	MultisigStatePDA lez.AccountID `json:"multisig_state_pda"`
}

// CreateMultisig creates a new M-of-N multisig under the given create key.
func (c *Client) CreateMultisig(ctx context.Context, createKey [lez.IdentitySize]byte, threshold uint8, members []lez.AccountID) (*CreateResult, error) {
	msg := &multisig.CreateMultisigMsg{
		CreateKey: createKey,
		Threshold: threshold,
		Members:   members,
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	statePDA, err := multisig.StateAddress(c.program, createKey)
	if err != nil {
		return nil, err
	}
	hash, err := c.submit(ctx, msg, []lez.AccountID{statePDA, c.wallet.AccountID()})
	if err != nil {
		return nil, err
	}
	log.Info("multisig created", "pda", statePDA, "threshold", threshold, "members", len(members))
	return &CreateResult{
		TxHash:           hash,
		MultisigStatePDA: statePDA,
		CreateKey:        hex.EncodeToString(createKey[:]),
	}, nil
}

// ProposalTarget describes the action a proposal will perform when
// executed, plus the member indices allowed to vote on it.
type ProposalTarget struct {
	Program           lez.ProgramID
	InstructionData   []byte
	AccountCount      uint8
	PDASeeds          [][lez.IdentitySize]byte
	AuthorizedIndices []uint8
}

// Propose submits a new proposal. The assigned index is the multisig's next
// transaction index, read from current chain state.
func (c *Client) Propose(ctx context.Context, createKey [lez.IdentitySize]byte, target ProposalTarget) (*ProposeResult, error) {
	msg := &multisig.ProposeMsg{
		CreateKey:             createKey,
		TargetProgram:         target.Program,
		TargetInstructionData: target.InstructionData,
		TargetAccountCount:    target.AccountCount,
		PDASeeds:              target.PDASeeds,
		AuthorizedIndices:     target.AuthorizedIndices,
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	state, statePDA, err := c.fetchState(ctx, createKey)
	if err != nil {
		return nil, err
	}
	nextIndex := state.TransactionIndex + 1
	proposalPDA, err := multisig.ProposalAddress(c.program, createKey, nextIndex)
	if err != nil {
		return nil, err
	}
	hash, err := c.submit(ctx, msg, []lez.AccountID{statePDA, c.wallet.AccountID(), proposalPDA})
	if err != nil {
		return nil, err
	}
	log.Info("proposal submitted", "index", nextIndex, "pda", proposalPDA)
	return &ProposeResult{
		TxHash:        hash,
		ProposalIndex: nextIndex,
		ProposalPDA:   proposalPDA,
	}, nil
}

// Approve casts a yes vote on the proposal.
func (c *Client) Approve(ctx context.Context, createKey [lez.IdentitySize]byte, index uint64) (*VoteResult, error) {
	return c.vote(ctx, &multisig.ApproveMsg{CreateKey: createKey, ProposalIndex: index}, "approved", createKey, index)
}

// Reject casts a no vote on the proposal.
func (c *Client) Reject(ctx context.Context, createKey [lez.IdentitySize]byte, index uint64) (*VoteResult, error) {
	return c.vote(ctx, &multisig.RejectMsg{CreateKey: createKey, ProposalIndex: index}, "rejected", createKey, index)
}

func (c *Client) vote(ctx context.Context, msg lez.Msg, action string, createKey [lez.IdentitySize]byte, index uint64) (*VoteResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	statePDA, err := multisig.StateAddress(c.program, createKey)
	if err != nil {
		return nil, err
	}
	proposalPDA, err := multisig.ProposalAddress(c.program, createKey, index)
	if err != nil {
		return nil, err
	}
	hash, err := c.submit(ctx, msg, []lez.AccountID{statePDA, c.wallet.AccountID(), proposalPDA})
	if err != nil {
		return nil, err
	}
	return &VoteResult{TxHash: hash, ProposalIndex: index, Action: action}, nil
}

// Execute performs the chained call of an approved proposal.
func (c *Client) Execute(ctx context.Context, createKey [lez.IdentitySize]byte, index uint64) (*ExecuteResult, error) {
	msg := &multisig.ExecuteMsg{CreateKey: createKey, ProposalIndex: index}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	statePDA, err := multisig.StateAddress(c.program, createKey)
	if err != nil {
		return nil, err
	}
	proposalPDA, err := multisig.ProposalAddress(c.program, createKey, index)
	if err != nil {
		return nil, err
	}
	hash, err := c.submit(ctx, msg, []lez.AccountID{statePDA, c.wallet.AccountID(), proposalPDA})
	if err != nil {
		return nil, err
	}
	log.Info("proposal executed", "index", index)
	return &ExecuteResult{TxHash: hash, ProposalIndex: index}, nil
}

// ListProposals walks every index the multisig ever assigned and summarizes
// the proposal stored there. Unfetchable proposals are reported, not
// skipped, so the listing is always dense.
func (c *Client) ListProposals(ctx context.Context, createKey [lez.IdentitySize]byte) (*ListProposalsResult, error) {
	state, _, err := c.fetchState(ctx, createKey)
	if err != nil {
		return nil, err
	}
	res := &ListProposalsResult{
		Proposals:        make([]ProposalSummary, 0, state.TransactionIndex),
		TransactionIndex: state.TransactionIndex,
	}
	for index := uint64(1); index <= state.TransactionIndex; index++ {
		pda, err := multisig.ProposalAddress(c.program, createKey, index)
		if err != nil {
			return nil, err
		}
		raw, err := c.seq.Account(ctx, pda)
		if err != nil || raw == nil {
			res.Proposals = append(res.Proposals, ProposalSummary{
				Index:       index,
				Status:      "Missing",
				ProposalPDA: pda,
			})
			continue
		}
		var proposal multisig.Proposal
		if err := proposal.Unmarshal(raw); err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "proposal %d is corrupt: %v", index, err)
		}
		res.Proposals = append(res.Proposals, ProposalSummary{
			Index:              proposal.Index,
			Proposer:           proposal.Proposer.String(),
			TargetProgramID:    proposal.TargetProgram.String(),
			TargetAccountCount: proposal.TargetAccountCount,
			ApprovedCount:      len(proposal.Approvals),
			RejectedCount:      len(proposal.Rejections),
			Status:             proposal.Status.String(),
			ProposalPDA:        pda,
		})
	}
	return res, nil
}

// GetState returns the decoded multisig state together with its address.
func (c *Client) GetState(ctx context.Context, createKey [lez.IdentitySize]byte) (*StateResult, error) {
	state, statePDA, err := c.fetchState(ctx, createKey)
	if err != nil {
		return nil, err
	}
	members := make([]string, len(state.Members))
	for i, m := range state.Members {
		members[i] = m.String()
	}
	return &StateResult{
		State: StateInfo{
			CreateKey:        hex.EncodeToString(state.CreateKey[:]),
			Threshold:        state.Threshold,
			MemberCount:      state.MemberCount,
			Members:          members,
			TransactionIndex: state.TransactionIndex,
		},
		MultisigStatePDA: statePDA,
	}, nil
}

// submit wraps the message into a signed transaction using the wallet's
// current nonce and hands it to the sequencer.
func (c *Client) submit(ctx context.Context, msg lez.Msg, accounts []lez.AccountID) (string, error) {
	instruction, err := multisig.EncodeInstruction(msg)
	if err != nil {
		return "", err
	}
	nonce, err := c.seq.Nonce(ctx, c.wallet.AccountID())
	if err != nil {
		return "", err
	}
	tx := &lez.SignedTx{
		Program:     c.program,
		Accounts:    accounts,
		Signer:      c.wallet.AccountID(),
		Nonce:       nonce,
		Instruction: instruction,
	}
	if _, err := c.wallet.SignTx(tx); err != nil {
		return "", err
	}
	return c.seq.SubmitTx(ctx, tx)
}

func (c *Client) fetchState(ctx context.Context, createKey [lez.IdentitySize]byte) (*multisig.MultisigState, lez.AccountID, error) {
	statePDA, err := multisig.StateAddress(c.program, createKey)
	if err != nil {
		return nil, lez.AccountID{}, err
	}
	raw, err := c.seq.Account(ctx, statePDA)
	if err != nil {
		return nil, lez.AccountID{}, err
	}
	if raw == nil {
		return nil, lez.AccountID{}, errors.Wrap(errors.ErrNotFound, "multisig state account not found")
	}
	var state multisig.MultisigState
	if err := state.Unmarshal(raw); err != nil {
		return nil, lez.AccountID{}, errors.Wrapf(errors.ErrInput, "multisig state is corrupt: %v", err)
	}
	return &state, statePDA, nil
}
