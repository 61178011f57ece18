package multisig

// Tally is the execution gate: it answers, with integer arithmetic only,
// whether a proposal has crossed its approval threshold and whether it can
// still possibly do so. All vote-driven status transitions go through this
// one rule.
type Tally struct {
	Approvals  int
	Rejections int
	Authorized int
}

// NewTally reads the current vote counts off a proposal.
func NewTally(p *Proposal) Tally {
	return Tally{
		Approvals:  len(p.Approvals),
		Rejections: len(p.Rejections),
		Authorized: len(p.AuthorizedIndices),
	}
}

// Meets returns whether the collected approvals satisfy the threshold.
func (t Tally) Meets(threshold uint8) bool {
	return t.Approvals >= int(threshold)
}

// Unreachable returns whether the threshold can no longer be met: even if
// every authorized member who has not voted yet approves, the total stays
// below the threshold. A proposal becomes rejected exactly at this point,
// not on the first no vote.
func (t Tally) Unreachable(threshold uint8) bool {
	remaining := t.Authorized - t.Approvals - t.Rejections
	return t.Approvals+remaining < int(threshold)
}

// applyVote records the vote and moves the proposal to a terminal voting
// state when the tally demands it. The caller checked authorization and
// double-voting already.
func applyVote(p *Proposal, memberIndex uint8, approve bool, threshold uint8) {
	if approve {
		p.Approvals = append(p.Approvals, memberIndex)
	} else {
		p.Rejections = append(p.Rejections, memberIndex)
	}
	t := NewTally(p)
	switch {
	case t.Meets(threshold):
		p.Status = StatusApproved
	case t.Unreachable(threshold):
		p.Status = StatusRejected
	}
}
