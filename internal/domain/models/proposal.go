package models

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalType selects the quorum tier and the authorization rules of a proposal
type ProposalType uint8

const (
	ProposalTypeStandard ProposalType = iota
	ProposalTypeMintRequest
	ProposalTypeEmergency
	ProposalTypeConstitutional
	ProposalTypeUpgrade
)

var proposalTypeNames = map[ProposalType]string{
	ProposalTypeStandard:       "standard",
	ProposalTypeMintRequest:    "mint-request",
	ProposalTypeEmergency:      "emergency",
	ProposalTypeConstitutional: "constitutional",
	ProposalTypeUpgrade:        "upgrade",
}

// AllProposalTypes returns every proposal type in declaration order
func AllProposalTypes() []ProposalType {
	return []ProposalType{
		ProposalTypeStandard,
		ProposalTypeMintRequest,
		ProposalTypeEmergency,
		ProposalTypeConstitutional,
		ProposalTypeUpgrade,
	}
}

func (t ProposalType) String() string {
	if name, ok := proposalTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Valid reports whether t is one of the declared proposal types
func (t ProposalType) Valid() bool {
	_, ok := proposalTypeNames[t]
	return ok
}

// ParseProposalType parses a proposal type name such as "upgrade" or "mint-request"
func ParseProposalType(s string) (ProposalType, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for t, name := range proposalTypeNames {
		if name == normalized {
			return t, true
		}
	}
	return 0, false
}

func (t ProposalType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid proposal type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *ProposalType) UnmarshalText(text []byte) error {
	parsed, ok := ParseProposalType(string(text))
	if !ok {
		return fmt.Errorf("invalid proposal type %q", string(text))
	}
	*t = parsed
	return nil
}

// ProposalState is the derived lifecycle state of a proposal
type ProposalState string

const (
	ProposalStatePending   ProposalState = "pending"
	ProposalStateActive    ProposalState = "active"
	ProposalStateCanceled  ProposalState = "canceled"
	ProposalStateDefeated  ProposalState = "defeated"
	ProposalStateSucceeded ProposalState = "succeeded"
	ProposalStateQueued    ProposalState = "queued"
	ProposalStateExpired   ProposalState = "expired"
	ProposalStateExecuted  ProposalState = "executed"
)

// Terminal reports whether no further transition is possible
func (s ProposalState) Terminal() bool {
	return s == ProposalStateCanceled || s == ProposalStateExecuted || s == ProposalStateExpired
}

// VoteType is the support value of a cast vote
type VoteType uint8

const (
	VoteAgainst VoteType = iota
	VoteFor
	VoteAbstain
)

func (v VoteType) String() string {
	switch v {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// ParseVoteType parses "for", "against" or "abstain"
func ParseVoteType(s string) (VoteType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "against", "0":
		return VoteAgainst, true
	case "for", "1":
		return VoteFor, true
	case "abstain", "2":
		return VoteAbstain, true
	}
	return 0, false
}

// Receipt records a single voter's ballot
type Receipt struct {
	Support VoteType  `json:"support"`
	Weight  *big.Int  `json:"weight"`
	Reason  string    `json:"reason,omitempty"`
	CastAt  time.Time `json:"castAt"`
}

// ProposalVotes holds the running tallies of a proposal
type ProposalVotes struct {
	For     *big.Int `json:"for"`
	Against *big.Int `json:"against"`
	Abstain *big.Int `json:"abstain"`
}

// NewProposalVotes returns zeroed tallies
func NewProposalVotes() ProposalVotes {
	return ProposalVotes{
		For:     new(big.Int),
		Against: new(big.Int),
		Abstain: new(big.Int),
	}
}

// Participation is the vote weight counted toward quorum (for + abstain)
func (v ProposalVotes) Participation() *big.Int {
	return new(big.Int).Add(v.For, v.Abstain)
}

// Proposal is a governance proposal record
type Proposal struct {
	ID              common.Hash      `json:"id"`
	Type            ProposalType     `json:"type"`
	Proposer        common.Address   `json:"proposer"`
	Targets         []common.Address `json:"targets"`
	Values          []*big.Int       `json:"values"`
	Calldatas       [][]byte         `json:"calldatas"`
	Description     string           `json:"description"`
	DescriptionHash common.Hash      `json:"descriptionHash"`

	// Voting window in block numbers; VoteStart is the snapshot
	VoteStart uint64 `json:"voteStart"`
	VoteEnd   uint64 `json:"voteEnd"`

	Votes    ProposalVotes               `json:"votes"`
	Receipts map[common.Address]*Receipt `json:"receipts"`

	CreatedAt time.Time `json:"createdAt"`

	// Timelock integration (zero until queued)
	TimelockID common.Hash `json:"timelockId,omitempty"`
	ETA        time.Time   `json:"eta,omitempty"`

	Executed   bool           `json:"executed"`
	ExecutedAt *time.Time     `json:"executedAt,omitempty"`
	Canceled   bool           `json:"canceled"`
	CanceledAt *time.Time     `json:"canceledAt,omitempty"`
	CanceledBy common.Address `json:"canceledBy,omitempty"`
}

// Snapshot returns the block whose balances count for voting and quorum
func (p *Proposal) Snapshot() uint64 {
	return p.VoteStart
}

// Queued reports whether the proposal has been handed to the timelock
func (p *Proposal) Queued() bool {
	return p.TimelockID != (common.Hash{})
}

// Calls returns the proposal operations as timelock calls
func (p *Proposal) Calls() []Call {
	calls := make([]Call, len(p.Targets))
	for i := range p.Targets {
		calls[i] = Call{
			Target: p.Targets[i],
			Value:  p.Values[i],
			Data:   p.Calldatas[i],
		}
	}
	return calls
}

// ShortID returns an abbreviated proposal id for display
func (p *Proposal) ShortID() string {
	return p.ID.Hex()[:10]
}
