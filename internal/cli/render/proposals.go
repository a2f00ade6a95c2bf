package render

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// ProposalDetail is everything `proposal show` prints about one proposal
type ProposalDetail struct {
	*usecase.ProposalView
	Quorum       *big.Int `json:"quorum,omitempty"`
	CurrentBlock uint64   `json:"currentBlock"`
}

// ProposalsRenderer renders governor proposals
type ProposalsRenderer struct {
	out io.Writer
	now time.Time
}

// NewProposalsRenderer creates a new proposals renderer
func NewProposalsRenderer(out io.Writer, now time.Time) *ProposalsRenderer {
	return &ProposalsRenderer{out: out, now: now}
}

// StateColor picks the display color of a proposal state
func StateColor(s models.ProposalState) *color.Color {
	switch s {
	case models.ProposalStateActive, models.ProposalStateQueued:
		return pendingStyle
	case models.ProposalStateSucceeded, models.ProposalStateExecuted:
		return okStyle
	case models.ProposalStateDefeated, models.ProposalStateCanceled:
		return badStyle
	default:
		return mutedStyle
	}
}

// RenderList renders proposals as a table
func (r *ProposalsRenderer) RenderList(proposals []*usecase.ProposalView) error {
	if len(proposals) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"ID", "Type", "State", "Votes (for/against/abstain)", "Ends", "Description"})
	for _, p := range proposals {
		t.AppendRow([]interface{}{
			p.ShortID(),
			p.Type.String(),
			StateColor(p.State).Sprint(string(p.State)),
			fmt.Sprintf("%s / %s / %s", Tokens(p.Votes.For), Tokens(p.Votes.Against), Tokens(p.Votes.Abstain)),
			fmt.Sprintf("block %d", p.VoteEnd),
			truncate(firstLine(p.Description), 48),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderProposal renders one proposal in detail
func (r *ProposalsRenderer) RenderProposal(d *ProposalDetail) error {
	p := d.ProposalView
	headerStyle.Fprintf(r.out, "Proposal %s\n", p.ID.Hex())
	fmt.Fprintln(r.out, strings.Repeat("=", 80))
	fmt.Fprintln(r.out, field("Type", p.Type.String()))
	fmt.Fprintln(r.out, field("State", StateColor(p.State).Sprint(string(p.State))))
	fmt.Fprintln(r.out, field("Proposer", p.Proposer.Hex()))
	fmt.Fprintln(r.out, field("Created", Timestamp(p.CreatedAt)))
	fmt.Fprintln(r.out, field("Voting", fmt.Sprintf("blocks %d → %d (current %d)", p.VoteStart, p.VoteEnd, d.CurrentBlock)))

	sectionStyle.Fprintln(r.out, "\nVotes:")
	fmt.Fprintln(r.out, field("For", amountStyle.Sprint(Tokens(p.Votes.For))))
	fmt.Fprintln(r.out, field("Against", amountStyle.Sprint(Tokens(p.Votes.Against))))
	fmt.Fprintln(r.out, field("Abstain", amountStyle.Sprint(Tokens(p.Votes.Abstain))))
	if d.Quorum != nil {
		reached := badStyle.Sprint("not reached")
		if p.Votes.Participation().Cmp(d.Quorum) >= 0 {
			reached = okStyle.Sprint("reached")
		}
		fmt.Fprintln(r.out, field("Quorum", fmt.Sprintf("%s (%s)", Tokens(d.Quorum), reached)))
	}
	fmt.Fprintln(r.out, field("Voters", len(p.Receipts)))

	if p.Queued() {
		sectionStyle.Fprintln(r.out, "\nTimelock:")
		fmt.Fprintln(r.out, field("Operation", p.TimelockID.Hex()))
		fmt.Fprintln(r.out, field("ETA", fmt.Sprintf("%s (%s)", Timestamp(p.ETA), Until(r.now, p.ETA))))
	}
	if p.ExecutedAt != nil {
		fmt.Fprintln(r.out, field("Executed", Timestamp(*p.ExecutedAt)))
	}
	if p.CanceledAt != nil {
		fmt.Fprintln(r.out, field("Canceled", fmt.Sprintf("%s by %s", Timestamp(*p.CanceledAt), p.CanceledBy.Hex())))
	}

	sectionStyle.Fprintf(r.out, "\nOperations (%d):\n", len(p.Targets))
	for i, target := range p.Targets {
		fmt.Fprintf(r.out, "  %d. %s %s\n", i+1, target.Hex(), describeCall(p.Calldatas[i]))
		if v := p.Values[i]; v != nil && v.Sign() > 0 {
			fmt.Fprintf(r.out, "     value: %s\n", v.String())
		}
	}

	sectionStyle.Fprintln(r.out, "\nDescription:")
	for _, line := range strings.Split(p.Description, "\n") {
		fmt.Fprintf(r.out, "  %s\n", line)
	}
	return nil
}

// describeCall decodes calldata against the governance ABI when it can
func describeCall(data []byte) string {
	call, err := bindings.GovernanceContract().Decode(data)
	if err != nil {
		if len(data) == 0 {
			return mutedStyle.Sprint("(no calldata)")
		}
		return mutedStyle.Sprint(truncate(hexutil.Encode(data), 42))
	}
	args := make([]string, 0, len(call.Args))
	for name, v := range call.Args {
		args = append(args, fmt.Sprintf("%s=%v", name, v))
	}
	return fmt.Sprintf("%s(%s)", color.New(color.FgCyan).Sprint(call.Method), strings.Join(sortedStrings(args), ", "))
}
