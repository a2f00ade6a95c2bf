package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/app"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// NewProposalCmd creates the proposal command group
func NewProposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposal",
		Aliases: []string{"proposals", "gov"},
		Short:   "Create, vote on and execute governor proposals",
	}

	cmd.AddCommand(
		newProposeCmd(),
		newVoteCmd(),
		newProposalQueueCmd(),
		newProposalExecuteCmd(),
		newProposalCancelCmd(),
		newProposalShowCmd(),
		newProposalListCmd(),
		newProposalThresholdCmd(),
	)
	return cmd
}

func newProposeCmd() *cobra.Command {
	var (
		proposalType    string
		calls           []string
		rawCalls        []string
		description     string
		descriptionFile string
	)

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Submit a proposal",
		Long: `Submit a proposal of the given type. Each --call adds one operation,
written as target:method(args...), where target is an address, a component
name (governor, timelock, upgrade-authority, multisig-upgrader,
executor-manager, admin-validator, mint-scheduler) or a [contracts] label.
Use --raw for operations with pre-encoded calldata.

Mint-request proposals may only contain mint-request calls.`,
		Example: `  trebgov proposal propose --type standard \
    --call 'executor-manager:addExecutor(0x70997970C51812dc3A010C7d01b50e0d17dc79C8)' \
    -m "Add keeper bot as executor"

  trebgov proposal propose --type mint-request \
    --call 'mint-scheduler:createMintRequest(0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC, 250000, "ecosystem grants")' \
    -m "Q3 grants"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}

			t, ok := models.ParseProposalType(proposalType)
			if !ok {
				return fmt.Errorf("%w: %s (valid: standard, emergency, upgrade, constitutional, mint-request)", domain.ErrInvalidProposalType, proposalType)
			}
			if descriptionFile != "" {
				data, err := os.ReadFile(descriptionFile)
				if err != nil {
					return fmt.Errorf("failed to read description: %w", err)
				}
				description = string(data)
			}
			if strings.TrimSpace(description) == "" {
				return fmt.Errorf("a description is required (-m or --description-file)")
			}

			params := usecase.ProposeParams{Description: description, Type: t}
			add := func(c *call) {
				params.Targets = append(params.Targets, c.Target)
				params.Values = append(params.Values, c.Value)
				params.Calldatas = append(params.Calldatas, c.Data)
			}
			for _, expr := range calls {
				c, err := parseCall(app.Governance, expr)
				if err != nil {
					return err
				}
				add(c)
			}
			for _, expr := range rawCalls {
				c, err := parseRawCall(app.Governance, expr)
				if err != nil {
					return err
				}
				add(c)
			}

			id, err := app.Governor.ProposeWithType(cmd.Context(), from, params)
			if err != nil {
				return err
			}
			view, err := app.Governor.Proposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			return output(cmd, app, view, func() error {
				success(cmd, app, "Proposal %s created (%s)", id.Hex(), t)
				fmt.Fprintf(cmd.OutOrStdout(), "Voting opens at block %d and closes at block %d\n", view.VoteStart, view.VoteEnd)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&proposalType, "type", "t", "standard", "Proposal type (standard, emergency, upgrade, constitutional, mint-request)")
	cmd.Flags().StringArrayVar(&calls, "call", nil, "Operation as target:method(args...) (repeatable)")
	cmd.Flags().StringArrayVar(&rawCalls, "raw", nil, "Operation as target:0xcalldata[:value] (repeatable)")
	cmd.Flags().StringVarP(&description, "description", "m", "", "Proposal description")
	cmd.Flags().StringVar(&descriptionFile, "description-file", "", "Read the description from a file")

	return cmd
}

func newVoteCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "vote <proposal> <for|against|abstain>",
		Short: "Cast a vote with the sender's voting power at the snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			id, err := resolveProposal(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			support, ok := models.ParseVoteType(args[1])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrInvalidVoteType, args[1])
			}
			weight, err := app.Governor.CastVote(cmd.Context(), from, id, support, reason)
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"proposalId": id, "support": support.String(), "weight": weight}, func() error {
				success(cmd, app, "Voted %s on %s with %s votes", support, id.Hex()[:10], render.Tokens(weight))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the vote")

	return cmd
}

func newProposalQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue [proposal]",
		Short: "Queue a succeeded proposal in the timelock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			id, err := proposalArg(cmd.Context(), app, args, models.ProposalStateSucceeded)
			if err != nil {
				return err
			}
			eta, err := app.Governor.Queue(cmd.Context(), from, id)
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"proposalId": id, "eta": eta}, func() error {
				success(cmd, app, "Proposal %s queued, executable %s (%s)", id.Hex()[:10],
					render.Timestamp(eta), render.Until(app.Clock.Now(), eta))
				return nil
			})
		},
	}
}

func newProposalExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [proposal]",
		Short: "Execute a queued proposal once its timelock delay has passed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			id, err := proposalArg(cmd.Context(), app, args, models.ProposalStateQueued)
			if err != nil {
				return err
			}
			if err := app.Governor.Execute(cmd.Context(), from, id); err != nil {
				return err
			}
			success(cmd, app, "Proposal %s executed", id.Hex()[:10])
			return nil
		},
	}
}

func newProposalCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <proposal>",
		Short: "Cancel a proposal (proposer before voting, or security council)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			id, err := resolveProposal(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Governor.Cancel(cmd.Context(), from, id); err != nil {
				return err
			}
			success(cmd, app, "Proposal %s canceled", id.Hex()[:10])
			return nil
		},
	}
}

func newProposalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [proposal]",
		Short: "Show a proposal, its votes and operations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := proposalArg(cmd.Context(), app, args, "")
			if err != nil {
				return err
			}
			view, err := app.Governor.Proposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			detail := &render.ProposalDetail{ProposalView: view, CurrentBlock: app.Clock.BlockNumber()}
			quorum, err := app.Governor.ProposalQuorum(cmd.Context(), id)
			switch {
			case err == nil:
				detail.Quorum = quorum
			case !errors.Is(err, domain.ErrFutureLookup):
				return err
			}
			return output(cmd, app, detail, func() error {
				return render.NewProposalsRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderProposal(detail)
			})
		},
	}
}

func newProposalListCmd() *cobra.Command {
	var (
		state        string
		proposalType string
		proposer     string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			filter := domain.ProposalFilter{State: models.ProposalState(strings.ToLower(state))}
			if proposalType != "" {
				t, ok := models.ParseProposalType(proposalType)
				if !ok {
					return fmt.Errorf("%w: %s", domain.ErrInvalidProposalType, proposalType)
				}
				filter.Type = &t
			}
			if proposer != "" {
				if filter.Proposer, err = parseAddress(proposer); err != nil {
					return err
				}
			}
			proposals, err := app.Governor.ListProposals(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return output(cmd, app, proposals, func() error {
				return render.NewProposalsRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderList(proposals)
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state (pending, active, succeeded, defeated, queued, executed, canceled, expired)")
	cmd.Flags().StringVarP(&proposalType, "type", "t", "", "Filter by proposal type")
	cmd.Flags().StringVar(&proposer, "proposer", "", "Filter by proposer address")

	return cmd
}

func newProposalThresholdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threshold",
		Short: "Show the voting power needed to propose and the quorum tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			threshold, err := app.Governor.ProposalThreshold(cmd.Context())
			if err != nil {
				return err
			}
			policy := app.Governor.QuorumPolicy()
			tiers := make(map[string]uint64)
			for _, t := range models.AllProposalTypes() {
				tiers[t.String()] = policy.Bps(t)
			}
			result := map[string]interface{}{
				"proposalThreshold": threshold,
				"quorumBps":         tiers,
				"minimumQuorum":     policy.MinimumQuorum(),
			}
			return output(cmd, app, result, func() error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Proposal threshold: %s tokens\n", render.Tokens(threshold))
				fmt.Fprintf(out, "Minimum quorum:     %s tokens\n", render.Tokens(policy.MinimumQuorum()))
				fmt.Fprintln(out, "Quorum tiers:")
				for _, t := range models.AllProposalTypes() {
					fmt.Fprintf(out, "  %-15s %5.2f%%\n", t.String(), float64(policy.Bps(t))/100)
				}
				return nil
			})
		},
	}
}

// resolveProposal accepts a full proposal id or a unique prefix of one
func resolveProposal(ctx context.Context, a *app.App, ref string) (common.Hash, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if len(ref) == 2*common.HashLength+2 {
		return parseHash(ref)
	}
	if !strings.HasPrefix(ref, "0x") {
		ref = "0x" + ref
	}
	proposals, err := a.Governor.ListProposals(ctx, domain.ProposalFilter{})
	if err != nil {
		return common.Hash{}, err
	}
	var match []common.Hash
	for _, p := range proposals {
		if strings.HasPrefix(strings.ToLower(p.ID.Hex()), ref) {
			match = append(match, p.ID)
		}
	}
	switch len(match) {
	case 0:
		return common.Hash{}, fmt.Errorf("%w: %s", domain.ErrProposalNotFound, ref)
	case 1:
		return match[0], nil
	default:
		return common.Hash{}, fmt.Errorf("proposal id %s is ambiguous (%d matches)", ref, len(match))
	}
}

// proposalArg resolves the positional proposal argument, prompting among
// proposals in state when it is missing
func proposalArg(ctx context.Context, a *app.App, args []string, state models.ProposalState) (common.Hash, error) {
	if len(args) > 0 {
		return resolveProposal(ctx, a, args[0])
	}
	if !interactive(a) {
		return common.Hash{}, fmt.Errorf("proposal id required in non-interactive mode")
	}
	proposals, err := a.Governor.ListProposals(ctx, domain.ProposalFilter{State: state})
	if err != nil {
		return common.Hash{}, err
	}
	if len(proposals) == 0 {
		return common.Hash{}, fmt.Errorf("%w: no matching proposals", domain.ErrProposalNotFound)
	}
	selected, err := a.Selector.SelectProposal(ctx, proposals, "Select a proposal")
	if err != nil {
		return common.Hash{}, err
	}
	return selected.ID, nil
}
