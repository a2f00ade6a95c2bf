package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/app"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// NewMintCmd creates the token issuance command group
func NewMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Request and execute scheduled token issuance",
		Long: `Token issuance follows a fixed 25-period schedule in three phases. Each
period has a cap; mint requests reserve capacity in the current period and
become executable after the execution delay, expiring after the request
expiry. Creating requests requires MINTER, which the timelock holds.`,
	}

	cmd.AddCommand(
		newMintRequestCmd(),
		newMintRequestOracleCmd(),
		newMintExecuteCmd(),
		newMintCancelCmd(),
		newMintShowCmd(),
		newMintListCmd(),
		newMintScheduleCmd(),
		newMintSupplyCmd(),
		newMintAllocateCmd(),
	)
	return cmd
}

func mintView(a *app.App, r *models.MintRequest) *render.MintRequestView {
	cfg := a.Mint.Config()
	return &render.MintRequestView{
		MintRequest:  r,
		Status:       a.Mint.RequestStatus(r),
		ExecutableAt: r.ApprovedAt.Add(cfg.ExecutionDelay),
		ExpiresAt:    r.ApprovedAt.Add(cfg.RequestExpiry),
	}
}

// currentPeriod returns zero outside the schedule instead of failing
func currentPeriod(ctx context.Context, a *app.App) (uint64, error) {
	period, err := a.Mint.CurrentPeriod(ctx)
	if errors.Is(err, domain.ErrScheduleNotStarted) || errors.Is(err, domain.ErrScheduleEnded) {
		return 0, nil
	}
	return period, err
}

func newMintRequestCmd() *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:   "request <recipient> <amount>",
		Short: "Reserve capacity in the current period for a mint",
		Example: `  trebgov mint request 0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC 250000 --purpose "ecosystem grants"
  trebgov mint request treasury 1000000000000000000wei`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			params := usecase.CreateMintRequestParams{Purpose: purpose}
			if params.Recipient, err = resolveTarget(app.Governance, args[0]); err != nil {
				return err
			}
			if params.Amount, err = parseAmount(args[1]); err != nil {
				return err
			}
			r, err := app.Mint.CreateMintRequest(cmd.Context(), from, params)
			if err != nil {
				return err
			}
			return renderCreatedRequest(cmd, app, r)
		},
	}

	cmd.Flags().StringVar(&purpose, "purpose", "", "Purpose recorded with the request")
	return cmd
}

func newMintRequestOracleCmd() *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:   "request-oracle <recipient> <oracle-request-id>",
		Short: "Create a mint request sized by finalized oracle data",
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
			recipient, err := resolveTarget(app.Governance, args[0])
			if err != nil {
				return err
			}
			r, err := app.Mint.CreateMintRequestFromOracle(cmd.Context(), from, recipient, args[1], purpose)
			if err != nil {
				return err
			}
			return renderCreatedRequest(cmd, app, r)
		},
	}

	cmd.Flags().StringVar(&purpose, "purpose", "", "Purpose recorded with the request")
	return cmd
}

func renderCreatedRequest(cmd *cobra.Command, a *app.App, r *models.MintRequest) error {
	view := mintView(a, r)
	return output(cmd, a, view, func() error {
		success(cmd, a, "Mint request #%d created in period %d", r.ID, r.Period)
		return render.NewMintRenderer(cmd.OutOrStdout(), a.Clock.Now()).RenderRequest(view)
	})
}

// mintRequestArg resolves the positional request id, prompting among
// requests in status when it is missing
func mintRequestArg(ctx context.Context, a *app.App, args []string, status models.MintRequestStatus) (uint64, error) {
	if len(args) > 0 {
		return parseRequestID(args[0])
	}
	if !interactive(a) {
		return 0, fmt.Errorf("request id required in non-interactive mode")
	}
	requests, err := a.Mint.ListMintRequests(ctx, domain.MintRequestFilter{Status: status})
	if err != nil {
		return 0, err
	}
	if len(requests) == 0 {
		return 0, fmt.Errorf("%w: no %s requests", domain.ErrMintRequestNotFound, status)
	}
	selected, err := a.Selector.SelectMintRequest(ctx, requests, "Select a mint request")
	if err != nil {
		return 0, err
	}
	return selected.ID, nil
}

func newMintExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [request-id]",
		Short: "Mint the tokens of an executable request",
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
			id, err := mintRequestArg(cmd.Context(), app, args, models.MintRequestStatusExecutable)
			if err != nil {
				return err
			}
			if err := app.Mint.ExecuteMintRequest(cmd.Context(), from, id); err != nil {
				return err
			}
			r, err := app.Mint.MintRequest(cmd.Context(), id)
			if err != nil {
				return err
			}
			return output(cmd, app, mintView(app, r), func() error {
				success(cmd, app, "Minted %s tokens to %s (request #%d)", render.Tokens(r.Amount), r.Recipient.Hex(), id)
				return nil
			})
		},
	}
}

func newMintCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [request-id]",
		Short: "Cancel a pending mint request and release its capacity",
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
			id, err := mintRequestArg(cmd.Context(), app, args, "")
			if err != nil {
				return err
			}
			if err := app.Mint.CancelMintRequest(cmd.Context(), from, id); err != nil {
				return err
			}
			success(cmd, app, "Mint request #%d canceled", id)
			return nil
		},
	}
}

func newMintShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [request-id]",
		Short: "Show a mint request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := mintRequestArg(cmd.Context(), app, args, "")
			if err != nil {
				return err
			}
			r, err := app.Mint.MintRequest(cmd.Context(), id)
			if err != nil {
				return err
			}
			view := mintView(app, r)
			return output(cmd, app, view, func() error {
				return render.NewMintRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderRequest(view)
			})
		},
	}
}

func newMintListCmd() *cobra.Command {
	var (
		period uint64
		status string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List mint requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			filter := domain.MintRequestFilter{Period: period, Status: models.MintRequestStatus(status)}
			requests, err := app.Mint.ListMintRequests(cmd.Context(), filter)
			if err != nil {
				return err
			}
			views := make([]*render.MintRequestView, 0, len(requests))
			for _, r := range requests {
				views = append(views, mintView(app, r))
			}
			return output(cmd, app, views, func() error {
				return render.NewMintRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderRequests(views)
			})
		},
	}

	cmd.Flags().Uint64Var(&period, "period", 0, "Only requests created in this period")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, executable, executed, canceled, expired)")
	return cmd
}

func newMintScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [period]",
		Short: "Show the issuance schedule with per-period usage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			current, err := currentPeriod(cmd.Context(), app)
			if err != nil {
				return err
			}
			var periods []*models.PeriodSummary
			if len(args) > 0 {
				n, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid period: %s", args[0])
				}
				summary, err := app.Mint.PeriodSummary(cmd.Context(), n)
				if err != nil {
					return err
				}
				periods = []*models.PeriodSummary{summary}
			} else if periods, err = app.Mint.Schedule(cmd.Context()); err != nil {
				return err
			}
			return output(cmd, app, periods, func() error {
				return render.NewMintRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderSchedule(periods, current)
			})
		},
	}
}

func newMintSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show minted supply against the ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			supply, err := app.Mint.Supply(cmd.Context())
			if err != nil {
				return err
			}
			current, err := currentPeriod(cmd.Context(), app)
			if err != nil {
				return err
			}
			return output(cmd, app, supply, func() error {
				return render.NewMintRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderSupply(supply, current)
			})
		},
	}
}

func newMintAllocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocate <recipient> <amount>",
		Short: "Perform the one-time initial allocation in period 1",
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
			recipient, err := resolveTarget(app.Governance, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if err := app.Mint.InitialAllocation(cmd.Context(), from, recipient, amount); err != nil {
				return err
			}
			success(cmd, app, "Allocated %s tokens to %s", render.Tokens(amount), recipient.Hex())
			return nil
		},
	}
}
