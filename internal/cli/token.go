package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
)

// NewTokenCmd creates the governance token command group
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and move governance token balances",
	}

	cmd.AddCommand(newTokenBalanceCmd(), newTokenTransferCmd(), newTokenSupplyCmd())
	return cmd
}

func newTokenBalanceCmd() *cobra.Command {
	var block uint64

	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show an account's balance, or its voting power at a past block",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			account := app.Config.Sender
			if len(args) > 0 {
				if account, err = resolveTarget(app.Governance, args[0]); err != nil {
					return err
				}
			} else if account, err = sender(app); err != nil {
				return err
			}

			result := map[string]interface{}{"account": account}
			if block > 0 {
				votes, err := app.Ledger.GetPastVotes(cmd.Context(), account, block)
				if err != nil {
					return err
				}
				result["block"] = block
				result["votes"] = votes
				return output(cmd, app, result, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "%s had %s votes at block %d\n", account.Hex(), render.Tokens(votes), block)
					return nil
				})
			}

			balance, err := app.Ledger.BalanceOf(cmd.Context(), account)
			if err != nil {
				return err
			}
			result["balance"] = balance
			return output(cmd, app, result, func() error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s tokens\n", account.Hex(), render.Tokens(balance))
				return nil
			})
		},
	}

	cmd.Flags().Uint64Var(&block, "block", 0, "Report voting power at this past block")
	return cmd
}

func newTokenTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Transfer tokens from the sender",
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
			to, err := resolveTarget(app.Governance, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if err := app.Ledger.Transfer(cmd.Context(), from, to, amount); err != nil {
				return err
			}
			success(cmd, app, "Transferred %s tokens to %s", render.Tokens(amount), to.Hex())
			return nil
		},
	}
}

func newTokenSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show total token supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			supply, err := app.Ledger.TotalSupply(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"totalSupply": supply}, func() error {
				fmt.Fprintf(cmd.OutOrStdout(), "Total supply: %s tokens\n", render.Tokens(supply))
				return nil
			})
		},
	}
}
