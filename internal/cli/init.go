package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed the governance state from trebgov.toml",
		Long: `Create the governance state: initial executors, security council,
token allocations, registered proxies and contract code, as declared in
trebgov.toml. Genesis also starts the issuance schedule unless
[mint] schedule_start is set.

Use --force to discard an existing state. The sandbox clock offset is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := app.InitGovernance.Run(cmd.Context(), usecase.InitGovernanceParams{Force: force})
			if err != nil {
				return err
			}
			return output(cmd, app, result, func() error {
				out := cmd.OutOrStdout()
				success(cmd, app, "Governance state initialized at %s", app.Config.StatePath)
				fmt.Fprintf(out, "  Executors:    %d\n", result.Executors)
				fmt.Fprintf(out, "  Council:      %d\n", result.Council)
				fmt.Fprintf(out, "  Allocations:  %d (%s tokens)\n", result.Allocations, render.Tokens(result.Supply))
				fmt.Fprintf(out, "  Proxies:      %d\n", result.Proxies)
				fmt.Fprintf(out, "  Contracts:    %d\n", result.Contracts)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Discard any existing state")
	return cmd
}
