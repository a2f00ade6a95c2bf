package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// NewTimelockCmd creates the timelock command group
func NewTimelockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timelock",
		Short: "Inspect and execute timelock operations",
	}

	cmd.AddCommand(
		newTimelockListCmd(),
		newTimelockShowCmd(),
		newTimelockExecuteCmd(),
		newTimelockCancelCmd(),
	)
	return cmd
}

func newTimelockListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List scheduled operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ops, err := app.Timelock.ListOperations(cmd.Context())
			if err != nil {
				return err
			}
			if !all {
				open := ops[:0]
				for _, op := range ops {
					if !op.Done && !op.Canceled {
						open = append(open, op)
					}
				}
				ops = open
			}
			return output(cmd, app, ops, func() error {
				fmt.Fprintf(cmd.OutOrStdout(), "Minimum delay: %s\n\n", app.Timelock.MinDelay())
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderOperations(ops)
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include done and canceled operations")
	return cmd
}

func newTimelockShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <operation-id>",
		Short: "Show an operation and its calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseHash(args[0])
			if err != nil {
				return err
			}
			op, err := app.Timelock.Operation(cmd.Context(), id)
			if err != nil {
				return err
			}
			return output(cmd, app, op, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderOperations([]*models.TimelockOperation{op})
			})
		},
	}
}

func newTimelockExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <operation-id>",
		Short: "Execute a ready operation",
		Long: `Execute a ready operation directly. The sender must be on the executor
allow-list. Operations created by the governor are normally executed with
'trebgov proposal execute'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			id, err := parseHash(args[0])
			if err != nil {
				return err
			}
			if err := app.Timelock.ExecuteByID(cmd.Context(), from, id); err != nil {
				return err
			}
			success(cmd, app, "Operation %s executed", render.ShortHash(id))
			return nil
		},
	}
}

func newTimelockCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <operation-id>",
		Short: "Cancel a pending operation",
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
			id, err := parseHash(args[0])
			if err != nil {
				return err
			}
			if err := app.Timelock.Cancel(cmd.Context(), from, id); err != nil {
				return err
			}
			success(cmd, app, "Operation %s canceled", render.ShortHash(id))
			return nil
		},
	}
}
