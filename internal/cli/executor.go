package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
)

// NewExecutorCmd creates the executor allow-list command group
func NewExecutorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "executor",
		Aliases: []string{"executors"},
		Short:   "Manage the executor allow-list and emergency freeze",
	}

	cmd.AddCommand(
		newExecutorChangeCmd("add", "Add an executor", true),
		newExecutorChangeCmd("remove", "Remove an executor", false),
		newExecutorListCmd(),
		newExecutorFreezeCmd("freeze", "Block every privileged execution", true),
		newExecutorFreezeCmd("unfreeze", "Lift the emergency freeze", false),
		newExecutorRecordCmd(),
	)
	return cmd
}

func newExecutorChangeCmd(use, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <address>",
		Short: short,
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
			executor, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if add {
				err = app.Executors.AddExecutor(cmd.Context(), from, executor)
			} else {
				err = app.Executors.RemoveExecutor(cmd.Context(), from, executor)
			}
			if err != nil {
				return err
			}
			if add {
				success(cmd, app, "Executor %s added", executor.Hex())
			} else {
				success(cmd, app, "Executor %s removed", executor.Hex())
			}
			return nil
		},
	}
}

func newExecutorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List executors and their daily usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			status, err := app.Executors.ListExecutors(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, app, status, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderExecutors(status)
			})
		},
	}
}

func newExecutorFreezeCmd(use, short string, frozen bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := sender(app)
			if err != nil {
				return err
			}
			if err := app.Executors.SetEmergencyFreeze(cmd.Context(), from, frozen); err != nil {
				return err
			}
			if frozen {
				success(cmd, app, "Executions frozen")
			} else {
				success(cmd, app, "Executions resumed")
			}
			return nil
		},
	}
}

func newExecutorRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record [address]",
		Short: "Count one off-chain privileged execution against an executor's daily budget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			var executor common.Address
			if len(args) > 0 {
				executor, err = parseAddress(args[0])
			} else {
				executor, err = sender(app)
			}
			if err != nil {
				return err
			}
			if err := app.Executors.RecordExecution(cmd.Context(), executor); err != nil {
				return err
			}
			remaining, err := app.Executors.RemainingExecutions(cmd.Context(), executor)
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"executor": executor, "remaining": remaining}, func() error {
				success(cmd, app, "Execution recorded for %s", executor.Hex())
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d executions left today\n", remaining, app.Executors.DailyLimit())
				return nil
			})
		},
	}
}
