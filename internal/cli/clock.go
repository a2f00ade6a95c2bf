package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/config"
)

// NewClockCmd creates the sandbox clock command group
func NewClockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Inspect or advance the sandbox clock",
		Long: `Governance time is wall time plus a persisted offset. Advancing the
offset lets voting periods, timelock delays and mint periods elapse locally.`,
	}

	cmd.AddCommand(newClockShowCmd(), newClockAdvanceCmd())
	return cmd
}

func newClockShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show governance time and block number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			now := app.Clock.Now()
			block := app.Clock.BlockNumber()
			return output(cmd, app, map[string]interface{}{"time": now, "block": block}, func() error {
				fmt.Fprintf(cmd.OutOrStdout(), "Time:  %s\nBlock: %d\n", render.Timestamp(now), block)
				return nil
			})
		},
	}
}

func newClockAdvanceCmd() *cobra.Command {
	var blocks uint64

	cmd := &cobra.Command{
		Use:   "advance [duration]",
		Short: "Move the sandbox clock forward",
		Example: `  trebgov clock advance 2d
  trebgov clock advance 36h
  trebgov clock advance --blocks 50400`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			var d time.Duration
			switch {
			case len(args) == 1 && blocks > 0:
				return fmt.Errorf("pass either a duration or --blocks, not both")
			case len(args) == 1:
				if d, err = config.ParseDuration(args[0]); err != nil {
					return err
				}
			case blocks > 0:
				d = time.Duration(blocks) * app.Governance.Clock.BlockTime
			default:
				return fmt.Errorf("a duration or --blocks is required")
			}
			offset, err := app.AdvanceClock.Run(cmd.Context(), d)
			if err != nil {
				return err
			}
			now := app.Clock.Now()
			block := app.Clock.BlockNumber()
			return output(cmd, app, map[string]interface{}{"offset": offset, "time": now, "block": block}, func() error {
				success(cmd, app, "Clock advanced by %s", d)
				fmt.Fprintf(cmd.OutOrStdout(), "Time:  %s\nBlock: %d\n", render.Timestamp(now), block)
				return nil
			})
		},
	}

	cmd.Flags().Uint64Var(&blocks, "blocks", 0, "Advance by a number of blocks instead of a duration")
	return cmd
}
