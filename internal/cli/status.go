package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show an overview of every governance component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			summary, err := app.Status.Run(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, app, summary, func() error {
				return render.NewStatusRenderer(cmd.OutOrStdout()).Render(summary)
			})
		},
	}
}
