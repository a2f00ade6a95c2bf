package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
)

// NewCouncilCmd creates the security council command group
func NewCouncilCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "council",
		Short: "Manage the security council",
		Long: `Security council members may cancel any proposal that has not been
executed. Membership changes require GOVERNANCE, which the timelock holds.`,
	}

	cmd.AddCommand(
		newCouncilChangeCmd("add", "Add a security council member", true),
		newCouncilChangeCmd("remove", "Remove a security council member", false),
		newCouncilListCmd(),
	)
	return cmd
}

func newCouncilChangeCmd(use, short string, add bool) *cobra.Command {
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
			member, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if add {
				if err := app.Governor.AddCouncilMember(cmd.Context(), from, member); err != nil {
					return err
				}
				success(cmd, app, "%s added to the security council", member.Hex())
				return nil
			}
			if err := app.Governor.RemoveCouncilMember(cmd.Context(), from, member); err != nil {
				return err
			}
			success(cmd, app, "%s removed from the security council", member.Hex())
			return nil
		},
	}
}

func newCouncilListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List security council members",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			members, err := app.Governor.CouncilMembers(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, app, members, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderCouncil(members)
			})
		},
	}
}
