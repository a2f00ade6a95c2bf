package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
)

// NewMultisigCmd creates the multisig upgrader command group
func NewMultisigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multisig",
		Short: "Propose and confirm proxy upgrades through the owner multisig",
		Long: `The multisig upgrader is a standalone upgrade path. It does not go through
the governor or the timelock: owners propose, confirm and execute upgrades
directly, subject to the standard or emergency delay and threshold.`,
	}

	cmd.AddCommand(
		newMultisigProposeCmd(),
		newMultisigConfirmCmd(),
		newMultisigRevokeCmd(),
		multisigUpgrades.executeCmd(),
		multisigUpgrades.cancelCmd(),
		multisigUpgrades.checkCmd(),
		multisigUpgrades.showCmd(),
		multisigUpgrades.listCmd(),
		newMultisigOwnersCmd(),
	)
	return cmd
}

func newMultisigProposeCmd() *cobra.Command {
	var (
		data      string
		emergency bool
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "propose <proxy> <implementation>",
		Short: "Propose an upgrade; the proposer's confirmation is counted",
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
			params, err := upgradeParams(app, args, data, emergency, reason)
			if err != nil {
				return err
			}
			u, err := app.Multisig.ProposeUpgrade(cmd.Context(), from, params)
			if err != nil {
				return err
			}
			view := multisigUpgrades.view(app, u)
			return output(cmd, app, view, func() error {
				success(cmd, app, "Multisig upgrade %s proposed for %s", render.ShortHash(u.ID), u.Proxy.Hex())
				return render.NewUpgradesRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderUpgrade(view)
			})
		},
	}

	upgradeFlags(cmd, &data, &emergency, &reason)
	return cmd
}

func newMultisigConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm [upgrade-id|proxy]",
		Short: "Confirm a pending multisig upgrade",
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
			u, err := multisigUpgrades.resolve(cmd.Context(), app, args, "Select an upgrade to confirm")
			if err != nil {
				return err
			}
			count, required, err := app.Multisig.ConfirmUpgrade(cmd.Context(), from, u.ID)
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"id": u.ID, "confirmations": count, "required": required}, func() error {
				success(cmd, app, "Confirmed upgrade %s (%d/%d)", render.ShortHash(u.ID), count, required)
				return nil
			})
		},
	}
}

func newMultisigRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke [upgrade-id|proxy]",
		Short: "Withdraw a confirmation from a pending multisig upgrade",
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
			u, err := multisigUpgrades.resolve(cmd.Context(), app, args, "Select an upgrade")
			if err != nil {
				return err
			}
			if err := app.Multisig.RevokeConfirmation(cmd.Context(), from, u.ID); err != nil {
				return err
			}
			success(cmd, app, "Confirmation on %s revoked", render.ShortHash(u.ID))
			return nil
		},
	}
}

func newMultisigOwnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "Show the multisig owners and thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			owners := app.Multisig.Owners()
			threshold, emergency := app.Multisig.Threshold()
			result := map[string]interface{}{
				"owners":             owners,
				"threshold":          threshold,
				"emergencyThreshold": emergency,
			}
			return output(cmd, app, result, func() error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Threshold: %d of %d (emergency %d)\n", threshold, len(owners), emergency)
				for _, o := range owners {
					fmt.Fprintf(out, "  %s\n", o.Hex())
				}
				return nil
			})
		},
	}
}
