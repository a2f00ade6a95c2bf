package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/app"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// upgradeBackend is the surface shared by the timelock upgrade authority and
// the standalone multisig upgrader
type upgradeBackend interface {
	CanExecuteUpgrade(ctx context.Context, proxy common.Address) (bool, string, error)
	ExecuteUpgrade(ctx context.Context, caller, proxy common.Address) error
	ExecuteUpgradeWithCall(ctx context.Context, caller, proxy common.Address) error
	CancelUpgrade(ctx context.Context, caller, proxy common.Address) error
	PendingUpgrade(ctx context.Context, proxy common.Address) (*models.PendingUpgrade, error)
	ListUpgrades(ctx context.Context, filter domain.UpgradeFilter) ([]*models.PendingUpgrade, error)
	ExecutionWindow() time.Duration
}

type upgradeCommands struct {
	kind     models.UpgradeAuthorityKind
	backend  func(a *app.App) upgradeBackend
	required func(a *app.App, u *models.PendingUpgrade) int
}

var timelockUpgrades = upgradeCommands{
	kind:    models.UpgradeAuthorityTimelock,
	backend: func(a *app.App) upgradeBackend { return a.Upgrades },
	required: func(a *app.App, _ *models.PendingUpgrade) int {
		return a.Upgrades.RequiredSignatures()
	},
}

var multisigUpgrades = upgradeCommands{
	kind:    models.UpgradeAuthorityMultisig,
	backend: func(a *app.App) upgradeBackend { return a.Multisig },
	required: func(a *app.App, u *models.PendingUpgrade) int {
		return a.Multisig.RequiredFor(u)
	},
}

// NewUpgradeCmd creates the upgrade command group for the timelock-governed authority
func NewUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "upgrade",
		Aliases: []string{"upgrades"},
		Short:   "Schedule, sign and execute proxy upgrades through the upgrade authority",
		Long: `Proxy upgrades gated by roles, a delay and upgrader signatures.

Scheduling requires UPGRADE_PROPOSER (normally held by the timelock, so
upgrades usually arrive through an upgrade-type proposal). Signing requires
UPGRADE_SIGNER. Emergency upgrades use the shorter emergency delay.`,
	}

	cmd.AddCommand(
		newUpgradeScheduleCmd(),
		newUpgradeSignCmd(),
		timelockUpgrades.executeCmd(),
		timelockUpgrades.cancelCmd(),
		timelockUpgrades.checkCmd(),
		timelockUpgrades.showCmd(),
		timelockUpgrades.listCmd(),
	)
	return cmd
}

func newUpgradeScheduleCmd() *cobra.Command {
	var (
		data      string
		emergency bool
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "schedule <proxy> <implementation>",
		Short: "Schedule an upgrade for a proxy",
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
			u, err := app.Upgrades.ScheduleUpgrade(cmd.Context(), from, params)
			if err != nil {
				return err
			}
			view := timelockUpgrades.view(app, u)
			return output(cmd, app, view, func() error {
				success(cmd, app, "Upgrade %s scheduled for %s", render.ShortHash(u.ID), u.Proxy.Hex())
				return render.NewUpgradesRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderUpgrade(view)
			})
		},
	}

	upgradeFlags(cmd, &data, &emergency, &reason)
	return cmd
}

func newUpgradeSignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign [upgrade-id|proxy]",
		Short: "Sign a pending upgrade as an UPGRADE_SIGNER",
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
			u, err := timelockUpgrades.resolve(cmd.Context(), app, args, "Select an upgrade to sign")
			if err != nil {
				return err
			}
			count, required, err := app.Upgrades.SignUpgrade(cmd.Context(), from, u.ID)
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"id": u.ID, "signatures": count, "required": required}, func() error {
				success(cmd, app, "Signed upgrade %s (%d/%d)", render.ShortHash(u.ID), count, required)
				return nil
			})
		},
	}
}

func upgradeFlags(cmd *cobra.Command, data *string, emergency *bool, reason *string) {
	cmd.Flags().StringVar(data, "data", "", "Calldata for the post-upgrade call (hex)")
	cmd.Flags().StringVar(data, "call", "", "Post-upgrade call as method(args...)")
	cmd.Flags().BoolVar(emergency, "emergency", false, "Use the emergency delay")
	cmd.Flags().StringVar(reason, "reason", "", "Reason recorded with the upgrade")
}

// upgradeParams builds schedule parameters; data may be hex or method(args...)
func upgradeParams(a *app.App, args []string, data string, emergency bool, reason string) (usecase.ScheduleUpgradeParams, error) {
	params := usecase.ScheduleUpgradeParams{IsEmergency: emergency, Reason: reason}
	var err error
	if params.Proxy, err = resolveTarget(a.Governance, args[0]); err != nil {
		return params, err
	}
	if params.Implementation, err = resolveTarget(a.Governance, args[1]); err != nil {
		return params, err
	}
	if data != "" {
		if b, herr := hexBytes(data); herr == nil {
			params.Data = b
		} else if params.Data, err = encodeMethod(data); err != nil {
			return params, err
		}
	}
	return params, nil
}

func (c upgradeCommands) view(a *app.App, u *models.PendingUpgrade) *render.UpgradeView {
	window := c.backend(a).ExecutionWindow()
	return &render.UpgradeView{
		PendingUpgrade: u,
		Status:         u.StatusAt(a.Clock.Now(), window),
		Required:       c.required(a, u),
		ExpiresAt:      u.ExpiresAt(window),
	}
}

// resolve finds the upgrade named by an id or a proxy, prompting among open
// upgrades when no argument is given
func (c upgradeCommands) resolve(ctx context.Context, a *app.App, args []string, prompt string) (*models.PendingUpgrade, error) {
	backend := c.backend(a)
	if len(args) == 0 {
		if !interactive(a) {
			return nil, fmt.Errorf("upgrade id or proxy required in non-interactive mode")
		}
		open, err := backend.ListUpgrades(ctx, domain.UpgradeFilter{Authority: c.kind})
		if err != nil {
			return nil, err
		}
		if len(open) == 0 {
			return nil, fmt.Errorf("%w: nothing open", domain.ErrUpgradeNotFound)
		}
		return a.Selector.SelectUpgrade(ctx, open, prompt)
	}

	if len(args[0]) == 2*common.HashLength+2 {
		id, err := parseHash(args[0])
		if err != nil {
			return nil, err
		}
		all, err := backend.ListUpgrades(ctx, domain.UpgradeFilter{Authority: c.kind, IncludeDone: true})
		if err != nil {
			return nil, err
		}
		for _, u := range all {
			if u.ID == id {
				return u, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUpgradeNotFound, id.Hex())
	}

	proxy, err := resolveTarget(a.Governance, args[0])
	if err != nil {
		return nil, err
	}
	return backend.PendingUpgrade(ctx, proxy)
}

func (c upgradeCommands) executeCmd() *cobra.Command {
	var withCall bool

	cmd := &cobra.Command{
		Use:   "execute [proxy]",
		Short: "Execute a pending upgrade once it is executable",
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
			u, err := c.resolve(cmd.Context(), app, args, "Select an upgrade to execute")
			if err != nil {
				return err
			}
			backend := c.backend(app)
			if withCall {
				err = backend.ExecuteUpgradeWithCall(cmd.Context(), from, u.Proxy)
			} else {
				err = backend.ExecuteUpgrade(cmd.Context(), from, u.Proxy)
			}
			if err != nil {
				return err
			}
			success(cmd, app, "Proxy %s upgraded to %s", u.Proxy.Hex(), u.Implementation.Hex())
			return nil
		},
	}

	cmd.Flags().BoolVar(&withCall, "with-call", false, "Run the scheduled post-upgrade call")
	return cmd
}

func (c upgradeCommands) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [proxy]",
		Short: "Cancel the pending upgrade of a proxy",
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
			u, err := c.resolve(cmd.Context(), app, args, "Select an upgrade to cancel")
			if err != nil {
				return err
			}
			if err := c.backend(app).CancelUpgrade(cmd.Context(), from, u.Proxy); err != nil {
				return err
			}
			success(cmd, app, "Upgrade %s for %s canceled", render.ShortHash(u.ID), u.Proxy.Hex())
			return nil
		},
	}
}

func (c upgradeCommands) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <proxy>",
		Short: "Report whether the pending upgrade of a proxy can execute now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			proxy, err := resolveTarget(app.Governance, args[0])
			if err != nil {
				return err
			}
			ok, reason, err := c.backend(app).CanExecuteUpgrade(cmd.Context(), proxy)
			if err != nil {
				return err
			}
			return output(cmd, app, map[string]interface{}{"proxy": proxy, "executable": ok, "reason": reason}, func() error {
				if ok {
					fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess("executable"))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning("not executable: "+reason))
				}
				return nil
			})
		},
	}
}

func (c upgradeCommands) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [upgrade-id|proxy]",
		Short: "Show an upgrade",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			u, err := c.resolve(cmd.Context(), app, args, "Select an upgrade")
			if err != nil {
				return err
			}
			view := c.view(app, u)
			return output(cmd, app, view, func() error {
				return render.NewUpgradesRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderUpgrade(view)
			})
		},
	}
}

func (c upgradeCommands) listCmd() *cobra.Command {
	var (
		all    bool
		status string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List upgrades",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			filter := domain.UpgradeFilter{
				Authority:   c.kind,
				Status:      models.UpgradeStatus(status),
				IncludeDone: all || status != "",
			}
			upgrades, err := c.backend(app).ListUpgrades(cmd.Context(), filter)
			if err != nil {
				return err
			}
			views := make([]*render.UpgradeView, 0, len(upgrades))
			for _, u := range upgrades {
				views = append(views, c.view(app, u))
			}
			return output(cmd, app, views, func() error {
				return render.NewUpgradesRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderList(views)
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include executed, canceled and expired upgrades")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, executable, executed, canceled, expired)")
	return cmd
}
