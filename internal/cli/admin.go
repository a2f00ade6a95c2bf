package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// NewAdminCmd creates the proxy admin registry command group
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "admin",
		Aliases: []string{"admins"},
		Short:   "Manage the registry of authorized proxy admins",
	}

	cmd.AddCommand(
		newAdminAuthorizeCmd(),
		newAdminRevokeCmd(),
		newAdminListCmd(),
		newAdminValidateCmd(),
	)
	return cmd
}

func newAdminAuthorizeCmd() *cobra.Command {
	var (
		name        string
		owner       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "authorize <admin>",
		Short: "Register an address as an authorized proxy admin",
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
			params := usecase.AuthorizeProxyAdminParams{Name: name, Description: description}
			if params.Admin, err = resolveTarget(app.Governance, args[0]); err != nil {
				return err
			}
			if owner != "" {
				if params.Owner, err = parseAddress(owner); err != nil {
					return err
				}
			}
			if err := app.Admins.AuthorizeProxyAdmin(cmd.Context(), from, params); err != nil {
				return err
			}
			success(cmd, app, "Proxy admin %s authorized", params.Admin.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human-readable name")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner of the admin contract")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	return cmd
}

func newAdminRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <admin>",
		Short: "Deactivate an authorized proxy admin",
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
			admin, err := resolveTarget(app.Governance, args[0])
			if err != nil {
				return err
			}
			if err := app.Admins.RevokeProxyAdmin(cmd.Context(), from, admin); err != nil {
				return err
			}
			success(cmd, app, "Proxy admin %s revoked", admin.Hex())
			return nil
		},
	}
}

func newAdminListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered proxy admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admins, err := app.Admins.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, app, admins, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderAdmins(admins)
			})
		},
	}
}

func newAdminValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <proxy>",
		Short: "Check that a proxy's admin is authorized",
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
			result, err := app.Admins.ValidateProxy(cmd.Context(), proxy)
			if err != nil {
				return err
			}
			return output(cmd, app, result, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderValidation(result)
			})
		},
	}
}
