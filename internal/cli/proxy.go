package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// NewProxyCmd creates the proxy registry command group
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proxy",
		Aliases: []string{"proxies"},
		Short:   "Register and inspect upgradeable proxies",
	}

	cmd.AddCommand(
		newProxyRegisterCmd(),
		newProxyRegisterImplCmd(),
		newProxyInspectCmd(),
		newProxyImportCmd(),
		newProxyListCmd(),
	)
	return cmd
}

func newProxyRegisterCmd() *cobra.Command {
	var proxyType string

	cmd := &cobra.Command{
		Use:   "register <proxy> <implementation> <admin>",
		Short: "Record a proxy with its current implementation and admin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			params := usecase.RegisterProxyParams{Type: proxyType}
			if params.Proxy, err = resolveTarget(app.Governance, args[0]); err != nil {
				return err
			}
			if params.Implementation, err = resolveTarget(app.Governance, args[1]); err != nil {
				return err
			}
			if params.Admin, err = resolveTarget(app.Governance, args[2]); err != nil {
				return err
			}
			info, err := app.ManageProxies.Register(cmd.Context(), params)
			if err != nil {
				return err
			}
			return output(cmd, app, info, func() error {
				success(cmd, app, "Proxy %s registered", info.Address.Hex())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&proxyType, "type", "ERC1967", "Proxy type (ERC1967, UUPS, Transparent)")
	return cmd
}

func newProxyRegisterImplCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "register-impl <address>",
		Short: "Record an address as deployed implementation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if err := app.ManageProxies.RegisterImplementation(cmd.Context(), addr, label); err != nil {
				return err
			}
			success(cmd, app, "Implementation %s registered", addr.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Label for the contract")
	return cmd
}

func newProxyInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <proxy>",
		Short: "Read a proxy's EIP-1967 slots from the configured node",
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
			info, err := app.ManageProxies.Inspect(cmd.Context(), proxy)
			if err != nil {
				return err
			}
			return output(cmd, app, info, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderProxy(info)
			})
		},
	}
}

func newProxyImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <proxy>",
		Short: "Read a proxy from the configured node and register it",
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
			info, err := app.ManageProxies.Import(cmd.Context(), proxy)
			if err != nil {
				return err
			}
			return output(cmd, app, info, func() error {
				success(cmd, app, "Proxy %s imported", info.Address.Hex())
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderProxy(info)
			})
		},
	}
}

func newProxyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			proxies, err := app.ManageProxies.List(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, app, proxies, func() error {
				return render.NewRegistryRenderer(cmd.OutOrStdout(), app.Clock.Now()).RenderProxies(proxies)
			})
		},
	}
}
