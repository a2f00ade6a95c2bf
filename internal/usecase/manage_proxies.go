package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// ManageProxies registers proxies and implementations in the local registry,
// either by hand or by reading a proxy's EIP-1967 slots from a node
type ManageProxies struct {
	cfg      *config.RuntimeConfig
	registry ProxyRegistrar
	chain    ChainReader
	progress ProgressSink
	log      *slog.Logger
}

// NewManageProxies creates a new ManageProxies use case
func NewManageProxies(cfg *config.RuntimeConfig, registry ProxyRegistrar, chain ChainReader, progress ProgressSink, log *slog.Logger) *ManageProxies {
	return &ManageProxies{
		cfg:      cfg,
		registry: registry,
		chain:    chain,
		progress: progress,
		log:      log.With("component", "ManageProxies"),
	}
}

// RegisterProxyParams contains parameters for registering a proxy by hand
type RegisterProxyParams struct {
	Proxy          common.Address
	Implementation common.Address
	Admin          common.Address
	Type           string
}

// Register records a proxy and marks its implementation as deployed code
func (uc *ManageProxies) Register(ctx context.Context, params RegisterProxyParams) (*models.ProxyInfo, error) {
	if params.Type == "" {
		params.Type = "ERC1967"
	}
	if err := uc.registry.RegisterContract(ctx, params.Implementation, "implementation"); err != nil {
		return nil, err
	}
	info := models.ProxyInfo{
		Address:        params.Proxy,
		Type:           params.Type,
		Implementation: params.Implementation,
		Admin:          params.Admin,
	}
	if err := uc.registry.RegisterProxy(ctx, info); err != nil {
		return nil, err
	}
	return uc.registry.Get(ctx, params.Proxy)
}

// RegisterImplementation records deployed implementation code
func (uc *ManageProxies) RegisterImplementation(ctx context.Context, addr common.Address, label string) error {
	if label == "" {
		label = "implementation"
	}
	return uc.registry.RegisterContract(ctx, addr, label)
}

func (uc *ManageProxies) connect(ctx context.Context) error {
	if uc.cfg.Network == nil || uc.cfg.Network.RPCURL == "" {
		return fmt.Errorf("no network configured: set [network] rpc_url in trebgov.toml or pass --rpc-url")
	}
	return uc.chain.Connect(ctx, uc.cfg.Network.RPCURL, uc.cfg.Network.ChainID)
}

// Inspect reads a proxy's implementation and admin from the configured node
func (uc *ManageProxies) Inspect(ctx context.Context, proxy common.Address) (*models.ProxyInfo, error) {
	uc.progress.Start(fmt.Sprintf("Reading proxy %s...", proxy.Hex()))
	defer uc.progress.Stop()

	if err := uc.connect(ctx); err != nil {
		return nil, err
	}
	isContract, err := uc.chain.IsContract(ctx, proxy)
	if err != nil {
		return nil, err
	}
	if !isContract {
		return nil, fmt.Errorf("no code at %s", proxy.Hex())
	}
	impl, err := uc.chain.Implementation(ctx, proxy)
	if err != nil {
		return nil, err
	}
	admin, err := uc.chain.Admin(ctx, proxy)
	if err != nil {
		return nil, err
	}
	return &models.ProxyInfo{
		Address:        proxy,
		Type:           "ERC1967",
		Implementation: impl,
		Admin:          admin,
	}, nil
}

// Import reads a proxy from the node and records it locally
func (uc *ManageProxies) Import(ctx context.Context, proxy common.Address) (*models.ProxyInfo, error) {
	info, err := uc.Inspect(ctx, proxy)
	if err != nil {
		return nil, err
	}
	if info.Implementation == (common.Address{}) {
		return nil, fmt.Errorf("%s has an empty EIP-1967 implementation slot", proxy.Hex())
	}
	uc.log.Info("importing proxy", "proxy", proxy.Hex(), "implementation", info.Implementation.Hex(), "admin", info.Admin.Hex())
	return uc.Register(ctx, RegisterProxyParams{
		Proxy:          info.Address,
		Implementation: info.Implementation,
		Admin:          info.Admin,
		Type:           info.Type,
	})
}

// List returns the locally registered proxies
func (uc *ManageProxies) List(ctx context.Context) ([]*models.ProxyInfo, error) {
	return uc.registry.List(ctx)
}
