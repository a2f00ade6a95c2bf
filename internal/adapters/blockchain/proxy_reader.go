package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// EIP-1967 storage slots: bytes32(uint256(keccak256('eip1967.proxy.<name>')) - 1)
var (
	ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	AdminSlot          = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
)

const readTimeout = 5 * time.Second

// ProxyReader reads proxy state from a node through the EIP-1967 slots
type ProxyReader struct {
	client  *ethclient.Client
	chainID uint64
}

// NewProxyReader creates a new, unconnected proxy reader
func NewProxyReader() *ProxyReader {
	return &ProxyReader{}
}

// Connect establishes connection to the blockchain
func (c *ProxyReader) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}
	c.client = client

	networkChainID, err := c.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	// If chainID was 0, use the network's chain ID
	if chainID == 0 {
		c.chainID = networkChainID.Uint64()
	} else if networkChainID.Uint64() != chainID {
		return fmt.Errorf("chain ID mismatch: expected %d, got %d", chainID, networkChainID.Uint64())
	} else {
		c.chainID = chainID
	}

	return nil
}

// ChainID returns the chain the reader is connected to
func (c *ProxyReader) ChainID() uint64 {
	return c.chainID
}

// IsContract reports whether code exists at addr
func (c *ProxyReader) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	if c.client == nil {
		return false, fmt.Errorf("not connected to blockchain")
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	code, err := c.client.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

func (c *ProxyReader) readSlot(ctx context.Context, proxy common.Address, slot common.Hash) (common.Address, error) {
	if c.client == nil {
		return common.Address{}, fmt.Errorf("not connected to blockchain")
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	value, err := c.client.StorageAt(ctx, proxy, slot, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read slot %s of %s: %w", slot.Hex(), proxy.Hex(), err)
	}
	return common.BytesToAddress(value), nil
}

// Implementation reads the EIP-1967 implementation slot of proxy
func (c *ProxyReader) Implementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	return c.readSlot(ctx, proxy, ImplementationSlot)
}

// Admin reads the EIP-1967 admin slot of proxy
func (c *ProxyReader) Admin(ctx context.Context, proxy common.Address) (common.Address, error) {
	return c.readSlot(ctx, proxy, AdminSlot)
}

var _ usecase.ChainReader = (*ProxyReader)(nil)
