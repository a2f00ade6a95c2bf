package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// StateStore serializes every mutation of the governance record set.
// Update runs fn against a private working copy and commits it only when fn
// returns nil; an Update nested inside another (through ctx) joins the outer
// transaction so cross-component calls commit or roll back together.
type StateStore interface {
	View(ctx context.Context, fn func(st *models.State) error) error
	Update(ctx context.Context, fn func(ctx context.Context, st *models.State) error) error
	// OnCommit runs fn after the transaction carried by ctx commits.
	// Outside a transaction fn runs immediately.
	OnCommit(ctx context.Context, fn func())
}

// Clock is the only source of time for delay and expiry checks
type Clock interface {
	Now() time.Time
	BlockNumber() uint64
}

// RoleManager answers capability checks
type RoleManager interface {
	HasRole(ctx context.Context, role common.Hash, account common.Address) (bool, error)
}

// VotesSource reads historical voting power and supply.
// Lookups at or after the current block fail with domain.ErrFutureLookup.
type VotesSource interface {
	GetPastVotes(ctx context.Context, account common.Address, block uint64) (*big.Int, error)
	GetPastTotalSupply(ctx context.Context, block uint64) (*big.Int, error)
}

// TokenMinter creates new supply
type TokenMinter interface {
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
}

// ProxyInspector reads proxy and code state
type ProxyInspector interface {
	IsContract(ctx context.Context, addr common.Address) (bool, error)
	Implementation(ctx context.Context, proxy common.Address) (common.Address, error)
	Admin(ctx context.Context, proxy common.Address) (common.Address, error)
}

// ProxyUpgrader performs the implementation swap through a proxy admin
type ProxyUpgrader interface {
	UpgradeAndCall(ctx context.Context, admin, proxy, implementation common.Address, data []byte) error
}

// MintOracle sizes mint requests from off-chain revenue data
type MintOracle interface {
	GetLatestMintData(ctx context.Context, requestID string) (*models.OracleMintData, error)
}

// EventSink receives governance events after their transaction commits
type EventSink interface {
	Publish(ctx context.Context, event domain.Event)
}

// CallHandler executes calls routed to one governance target
type CallHandler interface {
	HandleCall(ctx context.Context, sender common.Address, value *big.Int, data []byte) error
}

// ItemSelector handles interactive selection of pending items
type ItemSelector interface {
	SelectProposal(ctx context.Context, proposals []*ProposalView, prompt string) (*ProposalView, error)
	SelectUpgrade(ctx context.Context, upgrades []*models.PendingUpgrade, prompt string) (*models.PendingUpgrade, error)
	SelectMintRequest(ctx context.Context, requests []*models.MintRequest, prompt string) (*models.MintRequest, error)
}

// ProgressSink receives progress updates from slow operations
type ProgressSink interface {
	Start(message string)
	Stop()
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) Start(string) {}
func (NopProgress) Stop()        {}

// NopEventSink drops every event
type NopEventSink struct{}

func (NopEventSink) Publish(context.Context, domain.Event) {}

// MultiEventSink fans events out to several sinks
type MultiEventSink []EventSink

func (m MultiEventSink) Publish(ctx context.Context, event domain.Event) {
	for _, s := range m {
		s.Publish(ctx, event)
	}
}

// ChainReader reads proxy and code state from a live node
type ChainReader interface {
	Connect(ctx context.Context, rpcURL string, chainID uint64) error
	ProxyInspector
}

// ProxyRegistrar records contracts and proxies in the local registry
type ProxyRegistrar interface {
	RegisterContract(ctx context.Context, addr common.Address, label string) error
	RegisterProxy(ctx context.Context, info models.ProxyInfo) error
	List(ctx context.Context) ([]*models.ProxyInfo, error)
	Get(ctx context.Context, addr common.Address) (*models.ProxyInfo, error)
}
