package token

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// Ledger is the vote-checkpointed token kept in the governance state.
// Every holder is self-delegated, so voting power equals balance.
type Ledger struct {
	store usecase.StateStore
	clock usecase.Clock
	log   *slog.Logger
}

// NewLedger creates a new token ledger
func NewLedger(store usecase.StateStore, clock usecase.Clock, log *slog.Logger) *Ledger {
	return &Ledger{
		store: store,
		clock: clock,
		log:   log.With("component", "TokenLedger"),
	}
}

func (l *Ledger) checkPast(block uint64) error {
	if current := l.clock.BlockNumber(); block >= current {
		return fmt.Errorf("%w: block %d, current %d", domain.ErrFutureLookup, block, current)
	}
	return nil
}

// GetPastVotes returns the voting power of account at the end of block
func (l *Ledger) GetPastVotes(ctx context.Context, account common.Address, block uint64) (*big.Int, error) {
	if err := l.checkPast(block); err != nil {
		return nil, err
	}
	var votes *big.Int
	err := l.store.View(ctx, func(st *models.State) error {
		votes = st.Token.Votes[account].At(block)
		return nil
	})
	return votes, err
}

// GetPastTotalSupply returns the total supply at the end of block
func (l *Ledger) GetPastTotalSupply(ctx context.Context, block uint64) (*big.Int, error) {
	if err := l.checkPast(block); err != nil {
		return nil, err
	}
	var supply *big.Int
	err := l.store.View(ctx, func(st *models.State) error {
		supply = st.Token.TotalSupply.At(block)
		return nil
	})
	return supply, err
}

// Mint credits amount to to and checkpoints votes and supply at the current block
func (l *Ledger) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return fmt.Errorf("mint to %w", domain.ErrZeroAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint amount must be positive", domain.ErrInvalidAmount)
	}
	return l.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		block := l.clock.BlockNumber()
		st.Token.TotalSupply = st.Token.TotalSupply.Push(block, new(big.Int).Add(st.Token.TotalSupply.Latest(), amount))
		l.credit(st, block, to, amount)
		l.log.Debug("minted", "to", to.Hex(), "amount", amount, "block", block)
		return nil
	})
}

// Transfer moves amount from one holder to another, moving voting power with it
func (l *Ledger) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return fmt.Errorf("transfer to %w", domain.ErrZeroAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", domain.ErrInvalidAmount)
	}
	return l.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		balance := balanceOf(st, from)
		if balance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s holds %s, transfer of %s", domain.ErrInvalidAmount, from.Hex(), balance, amount)
		}
		block := l.clock.BlockNumber()
		l.credit(st, block, from, new(big.Int).Neg(amount))
		l.credit(st, block, to, amount)
		l.log.Debug("transferred", "from", from.Hex(), "to", to.Hex(), "amount", amount)
		return nil
	})
}

func (l *Ledger) credit(st *models.State, block uint64, account common.Address, delta *big.Int) {
	balance := new(big.Int).Add(balanceOf(st, account), delta)
	st.Token.Balances[account] = balance
	st.Token.Votes[account] = st.Token.Votes[account].Push(block, balance)
}

func balanceOf(st *models.State, account common.Address) *big.Int {
	if b, ok := st.Token.Balances[account]; ok && b != nil {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// BalanceOf returns the current balance of account
func (l *Ledger) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := l.store.View(ctx, func(st *models.State) error {
		balance = balanceOf(st, account)
		return nil
	})
	return balance, err
}

// TotalSupply returns the current total supply
func (l *Ledger) TotalSupply(ctx context.Context) (*big.Int, error) {
	var supply *big.Int
	err := l.store.View(ctx, func(st *models.State) error {
		supply = st.Token.TotalSupply.Latest()
		return nil
	})
	return supply, err
}

var (
	_ usecase.VotesSource = (*Ledger)(nil)
	_ usecase.TokenMinter = (*Ledger)(nil)
)
