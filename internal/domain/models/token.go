package models

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Checkpoint is a value recorded from a block onward
type Checkpoint struct {
	Block uint64   `json:"block"`
	Value *big.Int `json:"value"`
}

// Checkpoints is an ascending-by-block history
type Checkpoints []Checkpoint

// At returns the value in effect at block, zero before the first checkpoint
func (c Checkpoints) At(block uint64) *big.Int {
	i := sort.Search(len(c), func(i int) bool { return c[i].Block > block })
	if i == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(c[i-1].Value)
}

// Latest returns the most recent value
func (c Checkpoints) Latest() *big.Int {
	if len(c) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(c[len(c)-1].Value)
}

// Push records value at block, overwriting a checkpoint for the same block
func (c Checkpoints) Push(block uint64, value *big.Int) Checkpoints {
	v := new(big.Int).Set(value)
	if n := len(c); n > 0 && c[n-1].Block == block {
		c[n-1].Value = v
		return c
	}
	return append(c, Checkpoint{Block: block, Value: v})
}

// TokenLedger is the local vote-checkpointed token bookkeeping
type TokenLedger struct {
	Balances    map[common.Address]*big.Int    `json:"balances"`
	Votes       map[common.Address]Checkpoints `json:"votes"`
	TotalSupply Checkpoints                    `json:"totalSupply"`
}
