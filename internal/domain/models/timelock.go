package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Call is a single target/value/calldata triple executed by the timelock
type Call struct {
	Target common.Address `json:"target"`
	Value  *big.Int       `json:"value"`
	Data   []byte         `json:"data"`
}

// OperationState is the derived state of a timelock operation
type OperationState string

const (
	OperationStateUnset    OperationState = "unset"
	OperationStateWaiting  OperationState = "waiting"
	OperationStateReady    OperationState = "ready"
	OperationStateDone     OperationState = "done"
	OperationStateCanceled OperationState = "canceled"
	OperationStateExpired  OperationState = "expired"
)

// TimelockOperation is a scheduled batch of calls
type TimelockOperation struct {
	ID          common.Hash    `json:"id"`
	Calls       []Call         `json:"calls"`
	Predecessor common.Hash    `json:"predecessor"`
	Salt        common.Hash    `json:"salt"`
	Delay       time.Duration  `json:"delay"`
	Timestamp   time.Time      `json:"timestamp"`
	ScheduledBy common.Address `json:"scheduledBy"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	Done        bool           `json:"done"`
	ExecutedAt  *time.Time     `json:"executedAt,omitempty"`
	Canceled    bool           `json:"canceled"`
}

// StateAt derives the operation state at the given time
func (op *TimelockOperation) StateAt(now time.Time) OperationState {
	switch {
	case op == nil:
		return OperationStateUnset
	case op.Done:
		return OperationStateDone
	case op.Canceled:
		return OperationStateCanceled
	case op.Deadline != nil && now.After(*op.Deadline):
		return OperationStateExpired
	case !now.Before(op.Timestamp):
		return OperationStateReady
	default:
		return OperationStateWaiting
	}
}

// Pending reports whether the operation is scheduled and not yet resolved
func (op *TimelockOperation) Pending() bool {
	return op != nil && !op.Done && !op.Canceled
}
