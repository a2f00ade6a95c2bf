package usecase

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// CallRouter dispatches timelock calls to the component registered at the target
type CallRouter struct {
	mu       sync.RWMutex
	handlers map[common.Address]CallHandler
}

// NewCallRouter creates an empty CallRouter
func NewCallRouter() *CallRouter {
	return &CallRouter{handlers: make(map[common.Address]CallHandler)}
}

// Register binds handler to target. The zero address is never routable.
func (r *CallRouter) Register(target common.Address, handler CallHandler) {
	if target == (common.Address{}) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[target] = handler
}

// Targets lists the registered addresses
func (r *CallRouter) Targets() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, 0, len(r.handlers))
	for addr := range r.handlers {
		out = append(out, addr)
	}
	return out
}

// Dispatch executes call as sender; the first failure aborts
func (r *CallRouter) Dispatch(ctx context.Context, sender common.Address, call models.Call) error {
	r.mu.RLock()
	handler, ok := r.handlers[call.Target]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCallTarget, call.Target.Hex())
	}
	if err := handler.HandleCall(ctx, sender, call.Value, call.Data); err != nil {
		return fmt.Errorf("call to %s failed: %w", call.Target.Hex(), err)
	}
	return nil
}

// DispatchAll executes calls in order
func (r *CallRouter) DispatchAll(ctx context.Context, sender common.Address, calls []models.Call) error {
	for i, call := range calls {
		if err := r.Dispatch(ctx, sender, call); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func decodeCall(value *big.Int, data []byte) (*bindings.DecodedCall, error) {
	if value != nil && value.Sign() != 0 {
		return nil, domain.ErrValueNotAccepted
	}
	call, err := bindings.GovernanceContract().Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnknownSelector, err)
	}
	return call, nil
}
