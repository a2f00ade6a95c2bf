package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
)

func hasRole(ctx context.Context, roles RoleManager, role string, account common.Address) (bool, error) {
	ok, err := roles.HasRole(ctx, domain.RoleID(role), account)
	if err != nil {
		return false, fmt.Errorf("failed to check %s for %s: %w", role, account.Hex(), err)
	}
	return ok, nil
}

func requireRole(ctx context.Context, roles RoleManager, role string, account common.Address) error {
	ok, err := hasRole(ctx, roles, role, account)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.UnauthorizedError{Account: account, Capability: role}
	}
	return nil
}

// publish delivers event once the surrounding transaction commits
func publish(ctx context.Context, store StateStore, sink EventSink, event domain.Event) {
	store.OnCommit(ctx, func() {
		sink.Publish(context.WithoutCancel(ctx), event)
	})
}

func requireContract(ctx context.Context, inspector ProxyInspector, addr common.Address) error {
	if addr == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	ok, err := inspector.IsContract(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to check code at %s: %w", addr.Hex(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotAContract, addr.Hex())
	}
	return nil
}
