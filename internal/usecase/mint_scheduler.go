package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// MintScheduler enforces the phased issuance schedule. Requests reserve
// period capacity immediately and mint only after the execution delay.
type MintScheduler struct {
	address common.Address
	cfg     config.MintConfig
	store   StateStore
	roles   RoleManager
	minter  TokenMinter
	oracle  MintOracle
	clock   Clock
	events  EventSink
	log     *slog.Logger
}

// NewMintScheduler creates a new MintScheduler and registers it as a call target
func NewMintScheduler(
	cfg *config.GovernanceConfig,
	store StateStore,
	roles RoleManager,
	minter TokenMinter,
	oracle MintOracle,
	router *CallRouter,
	clock Clock,
	events EventSink,
	log *slog.Logger,
) *MintScheduler {
	s := &MintScheduler{
		address: cfg.Mint.Address,
		cfg:     cfg.Mint,
		store:   store,
		roles:   roles,
		minter:  minter,
		oracle:  oracle,
		clock:   clock,
		events:  events,
		log:     log.With("component", "MintScheduler"),
	}
	router.Register(s.address, s)
	return s
}

// Address returns the call-routing address of the scheduler
func (s *MintScheduler) Address() common.Address {
	return s.address
}

// Config returns the issuance schedule
func (s *MintScheduler) Config() config.MintConfig {
	return s.cfg
}

func (s *MintScheduler) scheduleStart(st *models.State) time.Time {
	if !s.cfg.ScheduleStart.IsZero() || st.GenesisAt == nil {
		return s.cfg.ScheduleStart
	}
	return *st.GenesisAt
}

// periodAt returns floor((now - start) / length) + 1
func (s *MintScheduler) periodAt(st *models.State, now time.Time) (uint64, error) {
	start := s.scheduleStart(st)
	if start.IsZero() || now.Before(start) {
		return 0, domain.ErrScheduleNotStarted
	}
	period := uint64(now.Sub(start)/s.cfg.PeriodLength) + 1
	if period > s.cfg.TotalPeriods() {
		return 0, fmt.Errorf("%w: period %d beyond %d", domain.ErrScheduleEnded, period, s.cfg.TotalPeriods())
	}
	return period, nil
}

// pending sums the reservations still held in period; period 0 means all periods
func (s *MintScheduler) pending(st *models.State, period uint64, now time.Time) *big.Int {
	total := new(big.Int)
	for _, r := range st.MintRequests {
		if period != 0 && r.Period != period {
			continue
		}
		if r.Reserving(now, s.cfg.RequestExpiry) {
			total.Add(total, r.Amount)
		}
	}
	return total
}

// periodRemaining is cap - minted - pending, floored at zero
func (s *MintScheduler) periodRemaining(st *models.State, period uint64, now time.Time) *big.Int {
	rem := s.cfg.PeriodCap(period)
	rem.Sub(rem, st.Mint.Minted(period))
	rem.Sub(rem, s.pending(st, period, now))
	if rem.Sign() < 0 {
		return new(big.Int)
	}
	return rem
}

// ceilingRemaining is ceiling - totalMinted - all pending, floored at zero
func (s *MintScheduler) ceilingRemaining(st *models.State, now time.Time) *big.Int {
	rem := s.cfg.MintableCeiling()
	rem.Sub(rem, st.Mint.TotalMinted)
	rem.Sub(rem, s.pending(st, 0, now))
	if rem.Sign() < 0 {
		return new(big.Int)
	}
	return rem
}

func (s *MintScheduler) checkCapacity(st *models.State, period uint64, amount *big.Int, now time.Time) error {
	if rem := s.periodRemaining(st, period, now); amount.Cmp(rem) > 0 {
		return fmt.Errorf("%w: requested %s, period %d has %s left", domain.ErrExceedsPeriodCapacity, amount, period, rem)
	}
	if rem := s.ceilingRemaining(st, now); amount.Cmp(rem) > 0 {
		return fmt.Errorf("%w: requested %s, %s left", domain.ErrExceedsMintableCeiling, amount, rem)
	}
	return nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	return nil
}

// InitialAllocation mints a one-time pre-allocation in period 1, before any
// request has been created
func (s *MintScheduler) InitialAllocation(ctx context.Context, caller, recipient common.Address, amount *big.Int) error {
	if err := requireRole(ctx, s.roles, domain.RoleMinter, caller); err != nil {
		return err
	}
	if recipient == (common.Address{}) {
		return fmt.Errorf("recipient: %w", domain.ErrZeroAddress)
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	return s.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if st.Mint.InitialAllocationDone {
			return domain.ErrInitialAllocationDone
		}
		now := s.clock.Now()
		period, err := s.periodAt(st, now)
		if err != nil {
			return err
		}
		if period != 1 || st.Mint.NextRequestID > 0 {
			return domain.ErrInitialAllocationUnavailable
		}
		if err := s.checkCapacity(st, period, amount, now); err != nil {
			return err
		}
		st.Mint.InitialAllocationDone = true
		st.Mint.AddMinted(period, amount)
		if err := s.minter.Mint(ctx, recipient, amount); err != nil {
			return fmt.Errorf("failed to mint initial allocation: %w", err)
		}
		s.log.Info("initial allocation minted", "recipient", recipient.Hex(), "amount", amount)
		publish(ctx, s.store, s.events, &domain.MintEvent{
			Type:      domain.EventTypeInitialAllocation,
			Recipient: recipient,
			Amount:    new(big.Int).Set(amount),
			Period:    period,
		})
		return nil
	})
}

// CreateMintRequestParams contains parameters for a mint request
type CreateMintRequestParams struct {
	Recipient common.Address
	Amount    *big.Int
	Purpose   string
}

// CreateMintRequest reserves amount of the current period's capacity
func (s *MintScheduler) CreateMintRequest(ctx context.Context, caller common.Address, params CreateMintRequestParams) (*models.MintRequest, error) {
	if err := requireRole(ctx, s.roles, domain.RoleMinter, caller); err != nil {
		return nil, err
	}
	if err := validAmount(params.Amount); err != nil {
		return nil, err
	}
	var created *models.MintRequest
	err := s.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		r, err := s.createLocked(ctx, st, caller, params, "")
		created = r
		return err
	})
	return created, err
}

// CreateMintRequestFromOracle sizes a mint request from finalized oracle data.
// Each oracle request id can back at most one mint request.
func (s *MintScheduler) CreateMintRequestFromOracle(ctx context.Context, caller, recipient common.Address, oracleRequestID, purpose string) (*models.MintRequest, error) {
	if err := requireRole(ctx, s.roles, domain.RoleMinter, caller); err != nil {
		return nil, err
	}
	data, err := s.oracle.GetLatestMintData(ctx, oracleRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to read oracle data for %q: %w", oracleRequestID, err)
	}

	var created *models.MintRequest
	err = s.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if id, used := st.Mint.ConsumedOracleIDs[oracleRequestID]; used {
			return fmt.Errorf("%w: %q backs request %d", domain.ErrOracleRequestConsumed, oracleRequestID, id)
		}
		if !data.Finalized {
			return fmt.Errorf("%w: %q", domain.ErrOracleDataNotFinalized, oracleRequestID)
		}
		if age := s.clock.Now().Sub(data.Timestamp); s.cfg.OracleMaxAge > 0 && age > s.cfg.OracleMaxAge {
			return fmt.Errorf("%w: %q is %s old", domain.ErrOracleDataStale, oracleRequestID, age.Truncate(time.Second))
		}
		if err := validAmount(data.TokensToMint); err != nil {
			return err
		}
		r, err := s.createLocked(ctx, st, caller, CreateMintRequestParams{
			Recipient: recipient,
			Amount:    data.TokensToMint,
			Purpose:   purpose,
		}, oracleRequestID)
		if err != nil {
			return err
		}
		st.Mint.ConsumedOracleIDs[oracleRequestID] = r.ID
		created = r
		return nil
	})
	return created, err
}

func (s *MintScheduler) createLocked(ctx context.Context, st *models.State, caller common.Address, params CreateMintRequestParams, oracleID string) (*models.MintRequest, error) {
	if params.Recipient == (common.Address{}) {
		return nil, fmt.Errorf("recipient: %w", domain.ErrZeroAddress)
	}
	now := s.clock.Now()
	period, err := s.periodAt(st, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkCapacity(st, period, params.Amount, now); err != nil {
		return nil, err
	}

	st.Mint.NextRequestID++
	r := &models.MintRequest{
		ID:              st.Mint.NextRequestID,
		Recipient:       params.Recipient,
		Amount:          new(big.Int).Set(params.Amount),
		Purpose:         params.Purpose,
		Period:          period,
		RequestedBy:     caller,
		ApprovedAt:      now,
		OracleRequestID: oracleID,
	}
	st.MintRequests[r.ID] = r

	s.log.Info("mint request created",
		"id", r.ID,
		"recipient", r.Recipient.Hex(),
		"amount", r.Amount,
		"period", period,
		"executableAt", now.Add(s.cfg.ExecutionDelay))
	publish(ctx, s.store, s.events, &domain.MintEvent{
		Type:      domain.EventTypeMintRequestCreated,
		RequestID: r.ID,
		Recipient: r.Recipient,
		Amount:    new(big.Int).Set(r.Amount),
		Period:    period,
	})
	cp := *r
	return &cp, nil
}

// ExecuteMintRequest mints a request whose delay has elapsed
func (s *MintScheduler) ExecuteMintRequest(ctx context.Context, caller common.Address, id uint64) error {
	if err := requireRole(ctx, s.roles, domain.RoleMinter, caller); err != nil {
		return err
	}
	return s.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		r, ok := st.MintRequests[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrMintRequestNotFound, id)
		}
		now := s.clock.Now()
		switch {
		case r.Executed:
			return fmt.Errorf("mint request %d: %w", id, domain.ErrAlreadyExecuted)
		case r.Canceled:
			return fmt.Errorf("mint request %d: %w", id, domain.ErrAlreadyCanceled)
		case now.Before(r.ApprovedAt.Add(s.cfg.ExecutionDelay)):
			return fmt.Errorf("%w: request %d executable at %s", domain.ErrDelayNotMet, id,
				r.ApprovedAt.Add(s.cfg.ExecutionDelay).Format(time.RFC3339))
		case r.Expired(now, s.cfg.RequestExpiry):
			return fmt.Errorf("%w: %d", domain.ErrMintRequestExpired, id)
		}

		// The reservation already holds the capacity; these only fail on a corrupted ledger.
		if minted := new(big.Int).Add(st.Mint.Minted(r.Period), r.Amount); minted.Cmp(s.cfg.PeriodCap(r.Period)) > 0 {
			return fmt.Errorf("%w: period %d", domain.ErrExceedsPeriodCapacity, r.Period)
		}
		if total := new(big.Int).Add(st.Mint.TotalMinted, r.Amount); total.Cmp(s.cfg.MintableCeiling()) > 0 {
			return domain.ErrExceedsMintableCeiling
		}

		r.Executed = true
		r.ExecutedAt = &now
		st.Mint.AddMinted(r.Period, r.Amount)

		if err := s.minter.Mint(ctx, r.Recipient, r.Amount); err != nil {
			return fmt.Errorf("failed to mint request %d: %w", id, err)
		}
		s.log.Info("mint request executed", "id", id, "recipient", r.Recipient.Hex(), "amount", r.Amount)
		publish(ctx, s.store, s.events, &domain.MintEvent{
			Type:      domain.EventTypeMintRequestExecuted,
			RequestID: id,
			Recipient: r.Recipient,
			Amount:    new(big.Int).Set(r.Amount),
			Period:    r.Period,
		})
		return nil
	})
}

// CancelMintRequest releases the reservation of an unexecuted request
func (s *MintScheduler) CancelMintRequest(ctx context.Context, caller common.Address, id uint64) error {
	if err := requireRole(ctx, s.roles, domain.RoleMinter, caller); err != nil {
		return err
	}
	return s.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		r, ok := st.MintRequests[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrMintRequestNotFound, id)
		}
		if r.Executed {
			return fmt.Errorf("mint request %d: %w", id, domain.ErrAlreadyExecuted)
		}
		if r.Canceled {
			return fmt.Errorf("mint request %d: %w", id, domain.ErrAlreadyCanceled)
		}
		now := s.clock.Now()
		r.Canceled = true
		r.CanceledAt = &now
		s.log.Info("mint request cancelled", "id", id, "by", caller.Hex())
		publish(ctx, s.store, s.events, &domain.MintEvent{
			Type:      domain.EventTypeMintRequestCanceled,
			RequestID: id,
			Recipient: r.Recipient,
			Amount:    new(big.Int).Set(r.Amount),
			Period:    r.Period,
		})
		return nil
	})
}

// CurrentPeriod returns the period containing the clock's current time
func (s *MintScheduler) CurrentPeriod(ctx context.Context) (uint64, error) {
	var period uint64
	err := s.store.View(ctx, func(st *models.State) error {
		p, err := s.periodAt(st, s.clock.Now())
		period = p
		return err
	})
	return period, err
}

// RemainingCapacity returns what can still be requested in period, bounded by
// the mintable ceiling
func (s *MintScheduler) RemainingCapacity(ctx context.Context, period uint64) (*big.Int, error) {
	var rem *big.Int
	err := s.store.View(ctx, func(st *models.State) error {
		now := s.clock.Now()
		rem = s.periodRemaining(st, period, now)
		if ceiling := s.ceilingRemaining(st, now); ceiling.Cmp(rem) < 0 {
			rem = ceiling
		}
		return nil
	})
	return rem, err
}

// PeriodSummary describes a single period
func (s *MintScheduler) PeriodSummary(ctx context.Context, period uint64) (*models.PeriodSummary, error) {
	if _, ok := s.cfg.PhaseFor(period); !ok {
		return nil, fmt.Errorf("%w: period %d outside 1..%d", domain.ErrScheduleEnded, period, s.cfg.TotalPeriods())
	}
	var summary *models.PeriodSummary
	err := s.store.View(ctx, func(st *models.State) error {
		summary = s.summarize(st, period, s.clock.Now())
		return nil
	})
	return summary, err
}

// Schedule describes every period of the issuance schedule
func (s *MintScheduler) Schedule(ctx context.Context) ([]*models.PeriodSummary, error) {
	var out []*models.PeriodSummary
	err := s.store.View(ctx, func(st *models.State) error {
		now := s.clock.Now()
		for p := uint64(1); p <= s.cfg.TotalPeriods(); p++ {
			out = append(out, s.summarize(st, p, now))
		}
		return nil
	})
	return out, err
}

func (s *MintScheduler) summarize(st *models.State, period uint64, now time.Time) *models.PeriodSummary {
	phase, _ := s.cfg.PhaseFor(period)
	start := s.scheduleStart(st).Add(time.Duration(period-1) * s.cfg.PeriodLength)
	return &models.PeriodSummary{
		Period:    period,
		Phase:     phase.Name,
		Start:     start,
		End:       start.Add(s.cfg.PeriodLength),
		Cap:       s.cfg.PeriodCap(period),
		Minted:    st.Mint.Minted(period),
		Pending:   s.pending(st, period, now),
		Remaining: s.periodRemaining(st, period, now),
	}
}

// SupplyStatus summarizes minted supply against the ceiling
type SupplyStatus struct {
	MaxSupply        *big.Int
	MintableCeiling  *big.Int
	TotalMinted      *big.Int
	TotalPending     *big.Int
	InitialAllocated bool
}

// Supply returns the cumulative issuance status
func (s *MintScheduler) Supply(ctx context.Context) (*SupplyStatus, error) {
	var status *SupplyStatus
	err := s.store.View(ctx, func(st *models.State) error {
		status = &SupplyStatus{
			MaxSupply:        new(big.Int).Set(s.cfg.MaxSupply),
			MintableCeiling:  s.cfg.MintableCeiling(),
			TotalMinted:      new(big.Int).Set(st.Mint.TotalMinted),
			TotalPending:     s.pending(st, 0, s.clock.Now()),
			InitialAllocated: st.Mint.InitialAllocationDone,
		}
		return nil
	})
	return status, err
}

// MintRequest returns a copy of a mint request
func (s *MintScheduler) MintRequest(ctx context.Context, id uint64) (*models.MintRequest, error) {
	var out *models.MintRequest
	err := s.store.View(ctx, func(st *models.State) error {
		r, ok := st.MintRequests[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrMintRequestNotFound, id)
		}
		cp := *r
		out = &cp
		return nil
	})
	return out, err
}

// RequestStatus derives the status of a request at the current time
func (s *MintScheduler) RequestStatus(r *models.MintRequest) models.MintRequestStatus {
	return r.StatusAt(s.clock.Now(), s.cfg.ExecutionDelay, s.cfg.RequestExpiry)
}

// ListMintRequests returns the requests matching filter ordered by id
func (s *MintScheduler) ListMintRequests(ctx context.Context, filter domain.MintRequestFilter) ([]*models.MintRequest, error) {
	var out []*models.MintRequest
	err := s.store.View(ctx, func(st *models.State) error {
		for _, r := range st.SortedMintRequests() {
			if filter.Period != 0 && r.Period != filter.Period {
				continue
			}
			if filter.Status != "" && s.RequestStatus(r) != filter.Status {
				continue
			}
			cp := *r
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

// HandleCall executes a governance call addressed to the scheduler
func (s *MintScheduler) HandleCall(ctx context.Context, sender common.Address, value *big.Int, data []byte) error {
	call, err := decodeCall(value, data)
	if err != nil {
		return err
	}
	switch call.Method {
	case bindings.MethodCreateMintRequest:
		var params CreateMintRequestParams
		if params.Recipient, err = call.Address("recipient"); err != nil {
			return err
		}
		if params.Amount, err = call.BigInt("amount"); err != nil {
			return err
		}
		if params.Purpose, err = call.String("purpose"); err != nil {
			return err
		}
		_, err = s.CreateMintRequest(ctx, sender, params)
		return err
	case bindings.MethodCreateMintRequestFromOracle:
		recipient, err := call.Address("recipient")
		if err != nil {
			return err
		}
		oracleID, err := call.String("oracleRequestId")
		if err != nil {
			return err
		}
		purpose, err := call.String("purpose")
		if err != nil {
			return err
		}
		_, err = s.CreateMintRequestFromOracle(ctx, sender, recipient, oracleID, purpose)
		return err
	case bindings.MethodExecuteMintRequest, bindings.MethodCancelMintRequest:
		id, err := call.BigInt("requestId")
		if err != nil {
			return err
		}
		if !id.IsUint64() {
			return fmt.Errorf("%w: %s", domain.ErrMintRequestNotFound, id)
		}
		if call.Method == bindings.MethodExecuteMintRequest {
			return s.ExecuteMintRequest(ctx, sender, id.Uint64())
		}
		return s.CancelMintRequest(ctx, sender, id.Uint64())
	default:
		return fmt.Errorf("%w: %s on mint scheduler", domain.ErrUnknownSelector, call.Method)
	}
}
