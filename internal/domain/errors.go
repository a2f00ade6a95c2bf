package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for governance operations. Every precondition failure maps to
// exactly one of these so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the caller lacks the capability for an action
	ErrUnauthorized = errors.New("unauthorized")

	// ErrZeroAddress is returned when an address argument is the zero address
	ErrZeroAddress = errors.New("zero address")

	// ErrNotAContract is returned when an address that must hold code has none
	ErrNotAContract = errors.New("not a contract")

	ErrInvalidAmount = errors.New("invalid amount")

	// Proposal lifecycle
	ErrProposalNotFound         = fmt.Errorf("proposal %w", ErrNotFound)
	ErrProposalAlreadyExists    = errors.New("proposal already exists")
	ErrInvalidProposalType      = errors.New("invalid proposal type")
	ErrInvalidProposalLength    = errors.New("invalid proposal length")
	ErrEmptyProposal            = errors.New("empty proposal")
	ErrTooManyOperations        = errors.New("too many operations")
	ErrInsufficientVotingPower  = errors.New("insufficient voting power")
	ErrUnexpectedProposalState  = errors.New("unexpected proposal state")
	ErrAlreadyVoted             = errors.New("already voted")
	ErrInvalidVoteType          = errors.New("invalid vote type")
	ErrUnauthorizedCancellation = errors.New("unauthorized cancellation")
	ErrAlreadyCouncilMember     = errors.New("already a security council member")
	ErrNotCouncilMember         = errors.New("not a security council member")

	// Shared terminal-state errors
	ErrAlreadyExecuted = errors.New("already executed")
	ErrAlreadyCanceled = errors.New("already cancelled")
	ErrDelayNotMet     = errors.New("delay not met")
	ErrExpired         = errors.New("expired")

	// Upgrade authorization
	ErrUpgradeNotFound           = fmt.Errorf("pending upgrade %w", ErrNotFound)
	ErrUpgradeAlreadyPending     = errors.New("upgrade already pending for proxy")
	ErrUpgradeExpired            = fmt.Errorf("upgrade %w", ErrExpired)
	ErrAlreadySigned             = errors.New("already signed")
	ErrNotSigned                 = errors.New("not signed")
	ErrInsufficientSignatures    = errors.New("insufficient signatures")
	ErrInvalidProxyAdmin         = errors.New("invalid proxy admin")
	ErrNoUpgradeCall             = errors.New("upgrade has no call data")
	ErrUpgradeVerificationFailed = errors.New("upgrade verification failed")

	// Timelock
	ErrOperationNotFound      = fmt.Errorf("timelock operation %w", ErrNotFound)
	ErrOperationAlreadyExists = errors.New("timelock operation already scheduled")
	ErrOperationNotReady      = errors.New("timelock operation not ready")
	ErrOperationExpired       = fmt.Errorf("timelock operation %w", ErrExpired)
	ErrInsufficientDelay      = errors.New("insufficient delay")
	ErrPredecessorNotDone     = errors.New("predecessor operation not done")
	ErrUnknownCallTarget      = errors.New("unknown call target")
	ErrUnknownSelector        = errors.New("unknown function selector")
	ErrValueNotAccepted       = errors.New("call value not accepted")

	// Executor allow-list
	ErrExecutorNotAuthorized = errors.New("executor not authorized")
	ErrExecutorAlreadyListed = errors.New("executor already listed")
	ErrDailyLimitExceeded    = errors.New("daily execution limit exceeded")
	ErrEmergencyFrozen       = errors.New("executions frozen by emergency")
	ErrCooldownActive        = errors.New("executor list modification cooldown active")

	// Proxy admin registry
	ErrAdminAlreadyAuthorized = errors.New("proxy admin already authorized")
	ErrAdminNotAuthorized     = fmt.Errorf("proxy admin %w", ErrNotFound)

	// Issuance
	ErrMintRequestNotFound          = fmt.Errorf("mint request %w", ErrNotFound)
	ErrMintRequestExpired           = fmt.Errorf("mint request %w", ErrExpired)
	ErrExceedsPeriodCapacity        = errors.New("amount exceeds remaining period capacity")
	ErrExceedsMintableCeiling       = errors.New("amount exceeds mintable supply ceiling")
	ErrScheduleNotStarted           = errors.New("issuance schedule not started")
	ErrScheduleEnded                = errors.New("issuance schedule ended")
	ErrInitialAllocationDone        = errors.New("initial allocation already performed")
	ErrInitialAllocationUnavailable = errors.New("initial allocation no longer available")
	ErrOracleDataNotFinalized       = errors.New("oracle mint data not finalized")
	ErrOracleDataStale              = errors.New("oracle mint data stale")
	ErrOracleRequestConsumed        = errors.New("oracle request already consumed")

	// Votes
	ErrFutureLookup = errors.New("future lookup")

	// State and configuration
	ErrAlreadyInitialized = errors.New("governance state already initialized")
	ErrInvalidConfig      = errors.New("invalid governance config")
)

// UnauthorizedError reports a missing capability for an account.
type UnauthorizedError struct {
	Account    common.Address
	Capability string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("account %s is missing %s", e.Account.Hex(), e.Capability)
}

func (e *UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

// ProposalStateError reports an operation attempted while a proposal is in the wrong state.
type ProposalStateError struct {
	ProposalID common.Hash
	Current    string
	Expected   []string
}

func (e *ProposalStateError) Error() string {
	return fmt.Sprintf("proposal %s is %s, expected one of %v", e.ProposalID.Hex(), e.Current, e.Expected)
}

func (e *ProposalStateError) Unwrap() error {
	return ErrUnexpectedProposalState
}
