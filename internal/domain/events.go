package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

type EventType string

const (
	EventTypeProposalCreated        EventType = "ProposalCreated"
	EventTypeVoteCast               EventType = "VoteCast"
	EventTypeProposalQueued         EventType = "ProposalQueued"
	EventTypeProposalExecuted       EventType = "ProposalExecuted"
	EventTypeProposalCanceled       EventType = "ProposalCanceled"
	EventTypeCouncilMemberChanged   EventType = "CouncilMemberChanged"
	EventTypeCallScheduled          EventType = "CallScheduled"
	EventTypeCallExecuted           EventType = "CallExecuted"
	EventTypeOperationCanceled      EventType = "OperationCanceled"
	EventTypeUpgradeProposed        EventType = "UpgradeProposed"
	EventTypeUpgradeSigned          EventType = "UpgradeSigned"
	EventTypeUpgradeExecuted        EventType = "UpgradeExecuted"
	EventTypeUpgradeCanceled        EventType = "UpgradeCanceled"
	EventTypeExecutorChanged        EventType = "ExecutorChanged"
	EventTypeExecutionRecorded      EventType = "ExecutionRecorded"
	EventTypeEmergencyFreezeChanged EventType = "EmergencyFreezeChanged"
	EventTypeProxyAdminAuthorized   EventType = "ProxyAdminAuthorized"
	EventTypeProxyAdminRevoked      EventType = "ProxyAdminRevoked"
	EventTypeMintRequestCreated     EventType = "MintRequestCreated"
	EventTypeMintRequestExecuted    EventType = "MintRequestExecuted"
	EventTypeMintRequestCanceled    EventType = "MintRequestCanceled"
	EventTypeInitialAllocation      EventType = "InitialAllocation"
)

// Event is the interface for all governance events
type Event interface {
	EventName() EventType
	String() string
}

func short(a common.Address) string {
	return a.Hex()[:10] + "..."
}

func shortHash(h common.Hash) string {
	return h.Hex()[:10] + "..."
}

type ProposalCreatedEvent struct {
	ProposalID common.Hash
	Proposer   common.Address
	Type       models.ProposalType
	VoteStart  uint64
	VoteEnd    uint64
}

func (ProposalCreatedEvent) EventName() EventType { return EventTypeProposalCreated }

func (e *ProposalCreatedEvent) String() string {
	return fmt.Sprintf("%s: id=%s type=%s proposer=%s window=[%d,%d]",
		e.EventName(), shortHash(e.ProposalID), e.Type, short(e.Proposer), e.VoteStart, e.VoteEnd)
}

type VoteCastEvent struct {
	ProposalID common.Hash
	Voter      common.Address
	Support    models.VoteType
	Weight     *big.Int
	Reason     string
}

func (VoteCastEvent) EventName() EventType { return EventTypeVoteCast }

func (e *VoteCastEvent) String() string {
	return fmt.Sprintf("%s: id=%s voter=%s support=%s weight=%s",
		e.EventName(), shortHash(e.ProposalID), short(e.Voter), e.Support, e.Weight)
}

// ProposalTransitionEvent covers queue, execute and cancel of a proposal
type ProposalTransitionEvent struct {
	Type       EventType
	ProposalID common.Hash
	Actor      common.Address
}

func (e ProposalTransitionEvent) EventName() EventType { return e.Type }

func (e *ProposalTransitionEvent) String() string {
	return fmt.Sprintf("%s: id=%s by=%s", e.EventName(), shortHash(e.ProposalID), short(e.Actor))
}

type CouncilMemberChangedEvent struct {
	Member common.Address
	Added  bool
	Actor  common.Address
}

func (CouncilMemberChangedEvent) EventName() EventType { return EventTypeCouncilMemberChanged }

func (e *CouncilMemberChangedEvent) String() string {
	return fmt.Sprintf("%s: member=%s added=%t", e.EventName(), short(e.Member), e.Added)
}

// TimelockEvent covers schedule, execute and cancel of a timelock operation
type TimelockEvent struct {
	Type        EventType
	OperationID common.Hash
	Calls       int
	Actor       common.Address
}

func (e TimelockEvent) EventName() EventType { return e.Type }

func (e *TimelockEvent) String() string {
	return fmt.Sprintf("%s: op=%s calls=%d by=%s", e.EventName(), shortHash(e.OperationID), e.Calls, short(e.Actor))
}

// UpgradeEvent covers the pending upgrade lifecycle
type UpgradeEvent struct {
	Type           EventType
	Authority      models.UpgradeAuthorityKind
	UpgradeID      common.Hash
	Proxy          common.Address
	Implementation common.Address
	Actor          common.Address
	Signatures     int
	Required       int
}

func (e UpgradeEvent) EventName() EventType { return e.Type }

func (e *UpgradeEvent) String() string {
	return fmt.Sprintf("%s: authority=%s proxy=%s impl=%s signatures=%d/%d",
		e.EventName(), e.Authority, short(e.Proxy), short(e.Implementation), e.Signatures, e.Required)
}

type ExecutorChangedEvent struct {
	Executor common.Address
	Enabled  bool
	Actor    common.Address
}

func (ExecutorChangedEvent) EventName() EventType { return EventTypeExecutorChanged }

func (e *ExecutorChangedEvent) String() string {
	return fmt.Sprintf("%s: executor=%s enabled=%t", e.EventName(), short(e.Executor), e.Enabled)
}

type ExecutionRecordedEvent struct {
	Executor   common.Address
	DailyUsage uint64
	DailyLimit uint64
}

func (ExecutionRecordedEvent) EventName() EventType { return EventTypeExecutionRecorded }

func (e *ExecutionRecordedEvent) String() string {
	return fmt.Sprintf("%s: executor=%s usage=%d/%d", e.EventName(), short(e.Executor), e.DailyUsage, e.DailyLimit)
}

type EmergencyFreezeChangedEvent struct {
	Frozen bool
	Actor  common.Address
}

func (EmergencyFreezeChangedEvent) EventName() EventType { return EventTypeEmergencyFreezeChanged }

func (e *EmergencyFreezeChangedEvent) String() string {
	return fmt.Sprintf("%s: frozen=%t by=%s", e.EventName(), e.Frozen, short(e.Actor))
}

type ProxyAdminEvent struct {
	Type  EventType
	Admin common.Address
	Name  string
	Actor common.Address
}

func (e ProxyAdminEvent) EventName() EventType { return e.Type }

func (e *ProxyAdminEvent) String() string {
	return fmt.Sprintf("%s: admin=%s name=%q", e.EventName(), short(e.Admin), e.Name)
}

// MintEvent covers mint request transitions and the initial allocation
type MintEvent struct {
	Type      EventType
	RequestID uint64
	Recipient common.Address
	Amount    *big.Int
	Period    uint64
}

func (e MintEvent) EventName() EventType { return e.Type }

func (e *MintEvent) String() string {
	return fmt.Sprintf("%s: request=%d recipient=%s amount=%s period=%d",
		e.EventName(), e.RequestID, short(e.Recipient), e.Amount, e.Period)
}
