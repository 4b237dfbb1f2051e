package domain

import (
	"context"
	"errors"

	"github.com/agentbill/agentbill/pkg/db/pagination"
)

type ListAgentRequest struct {
	PageToken string
	PageSize  int32
	Name      string
}

type ListAgentFilter struct {
	Name string
}

type ListAgentResponse struct {
	pagination.PageInfo
	Agents []Agent `json:"agents"`
}

// SignalInput is the client-facing shape of a signal. Only the rate field
// matching SignalType is honored.
type SignalInput struct {
	Slug                string
	Name                string
	SignalType          SignalType
	PricePerCallCents   int64
	OutcomePriceCents   int64
	CreditsPerCallCents int64
}

type CreateAgentRequest struct {
	Name string
	Slug string

	SetupFeeEnabled         bool
	SetupFeeCents           int64
	PlatformFeeEnabled      bool
	PlatformFeeCents        int64
	PlatformFeeBillingCycle BillingCycle

	Signals  []SignalInput
	Metadata map[string]any
}

type UpdateAgentRequest struct {
	ID   string
	Name string

	SetupFeeEnabled         bool
	SetupFeeCents           int64
	PlatformFeeEnabled      bool
	PlatformFeeCents        int64
	PlatformFeeBillingCycle BillingCycle

	// Signals, when non-nil, replaces the agent's signal set wholesale.
	Signals  []SignalInput
	Metadata map[string]any
}

type AgentWithSignals struct {
	Agent
	Signals []Signal `json:"signals"`
}

type Service interface {
	Create(context.Context, CreateAgentRequest) (AgentWithSignals, error)
	Update(context.Context, UpdateAgentRequest) (AgentWithSignals, error)
	List(context.Context, ListAgentRequest) (ListAgentResponse, error)
	GetByID(context.Context, string) (AgentWithSignals, error)
	// Resolve accepts either a snowflake ID or a slug.
	Resolve(context.Context, string) (Agent, error)
	// ResolveSignal accepts either a snowflake ID or a slug scoped to the agent.
	ResolveSignal(ctx context.Context, agentID string, identifier string) (Signal, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidSlug         = errors.New("invalid_slug")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidSignalType   = errors.New("invalid_signal_type")
	ErrInvalidBillingCycle = errors.New("invalid_billing_cycle")
	ErrInvalidFeeAmount    = errors.New("invalid_fee_amount")
	ErrSlugTaken           = errors.New("slug_taken")
	ErrNotFound            = errors.New("not_found")
	ErrSignalNotFound      = errors.New("signal_not_found")
)
