package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
)

type LinkRequest struct {
	// CustomerID and AgentID accept snowflake IDs or slugs.
	CustomerID string
	AgentID    string
}

// LinkResponse carries the link plus whatever fees the linking charged.
// A free agent charges nothing; a fully fee-configured agent charges the
// setup fee and opens the platform fee chain.
type LinkResponse struct {
	Link CustomerAgentLink          `json:"link"`
	Fees []feedomain.FeeTransaction `json:"fees_charged"`
}

type Service interface {
	Link(context.Context, LinkRequest) (LinkResponse, error)
	Unlink(context.Context, LinkRequest) error
	// HasAccess reports whether the customer may bill against the agent.
	// Unrestricted agents are open to every customer.
	HasAccess(ctx context.Context, customerID, agentID snowflake.ID) (bool, error)
	ListByCustomer(ctx context.Context, customerID string) ([]CustomerAgentLink, error)
	ListByAgent(ctx context.Context, agentID string) ([]CustomerAgentLink, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrAlreadyLinked = errors.New("already_linked")
	ErrNotFound      = errors.New("not_found")
)
