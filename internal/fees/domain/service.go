package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
)

type ChargeSetupFeeRequest struct {
	CustomerID  snowflake.ID
	AgentID     snowflake.ID
	AmountCents int64
	Metadata    map[string]any
}

type ChargePlatformFeeRequest struct {
	CustomerID       snowflake.ID
	AgentID          snowflake.ID
	AmountCents      int64
	BillingCycle     agentdomain.BillingCycle
	BillingAnchorDay int
	BillingTimezone  string
	Metadata         map[string]any
}

type ListFeeRequest struct {
	CustomerID string
	AgentID    string
	FeeType    string
	ActiveOnly bool
}

// RenewalResult summarizes one renewal sweep. Skipped counts fees another
// sweep renewed between the due query and the deactivation.
type RenewalResult struct {
	Renewed int `json:"renewed_count"`
	Skipped int `json:"skipped_count"`
}

type Service interface {
	// ChargeSetupFee charges the one-off setup fee. A pair that was already
	// charged, even if the record is inactive, is left untouched.
	ChargeSetupFee(context.Context, ChargeSetupFeeRequest) (*FeeTransaction, error)
	// ChargePlatformFee opens the recurring platform fee chain for the pair
	// when no active fee exists.
	ChargePlatformFee(context.Context, ChargePlatformFeeRequest) (*FeeTransaction, error)
	// ShouldChargePlatformFee reports whether the pair currently owes a
	// platform fee: either none is active or the active one is due.
	ShouldChargePlatformFee(ctx context.Context, customerID, agentID snowflake.ID) (bool, error)
	// RenewDueFees rolls every due platform fee forward one cycle.
	RenewDueFees(ctx context.Context) (RenewalResult, error)
	List(context.Context, ListFeeRequest) ([]FeeTransaction, error)
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidCycle   = errors.New("invalid_cycle")
	ErrInvalidAnchor  = errors.New("invalid_anchor")
	ErrInvalidFeeType = errors.New("invalid_fee_type")
)
