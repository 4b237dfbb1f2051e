package domain

import (
	"context"
	"errors"
)

type AllocateRequest struct {
	CustomerID string
	AgentID    string
	SignalID   string
	// CreditsCents is added to the balance.
	CreditsCents int64
	// AmountCents, when positive, records a purchase alongside the
	// allocation. Zero means a grant with no money received.
	AmountCents int64
}

type DeductRequest struct {
	CustomerID string
	AgentID    string
	SignalID   string
	// AmountCents must be fully covered or the deduction is rejected.
	AmountCents int64
}

type BalanceRequest struct {
	CustomerID string
	AgentID    string
	SignalID   string
}

type Service interface {
	// Allocate tops up a balance and optionally records the purchase, in a
	// single transaction.
	Allocate(context.Context, AllocateRequest) (CreditAllocation, error)
	// Deduct subtracts from a balance, failing without partial deduction
	// when the balance cannot cover the amount.
	Deduct(context.Context, DeductRequest) error
	Balance(context.Context, BalanceRequest) (CreditAllocation, error)
	ListAllocations(ctx context.Context, customerID string) ([]CreditAllocation, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrNotFound            = errors.New("not_found")
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrAccessDenied        = errors.New("access_denied")
)
