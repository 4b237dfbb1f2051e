package domain

import (
	"context"
	"errors"
	"time"
)

type ReportRequest struct {
	// CustomerID and AgentID accept snowflake IDs or slugs; empty means
	// all customers or all agents.
	CustomerID string
	AgentID    string
	// StartDate and EndDate bound the period. A zero value leaves that side
	// open, so omitting both aggregates every recorded row.
	StartDate time.Time
	EndDate   time.Time
}

type Revenue struct {
	SignalRevenueCents   int64 `json:"signal_revenue_cents"`
	SetupFeesCents       int64 `json:"setup_fees_cents"`
	PlatformFeesCents    int64 `json:"platform_fees_cents"`
	CreditPurchasesCents int64 `json:"credit_purchases_cents"`
	TotalCents           int64 `json:"total_cents"`
}

type Costs struct {
	TokenCostCents int64 `json:"token_cost_cents"`
	TotalCents     int64 `json:"total_cents"`
}

type Report struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PeriodDays  int       `json:"period_days"`

	Revenue Revenue `json:"revenue"`
	Costs   Costs   `json:"costs"`

	ProfitCents   int64   `json:"profit_cents"`
	MarginPercent float64 `json:"margin_percent"`

	TokenUsageCount int64 `json:"token_usage_count"`
	SignalCallCount int64 `json:"signal_call_count"`
}

type Service interface {
	// ComputeProfitability aggregates revenue and model costs over the
	// period. Margin is zero when there is no revenue.
	ComputeProfitability(context.Context, ReportRequest) (Report, error)
}

var ErrInvalidPeriod = errors.New("invalid_period")
