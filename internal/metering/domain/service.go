package domain

import (
	"context"
	"errors"
	"time"
)

type RecordTokenUsageRequest struct {
	// CustomerID and AgentID accept snowflake IDs or slugs.
	CustomerID   string `json:"customer_id"`
	AgentID      string `json:"agent_id"`
	Model        string `json:"model"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// BatchResult reports how a batch fared. Bad entries are skipped rather
// than failing the whole batch.
type BatchResult struct {
	Recorded int `json:"recorded_count"`
	Skipped  int `json:"skipped_count"`
}

type RecordSignalCallRequest struct {
	// CustomerID, AgentID and SignalID accept snowflake IDs or slugs.
	CustomerID string         `json:"customer_id"`
	AgentID    string         `json:"agent_id"`
	SignalID   string         `json:"signal_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type ListUsageRequest struct {
	// CustomerID is required; AgentID is optional. Both accept snowflake
	// IDs or slugs.
	CustomerID string
	AgentID    string
	From       time.Time
	To         time.Time
}

// UsageSummary carries the rows in a window plus their totals.
type UsageSummary struct {
	Usage             []TokenUsage `json:"usage"`
	TotalInputTokens  int64        `json:"total_input_tokens"`
	TotalOutputTokens int64        `json:"total_output_tokens"`
	TotalCostCents    int64        `json:"total_cost_cents"`
}

type Service interface {
	// RecordTokenUsage prices one LLM call against the model catalog and
	// writes an immutable usage row.
	RecordTokenUsage(context.Context, RecordTokenUsageRequest) (TokenUsage, error)
	// RecordTokenUsageBatch records each entry independently, skipping the
	// ones that fail validation or resolution.
	RecordTokenUsageBatch(context.Context, []RecordTokenUsageRequest) (BatchResult, error)
	// RecordSignalCall logs one signal call, deducting prepaid credits for
	// credit-typed signals. An uncovered deduction records nothing.
	RecordSignalCall(context.Context, RecordSignalCallRequest) (SignalLog, error)
	// ListTokenUsage returns a customer's usage rows in a window, bounds
	// inclusive, with totals.
	ListTokenUsage(context.Context, ListUsageRequest) (UsageSummary, error)
	// ListSignalCalls returns a customer's signal logs in a window.
	ListSignalCalls(context.Context, ListUsageRequest) ([]SignalLog, error)
}

var (
	ErrInvalidTokens = errors.New("invalid_tokens")
	ErrAccessDenied  = errors.New("access_denied")
)
