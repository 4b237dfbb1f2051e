package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
)

// CostType marks whether a signal log represents money earned or prepaid
// credits burned. Credit burns are excluded from revenue.
type CostType string

const (
	CostTypeMonetary CostType = "monetary"
	CostTypeCredit   CostType = "credit"
)

// TokenUsage is an immutable record of one LLM call. Costs are snapshotted
// at recording time so later rate changes never rewrite history.
type TokenUsage struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index:ix_token_usage_scope,priority:1" json:"customer_id"`
	AgentID    snowflake.ID `gorm:"not null;index:ix_token_usage_scope,priority:2" json:"agent_id"`

	Model        string       `gorm:"type:text;not null" json:"model"`
	ModelID      snowflake.ID `gorm:"not null" json:"model_id"`
	InputTokens  int64        `gorm:"not null" json:"input_tokens"`
	OutputTokens int64        `gorm:"not null" json:"output_tokens"`

	InputCostCents  int64 `gorm:"not null" json:"input_cost_cents"`
	OutputCostCents int64 `gorm:"not null" json:"output_cost_cents"`
	TotalCostCents  int64 `gorm:"not null" json:"total_cost_cents"`

	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}

// TableName sets the database table name.
func (TokenUsage) TableName() string { return "token_usage" }

// SignalLog is an immutable record of one billable signal call.
type SignalLog struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index:ix_signal_logs_scope,priority:1" json:"customer_id"`
	AgentID    snowflake.ID `gorm:"not null;index:ix_signal_logs_scope,priority:2" json:"agent_id"`
	SignalID   snowflake.ID `gorm:"not null" json:"signal_id"`

	SignalType  agentdomain.SignalType `gorm:"type:text;not null" json:"signal_type"`
	CostType    CostType               `gorm:"type:text;not null" json:"cost_type"`
	AmountCents int64                  `gorm:"not null" json:"amount_cents"`

	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	RecordedAt time.Time         `gorm:"not null;index" json:"recorded_at"`
}

// TableName sets the database table name.
func (SignalLog) TableName() string { return "signal_logs" }
