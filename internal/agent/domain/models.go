package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingCycle is the recurrence of a platform fee.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}

// SignalType selects which rate field of a Signal is active.
type SignalType string

const (
	SignalTypeUsage   SignalType = "usage"
	SignalTypeOutcome SignalType = "outcome"
	SignalTypeCredit  SignalType = "credit"
)

func (t SignalType) Valid() bool {
	switch t {
	case SignalTypeUsage, SignalTypeOutcome, SignalTypeCredit:
		return true
	}
	return false
}

// Agent is a billable AI agent. Enabling either fee flag makes the agent
// restricted: customers must be explicitly linked before any billing
// interaction is accepted.
type Agent struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug string       `gorm:"type:text;not null;uniqueIndex:ux_agents_slug" json:"slug"`
	Name string       `gorm:"not null;index" json:"name"`

	SetupFeeEnabled         bool         `gorm:"not null;default:false" json:"setup_fee_enabled"`
	SetupFeeCents           int64        `gorm:"not null;default:0" json:"setup_fee_cents"`
	PlatformFeeEnabled      bool         `gorm:"not null;default:false" json:"platform_fee_enabled"`
	PlatformFeeCents        int64        `gorm:"not null;default:0" json:"platform_fee_cents"`
	PlatformFeeBillingCycle BillingCycle `gorm:"type:text;not null;default:'monthly'" json:"platform_fee_billing_cycle"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Agent) TableName() string { return "agents" }

// Restricted reports whether billing interactions require a customer link.
func (a Agent) Restricted() bool {
	return a.SetupFeeEnabled || a.PlatformFeeEnabled
}

// Signal is a billable event type an agent can emit. Exactly one rate field
// is active, selected by SignalType; the others stay zero.
type Signal struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	AgentID snowflake.ID `gorm:"not null;uniqueIndex:ux_agent_signals_slug,priority:1" json:"agent_id"`
	Slug    string       `gorm:"type:text;not null;uniqueIndex:ux_agent_signals_slug,priority:2" json:"slug"`
	Name    string       `gorm:"not null" json:"name"`

	SignalType          SignalType `gorm:"type:text;not null;default:'usage'" json:"signal_type"`
	PricePerCallCents   int64      `gorm:"not null;default:0" json:"price_per_call_cents"`
	OutcomePriceCents   int64      `gorm:"not null;default:0" json:"outcome_price_cents"`
	CreditsPerCallCents int64      `gorm:"not null;default:0" json:"credits_per_call_cents"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Signal) TableName() string { return "agent_signals" }

// RateCents returns the active rate for the signal's type.
func (s Signal) RateCents() int64 {
	switch s.SignalType {
	case SignalTypeOutcome:
		return s.OutcomePriceCents
	case SignalTypeCredit:
		return s.CreditsPerCallCents
	default:
		return s.PricePerCallCents
	}
}
