package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreditAllocation is the prepaid balance for one customer, agent and signal.
// The triple is unique; top-ups increment the existing row.
type CreditAllocation struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;uniqueIndex:ux_credit_allocations_scope,priority:1" json:"customer_id"`
	AgentID    snowflake.ID `gorm:"not null;uniqueIndex:ux_credit_allocations_scope,priority:2" json:"agent_id"`
	SignalID   snowflake.ID `gorm:"not null;uniqueIndex:ux_credit_allocations_scope,priority:3" json:"signal_id"`

	CreditsCents int64 `gorm:"not null;default:0" json:"credits_cents"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CreditAllocation) TableName() string { return "credit_allocations" }

// CreditPurchase records money received for a credit top-up. Rows are
// immutable and feed revenue reporting.
type CreditPurchase struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index" json:"customer_id"`
	AgentID    snowflake.ID `gorm:"not null;index" json:"agent_id"`
	SignalID   snowflake.ID `gorm:"not null" json:"signal_id"`

	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	PurchasedAt time.Time `gorm:"not null;index" json:"purchased_at"`
}

// TableName sets the database table name.
func (CreditPurchase) TableName() string { return "credit_purchases" }
