package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
)

// FeeType discriminates one-off setup fees from recurring platform fees.
type FeeType string

const (
	FeeTypeSetup    FeeType = "setup"
	FeeTypePlatform FeeType = "platform"
)

// FeeTransaction is an immutable charge record. Platform fees form a chain:
// renewal deactivates the predecessor and inserts a successor pointing back
// at it through PreviousTransactionID.
type FeeTransaction struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index:ix_fee_transactions_scope,priority:1" json:"customer_id"`
	AgentID    snowflake.ID `gorm:"not null;index:ix_fee_transactions_scope,priority:2" json:"agent_id"`

	FeeType      FeeType                  `gorm:"type:text;not null" json:"fee_type"`
	AmountCents  int64                    `gorm:"not null" json:"amount_cents"`
	BillingCycle agentdomain.BillingCycle `gorm:"type:text" json:"billing_cycle,omitempty"`

	TransactionDate  time.Time  `gorm:"not null" json:"transaction_date"`
	BillingAnchorDay int        `gorm:"not null;default:1" json:"billing_anchor_day"`
	BillingTimezone  string     `gorm:"type:text;not null;default:'UTC'" json:"billing_timezone"`
	NextBillingDate  *time.Time `gorm:"index" json:"next_billing_date,omitempty"`

	PreviousTransactionID *snowflake.ID `json:"previous_transaction_id,omitempty"`
	IsActive              bool          `gorm:"not null;default:true;index" json:"is_active"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeeTransaction) TableName() string { return "fee_transactions" }
