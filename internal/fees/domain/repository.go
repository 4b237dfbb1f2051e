package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// DuePlatformFee is a due fee row joined with its agent's live platform
// fee flag. Agents that disabled platform fees freeze instead of renewing.
type DuePlatformFee struct {
	FeeTransaction
	PlatformFeeEnabled bool `gorm:"column:platform_fee_enabled"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, fee *FeeTransaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeeTransaction, error)
	// FindActive returns the active fee of the given type for the
	// customer/agent pair, nil when none exists.
	FindActive(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID, feeType FeeType) (*FeeTransaction, error)
	// HasAny reports whether any fee of the given type was ever charged for
	// the pair, active or not.
	HasAny(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID, feeType FeeType) (bool, error)
	// FindDuePlatformFees returns active platform fees whose next billing
	// date is at or before the given instant, each with the agent's current
	// platform fee flag so sweeps can honor disabled agents.
	FindDuePlatformFees(ctx context.Context, db *gorm.DB, asOf time.Time) ([]DuePlatformFee, error)
	// Deactivate flips is_active off, reporting whether the row was still
	// active. A false result means a concurrent renewal got there first.
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFeeFilter) ([]FeeTransaction, error)
}

type ListFeeFilter struct {
	CustomerID snowflake.ID
	AgentID    snowflake.ID
	FeeType    FeeType
	ActiveOnly bool
}
