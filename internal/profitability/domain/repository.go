package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Scope narrows aggregation to one customer, one agent, or both. Zero IDs
// mean no filter, and zero time bounds leave the period open on that side.
type Scope struct {
	CustomerID snowflake.ID
	AgentID    snowflake.ID
	From       time.Time
	To         time.Time
}

type Repository interface {
	// SumTokenCosts returns the summed snapshot cost and row count of token
	// usage in scope.
	SumTokenCosts(ctx context.Context, db *gorm.DB, scope Scope) (totalCents int64, count int64, err error)
	// SumSignalRevenue returns the summed amount and row count of monetary
	// signal logs in scope. Credit burns do not count as revenue.
	SumSignalRevenue(ctx context.Context, db *gorm.DB, scope Scope) (totalCents int64, count int64, err error)
	// SumFees returns the summed amounts of setup and platform fee
	// transactions dated in scope.
	SumFees(ctx context.Context, db *gorm.DB, scope Scope) (setupCents int64, platformCents int64, err error)
	// SumCreditPurchases returns the summed purchase amounts in scope.
	SumCreditPurchases(ctx context.Context, db *gorm.DB, scope Scope) (totalCents int64, err error)
}
