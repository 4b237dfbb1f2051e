package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// UpsertAllocation inserts the allocation or increments the balance of
	// the existing customer/agent/signal row.
	UpsertAllocation(ctx context.Context, db *gorm.DB, allocation *CreditAllocation) error
	// DeductBalance atomically subtracts amountCents when the balance covers
	// it, reporting whether a row was updated.
	DeductBalance(ctx context.Context, db *gorm.DB, customerID, agentID, signalID snowflake.ID, amountCents int64) (bool, error)
	FindAllocation(ctx context.Context, db *gorm.DB, customerID, agentID, signalID snowflake.ID) (*CreditAllocation, error)
	ListAllocations(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]CreditAllocation, error)

	InsertPurchase(ctx context.Context, db *gorm.DB, purchase *CreditPurchase) error
	ListPurchases(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]CreditPurchase, error)
}
