package repository

import (
	"context"

	"github.com/agentbill/agentbill/internal/credits/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertAllocation(ctx context.Context, db *gorm.DB, allocation *domain.CreditAllocation) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "customer_id"},
			{Name: "agent_id"},
			{Name: "signal_id"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"credits_cents": gorm.Expr("credit_allocations.credits_cents + ?", allocation.CreditsCents),
			"updated_at":    allocation.UpdatedAt,
		}),
	}).Create(allocation).Error
}

func (r *repo) DeductBalance(ctx context.Context, db *gorm.DB, customerID, agentID, signalID snowflake.ID, amountCents int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE credit_allocations
		 SET credits_cents = credits_cents - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE customer_id = ? AND agent_id = ? AND signal_id = ? AND credits_cents >= ?`,
		amountCents, customerID, agentID, signalID, amountCents,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindAllocation(ctx context.Context, db *gorm.DB, customerID, agentID, signalID snowflake.ID) (*domain.CreditAllocation, error) {
	var allocation domain.CreditAllocation
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, agent_id, signal_id, credits_cents, created_at, updated_at
		 FROM credit_allocations
		 WHERE customer_id = ? AND agent_id = ? AND signal_id = ?`,
		customerID, agentID, signalID,
	).Scan(&allocation).Error
	if err != nil {
		return nil, err
	}
	if allocation.ID == 0 {
		return nil, nil
	}
	return &allocation, nil
}

func (r *repo) ListAllocations(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.CreditAllocation, error) {
	var allocations []domain.CreditAllocation
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, agent_id, signal_id, credits_cents, created_at, updated_at
		 FROM credit_allocations
		 WHERE customer_id = ?
		 ORDER BY created_at, id`,
		customerID,
	).Scan(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repo) InsertPurchase(ctx context.Context, db *gorm.DB, purchase *domain.CreditPurchase) error {
	return db.WithContext(ctx).Create(purchase).Error
}

func (r *repo) ListPurchases(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.CreditPurchase, error) {
	var purchases []domain.CreditPurchase
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, agent_id, signal_id, amount_cents, purchased_at
		 FROM credit_purchases
		 WHERE customer_id = ?
		 ORDER BY purchased_at, id`,
		customerID,
	).Scan(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}
