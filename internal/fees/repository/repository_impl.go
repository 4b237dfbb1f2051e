package repository

import (
	"context"
	"time"

	"github.com/agentbill/agentbill/internal/fees/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const feeColumns = `id, customer_id, agent_id, fee_type, amount_cents, billing_cycle,
	transaction_date, billing_anchor_day, billing_timezone, next_billing_date,
	previous_transaction_id, is_active, metadata, created_at`

const dueFeeColumns = `f.id, f.customer_id, f.agent_id, f.fee_type, f.amount_cents, f.billing_cycle,
	f.transaction_date, f.billing_anchor_day, f.billing_timezone, f.next_billing_date,
	f.previous_transaction_id, f.is_active, f.metadata, f.created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, fee *domain.FeeTransaction) error {
	return db.WithContext(ctx).Create(fee).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeeTransaction, error) {
	var fee domain.FeeTransaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+feeColumns+` FROM fee_transactions WHERE id = ?`,
		id,
	).Scan(&fee).Error
	if err != nil {
		return nil, err
	}
	if fee.ID == 0 {
		return nil, nil
	}
	return &fee, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID, feeType domain.FeeType) (*domain.FeeTransaction, error) {
	var fee domain.FeeTransaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+feeColumns+`
		 FROM fee_transactions
		 WHERE customer_id = ? AND agent_id = ? AND fee_type = ? AND is_active
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		customerID, agentID, feeType,
	).Scan(&fee).Error
	if err != nil {
		return nil, err
	}
	if fee.ID == 0 {
		return nil, nil
	}
	return &fee, nil
}

func (r *repo) HasAny(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID, feeType domain.FeeType) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM fee_transactions
		 WHERE customer_id = ? AND agent_id = ? AND fee_type = ?`,
		customerID, agentID, feeType,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindDuePlatformFees(ctx context.Context, db *gorm.DB, asOf time.Time) ([]domain.DuePlatformFee, error) {
	var fees []domain.DuePlatformFee
	err := db.WithContext(ctx).Raw(
		`SELECT `+dueFeeColumns+`,
		        COALESCE(a.platform_fee_enabled, TRUE) AS platform_fee_enabled
		 FROM fee_transactions f
		 LEFT JOIN agents a ON a.id = f.agent_id
		 WHERE f.fee_type = ? AND f.is_active AND f.next_billing_date IS NOT NULL AND f.next_billing_date <= ?
		 ORDER BY f.next_billing_date, f.id`,
		domain.FeeTypePlatform, asOf,
	).Scan(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE fee_transactions SET is_active = ? WHERE id = ? AND is_active`,
		false, id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFeeFilter) ([]domain.FeeTransaction, error) {
	stmt := db.WithContext(ctx).Model(&domain.FeeTransaction{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.AgentID != 0 {
		stmt = stmt.Where("agent_id = ?", filter.AgentID)
	}
	if filter.FeeType != "" {
		stmt = stmt.Where("fee_type = ?", filter.FeeType)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active")
	}

	var fees []domain.FeeTransaction
	err := stmt.
		Order("transaction_date desc, id desc").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}
