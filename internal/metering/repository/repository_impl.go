package repository

import (
	"context"

	"github.com/agentbill/agentbill/internal/metering/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, usage *domain.TokenUsage) error {
	return db.WithContext(ctx).Create(usage).Error
}

func (r *repo) ListUsage(ctx context.Context, db *gorm.DB, filter domain.UsageFilter) ([]domain.TokenUsage, error) {
	stmt := db.WithContext(ctx).Model(&domain.TokenUsage{})
	stmt = applyFilter(stmt, filter)

	var usage []domain.TokenUsage
	err := stmt.
		Order("recorded_at, id").
		Find(&usage).Error
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *repo) InsertSignalLog(ctx context.Context, db *gorm.DB, log *domain.SignalLog) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repo) ListSignalLogs(ctx context.Context, db *gorm.DB, filter domain.UsageFilter) ([]domain.SignalLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.SignalLog{})
	stmt = applyFilter(stmt, filter)

	var logs []domain.SignalLog
	err := stmt.
		Order("recorded_at, id").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func applyFilter(stmt *gorm.DB, filter domain.UsageFilter) *gorm.DB {
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.AgentID != 0 {
		stmt = stmt.Where("agent_id = ?", filter.AgentID)
	}
	if !filter.From.IsZero() {
		stmt = stmt.Where("recorded_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		stmt = stmt.Where("recorded_at <= ?", filter.To)
	}
	return stmt
}
