package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type UsageFilter struct {
	CustomerID snowflake.ID
	AgentID    snowflake.ID
	From       time.Time
	To         time.Time
}

type Repository interface {
	InsertUsage(ctx context.Context, db *gorm.DB, usage *TokenUsage) error
	ListUsage(ctx context.Context, db *gorm.DB, filter UsageFilter) ([]TokenUsage, error)

	InsertSignalLog(ctx context.Context, db *gorm.DB, log *SignalLog) error
	ListSignalLogs(ctx context.Context, db *gorm.DB, filter UsageFilter) ([]SignalLog, error)
}
