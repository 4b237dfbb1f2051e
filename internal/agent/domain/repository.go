package domain

import (
	"context"

	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, agent *Agent) error
	Update(ctx context.Context, db *gorm.DB, agent *Agent) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agent, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Agent, error)
	List(ctx context.Context, db *gorm.DB, filter ListAgentFilter, page pagination.Pagination) ([]*Agent, error)

	InsertSignals(ctx context.Context, db *gorm.DB, signals []Signal) error
	DeleteSignals(ctx context.Context, db *gorm.DB, agentID snowflake.ID) error
	FindSignals(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]Signal, error)
	FindSignalByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Signal, error)
	FindSignalBySlug(ctx context.Context, db *gorm.DB, agentID snowflake.ID, slug string) (*Signal, error)
}
