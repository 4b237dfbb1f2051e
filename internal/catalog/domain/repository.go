package domain

import (
	"context"

	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, model *ValidModel) error
	Update(ctx context.Context, db *gorm.DB, model *ValidModel) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ValidModel, error)
	FindByModel(ctx context.Context, db *gorm.DB, model string) (*ValidModel, error)
	List(ctx context.Context, db *gorm.DB, filter ListModelFilter, page pagination.Pagination) ([]*ValidModel, error)
}
