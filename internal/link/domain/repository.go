package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, link *CustomerAgentLink) error
	Delete(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID) error
	Find(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID) (*CustomerAgentLink, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]CustomerAgentLink, error)
	ListByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]CustomerAgentLink, error)
}
