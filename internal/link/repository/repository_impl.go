package repository

import (
	"context"

	"github.com/agentbill/agentbill/internal/link/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, link *domain.CustomerAgentLink) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM customer_agent_links WHERE customer_id = ? AND agent_id = ?`,
		customerID, agentID,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, customerID, agentID snowflake.ID) (*domain.CustomerAgentLink, error) {
	var link domain.CustomerAgentLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, agent_id, created_at
		 FROM customer_agent_links
		 WHERE customer_id = ? AND agent_id = ?`,
		customerID, agentID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.CustomerAgentLink, error) {
	var links []domain.CustomerAgentLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, agent_id, created_at
		 FROM customer_agent_links
		 WHERE customer_id = ?
		 ORDER BY created_at, id`,
		customerID,
	).Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) ListByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]domain.CustomerAgentLink, error) {
	var links []domain.CustomerAgentLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, agent_id, created_at
		 FROM customer_agent_links
		 WHERE agent_id = ?
		 ORDER BY created_at, id`,
		agentID,
	).Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
