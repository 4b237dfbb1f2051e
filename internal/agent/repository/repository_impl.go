package repository

import (
	"context"

	"github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/pkg/db/option"
	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, agent *domain.Agent) error {
	return db.WithContext(ctx).Create(agent).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, agent *domain.Agent) error {
	return db.WithContext(ctx).Exec(
		`UPDATE agents
		 SET name = ?,
		     setup_fee_enabled = ?,
		     setup_fee_cents = ?,
		     platform_fee_enabled = ?,
		     platform_fee_cents = ?,
		     platform_fee_billing_cycle = ?,
		     metadata = ?,
		     updated_at = ?
		 WHERE id = ?`,
		agent.Name,
		agent.SetupFeeEnabled,
		agent.SetupFeeCents,
		agent.PlatformFeeEnabled,
		agent.PlatformFeeCents,
		agent.PlatformFeeBillingCycle,
		agent.Metadata,
		agent.UpdatedAt,
		agent.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM agent_signals WHERE agent_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM agents WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Agent, error) {
	var agent domain.Agent
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name,
		        setup_fee_enabled, setup_fee_cents,
		        platform_fee_enabled, platform_fee_cents, platform_fee_billing_cycle,
		        metadata, created_at, updated_at
		 FROM agents WHERE id = ?`,
		id,
	).Scan(&agent).Error
	if err != nil {
		return nil, err
	}
	if agent.ID == 0 {
		return nil, nil
	}
	return &agent, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Agent, error) {
	var agent domain.Agent
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name,
		        setup_fee_enabled, setup_fee_cents,
		        platform_fee_enabled, platform_fee_cents, platform_fee_billing_cycle,
		        metadata, created_at, updated_at
		 FROM agents WHERE slug = ?`,
		slug,
	).Scan(&agent).Error
	if err != nil {
		return nil, err
	}
	if agent.ID == 0 {
		return nil, nil
	}
	return &agent, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAgentFilter, page pagination.Pagination) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	stmt := db.WithContext(ctx).
		Model(&domain.Agent{})
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repo) InsertSignals(ctx context.Context, db *gorm.DB, signals []domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&signals).Error
}

func (r *repo) DeleteSignals(ctx context.Context, db *gorm.DB, agentID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM agent_signals WHERE agent_id = ?`, agentID).Error
}

func (r *repo) FindSignals(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]domain.Signal, error) {
	var signals []domain.Signal
	err := db.WithContext(ctx).Raw(
		`SELECT id, agent_id, slug, name,
		        signal_type, price_per_call_cents, outcome_price_cents, credits_per_call_cents,
		        created_at
		 FROM agent_signals WHERE agent_id = ?
		 ORDER BY created_at, id`,
		agentID,
	).Scan(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}

func (r *repo) FindSignalByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Signal, error) {
	var signal domain.Signal
	err := db.WithContext(ctx).Raw(
		`SELECT id, agent_id, slug, name,
		        signal_type, price_per_call_cents, outcome_price_cents, credits_per_call_cents,
		        created_at
		 FROM agent_signals WHERE id = ?`,
		id,
	).Scan(&signal).Error
	if err != nil {
		return nil, err
	}
	if signal.ID == 0 {
		return nil, nil
	}
	return &signal, nil
}

func (r *repo) FindSignalBySlug(ctx context.Context, db *gorm.DB, agentID snowflake.ID, slug string) (*domain.Signal, error) {
	var signal domain.Signal
	err := db.WithContext(ctx).Raw(
		`SELECT id, agent_id, slug, name,
		        signal_type, price_per_call_cents, outcome_price_cents, credits_per_call_cents,
		        created_at
		 FROM agent_signals WHERE agent_id = ? AND slug = ?`,
		agentID, slug,
	).Scan(&signal).Error
	if err != nil {
		return nil, err
	}
	if signal.ID == 0 {
		return nil, nil
	}
	return &signal, nil
}
