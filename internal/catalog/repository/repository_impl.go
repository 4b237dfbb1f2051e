package repository

import (
	"context"

	"github.com/agentbill/agentbill/internal/catalog/domain"
	"github.com/agentbill/agentbill/pkg/db/option"
	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, model *domain.ValidModel) error {
	return db.WithContext(ctx).Create(model).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, model *domain.ValidModel) error {
	return db.WithContext(ctx).Exec(
		`UPDATE valid_models
		 SET input_cost_per_1m_tokens_cents = ?,
		     output_cost_per_1m_tokens_cents = ?,
		     active = ?,
		     updated_at = ?
		 WHERE id = ?`,
		model.InputCostPer1MTokensCents,
		model.OutputCostPer1MTokensCents,
		model.Active,
		model.UpdatedAt,
		model.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM valid_models WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ValidModel, error) {
	var model domain.ValidModel
	err := db.WithContext(ctx).Raw(
		`SELECT id, model, input_cost_per_1m_tokens_cents, output_cost_per_1m_tokens_cents,
		        active, created_at, updated_at
		 FROM valid_models WHERE id = ?`,
		id,
	).Scan(&model).Error
	if err != nil {
		return nil, err
	}
	if model.ID == 0 {
		return nil, nil
	}
	return &model, nil
}

func (r *repo) FindByModel(ctx context.Context, db *gorm.DB, name string) (*domain.ValidModel, error) {
	var model domain.ValidModel
	err := db.WithContext(ctx).Raw(
		`SELECT id, model, input_cost_per_1m_tokens_cents, output_cost_per_1m_tokens_cents,
		        active, created_at, updated_at
		 FROM valid_models WHERE model = ?`,
		name,
	).Scan(&model).Error
	if err != nil {
		return nil, err
	}
	if model.ID == 0 {
		return nil, nil
	}
	return &model, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListModelFilter, page pagination.Pagination) ([]*domain.ValidModel, error) {
	var models []*domain.ValidModel
	stmt := db.WithContext(ctx).
		Model(&domain.ValidModel{})
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}
