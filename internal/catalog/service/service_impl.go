package service

import (
	"context"
	"strings"
	"time"

	"github.com/agentbill/agentbill/internal/catalog/domain"
	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/pkg/db"
	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateModelRequest) (domain.ValidModel, error) {
	name := strings.TrimSpace(req.Model)
	if name == "" {
		return domain.ValidModel{}, domain.ErrInvalidModel
	}
	if req.InputCostPer1MTokensCents < 0 || req.OutputCostPer1MTokensCents < 0 {
		return domain.ValidModel{}, domain.ErrInvalidRate
	}

	now := s.clock.Now()
	model := domain.ValidModel{
		ID:                         s.genID.Generate(),
		Model:                      name,
		InputCostPer1MTokensCents:  req.InputCostPer1MTokensCents,
		OutputCostPer1MTokensCents: req.OutputCostPer1MTokensCents,
		Active:                     true,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if err := s.repo.Insert(ctx, s.db, &model); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ValidModel{}, domain.ErrModelTaken
		}
		return domain.ValidModel{}, err
	}

	return model, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateModelRequest) (domain.ValidModel, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.ValidModel{}, err
	}
	if req.InputCostPer1MTokensCents < 0 || req.OutputCostPer1MTokensCents < 0 {
		return domain.ValidModel{}, domain.ErrInvalidRate
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ValidModel{}, err
	}
	if existing == nil {
		return domain.ValidModel{}, domain.ErrModelNotFound
	}

	existing.InputCostPer1MTokensCents = req.InputCostPer1MTokensCents
	existing.OutputCostPer1MTokensCents = req.OutputCostPer1MTokensCents
	if req.Active != nil {
		existing.Active = *req.Active
	}
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return domain.ValidModel{}, err
	}

	return *existing, nil
}

func (s *Service) List(ctx context.Context, req domain.ListModelRequest) (domain.ListModelResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListModelFilter{
		Active: req.Active,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListModelResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(model *domain.ValidModel) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        model.ID.String(),
			CreatedAt: model.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	models := make([]domain.ValidModel, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		models = append(models, *item)
	}

	resp := domain.ListModelResponse{Models: models}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.ValidModel, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.ValidModel{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ValidModel{}, err
	}
	if item == nil {
		return domain.ValidModel{}, domain.ErrModelNotFound
	}

	return *item, nil
}

func (s *Service) LookupRate(ctx context.Context, model string) (domain.Rate, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return domain.Rate{}, domain.ErrInvalidModel
	}

	item, err := s.repo.FindByModel(ctx, s.db, model)
	if err != nil {
		return domain.Rate{}, err
	}
	if item == nil || !item.Active {
		return domain.Rate{}, domain.ErrModelNotFound
	}

	return domain.Rate{
		ModelID:                    item.ID,
		Model:                      item.Model,
		InputCostPer1MTokensCents:  item.InputCostPer1MTokensCents,
		OutputCostPer1MTokensCents: item.OutputCostPer1MTokensCents,
	}, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrModelNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
