package service

import (
	"context"
	"strings"
	"time"

	"github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/pkg/db"
	"github.com/agentbill/agentbill/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("agent.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAgentRequest) (domain.AgentWithSignals, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.AgentWithSignals{}, domain.ErrInvalidName
	}

	agentSlug := strings.TrimSpace(req.Slug)
	if agentSlug == "" {
		agentSlug = slug.Make(name)
	}
	if !slug.IsSlug(agentSlug) {
		return domain.AgentWithSignals{}, domain.ErrInvalidSlug
	}

	cycle := req.PlatformFeeBillingCycle
	if cycle == "" {
		cycle = domain.BillingCycleMonthly
	}
	if err := validateFees(req.SetupFeeEnabled, req.SetupFeeCents, req.PlatformFeeEnabled, req.PlatformFeeCents, cycle); err != nil {
		return domain.AgentWithSignals{}, err
	}

	now := s.clock.Now()
	agent := domain.Agent{
		ID:                      s.genID.Generate(),
		Slug:                    agentSlug,
		Name:                    name,
		SetupFeeEnabled:         req.SetupFeeEnabled,
		SetupFeeCents:           req.SetupFeeCents,
		PlatformFeeEnabled:      req.PlatformFeeEnabled,
		PlatformFeeCents:        req.PlatformFeeCents,
		PlatformFeeBillingCycle: cycle,
		Metadata:                toJSONMap(req.Metadata),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	signals, err := s.buildSignals(agent.ID, req.Signals, now)
	if err != nil {
		return domain.AgentWithSignals{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &agent); err != nil {
			return err
		}
		return s.repo.InsertSignals(ctx, tx, signals)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.AgentWithSignals{}, domain.ErrSlugTaken
		}
		return domain.AgentWithSignals{}, err
	}

	return domain.AgentWithSignals{Agent: agent, Signals: signals}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAgentRequest) (domain.AgentWithSignals, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.AgentWithSignals{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.AgentWithSignals{}, domain.ErrInvalidName
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.AgentWithSignals{}, err
	}
	if existing == nil {
		return domain.AgentWithSignals{}, domain.ErrNotFound
	}

	cycle := req.PlatformFeeBillingCycle
	if cycle == "" {
		cycle = existing.PlatformFeeBillingCycle
	}
	if err := validateFees(req.SetupFeeEnabled, req.SetupFeeCents, req.PlatformFeeEnabled, req.PlatformFeeCents, cycle); err != nil {
		return domain.AgentWithSignals{}, err
	}

	now := s.clock.Now()
	existing.Name = name
	existing.SetupFeeEnabled = req.SetupFeeEnabled
	existing.SetupFeeCents = req.SetupFeeCents
	existing.PlatformFeeEnabled = req.PlatformFeeEnabled
	existing.PlatformFeeCents = req.PlatformFeeCents
	existing.PlatformFeeBillingCycle = cycle
	if req.Metadata != nil {
		existing.Metadata = toJSONMap(req.Metadata)
	}
	existing.UpdatedAt = now

	var signals []domain.Signal
	if req.Signals != nil {
		signals, err = s.buildSignals(existing.ID, req.Signals, now)
		if err != nil {
			return domain.AgentWithSignals{}, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		if req.Signals == nil {
			return nil
		}
		if err := s.repo.DeleteSignals(ctx, tx, existing.ID); err != nil {
			return err
		}
		return s.repo.InsertSignals(ctx, tx, signals)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.AgentWithSignals{}, domain.ErrSlugTaken
		}
		return domain.AgentWithSignals{}, err
	}

	if req.Signals == nil {
		signals, err = s.repo.FindSignals(ctx, s.db, existing.ID)
		if err != nil {
			return domain.AgentWithSignals{}, err
		}
	}

	return domain.AgentWithSignals{Agent: *existing, Signals: signals}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAgentRequest) (domain.ListAgentResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListAgentFilter{
		Name: strings.TrimSpace(req.Name),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListAgentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(agent *domain.Agent) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        agent.ID.String(),
			CreatedAt: agent.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	agents := make([]domain.Agent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		agents = append(agents, *item)
	}

	resp := domain.ListAgentResponse{Agents: agents}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.AgentWithSignals, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.AgentWithSignals{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.AgentWithSignals{}, err
	}
	if item == nil {
		return domain.AgentWithSignals{}, domain.ErrNotFound
	}

	signals, err := s.repo.FindSignals(ctx, s.db, id)
	if err != nil {
		return domain.AgentWithSignals{}, err
	}

	return domain.AgentWithSignals{Agent: *item, Signals: signals}, nil
}

func (s *Service) Resolve(ctx context.Context, identifier string) (domain.Agent, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.Agent{}, domain.ErrInvalidID
	}

	if id, err := snowflake.ParseString(identifier); err == nil && id != 0 {
		if item, err := s.repo.FindByID(ctx, s.db, id); err != nil {
			return domain.Agent{}, err
		} else if item != nil {
			return *item, nil
		}
	}

	item, err := s.repo.FindBySlug(ctx, s.db, identifier)
	if err != nil {
		return domain.Agent{}, err
	}
	if item == nil {
		return domain.Agent{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ResolveSignal(ctx context.Context, agentID string, identifier string) (domain.Signal, error) {
	agent, err := s.Resolve(ctx, agentID)
	if err != nil {
		return domain.Signal{}, err
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.Signal{}, domain.ErrInvalidID
	}

	if id, err := snowflake.ParseString(identifier); err == nil && id != 0 {
		if item, err := s.repo.FindSignalByID(ctx, s.db, id); err != nil {
			return domain.Signal{}, err
		} else if item != nil && item.AgentID == agent.ID {
			return *item, nil
		}
	}

	item, err := s.repo.FindSignalBySlug(ctx, s.db, agent.ID, identifier)
	if err != nil {
		return domain.Signal{}, err
	}
	if item == nil {
		return domain.Signal{}, domain.ErrSignalNotFound
	}
	return *item, nil
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
		return domain.ErrNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, id)
	})
}

// buildSignals validates the inputs and zeroes every rate field that does not
// match the signal type, so a usage signal can never carry an outcome price.
func (s *Service) buildSignals(agentID snowflake.ID, inputs []domain.SignalInput, now time.Time) ([]domain.Signal, error) {
	signals := make([]domain.Signal, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}

		signalSlug := strings.TrimSpace(in.Slug)
		if signalSlug == "" {
			signalSlug = slug.Make(name)
		}
		if !slug.IsSlug(signalSlug) {
			return nil, domain.ErrInvalidSlug
		}
		if _, ok := seen[signalSlug]; ok {
			return nil, domain.ErrSlugTaken
		}
		seen[signalSlug] = struct{}{}

		signalType := in.SignalType
		if signalType == "" {
			signalType = domain.SignalTypeUsage
		}
		if !signalType.Valid() {
			return nil, domain.ErrInvalidSignalType
		}

		signal := domain.Signal{
			ID:         s.genID.Generate(),
			AgentID:    agentID,
			Slug:       signalSlug,
			Name:       name,
			SignalType: signalType,
			CreatedAt:  now,
		}
		switch signalType {
		case domain.SignalTypeUsage:
			signal.PricePerCallCents = in.PricePerCallCents
		case domain.SignalTypeOutcome:
			signal.OutcomePriceCents = in.OutcomePriceCents
		case domain.SignalTypeCredit:
			signal.CreditsPerCallCents = in.CreditsPerCallCents
		}
		if signal.RateCents() < 0 {
			return nil, domain.ErrInvalidFeeAmount
		}
		signals = append(signals, signal)
	}
	return signals, nil
}

func validateFees(setupEnabled bool, setupCents int64, platformEnabled bool, platformCents int64, cycle domain.BillingCycle) error {
	if setupEnabled && setupCents < 0 {
		return domain.ErrInvalidFeeAmount
	}
	if platformEnabled {
		if platformCents < 0 {
			return domain.ErrInvalidFeeAmount
		}
		if !cycle.Valid() {
			return domain.ErrInvalidBillingCycle
		}
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
