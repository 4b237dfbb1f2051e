package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	catalogdomain "github.com/agentbill/agentbill/internal/catalog/domain"
	"github.com/agentbill/agentbill/internal/clock"
	creditdomain "github.com/agentbill/agentbill/internal/credits/domain"
	customerdomain "github.com/agentbill/agentbill/internal/customer/domain"
	linkdomain "github.com/agentbill/agentbill/internal/link/domain"
	"github.com/agentbill/agentbill/internal/metering/domain"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Customers customerdomain.Service
	Agents    agentdomain.Service
	Catalog   catalogdomain.Service
	Links     linkdomain.Service
	Credits   creditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	customers customerdomain.Service
	agents    agentdomain.Service
	catalog   catalogdomain.Service
	links     linkdomain.Service
	credits   creditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("metering.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		customers: p.Customers,
		agents:    p.Agents,
		catalog:   p.Catalog,
		links:     p.Links,
		credits:   p.Credits,
	}
}

func (s *Service) RecordTokenUsage(ctx context.Context, req domain.RecordTokenUsageRequest) (domain.TokenUsage, error) {
	if req.InputTokens < 0 || req.OutputTokens < 0 {
		return domain.TokenUsage{}, domain.ErrInvalidTokens
	}

	customer, err := s.customers.Resolve(ctx, req.CustomerID)
	if err != nil {
		return domain.TokenUsage{}, err
	}
	agent, err := s.agents.Resolve(ctx, req.AgentID)
	if err != nil {
		return domain.TokenUsage{}, err
	}
	if err := s.checkAccess(ctx, customer.ID, agent); err != nil {
		return domain.TokenUsage{}, err
	}

	rate, err := s.catalog.LookupRate(ctx, req.Model)
	if err != nil {
		return domain.TokenUsage{}, err
	}

	inputCost := domain.TokenCostCents(req.InputTokens, rate.InputCostPer1MTokensCents)
	outputCost := domain.TokenCostCents(req.OutputTokens, rate.OutputCostPer1MTokensCents)

	usage := domain.TokenUsage{
		ID:              s.genID.Generate(),
		CustomerID:      customer.ID,
		AgentID:         agent.ID,
		Model:           rate.Model,
		ModelID:         rate.ModelID,
		InputTokens:     req.InputTokens,
		OutputTokens:    req.OutputTokens,
		InputCostCents:  inputCost,
		OutputCostCents: outputCost,
		TotalCostCents:  inputCost + outputCost,
		RecordedAt:      s.clock.Now(),
	}
	if err := s.repo.InsertUsage(ctx, s.db, &usage); err != nil {
		return domain.TokenUsage{}, err
	}
	return usage, nil
}

func (s *Service) RecordTokenUsageBatch(ctx context.Context, reqs []domain.RecordTokenUsageRequest) (domain.BatchResult, error) {
	var result domain.BatchResult
	for _, req := range reqs {
		if _, err := s.RecordTokenUsage(ctx, req); err != nil {
			s.log.Warn("batch usage entry skipped",
				zap.String("customer", req.CustomerID),
				zap.String("agent", req.AgentID),
				zap.String("model", req.Model),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		result.Recorded++
	}
	return result, nil
}

func (s *Service) RecordSignalCall(ctx context.Context, req domain.RecordSignalCallRequest) (domain.SignalLog, error) {
	customer, err := s.customers.Resolve(ctx, req.CustomerID)
	if err != nil {
		return domain.SignalLog{}, err
	}
	agent, err := s.agents.Resolve(ctx, req.AgentID)
	if err != nil {
		return domain.SignalLog{}, err
	}
	if err := s.checkAccess(ctx, customer.ID, agent); err != nil {
		return domain.SignalLog{}, err
	}

	signal, err := s.agents.ResolveSignal(ctx, agent.ID.String(), req.SignalID)
	if err != nil {
		return domain.SignalLog{}, err
	}

	costType := domain.CostTypeMonetary
	amount := signal.RateCents()

	if signal.SignalType == agentdomain.SignalTypeCredit {
		costType = domain.CostTypeCredit
		err := s.credits.Deduct(ctx, creditdomain.DeductRequest{
			CustomerID:  customer.ID.String(),
			AgentID:     agent.ID.String(),
			SignalID:    signal.ID.String(),
			AmountCents: amount,
		})
		if err != nil {
			return domain.SignalLog{}, err
		}
	}

	entry := domain.SignalLog{
		ID:          s.genID.Generate(),
		CustomerID:  customer.ID,
		AgentID:     agent.ID,
		SignalID:    signal.ID,
		SignalType:  signal.SignalType,
		CostType:    costType,
		AmountCents: amount,
		Metadata:    toJSONMap(req.Metadata),
		RecordedAt:  s.clock.Now(),
	}
	if err := s.repo.InsertSignalLog(ctx, s.db, &entry); err != nil {
		return domain.SignalLog{}, err
	}
	return entry, nil
}

func (s *Service) ListTokenUsage(ctx context.Context, req domain.ListUsageRequest) (domain.UsageSummary, error) {
	filter, err := s.resolveFilter(ctx, req)
	if err != nil {
		return domain.UsageSummary{}, err
	}

	usage, err := s.repo.ListUsage(ctx, s.db, filter)
	if err != nil {
		return domain.UsageSummary{}, err
	}

	summary := domain.UsageSummary{Usage: usage}
	for _, row := range usage {
		summary.TotalInputTokens += row.InputTokens
		summary.TotalOutputTokens += row.OutputTokens
		summary.TotalCostCents += row.TotalCostCents
	}
	return summary, nil
}

func (s *Service) ListSignalCalls(ctx context.Context, req domain.ListUsageRequest) ([]domain.SignalLog, error) {
	filter, err := s.resolveFilter(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSignalLogs(ctx, s.db, filter)
}

func (s *Service) resolveFilter(ctx context.Context, req domain.ListUsageRequest) (domain.UsageFilter, error) {
	customer, err := s.customers.Resolve(ctx, req.CustomerID)
	if err != nil {
		return domain.UsageFilter{}, err
	}

	filter := domain.UsageFilter{
		CustomerID: customer.ID,
		From:       req.From,
		To:         req.To,
	}
	if req.AgentID != "" {
		agent, err := s.agents.Resolve(ctx, req.AgentID)
		if err != nil {
			return domain.UsageFilter{}, err
		}
		filter.AgentID = agent.ID
	}
	return filter, nil
}

func (s *Service) checkAccess(ctx context.Context, customerID snowflake.ID, agent agentdomain.Agent) error {
	if !agent.Restricted() {
		return nil
	}
	ok, err := s.links.HasAccess(ctx, customerID, agent.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied
	}
	return nil
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
