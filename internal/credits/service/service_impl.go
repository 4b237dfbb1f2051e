package service

import (
	"context"
	"strings"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/internal/credits/domain"
	linkdomain "github.com/agentbill/agentbill/internal/link/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Agents agentdomain.Service
	Links  linkdomain.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	agents agentdomain.Service
	links  linkdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("credits.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		agents: p.Agents,
		links:  p.Links,
	}
}

func (s *Service) Allocate(ctx context.Context, req domain.AllocateRequest) (domain.CreditAllocation, error) {
	customerID, agentID, signalID, err := parseScope(req.CustomerID, req.AgentID, req.SignalID)
	if err != nil {
		return domain.CreditAllocation{}, err
	}
	if req.CreditsCents <= 0 || req.AmountCents < 0 {
		return domain.CreditAllocation{}, domain.ErrInvalidAmount
	}
	if err := s.checkAccess(ctx, customerID, agentID); err != nil {
		return domain.CreditAllocation{}, err
	}

	now := s.clock.Now()
	allocation := domain.CreditAllocation{
		ID:           s.genID.Generate(),
		CustomerID:   customerID,
		AgentID:      agentID,
		SignalID:     signalID,
		CreditsCents: req.CreditsCents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpsertAllocation(ctx, tx, &allocation); err != nil {
			return err
		}
		if req.AmountCents == 0 {
			return nil
		}
		return s.repo.InsertPurchase(ctx, tx, &domain.CreditPurchase{
			ID:          s.genID.Generate(),
			CustomerID:  customerID,
			AgentID:     agentID,
			SignalID:    signalID,
			AmountCents: req.AmountCents,
			PurchasedAt: now,
		})
	})
	if err != nil {
		return domain.CreditAllocation{}, err
	}

	current, err := s.repo.FindAllocation(ctx, s.db, customerID, agentID, signalID)
	if err != nil {
		return domain.CreditAllocation{}, err
	}
	if current == nil {
		return allocation, nil
	}
	return *current, nil
}

func (s *Service) Deduct(ctx context.Context, req domain.DeductRequest) error {
	customerID, agentID, signalID, err := parseScope(req.CustomerID, req.AgentID, req.SignalID)
	if err != nil {
		return err
	}
	if req.AmountCents < 0 {
		return domain.ErrInvalidAmount
	}
	if req.AmountCents == 0 {
		return nil
	}

	ok, err := s.repo.DeductBalance(ctx, s.db, customerID, agentID, signalID, req.AmountCents)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInsufficientCredits
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, req domain.BalanceRequest) (domain.CreditAllocation, error) {
	customerID, agentID, signalID, err := parseScope(req.CustomerID, req.AgentID, req.SignalID)
	if err != nil {
		return domain.CreditAllocation{}, err
	}

	allocation, err := s.repo.FindAllocation(ctx, s.db, customerID, agentID, signalID)
	if err != nil {
		return domain.CreditAllocation{}, err
	}
	if allocation == nil {
		return domain.CreditAllocation{}, domain.ErrNotFound
	}
	return *allocation, nil
}

func (s *Service) ListAllocations(ctx context.Context, rawCustomerID string) ([]domain.CreditAllocation, error) {
	customerID, err := parseID(rawCustomerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAllocations(ctx, s.db, customerID)
}

// checkAccess enforces the customer link on agents whose fees restrict
// billing to linked customers, matching the gate on usage recording.
func (s *Service) checkAccess(ctx context.Context, customerID, agentID snowflake.ID) error {
	agent, err := s.agents.Resolve(ctx, agentID.String())
	if err != nil {
		return err
	}
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

func parseScope(customer, agent, signal string) (snowflake.ID, snowflake.ID, snowflake.ID, error) {
	customerID, err := parseID(customer)
	if err != nil {
		return 0, 0, 0, err
	}
	agentID, err := parseID(agent)
	if err != nil {
		return 0, 0, 0, err
	}
	signalID, err := parseID(signal)
	if err != nil {
		return 0, 0, 0, err
	}
	return customerID, agentID, signalID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
