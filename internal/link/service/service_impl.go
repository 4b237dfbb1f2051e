package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/internal/clock"
	customerdomain "github.com/agentbill/agentbill/internal/customer/domain"
	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
	"github.com/agentbill/agentbill/internal/link/domain"
	"github.com/agentbill/agentbill/pkg/db"
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
	Fees      feedomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	customers customerdomain.Service
	agents    agentdomain.Service
	fees      feedomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("link.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		customers: p.Customers,
		agents:    p.Agents,
		fees:      p.Fees,
	}
}

func (s *Service) Link(ctx context.Context, req domain.LinkRequest) (domain.LinkResponse, error) {
	customer, err := s.customers.Resolve(ctx, req.CustomerID)
	if err != nil {
		return domain.LinkResponse{}, err
	}
	agent, err := s.agents.Resolve(ctx, req.AgentID)
	if err != nil {
		return domain.LinkResponse{}, err
	}

	existing, err := s.repo.Find(ctx, s.db, customer.ID, agent.ID)
	if err != nil {
		return domain.LinkResponse{}, err
	}
	if existing != nil {
		return domain.LinkResponse{}, domain.ErrAlreadyLinked
	}

	link := domain.CustomerAgentLink{
		ID:         s.genID.Generate(),
		CustomerID: customer.ID,
		AgentID:    agent.ID,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &link); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.LinkResponse{}, domain.ErrAlreadyLinked
		}
		return domain.LinkResponse{}, err
	}

	fees, err := s.chargeLinkingFees(ctx, customer.ID, agent)
	if err != nil {
		return domain.LinkResponse{}, err
	}

	s.log.Info("customer linked to agent",
		zap.String("customer_id", customer.ID.String()),
		zap.String("agent_id", agent.ID.String()),
		zap.Int("fees_charged", len(fees)),
	)

	return domain.LinkResponse{Link: link, Fees: fees}, nil
}

// chargeLinkingFees charges whatever the agent's fee configuration calls
// for. The setup fee is once per pair; the platform fee opens a chain only
// when none is active or the active one is already due.
func (s *Service) chargeLinkingFees(ctx context.Context, customerID snowflake.ID, agent agentdomain.Agent) ([]feedomain.FeeTransaction, error) {
	var charged []feedomain.FeeTransaction

	if agent.SetupFeeEnabled {
		fee, err := s.fees.ChargeSetupFee(ctx, feedomain.ChargeSetupFeeRequest{
			CustomerID:  customerID,
			AgentID:     agent.ID,
			AmountCents: agent.SetupFeeCents,
		})
		if err != nil {
			return nil, err
		}
		if fee != nil {
			charged = append(charged, *fee)
		}
	}

	if agent.PlatformFeeEnabled {
		due, err := s.fees.ShouldChargePlatformFee(ctx, customerID, agent.ID)
		if err != nil {
			return nil, err
		}
		if due {
			fee, err := s.fees.ChargePlatformFee(ctx, feedomain.ChargePlatformFeeRequest{
				CustomerID:   customerID,
				AgentID:      agent.ID,
				AmountCents:  agent.PlatformFeeCents,
				BillingCycle: agent.PlatformFeeBillingCycle,
			})
			if err != nil {
				return nil, err
			}
			if fee != nil {
				charged = append(charged, *fee)
			}
		}
	}

	return charged, nil
}

func (s *Service) Unlink(ctx context.Context, req domain.LinkRequest) error {
	customer, err := s.customers.Resolve(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	agent, err := s.agents.Resolve(ctx, req.AgentID)
	if err != nil {
		return err
	}

	existing, err := s.repo.Find(ctx, s.db, customer.ID, agent.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, customer.ID, agent.ID)
}

func (s *Service) HasAccess(ctx context.Context, customerID, agentID snowflake.ID) (bool, error) {
	link, err := s.repo.Find(ctx, s.db, customerID, agentID)
	if err != nil {
		return false, err
	}
	return link != nil, nil
}

func (s *Service) ListByCustomer(ctx context.Context, rawCustomerID string) ([]domain.CustomerAgentLink, error) {
	customer, err := s.customers.Resolve(ctx, rawCustomerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, s.db, customer.ID)
}

func (s *Service) ListByAgent(ctx context.Context, rawAgentID string) ([]domain.CustomerAgentLink, error) {
	agent, err := s.agents.Resolve(ctx, rawAgentID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByAgent(ctx, s.db, agent.ID)
}
