package service

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/internal/clock"
	customerdomain "github.com/agentbill/agentbill/internal/customer/domain"
	"github.com/agentbill/agentbill/internal/profitability/domain"
)

const defaultPeriodDays = 7

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      domain.Repository
	Customers customerdomain.Service
	Agents    agentdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	customers customerdomain.Service
	agents    agentdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("profitability.service"),
		clock:     p.Clock,
		repo:      p.Repo,
		customers: p.Customers,
		agents:    p.Agents,
	}
}

func (s *Service) ComputeProfitability(ctx context.Context, req domain.ReportRequest) (domain.Report, error) {
	scope := domain.Scope{}

	if req.CustomerID != "" {
		customer, err := s.customers.Resolve(ctx, req.CustomerID)
		if err != nil {
			return domain.Report{}, err
		}
		scope.CustomerID = customer.ID
	}
	if req.AgentID != "" {
		agent, err := s.agents.Resolve(ctx, req.AgentID)
		if err != nil {
			return domain.Report{}, err
		}
		scope.AgentID = agent.ID
	}

	start, end, days, err := s.resolvePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return domain.Report{}, err
	}
	scope.From = start
	scope.To = end

	tokenCost, usageCount, err := s.repo.SumTokenCosts(ctx, s.db, scope)
	if err != nil {
		return domain.Report{}, err
	}
	signalRevenue, signalCount, err := s.repo.SumSignalRevenue(ctx, s.db, scope)
	if err != nil {
		return domain.Report{}, err
	}
	setupFees, platformFees, err := s.repo.SumFees(ctx, s.db, scope)
	if err != nil {
		return domain.Report{}, err
	}
	creditPurchases, err := s.repo.SumCreditPurchases(ctx, s.db, scope)
	if err != nil {
		return domain.Report{}, err
	}

	revenue := domain.Revenue{
		SignalRevenueCents:   signalRevenue,
		SetupFeesCents:       setupFees,
		PlatformFeesCents:    platformFees,
		CreditPurchasesCents: creditPurchases,
	}
	revenue.TotalCents = signalRevenue + setupFees + platformFees + creditPurchases

	costs := domain.Costs{TokenCostCents: tokenCost, TotalCents: tokenCost}

	profit := revenue.TotalCents - costs.TotalCents
	var margin float64
	if revenue.TotalCents > 0 {
		margin = float64(profit) / float64(revenue.TotalCents) * 100
	}

	return domain.Report{
		PeriodStart:     start,
		PeriodEnd:       end,
		PeriodDays:      days,
		Revenue:         revenue,
		Costs:           costs,
		ProfitCents:     profit,
		MarginPercent:   margin,
		TokenUsageCount: usageCount,
		SignalCallCount: signalCount,
	}, nil
}

// resolvePeriod passes zero bounds through untouched: a missing side leaves
// the period open on that end, and no bounds at all means every recorded row.
// PeriodDays only reflects an actual span, otherwise the seven-day default
// is reported for display.
func (s *Service) resolvePeriod(start, end time.Time) (time.Time, time.Time, int, error) {
	if start.IsZero() || end.IsZero() {
		return start, end, defaultPeriodDays, nil
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, 0, domain.ErrInvalidPeriod
	}
	return start, end, periodDays(start, end), nil
}

// periodDays counts calendar days covered by the period, rounding partial
// days up and counting a same-instant period as one day.
func periodDays(start, end time.Time) int {
	seconds := int64(end.Sub(start) / time.Second)
	days := int(seconds / 86400)
	if seconds%86400 != 0 {
		days++
	}
	return days + 1
}
