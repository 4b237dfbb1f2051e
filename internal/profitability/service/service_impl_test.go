package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	agentrepo "github.com/agentbill/agentbill/internal/agent/repository"
	agentservice "github.com/agentbill/agentbill/internal/agent/service"
	"github.com/agentbill/agentbill/internal/clock"
	creditdomain "github.com/agentbill/agentbill/internal/credits/domain"
	customerdomain "github.com/agentbill/agentbill/internal/customer/domain"
	customerrepo "github.com/agentbill/agentbill/internal/customer/repository"
	customerservice "github.com/agentbill/agentbill/internal/customer/service"
	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
	meteringdomain "github.com/agentbill/agentbill/internal/metering/domain"
	"github.com/agentbill/agentbill/internal/profitability/domain"
	"github.com/agentbill/agentbill/internal/profitability/repository"
)

type profitHarness struct {
	svc       domain.Service
	customers customerdomain.Service
	agents    agentdomain.Service
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
}

func setupProfitabilityService(t *testing.T) profitHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&agentdomain.Agent{},
		&agentdomain.Signal{},
		&feedomain.FeeTransaction{},
		&creditdomain.CreditPurchase{},
		&meteringdomain.TokenUsage{},
		&meteringdomain.SignalLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC))

	customers := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: customerrepo.Provide(),
	})
	agents := agentservice.New(agentservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: agentrepo.Provide(),
	})
	svc := New(Params{
		DB:        db,
		Log:       log,
		Clock:     fake,
		Repo:      repository.Provide(),
		Customers: customers,
		Agents:    agents,
	})

	return profitHarness{svc: svc, customers: customers, agents: agents, db: db, node: node, clock: fake}
}

// seedScope writes raw billing rows so the aggregation is tested against
// known figures rather than the upstream services.
type seedScope struct {
	customerID snowflake.ID
	agentID    snowflake.ID
	at         time.Time
}

func (h profitHarness) seedTokenUsage(t *testing.T, s seedScope, totalCents int64) {
	t.Helper()
	require.NoError(t, h.db.Create(&meteringdomain.TokenUsage{
		ID:             h.node.Generate(),
		CustomerID:     s.customerID,
		AgentID:        s.agentID,
		Model:          "gpt-4o",
		ModelID:        h.node.Generate(),
		InputTokens:    1,
		OutputTokens:   1,
		TotalCostCents: totalCents,
		RecordedAt:     s.at,
	}).Error)
}

func (h profitHarness) seedSignalLog(t *testing.T, s seedScope, costType meteringdomain.CostType, amountCents int64) {
	t.Helper()
	require.NoError(t, h.db.Create(&meteringdomain.SignalLog{
		ID:          h.node.Generate(),
		CustomerID:  s.customerID,
		AgentID:     s.agentID,
		SignalID:    h.node.Generate(),
		SignalType:  agentdomain.SignalTypeOutcome,
		CostType:    costType,
		AmountCents: amountCents,
		Metadata:    datatypes.JSONMap{},
		RecordedAt:  s.at,
	}).Error)
}

func (h profitHarness) seedFee(t *testing.T, s seedScope, feeType feedomain.FeeType, amountCents int64) {
	t.Helper()
	require.NoError(t, h.db.Create(&feedomain.FeeTransaction{
		ID:               h.node.Generate(),
		CustomerID:       s.customerID,
		AgentID:          s.agentID,
		FeeType:          feeType,
		AmountCents:      amountCents,
		TransactionDate:  s.at,
		BillingAnchorDay: 1,
		BillingTimezone:  "UTC",
		IsActive:         true,
		Metadata:         datatypes.JSONMap{},
		CreatedAt:        s.at,
	}).Error)
}

func (h profitHarness) seedPurchase(t *testing.T, s seedScope, amountCents int64) {
	t.Helper()
	require.NoError(t, h.db.Create(&creditdomain.CreditPurchase{
		ID:          h.node.Generate(),
		CustomerID:  s.customerID,
		AgentID:     s.agentID,
		SignalID:    h.node.Generate(),
		AmountCents: amountCents,
		PurchasedAt: s.at,
	}).Error)
}

func TestComputeProfitabilitySumsAllRevenueStreams(t *testing.T) {
	h := setupProfitabilityService(t)
	ctx := context.Background()

	scope := seedScope{
		customerID: h.node.Generate(),
		agentID:    h.node.Generate(),
		at:         time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC),
	}

	h.seedSignalLog(t, scope, meteringdomain.CostTypeMonetary, 250)
	h.seedSignalLog(t, scope, meteringdomain.CostTypeMonetary, 150)
	h.seedFee(t, scope, feedomain.FeeTypeSetup, 5000)
	h.seedFee(t, scope, feedomain.FeeTypePlatform, 10000)
	h.seedPurchase(t, scope, 2000)
	h.seedTokenUsage(t, scope, 750)
	h.seedTokenUsage(t, scope, 250)

	report, err := h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(400), report.Revenue.SignalRevenueCents)
	assert.Equal(t, int64(5000), report.Revenue.SetupFeesCents)
	assert.Equal(t, int64(10000), report.Revenue.PlatformFeesCents)
	assert.Equal(t, int64(2000), report.Revenue.CreditPurchasesCents)
	assert.Equal(t, int64(17400), report.Revenue.TotalCents)

	assert.Equal(t, int64(1000), report.Costs.TokenCostCents)
	assert.Equal(t, int64(1000), report.Costs.TotalCents)

	assert.Equal(t, int64(16400), report.ProfitCents)
	assert.InDelta(t, 94.25, report.MarginPercent, 0.01)

	assert.Equal(t, int64(2), report.TokenUsageCount)
	assert.Equal(t, int64(2), report.SignalCallCount)
}

func TestComputeProfitabilityExcludesCreditBurns(t *testing.T) {
	h := setupProfitabilityService(t)
	ctx := context.Background()

	scope := seedScope{
		customerID: h.node.Generate(),
		agentID:    h.node.Generate(),
		at:         time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC),
	}

	h.seedSignalLog(t, scope, meteringdomain.CostTypeMonetary, 100)
	h.seedSignalLog(t, scope, meteringdomain.CostTypeCredit, 999)
	h.seedSignalLog(t, scope, meteringdomain.CostTypeCredit, 999)

	report, err := h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// The money entered revenue at purchase time; the burns must not count
	// it twice.
	assert.Equal(t, int64(100), report.Revenue.SignalRevenueCents)
	assert.Equal(t, int64(1), report.SignalCallCount)
}

func TestComputeProfitabilityZeroRevenue(t *testing.T) {
	h := setupProfitabilityService(t)
	ctx := context.Background()

	scope := seedScope{
		customerID: h.node.Generate(),
		agentID:    h.node.Generate(),
		at:         time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC),
	}
	h.seedTokenUsage(t, scope, 500)

	report, err := h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.Revenue.TotalCents)
	assert.Equal(t, int64(-500), report.ProfitCents)
	assert.Equal(t, float64(0), report.MarginPercent)
}

func TestComputeProfitabilityScopeFilters(t *testing.T) {
	h := setupProfitabilityService(t)
	ctx := context.Background()

	customer, err := h.customers.Create(ctx, customerdomain.CreateCustomerRequest{Name: "Acme"})
	require.NoError(t, err)
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Agent"})
	require.NoError(t, err)

	at := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	inScope := seedScope{customerID: customer.ID, agentID: agent.ID, at: at}
	outOfScope := seedScope{customerID: h.node.Generate(), agentID: h.node.Generate(), at: at}

	h.seedSignalLog(t, inScope, meteringdomain.CostTypeMonetary, 100)
	h.seedSignalLog(t, outOfScope, meteringdomain.CostTypeMonetary, 9000)
	h.seedTokenUsage(t, inScope, 40)
	h.seedTokenUsage(t, outOfScope, 8000)

	report, err := h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		CustomerID: customer.Slug,
		AgentID:    agent.Slug,
		StartDate:  time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), report.Revenue.SignalRevenueCents)
	assert.Equal(t, int64(40), report.Costs.TokenCostCents)

	_, err = h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		CustomerID: "ghost",
	})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}

func TestComputeProfitabilityPeriodHandling(t *testing.T) {
	h := setupProfitabilityService(t)
	ctx := context.Background()

	// An explicit period counts calendar days inclusively.
	report, err := h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.June, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.PeriodDays)

	// Partial days round up.
	report, err = h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.June, 3, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, report.PeriodDays)

	// A same-instant period is one day.
	at := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	report, err = h.svc.ComputeProfitability(ctx, domain.ReportRequest{StartDate: at, EndDate: at})
	require.NoError(t, err)
	assert.Equal(t, 1, report.PeriodDays)

	// Only inverted periods are rejected.
	_, err = h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: at.AddDate(0, 0, 5),
		EndDate:   at,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestComputeProfitabilityOpenPeriods(t *testing.T) {
	h := setupProfitabilityService(t)
	ctx := context.Background()

	customerID := h.node.Generate()
	agentID := h.node.Generate()
	old := seedScope{
		customerID: customerID,
		agentID:    agentID,
		at:         h.clock.Now().AddDate(0, 0, -30),
	}
	recent := seedScope{
		customerID: customerID,
		agentID:    agentID,
		at:         h.clock.Now().AddDate(0, 0, -1),
	}
	h.seedSignalLog(t, old, meteringdomain.CostTypeMonetary, 300)
	h.seedSignalLog(t, recent, meteringdomain.CostTypeMonetary, 100)
	h.seedTokenUsage(t, old, 50)
	h.seedTokenUsage(t, recent, 20)

	// No bounds aggregates everything ever recorded; the seven days is a
	// display default, not a filter.
	report, err := h.svc.ComputeProfitability(ctx, domain.ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(400), report.Revenue.SignalRevenueCents)
	assert.Equal(t, int64(70), report.Costs.TokenCostCents)
	assert.Equal(t, 7, report.PeriodDays)
	assert.True(t, report.PeriodStart.IsZero())
	assert.True(t, report.PeriodEnd.IsZero())

	// A start date alone is open-ended forward.
	report, err = h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		StartDate: h.clock.Now().AddDate(0, 0, -7),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), report.Revenue.SignalRevenueCents)
	assert.Equal(t, int64(20), report.Costs.TokenCostCents)

	// An end date alone is open-ended backward.
	report, err = h.svc.ComputeProfitability(ctx, domain.ReportRequest{
		EndDate: h.clock.Now().AddDate(0, 0, -7),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), report.Revenue.SignalRevenueCents)
	assert.Equal(t, int64(50), report.Costs.TokenCostCents)
}
