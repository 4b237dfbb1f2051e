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
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	agentrepo "github.com/agentbill/agentbill/internal/agent/repository"
	agentservice "github.com/agentbill/agentbill/internal/agent/service"
	catalogdomain "github.com/agentbill/agentbill/internal/catalog/domain"
	catalogrepo "github.com/agentbill/agentbill/internal/catalog/repository"
	catalogservice "github.com/agentbill/agentbill/internal/catalog/service"
	"github.com/agentbill/agentbill/internal/clock"
	creditdomain "github.com/agentbill/agentbill/internal/credits/domain"
	creditrepo "github.com/agentbill/agentbill/internal/credits/repository"
	creditservice "github.com/agentbill/agentbill/internal/credits/service"
	customerdomain "github.com/agentbill/agentbill/internal/customer/domain"
	customerrepo "github.com/agentbill/agentbill/internal/customer/repository"
	customerservice "github.com/agentbill/agentbill/internal/customer/service"
	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
	feerepo "github.com/agentbill/agentbill/internal/fees/repository"
	feeservice "github.com/agentbill/agentbill/internal/fees/service"
	linkdomain "github.com/agentbill/agentbill/internal/link/domain"
	linkrepo "github.com/agentbill/agentbill/internal/link/repository"
	linkservice "github.com/agentbill/agentbill/internal/link/service"
	"github.com/agentbill/agentbill/internal/metering/domain"
	"github.com/agentbill/agentbill/internal/metering/repository"
)

type meteringHarness struct {
	svc       domain.Service
	customers customerdomain.Service
	agents    agentdomain.Service
	catalog   catalogdomain.Service
	links     linkdomain.Service
	credits   creditdomain.Service
	db        *gorm.DB
	clock     *clock.FakeClock
}

func setupMeteringService(t *testing.T) meteringHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&agentdomain.Agent{},
		&agentdomain.Signal{},
		&catalogdomain.ValidModel{},
		&feedomain.FeeTransaction{},
		&linkdomain.CustomerAgentLink{},
		&creditdomain.CreditAllocation{},
		&creditdomain.CreditPurchase{},
		&domain.TokenUsage{},
		&domain.SignalLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, time.May, 5, 12, 0, 0, 0, time.UTC))

	customers := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: customerrepo.Provide(),
	})
	agents := agentservice.New(agentservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: agentrepo.Provide(),
	})
	catalog := catalogservice.New(catalogservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: catalogrepo.Provide(),
	})
	fees := feeservice.New(feeservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: feerepo.Provide(),
	})
	links := linkservice.New(linkservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: linkrepo.Provide(),
		Customers: customers, Agents: agents, Fees: fees,
	})
	credits := creditservice.New(creditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: creditrepo.Provide(),
		Agents: agents, Links: links,
	})
	svc := New(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Repo:      repository.Provide(),
		Customers: customers,
		Agents:    agents,
		Catalog:   catalog,
		Links:     links,
		Credits:   credits,
	})

	return meteringHarness{
		svc:       svc,
		customers: customers,
		agents:    agents,
		catalog:   catalog,
		links:     links,
		credits:   credits,
		db:        db,
		clock:     fake,
	}
}

func (h meteringHarness) createCustomer(t *testing.T, name string) customerdomain.Customer {
	t.Helper()
	customer, err := h.customers.Create(context.Background(), customerdomain.CreateCustomerRequest{Name: name})
	require.NoError(t, err)
	return customer
}

func (h meteringHarness) createModel(t *testing.T, model string, inputRate, outputRate int64) catalogdomain.ValidModel {
	t.Helper()
	created, err := h.catalog.Create(context.Background(), catalogdomain.CreateModelRequest{
		Model:                      model,
		InputCostPer1MTokensCents:  inputRate,
		OutputCostPer1MTokensCents: outputRate,
	})
	require.NoError(t, err)
	return created
}

func TestRecordTokenUsageSnapshotsCosts(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Open Agent"})
	require.NoError(t, err)
	h.createModel(t, "gpt-4o", 250, 1000)

	usage, err := h.svc.RecordTokenUsage(ctx, domain.RecordTokenUsageRequest{
		CustomerID:   customer.Slug,
		AgentID:      agent.Slug,
		Model:        "gpt-4o",
		InputTokens:  1_000_000,
		OutputTokens: 500_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), usage.InputCostCents)
	assert.Equal(t, int64(500), usage.OutputCostCents)
	assert.Equal(t, int64(750), usage.TotalCostCents)
	assert.Equal(t, customer.ID, usage.CustomerID)
	assert.Equal(t, agent.ID, usage.AgentID)
	assert.True(t, h.clock.Now().Equal(usage.RecordedAt))

	// A later rate change never rewrites the recorded row.
	model, err := h.catalog.LookupRate(ctx, "gpt-4o")
	require.NoError(t, err)
	_, err = h.catalog.Update(ctx, catalogdomain.UpdateModelRequest{
		ID:                         model.ModelID.String(),
		InputCostPer1MTokensCents:  999_999,
		OutputCostPer1MTokensCents: 999_999,
	})
	require.NoError(t, err)

	var stored domain.TokenUsage
	require.NoError(t, h.db.Raw(`SELECT * FROM token_usage WHERE id = ?`, usage.ID).Scan(&stored).Error)
	assert.Equal(t, int64(750), stored.TotalCostCents)
}

func TestRecordTokenUsageRounding(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Agent"})
	require.NoError(t, err)
	h.createModel(t, "gpt-4o-mini", 15, 60)

	// 123_456 * 15 = 1_851_840 token-cents, 1.85 cents rounds to 2.
	// 78_901 * 60 = 4_734_060 token-cents, 4.73 cents rounds to 5.
	usage, err := h.svc.RecordTokenUsage(ctx, domain.RecordTokenUsageRequest{
		CustomerID:   customer.ID.String(),
		AgentID:      agent.ID.String(),
		Model:        "gpt-4o-mini",
		InputTokens:  123_456,
		OutputTokens: 78_901,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.InputCostCents)
	assert.Equal(t, int64(5), usage.OutputCostCents)
	assert.Equal(t, int64(7), usage.TotalCostCents)
}

func TestRecordTokenUsageValidation(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Agent"})
	require.NoError(t, err)
	h.createModel(t, "gpt-4o", 250, 1000)

	_, err = h.svc.RecordTokenUsage(ctx, domain.RecordTokenUsageRequest{
		CustomerID:  customer.Slug,
		AgentID:     agent.Slug,
		Model:       "gpt-4o",
		InputTokens: -1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTokens)

	_, err = h.svc.RecordTokenUsage(ctx, domain.RecordTokenUsageRequest{
		CustomerID:  customer.Slug,
		AgentID:     agent.Slug,
		Model:       "unknown-model",
		InputTokens: 100,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrModelNotFound)

	_, err = h.svc.RecordTokenUsage(ctx, domain.RecordTokenUsageRequest{
		CustomerID:  "ghost",
		AgentID:     agent.Slug,
		Model:       "gpt-4o",
		InputTokens: 100,
	})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}

func TestRecordTokenUsageRestrictedAgent(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{
		Name:            "Restricted",
		SetupFeeEnabled: true,
		SetupFeeCents:   5000,
	})
	require.NoError(t, err)
	h.createModel(t, "gpt-4o", 250, 1000)

	req := domain.RecordTokenUsageRequest{
		CustomerID:  customer.Slug,
		AgentID:     agent.Slug,
		Model:       "gpt-4o",
		InputTokens: 100,
	}

	_, err = h.svc.RecordTokenUsage(ctx, req)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = h.links.Link(ctx, linkdomain.LinkRequest{
		CustomerID: customer.ID.String(),
		AgentID:    agent.ID.String(),
	})
	require.NoError(t, err)

	_, err = h.svc.RecordTokenUsage(ctx, req)
	assert.NoError(t, err)
}

func TestRecordTokenUsageBatchSkipsBadEntries(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Agent"})
	require.NoError(t, err)
	h.createModel(t, "gpt-4o", 250, 1000)

	good := domain.RecordTokenUsageRequest{
		CustomerID:  customer.Slug,
		AgentID:     agent.Slug,
		Model:       "gpt-4o",
		InputTokens: 1000,
	}
	badModel := good
	badModel.Model = "unknown"
	badTokens := good
	badTokens.InputTokens = -1

	result, err := h.svc.RecordTokenUsageBatch(ctx, []domain.RecordTokenUsageRequest{
		good, badModel, good, badTokens,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Recorded)
	assert.Equal(t, 2, result.Skipped)

	var count int64
	require.NoError(t, h.db.Raw(`SELECT COUNT(1) FROM token_usage`).Scan(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRecordSignalCallMonetary(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{
		Name: "Agent",
		Signals: []agentdomain.SignalInput{
			{Name: "Resolution", SignalType: agentdomain.SignalTypeOutcome, OutcomePriceCents: 250},
		},
	})
	require.NoError(t, err)

	entry, err := h.svc.RecordSignalCall(ctx, domain.RecordSignalCallRequest{
		CustomerID: customer.Slug,
		AgentID:    agent.Slug,
		SignalID:   "resolution",
		Metadata:   map[string]any{"ticket": "T-100"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CostTypeMonetary, entry.CostType)
	assert.Equal(t, int64(250), entry.AmountCents)
	assert.Equal(t, agentdomain.SignalTypeOutcome, entry.SignalType)
}

func TestRecordSignalCallCreditDeductsBalance(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{
		Name: "Agent",
		Signals: []agentdomain.SignalInput{
			{Name: "Lookup", SignalType: agentdomain.SignalTypeCredit, CreditsPerCallCents: 10},
		},
	})
	require.NoError(t, err)
	signalID := agent.Signals[0].ID

	_, err = h.credits.Allocate(ctx, creditdomain.AllocateRequest{
		CustomerID:   customer.ID.String(),
		AgentID:      agent.ID.String(),
		SignalID:     signalID.String(),
		CreditsCents: 25,
	})
	require.NoError(t, err)

	req := domain.RecordSignalCallRequest{
		CustomerID: customer.Slug,
		AgentID:    agent.Slug,
		SignalID:   "lookup",
	}

	entry, err := h.svc.RecordSignalCall(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.CostTypeCredit, entry.CostType)
	assert.Equal(t, int64(10), entry.AmountCents)

	_, err = h.svc.RecordSignalCall(ctx, req)
	require.NoError(t, err)

	balance, err := h.credits.Balance(ctx, creditdomain.BalanceRequest{
		CustomerID: customer.ID.String(),
		AgentID:    agent.ID.String(),
		SignalID:   signalID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.CreditsCents)

	// 5 cents cannot cover a 10 cent call. Nothing is logged and the
	// balance stays put.
	_, err = h.svc.RecordSignalCall(ctx, req)
	assert.ErrorIs(t, err, creditdomain.ErrInsufficientCredits)

	balance, err = h.credits.Balance(ctx, creditdomain.BalanceRequest{
		CustomerID: customer.ID.String(),
		AgentID:    agent.ID.String(),
		SignalID:   signalID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.CreditsCents)

	var logged int64
	require.NoError(t, h.db.Raw(`SELECT COUNT(1) FROM signal_logs`).Scan(&logged).Error)
	assert.Equal(t, int64(2), logged)
}

func TestRecordSignalCallUnknownSignal(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Agent"})
	require.NoError(t, err)

	_, err = h.svc.RecordSignalCall(ctx, domain.RecordSignalCallRequest{
		CustomerID: customer.Slug,
		AgentID:    agent.Slug,
		SignalID:   "missing",
	})
	assert.ErrorIs(t, err, agentdomain.ErrSignalNotFound)
}

func TestListTokenUsageFiltersAndTotals(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	acme := h.createCustomer(t, "Acme")
	globex := h.createCustomer(t, "Globex")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Agent"})
	require.NoError(t, err)
	other, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{Name: "Other Agent"})
	require.NoError(t, err)
	h.createModel(t, "gpt-4o", 250, 1000)

	record := func(customerID, agentID string, in, out int64) {
		t.Helper()
		_, err := h.svc.RecordTokenUsage(ctx, domain.RecordTokenUsageRequest{
			CustomerID:   customerID,
			AgentID:      agentID,
			Model:        "gpt-4o",
			InputTokens:  in,
			OutputTokens: out,
		})
		require.NoError(t, err)
	}

	record(acme.Slug, agent.Slug, 1_000_000, 500_000)
	h.clock.Advance(time.Hour)
	record(acme.Slug, other.Slug, 2_000_000, 0)
	h.clock.Advance(time.Hour)
	record(globex.Slug, agent.Slug, 4_000_000, 0)

	summary, err := h.svc.ListTokenUsage(ctx, domain.ListUsageRequest{CustomerID: acme.Slug})
	require.NoError(t, err)
	require.Len(t, summary.Usage, 2)
	assert.Equal(t, int64(3_000_000), summary.TotalInputTokens)
	assert.Equal(t, int64(500_000), summary.TotalOutputTokens)
	assert.Equal(t, int64(1250), summary.TotalCostCents)

	summary, err = h.svc.ListTokenUsage(ctx, domain.ListUsageRequest{
		CustomerID: acme.ID.String(),
		AgentID:    other.ID.String(),
	})
	require.NoError(t, err)
	require.Len(t, summary.Usage, 1)
	assert.Equal(t, int64(500), summary.TotalCostCents)

	// Window bounds are inclusive, so the cut keeps only the first row.
	summary, err = h.svc.ListTokenUsage(ctx, domain.ListUsageRequest{
		CustomerID: acme.Slug,
		To:         time.Date(2026, time.May, 5, 12, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, summary.Usage, 1)
	assert.Equal(t, int64(750), summary.TotalCostCents)

	_, err = h.svc.ListTokenUsage(ctx, domain.ListUsageRequest{CustomerID: "ghost"})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}

func TestListSignalCallsByCustomer(t *testing.T) {
	h := setupMeteringService(t)
	ctx := context.Background()

	customer := h.createCustomer(t, "Acme")
	agent, err := h.agents.Create(ctx, agentdomain.CreateAgentRequest{
		Name: "Agent",
		Signals: []agentdomain.SignalInput{
			{Name: "Booking", SignalType: agentdomain.SignalTypeOutcome, OutcomePriceCents: 250},
		},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := h.svc.RecordSignalCall(ctx, domain.RecordSignalCallRequest{
			CustomerID: customer.Slug,
			AgentID:    agent.Slug,
			SignalID:   "booking",
		})
		require.NoError(t, err)
	}

	logs, err := h.svc.ListSignalCalls(ctx, domain.ListUsageRequest{CustomerID: customer.Slug})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, entry := range logs {
		assert.Equal(t, int64(250), entry.AmountCents)
		assert.Equal(t, domain.CostTypeMonetary, entry.CostType)
	}
}
