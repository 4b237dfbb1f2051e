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

	"github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/internal/agent/repository"
	"github.com/agentbill/agentbill/internal/clock"
)

func setupAgentService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Agent{}, &domain.Signal{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestAgentCreateWithSignals(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Support Bot",
		Signals: []domain.SignalInput{
			{Name: "API Call", SignalType: domain.SignalTypeUsage, PricePerCallCents: 5},
			{Name: "Ticket Resolved", SignalType: domain.SignalTypeOutcome, OutcomePriceCents: 200},
			{Name: "Lookup", SignalType: domain.SignalTypeCredit, CreditsPerCallCents: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "support-bot", created.Slug)
	require.Len(t, created.Signals, 3)
	assert.False(t, created.Restricted())

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Len(t, got.Signals, 3)
}

func TestAgentSignalRateFieldsFollowType(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	// Rate fields that do not match the signal type are discarded, never
	// stored.
	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Mixed Rates",
		Signals: []domain.SignalInput{
			{
				Name:                "Resolution",
				SignalType:          domain.SignalTypeOutcome,
				PricePerCallCents:   999,
				OutcomePriceCents:   250,
				CreditsPerCallCents: 888,
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Signals, 1)

	sig := created.Signals[0]
	assert.Equal(t, int64(0), sig.PricePerCallCents)
	assert.Equal(t, int64(250), sig.OutcomePriceCents)
	assert.Equal(t, int64(0), sig.CreditsPerCallCents)
	assert.Equal(t, int64(250), sig.RateCents())
}

func TestAgentCreateValidation(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateAgentRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Bad Signal",
		Signals: []domain.SignalInput{
			{Name: "X", SignalType: "bogus"},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSignalType)

	_, err = svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Negative Fee",
		Signals: []domain.SignalInput{
			{Name: "X", SignalType: domain.SignalTypeUsage, PricePerCallCents: -1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFeeAmount)

	_, err = svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Dup Signal Slugs",
		Signals: []domain.SignalInput{
			{Name: "Same", Slug: "same"},
			{Name: "Same Again", Slug: "same"},
		},
	})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	_, err = svc.Create(ctx, domain.CreateAgentRequest{
		Name:                    "Bad Cycle",
		PlatformFeeEnabled:      true,
		PlatformFeeCents:        1000,
		PlatformFeeBillingCycle: "weekly",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidBillingCycle)
}

func TestAgentRestrictedFlag(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name:            "Paid Agent",
		SetupFeeEnabled: true,
		SetupFeeCents:   5000,
	})
	require.NoError(t, err)
	assert.True(t, created.Restricted())

	created, err = svc.Create(ctx, domain.CreateAgentRequest{
		Name:                    "Subscription Agent",
		PlatformFeeEnabled:      true,
		PlatformFeeCents:        10000,
		PlatformFeeBillingCycle: domain.BillingCycleMonthly,
	})
	require.NoError(t, err)
	assert.True(t, created.Restricted())
}

func TestAgentUpdateReplacesSignals(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Replace Me",
		Signals: []domain.SignalInput{
			{Name: "Old Signal", PricePerCallCents: 1},
		},
	})
	require.NoError(t, err)

	// Nil signals keep the existing set.
	updated, err := svc.Update(ctx, domain.UpdateAgentRequest{
		ID:   created.ID.String(),
		Name: "Renamed",
	})
	require.NoError(t, err)
	require.Len(t, updated.Signals, 1)
	assert.Equal(t, "old-signal", updated.Signals[0].Slug)

	// A non-nil set replaces wholesale.
	updated, err = svc.Update(ctx, domain.UpdateAgentRequest{
		ID:   created.ID.String(),
		Name: "Renamed",
		Signals: []domain.SignalInput{
			{Name: "New One", PricePerCallCents: 2},
			{Name: "New Two", PricePerCallCents: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Signals, 2)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Len(t, got.Signals, 2)
	for _, sig := range got.Signals {
		assert.NotEqual(t, "old-signal", sig.Slug)
	}
}

func TestAgentResolveSignal(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Signal Host",
		Signals: []domain.SignalInput{
			{Name: "Billable Event", PricePerCallCents: 7},
		},
	})
	require.NoError(t, err)
	signalID := created.Signals[0].ID

	bySlug, err := svc.ResolveSignal(ctx, "signal-host", "billable-event")
	require.NoError(t, err)
	assert.Equal(t, signalID, bySlug.ID)

	byID, err := svc.ResolveSignal(ctx, created.ID.String(), signalID.String())
	require.NoError(t, err)
	assert.Equal(t, signalID, byID.ID)

	_, err = svc.ResolveSignal(ctx, created.ID.String(), "missing")
	assert.ErrorIs(t, err, domain.ErrSignalNotFound)
}

func TestAgentResolveSignalScopedToAgent(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "First Agent",
		Signals: []domain.SignalInput{
			{Name: "Shared Name", Slug: "shared-signal", PricePerCallCents: 1},
		},
	})
	require.NoError(t, err)

	second, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Second Agent",
	})
	require.NoError(t, err)

	// The first agent's signal is invisible through the second agent.
	_, err = svc.ResolveSignal(ctx, second.ID.String(), "shared-signal")
	assert.ErrorIs(t, err, domain.ErrSignalNotFound)

	_, err = svc.ResolveSignal(ctx, second.ID.String(), first.Signals[0].ID.String())
	assert.ErrorIs(t, err, domain.ErrSignalNotFound)
}

func TestAgentDuplicateSlug(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateAgentRequest{Name: "One", Slug: "taken"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateAgentRequest{Name: "Two", Slug: "taken"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestAgentDeleteRemovesSignals(t *testing.T) {
	svc := setupAgentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name: "Doomed",
		Signals: []domain.SignalInput{
			{Name: "Orphan", PricePerCallCents: 1},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID.String()))

	_, err = svc.GetByID(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
