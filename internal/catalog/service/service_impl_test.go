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

	"github.com/agentbill/agentbill/internal/catalog/domain"
	"github.com/agentbill/agentbill/internal/catalog/repository"
	"github.com/agentbill/agentbill/internal/clock"
)

func setupCatalogService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ValidModel{}))

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

func TestModelCreateAndLookupRate(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateModelRequest{
		Model:                      "gpt-4o",
		InputCostPer1MTokensCents:  250,
		OutputCostPer1MTokensCents: 1000,
	})
	require.NoError(t, err)
	assert.True(t, created.Active)

	rate, err := svc.LookupRate(ctx, "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, created.ID, rate.ModelID)
	assert.Equal(t, int64(250), rate.InputCostPer1MTokensCents)
	assert.Equal(t, int64(1000), rate.OutputCostPer1MTokensCents)
}

func TestModelLookupRateUnknown(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	_, err := svc.LookupRate(ctx, "made-up-model")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestModelLookupRateInactive(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateModelRequest{
		Model:                      "retired-model",
		InputCostPer1MTokensCents:  100,
		OutputCostPer1MTokensCents: 200,
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, domain.UpdateModelRequest{
		ID:                         created.ID.String(),
		InputCostPer1MTokensCents:  100,
		OutputCostPer1MTokensCents: 200,
		Active:                     &inactive,
	})
	require.NoError(t, err)

	_, err = svc.LookupRate(ctx, "retired-model")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestModelCreateValidation(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateModelRequest{Model: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidModel)

	_, err = svc.Create(ctx, domain.CreateModelRequest{
		Model:                     "negative",
		InputCostPer1MTokensCents: -1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)
}

func TestModelDuplicateName(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateModelRequest{Model: "claude-sonnet-4"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateModelRequest{Model: "claude-sonnet-4"})
	assert.ErrorIs(t, err, domain.ErrModelTaken)
}

func TestModelRateColumnNames(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ValidModel{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	ctx := context.Background()

	_, err = svc.Create(ctx, domain.CreateModelRequest{
		Model:                      "gpt-4o",
		InputCostPer1MTokensCents:  250,
		OutputCostPer1MTokensCents: 1000,
	})
	require.NoError(t, err)

	// The rate columns are addressed by name in the migrations and the
	// raw usage-pricing queries, so the model tags must pin them.
	var in, out int64
	row := db.WithContext(ctx).Raw(
		`SELECT input_cost_per_1m_tokens_cents, output_cost_per_1m_tokens_cents FROM valid_models WHERE model = ?`,
		"gpt-4o",
	).Row()
	require.NoError(t, row.Scan(&in, &out))
	assert.Equal(t, int64(250), in)
	assert.Equal(t, int64(1000), out)
}

func TestModelUpdateRates(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateModelRequest{
		Model:                      "gpt-4o-mini",
		InputCostPer1MTokensCents:  15,
		OutputCostPer1MTokensCents: 60,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateModelRequest{
		ID:                         created.ID.String(),
		InputCostPer1MTokensCents:  20,
		OutputCostPer1MTokensCents: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), updated.InputCostPer1MTokensCents)
	assert.True(t, updated.Active)

	rate, err := svc.LookupRate(ctx, "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, int64(80), rate.OutputCostPer1MTokensCents)
}
