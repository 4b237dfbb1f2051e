package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/internal/config"
	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
	feerepo "github.com/agentbill/agentbill/internal/fees/repository"
	feeservice "github.com/agentbill/agentbill/internal/fees/service"
)

type schedulerHarness struct {
	sched *Scheduler
	fees  feedomain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setupScheduler(t *testing.T) schedulerHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&agentdomain.Agent{}, &feedomain.FeeTransaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, time.January, 10, 6, 0, 0, 0, time.UTC))

	fees := feeservice.New(feeservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  feerepo.Provide(),
	})

	sched, err := New(Params{
		Log:    zap.NewNop(),
		Clock:  fake,
		Config: config.Config{},
		Fees:   fees,
	})
	require.NoError(t, err)

	return schedulerHarness{sched: sched, fees: fees, node: node, clock: fake}
}

func TestSchedulerRenewsAcrossMonths(t *testing.T) {
	h := setupScheduler(t)
	ctx := context.Background()
	customerID := h.node.Generate()
	agentID := h.node.Generate()

	opened, err := h.fees.ChargePlatformFee(ctx, feedomain.ChargePlatformFeeRequest{
		CustomerID:   customerID,
		AgentID:      agentID,
		AmountCents:  10000,
		BillingCycle: agentdomain.BillingCycleMonthly,
	})
	require.NoError(t, err)
	require.NotNil(t, opened)

	// Sweep daily for roughly six months. Each month exactly one renewal
	// fires, the day after the noon due date passes.
	for day := 0; day < 180; day++ {
		require.NoError(t, h.sched.RunOnce(ctx))
		h.clock.Advance(24 * time.Hour)
	}

	fees, err := h.fees.List(ctx, feedomain.ListFeeRequest{
		CustomerID: customerID.String(),
		FeeType:    "platform",
	})
	require.NoError(t, err)

	// Jan 10 anchor billed through Jun 10 means five renewals plus the
	// opening charge.
	assert.Len(t, fees, 6)

	var active int
	for _, fee := range fees {
		if fee.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestSchedulerRunOnceIdempotentWithinDay(t *testing.T) {
	h := setupScheduler(t)
	ctx := context.Background()
	customerID := h.node.Generate()
	agentID := h.node.Generate()

	_, err := h.fees.ChargePlatformFee(ctx, feedomain.ChargePlatformFeeRequest{
		CustomerID:   customerID,
		AgentID:      agentID,
		AmountCents:  10000,
		BillingCycle: agentdomain.BillingCycleMonthly,
	})
	require.NoError(t, err)

	h.clock.Advance(35 * 24 * time.Hour)

	require.NoError(t, h.sched.RunOnce(ctx))
	require.NoError(t, h.sched.RunOnce(ctx))

	fees, err := h.fees.List(ctx, feedomain.ListFeeRequest{CustomerID: customerID.String()})
	require.NoError(t, err)
	assert.Len(t, fees, 2)
}

func TestSchedulerRejectsBadInterval(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())

	cfg := config.Config{}
	cfg.Scheduler.Interval = "not-a-duration"

	_, err := New(Params{
		Log:    zap.NewNop(),
		Clock:  fake,
		Config: cfg,
		Fees:   stubFeeService{},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.Scheduler.Interval = "30m"
	sched, err := New(Params{
		Log:    zap.NewNop(),
		Clock:  fake,
		Config: cfg,
		Fees:   stubFeeService{},
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, sched.interval)
}

func TestSchedulerJobDurationUsesInjectedClock(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, time.January, 10, 6, 0, 0, 0, time.UTC))

	sched, err := New(Params{
		Log:    zap.NewNop(),
		Clock:  fake,
		Config: config.Config{},
		Fees:   advancingFeeService{clock: fake, step: 90 * time.Second},
	})
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))

	// The duration histogram must reflect the injected clock, so a sweep
	// that advances it ninety seconds records exactly that. Sweeps in the
	// other tests never move the clock mid-job and record zero.
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var sum float64
	for _, family := range families {
		if family.GetName() != "agentbill_scheduler_job_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			sum += metric.GetHistogram().GetSampleSum()
		}
	}
	assert.InDelta(t, 90.0, sum, 0.001)
}

// advancingFeeService moves the fake clock while the sweep runs, standing
// in for wall time passing during a slow renewal pass.
type advancingFeeService struct {
	stubFeeService
	clock *clock.FakeClock
	step  time.Duration
}

func (a advancingFeeService) RenewDueFees(context.Context) (feedomain.RenewalResult, error) {
	a.clock.Advance(a.step)
	return feedomain.RenewalResult{}, nil
}

type stubFeeService struct{}

func (stubFeeService) ChargeSetupFee(context.Context, feedomain.ChargeSetupFeeRequest) (*feedomain.FeeTransaction, error) {
	return nil, nil
}

func (stubFeeService) ChargePlatformFee(context.Context, feedomain.ChargePlatformFeeRequest) (*feedomain.FeeTransaction, error) {
	return nil, nil
}

func (stubFeeService) ShouldChargePlatformFee(context.Context, snowflake.ID, snowflake.ID) (bool, error) {
	return false, nil
}

func (stubFeeService) RenewDueFees(context.Context) (feedomain.RenewalResult, error) {
	return feedomain.RenewalResult{}, nil
}

func (stubFeeService) List(context.Context, feedomain.ListFeeRequest) ([]feedomain.FeeTransaction, error) {
	return nil, nil
}
