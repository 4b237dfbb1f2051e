package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/internal/config"
	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
	obsmetrics "github.com/agentbill/agentbill/internal/observability/metrics"
)

const (
	jobRenewPlatformFees = "renew_platform_fees"

	defaultRunInterval = 24 * time.Hour
	jobTimeout         = 5 * time.Minute
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Fees   feedomain.Service
}

// Scheduler drives the recurring billing sweep: every interval it renews
// platform fees that have come due.
type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	interval time.Duration
	fees     feedomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Fees == nil {
		return nil, ErrInvalidConfig
	}

	interval := defaultRunInterval
	if raw := p.Config.Scheduler.Interval; raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidConfig
		}
		interval = parsed
	}

	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:    p.Clock,
		interval: interval,
		fees:     p.Fees,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	schedMetrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", jobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobRenewPlatformFees, s.renewPlatformFeesJob)
}

func (s *Scheduler) renewPlatformFeesJob(ctx context.Context) error {
	result, err := s.fees.RenewDueFees(ctx)
	if err != nil {
		return err
	}

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.AddRenewals(result.Renewed)
	schedMetrics.AddSkips(result.Skipped)

	if result.Renewed > 0 || result.Skipped > 0 {
		s.log.Info("platform fee sweep finished",
			zap.Int("renewed", result.Renewed),
			zap.Int("skipped", result.Skipped),
		)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
