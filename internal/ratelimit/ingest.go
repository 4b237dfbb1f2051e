package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/agentbill/agentbill/internal/config"
)

const (
	keyIngestCustomer = "metering:ingest:customer:%s"
	keyIngestLock     = "metering:ingest:lock:%s:%s"
)

// IngestLimiter throttles metering ingestion per customer. A nil limiter
// means rate limiting is disabled and everything is allowed.
type IngestLimiter struct {
	bucket *TokenBucket
	locker *Locker

	rate    float64
	burst   int
	lockTTL time.Duration
}

func NewIngestLimiter(cfg config.Config) (*IngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.IngestRate <= 0 || limitCfg.IngestBurst <= 0 {
		return nil, errors.New("ingest rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	return &IngestLimiter{
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.IngestRate,
		burst:   limitCfg.IngestBurst,
		lockTTL: time.Duration(limitCfg.LockTTLSecs) * time.Second,
	}, nil
}

func (l *IngestLimiter) Enabled() bool {
	return l != nil
}

func (l *IngestLimiter) AllowCustomer(ctx context.Context, customerID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyIngestCustomer, strings.TrimSpace(customerID)), l.rate, l.burst)
}

// TryLockBatch serializes concurrent batch ingests for one customer and
// agent so interleaved batches cannot double-record.
func (l *IngestLimiter) TryLockBatch(ctx context.Context, customerID, agentID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyIngestLock, strings.TrimSpace(customerID), strings.TrimSpace(agentID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *IngestLimiter) ReleaseBatch(ctx context.Context, customerID, agentID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyIngestLock, strings.TrimSpace(customerID), strings.TrimSpace(agentID))
	return l.locker.Release(ctx, key, token)
}
