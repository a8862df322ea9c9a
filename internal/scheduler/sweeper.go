package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/service"
)

const leaseKey = "rotation:sweep:lease"

// Sweeper periodically runs rotation sweeps. A Redis lease keyed by node
// identity keeps concurrent instances from sweeping the same snapshot; the
// replacement idempotency key in the rotation engine covers the window where
// a lease is briefly lost.
type Sweeper struct {
	rotation service.RotationService
	redis    *redis.Client
	interval time.Duration
	timeout  time.Duration
	leaseTTL time.Duration
	logger   zerolog.Logger
	nodeID   string
}

// NewSweeper builds a sweeper. The redis client may be nil for single-node
// deployments; sweeps then run without a lease.
func NewSweeper(rotation service.RotationService, redisClient *redis.Client, interval, timeout, leaseTTL time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if leaseTTL <= 0 {
		leaseTTL = 5 * time.Minute
	}

	return &Sweeper{
		rotation: rotation,
		redis:    redisClient,
		interval: interval,
		timeout:  timeout,
		leaseTTL: leaseTTL,
		logger:   logger.With().Str("component", "rotation_sweeper").Logger(),
		nodeID:   uuid.NewString(),
	}
}

// Run blocks, sweeping at the configured interval until the context ends.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("rotation sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rotation sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce attempts a single leased sweep. Failures are logged and left for
// the next interval; the rotation engine guarantees the store is never left
// partially rotated.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	acquired, err := s.acquireLease(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to acquire sweep lease")
		return
	}
	if !acquired {
		s.logger.Debug().Msg("sweep lease held elsewhere, skipping")
		return
	}
	defer s.releaseLease(ctx)

	sweepCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.rotation.Sweep(sweepCtx); err != nil {
		s.logger.Error().Err(err).Msg("rotation sweep failed")
	}
}

func (s *Sweeper) acquireLease(ctx context.Context) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	return s.redis.SetNX(ctx, leaseKey, s.nodeID, s.leaseTTL).Result()
}

func (s *Sweeper) releaseLease(ctx context.Context) {
	if s.redis == nil {
		return
	}

	holder, err := s.redis.Get(ctx, leaseKey).Result()
	if err != nil || holder != s.nodeID {
		return
	}
	if err := s.redis.Del(ctx, leaseKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to release sweep lease")
	}
}
