package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

const (
	defaultPollInterval    = 30 * time.Second
	defaultStaleClaimAfter = 10 * time.Minute
	maxBackoff             = 5 * time.Minute
	jitterWindow           = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dependencyPinger interface {
	Ping(context.Context) error
}

// staleReleaser returns stuck in-flight jobs to the queue.
type staleReleaser interface {
	ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        dependencyPinger
	Processor queue.Processor
	Repo      staleReleaser
	Now       func() time.Time
}

// Service drives the queue processor on a fixed poll cadence. A full batch
// triggers an immediate follow-up pass; errors back off exponentially.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dependencyPinger
	processor    queue.Processor
	repo         staleReleaser
	pollInterval time.Duration
	staleAfter   time.Duration
	batchSize    int
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Processor == nil {
		return nil, errors.New("queue processor is required")
	}
	if params.Repo == nil {
		return nil, errors.New("queue repository is required")
	}

	interval := params.Config.Queue.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	staleAfter := params.Config.Queue.StaleClaimAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleClaimAfter
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		processor:    params.Processor,
		repo:         params.Repo,
		pollInterval: interval,
		staleAfter:   staleAfter,
		batchSize:    params.Config.Queue.BatchSize,
		now:          now,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Run polls until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := s.pollInterval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "queue worker context canceled")
			return ctx.Err()
		default:
		}

		full, err := s.runCycle(ctx)
		if err != nil {
			s.logg.Error(ctx, "queue worker cycle error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval

		// A full batch means more work is likely waiting.
		if full {
			continue
		}

		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

func (s *Service) runCycle(ctx context.Context) (bool, error) {
	released, err := s.repo.ReleaseStale(ctx, s.now().Add(-s.staleAfter))
	if err != nil {
		return false, fmt.Errorf("release stale claims: %w", err)
	}
	if released > 0 {
		logCtx := s.logg.WithField(ctx, "released", released)
		s.logg.Warn(logCtx, "released stale queue claims")
	}

	result, err := s.processor.ProcessBatch(ctx)
	if err != nil {
		return false, err
	}
	return s.batchSize > 0 && result.Claimed >= s.batchSize, nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
