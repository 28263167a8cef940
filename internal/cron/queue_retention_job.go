package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

const defaultTerminalJobWindow = 30 * 24 * time.Hour

type QueueRetentionJobParams struct {
	Logger     *logger.Logger
	Repository queueRetentionRepo
	Window     time.Duration
}

type queueRetentionRepo interface {
	PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewQueueRetentionJob prunes sent, skipped and cancelled jobs older than the
// window. Failed jobs are kept for inspection.
func NewQueueRetentionJob(params QueueRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("queue repository required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultTerminalJobWindow
	}
	return &queueRetentionJob{
		logg:   params.Logger,
		repo:   params.Repository,
		window: window,
		now:    time.Now,
	}, nil
}

type queueRetentionJob struct {
	logg   *logger.Logger
	repo   queueRetentionRepo
	window time.Duration
	now    func() time.Time
}

func (j *queueRetentionJob) Name() string { return "queue-retention" }

func (j *queueRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	deleted, err := j.repo.PruneTerminalBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("queue retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"window":       j.window.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "queue retention cleanup complete")
	return nil
}
