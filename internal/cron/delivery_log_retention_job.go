package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

const defaultDeliveryLogWindow = 90 * 24 * time.Hour

type DeliveryLogRetentionJobParams struct {
	Logger     *logger.Logger
	Repository deliveryLogRetentionRepo
	Window     time.Duration
}

type deliveryLogRetentionRepo interface {
	PruneDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewDeliveryLogRetentionJob(params DeliveryLogRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("delivery log repository required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultDeliveryLogWindow
	}
	return &deliveryLogRetentionJob{
		logg:   params.Logger,
		repo:   params.Repository,
		window: window,
		now:    time.Now,
	}, nil
}

type deliveryLogRetentionJob struct {
	logg   *logger.Logger
	repo   deliveryLogRetentionRepo
	window time.Duration
	now    func() time.Time
}

func (j *deliveryLogRetentionJob) Name() string { return "delivery-log-retention" }

func (j *deliveryLogRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	deleted, err := j.repo.PruneDeliveriesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delivery log retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"window":       j.window.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "delivery log retention cleanup complete")
	return nil
}
