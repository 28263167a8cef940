package queue

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/marisolvega/funnelmail-backend/internal/mailer"
	"github.com/marisolvega/funnelmail-backend/internal/tracking"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
	"github.com/marisolvega/funnelmail-backend/pkg/metrics"
)

// BatchResult summarizes one processor pass over the queue.
type BatchResult struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Processor claims due jobs and dispatches them. One failing job never blocks
// the rest of the batch.
type Processor interface {
	ProcessBatch(ctx context.Context) (*BatchResult, error)
}

// deliveryRecorder is the slice of the delivery log the processor needs.
type deliveryRecorder interface {
	RecordDelivery(ctx context.Context, entry *models.DeliveryLogEntry) error
	RecordEvent(ctx context.Context, event *models.EmailEvent) error
}

type ProcessorParams struct {
	Repo       Repository
	Deliveries deliveryRecorder
	Registry   unsubscribeChecker
	Sender     mailer.Sender
	Links      *tracking.LinkBuilder
	Config     config.QueueConfig
	Metrics    *metrics.QueueMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type processor struct {
	repo       Repository
	deliveries deliveryRecorder
	registry   unsubscribeChecker
	sender     mailer.Sender
	links      *tracking.LinkBuilder
	cfg        config.QueueConfig
	metrics    *metrics.QueueMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewProcessor wires the dispatch dependencies.
func NewProcessor(params ProcessorParams) (Processor, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queue repository required")
	}
	if params.Deliveries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery recorder required")
	}
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unsubscribe registry required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if params.Links == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "link builder required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	cfg := params.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &processor{
		repo:       params.Repo,
		deliveries: params.Deliveries,
		registry:   params.Registry,
		sender:     params.Sender,
		links:      params.Links,
		cfg:        cfg,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        now,
	}, nil
}

func (p *processor) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	start := p.now()
	jobs, err := p.repo.ClaimDue(ctx, start, p.cfg.BatchSize)
	if err != nil {
		p.metrics.IncBatch("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim due jobs")
	}

	result := &BatchResult{Claimed: len(jobs)}
	var errs error
	for _, job := range jobs {
		if err := p.processJob(ctx, job, result); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	p.metrics.ObserveBatchDuration(time.Since(start))
	if errs != nil {
		p.metrics.IncBatch("error")
	} else {
		p.metrics.IncBatch("success")
	}

	if p.logg != nil && result.Claimed > 0 {
		logCtx := p.logg.WithField(ctx, "claimed", result.Claimed)
		logCtx = p.logg.WithField(logCtx, "sent", result.Sent)
		logCtx = p.logg.WithField(logCtx, "failed", result.Failed)
		logCtx = p.logg.WithField(logCtx, "skipped", result.Skipped)
		p.logg.Info(logCtx, "queue batch processed")
	}
	return result, errs
}

// processJob takes one claimed job to a terminal or retryable outcome. Errors
// returned here are bookkeeping failures; a provider rejection is handled via
// MarkFailed and is not an error of the batch.
func (p *processor) processJob(ctx context.Context, job models.EmailJob, result *BatchResult) error {
	logCtx := ctx
	if p.logg != nil {
		logCtx = p.logg.WithJobID(ctx, job.ID.String())
		logCtx = p.logg.WithRecipient(logCtx, job.RecipientEmail)
		logCtx = p.logg.WithEmailType(logCtx, job.EmailType)
	}

	// Re-check right before dispatch; the recipient may have opted out while
	// the job sat in the queue.
	unsubscribed, err := p.registry.Exists(ctx, job.RecipientEmail)
	if err != nil {
		return p.handleFailure(logCtx, job, "unsubscribe check: "+err.Error(), result)
	}
	if unsubscribed {
		if err := p.repo.MarkSkipped(ctx, job.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark job skipped")
		}
		result.Skipped++
		p.metrics.IncJob("skipped")
		if p.logg != nil {
			p.logg.Info(logCtx, "job skipped for unsubscribed recipient")
		}
		return nil
	}

	html, err := p.links.Decorate(job)
	if err != nil {
		return p.handleFailure(logCtx, job, "decorating body: "+err.Error(), result)
	}

	providerResp, err := p.sender.Send(ctx, mailer.Message{
		To:      job.RecipientEmail,
		Subject: job.Subject,
		HTML:    html,
	})
	if err != nil {
		return p.handleFailure(logCtx, job, err.Error(), result)
	}

	sentAt := p.now()
	if err := p.repo.MarkSent(ctx, job.ID, sentAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark job sent")
	}
	result.Sent++
	p.metrics.IncJob("sent")

	entry := &models.DeliveryLogEntry{
		LeadID:           job.LeadID,
		RecipientEmail:   job.RecipientEmail,
		EmailType:        job.EmailType,
		Subject:          job.Subject,
		Status:           enums.DeliveryStatusSent,
		ProviderResponse: &providerResp,
		SentAt:           sentAt,
	}
	if err := p.deliveries.RecordDelivery(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record delivery")
	}
	event := &models.EmailEvent{
		EmailID:   job.ID.String(),
		Action:    enums.EmailEventSent,
		Timestamp: sentAt,
	}
	if err := p.deliveries.RecordEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sent event")
	}

	if p.logg != nil {
		p.logg.Info(logCtx, "email sent")
	}
	return nil
}

func (p *processor) handleFailure(logCtx context.Context, job models.EmailJob, errMsg string, result *BatchResult) error {
	terminal := job.Attempts+1 >= job.MaxAttempts
	if err := p.repo.MarkFailed(logCtx, job.ID, errMsg, terminal); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark job failed")
	}
	result.Failed++
	p.metrics.IncJob("failed")

	entry := &models.DeliveryLogEntry{
		LeadID:         job.LeadID,
		RecipientEmail: job.RecipientEmail,
		EmailType:      job.EmailType,
		Subject:        job.Subject,
		Status:         enums.DeliveryStatusFailed,
		ErrorMessage:   &errMsg,
		SentAt:         p.now(),
	}
	if err := p.deliveries.RecordDelivery(logCtx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed delivery")
	}

	if p.logg != nil {
		failCtx := p.logg.WithField(logCtx, "attempt", job.Attempts+1)
		failCtx = p.logg.WithField(failCtx, "max_attempts", job.MaxAttempts)
		failCtx = p.logg.WithField(failCtx, "terminal", terminal)
		p.logg.Warn(failCtx, "email dispatch failed: "+errMsg)
	}
	return nil
}
