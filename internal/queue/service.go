package queue

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

// Service is the public enqueue entry point.
type Service interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.EmailJob, error)
	Stats(ctx context.Context) (map[enums.JobStatus]int64, error)
}

// EnqueueRequest carries one send request from the funnel (quiz completion,
// drip step, manual admin trigger).
type EnqueueRequest struct {
	LeadID          *uuid.UUID
	RecipientEmail  string
	Subject         string
	HTMLContent     string
	EmailType       string
	DelayMinutes    int
	Priority        enums.Priority
	Personalization map[string]string
}

// EnqueueResult reports the created job, or Skipped for unsubscribed
// recipients (no job is created in that case).
type EnqueueResult struct {
	Skipped      bool      `json:"skipped,omitempty"`
	JobID        uuid.UUID `json:"emailId,omitempty"`
	ScheduledFor time.Time `json:"scheduledFor,omitzero"`
}

// unsubscribeChecker is the slice of the registry the enqueue path needs.
type unsubscribeChecker interface {
	Exists(ctx context.Context, email string) (bool, error)
}

type ServiceParams struct {
	Repo     Repository
	Registry unsubscribeChecker
	Config   config.QueueConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	registry unsubscribeChecker
	cfg      config.QueueConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the enqueue dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queue repository required")
	}
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unsubscribe registry required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	cfg := params.Config
	if cfg.DefaultMaxAttempts <= 0 {
		cfg.DefaultMaxAttempts = 3
	}
	if cfg.HighPriorityMaxAttempts <= 0 {
		cfg.HighPriorityMaxAttempts = 5
	}
	return &service{
		repo:     params.Repo,
		registry: params.Registry,
		cfg:      cfg,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error) {
	if err := validateEnqueue(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.RecipientEmail))

	unsubscribed, err := s.registry.Exists(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unsubscribe registry")
	}
	if unsubscribed {
		if s.logg != nil {
			logCtx := s.logg.WithRecipient(ctx, email)
			s.logg.Info(logCtx, "enqueue skipped for unsubscribed recipient")
		}
		return &EnqueueResult{Skipped: true}, nil
	}

	now := s.now()
	job := &models.EmailJob{
		ID:             uuid.New(),
		LeadID:         req.LeadID,
		RecipientEmail: email,
		Subject:        Personalize(req.Subject, req.Personalization),
		HTMLBody:       Personalize(req.HTMLContent, req.Personalization),
		EmailType:      req.EmailType,
		Status:         enums.JobStatusPending,
		ScheduledFor:   now.Add(time.Duration(req.DelayMinutes) * time.Minute),
		Attempts:       0,
		MaxAttempts:    s.maxAttemptsFor(req.Priority),
	}

	if err := s.repo.Insert(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert email job")
	}

	if s.logg != nil {
		logCtx := s.logg.WithJobID(ctx, job.ID.String())
		logCtx = s.logg.WithRecipient(logCtx, email)
		logCtx = s.logg.WithEmailType(logCtx, job.EmailType)
		logCtx = s.logg.WithField(logCtx, "scheduled_for", job.ScheduledFor)
		s.logg.Info(logCtx, "email job enqueued")
	}

	return &EnqueueResult{JobID: job.ID, ScheduledFor: job.ScheduledFor}, nil
}

func (s *service) GetJob(ctx context.Context, id uuid.UUID) (*models.EmailJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "email job not found")
	}
	return job, nil
}

func (s *service) Stats(ctx context.Context) (map[enums.JobStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count jobs")
	}
	return counts, nil
}

func (s *service) maxAttemptsFor(priority enums.Priority) int {
	if priority == enums.PriorityHigh {
		return s.cfg.HighPriorityMaxAttempts
	}
	return s.cfg.DefaultMaxAttempts
}

func validateEnqueue(req EnqueueRequest) error {
	missing := map[string]string{}
	if strings.TrimSpace(req.RecipientEmail) == "" {
		missing["recipientEmail"] = "is required"
	}
	if strings.TrimSpace(req.Subject) == "" {
		missing["subject"] = "is required"
	}
	if strings.TrimSpace(req.HTMLContent) == "" {
		missing["htmlContent"] = "is required"
	}
	if strings.TrimSpace(req.EmailType) == "" {
		missing["emailType"] = "is required"
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(missing)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.RecipientEmail)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient email")
	}
	if req.DelayMinutes < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delayMinutes must not be negative")
	}
	if req.Priority != "" && !req.Priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}
	return nil
}
