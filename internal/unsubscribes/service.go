package unsubscribes

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

// Service defines the unsubscribe registry operations.
type Service interface {
	// Unsubscribe adds the address to the registry and cancels every pending
	// job addressed to it. It is idempotent; the returned count is the number
	// of jobs cancelled by this call.
	Unsubscribe(ctx context.Context, email string) (int64, error)
	IsUnsubscribed(ctx context.Context, email string) (bool, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PendingCanceller bulk-cancels pending jobs for a recipient. Implemented by
// the queue repository.
type PendingCanceller interface {
	CancelPendingTx(tx *gorm.DB, email string) (int64, error)
}

type ServiceParams struct {
	Repo   Repository
	Jobs   PendingCanceller
	Tx     TxRunner
	Logger *logger.Logger
}

type service struct {
	repo Repository
	jobs PendingCanceller
	tx   TxRunner
	logg *logger.Logger
}

// NewService wires unsubscribe registry dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unsubscribe repository required")
	}
	if params.Jobs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pending job canceller required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo: params.Repo,
		jobs: params.Jobs,
		tx:   params.Tx,
		logg: params.Logger,
	}, nil
}

// Normalize lowercases and trims an address so registry lookups are
// case-insensitive.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Unsubscribe(ctx context.Context, email string) (int64, error) {
	email = Normalize(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email address")
	}

	var cancelled int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Add(ctx, email, time.Now().UTC()); err != nil {
			return err
		}
		count, err := s.jobs.CancelPendingTx(tx, email)
		if err != nil {
			return err
		}
		cancelled = count
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unsubscribe")
	}

	if s.logg != nil {
		logCtx := s.logg.WithRecipient(ctx, email)
		logCtx = s.logg.WithField(logCtx, "cancelled_jobs", cancelled)
		s.logg.Info(logCtx, "recipient unsubscribed")
	}
	return cancelled, nil
}

func (s *service) IsUnsubscribed(ctx context.Context, email string) (bool, error) {
	exists, err := s.repo.Exists(ctx, Normalize(email))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unsubscribe registry")
	}
	return exists, nil
}
