package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
)

// Repository exposes persistence helpers for the email job queue.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, job *models.EmailJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EmailJob, error)
	// ClaimDue atomically transitions due pending jobs to sending and returns
	// them ordered by scheduled_for ascending, capped at limit. Two concurrent
	// callers never claim the same job.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.EmailJob, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkFailed increments the attempt counter and records the error. When
	// terminal is true the job moves to failed; otherwise it returns to
	// pending and stays due (scheduled_for is never advanced).
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, terminal bool) error
	MarkSkipped(ctx context.Context, id uuid.UUID) error
	CancelPendingTx(tx *gorm.DB, email string) (int64, error)
	// ReleaseStale returns sending jobs stuck past the deadline to pending
	// without counting an attempt, so crashed workers do not strand claims.
	ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error)
	PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[enums.JobStatus]int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a queue repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Insert(ctx context.Context, job *models.EmailJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailJob, error) {
	var job models.EmailJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.EmailJob, error) {
	var candidates []models.EmailJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ? AND attempts < max_attempts", enums.JobStatusPending, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]models.EmailJob, 0, len(candidates))
	for _, candidate := range candidates {
		result := r.db.WithContext(ctx).
			Model(&models.EmailJob{}).
			Where("id = ? AND status = ?", candidate.ID, enums.JobStatusPending).
			Updates(map[string]any{
				"status":     enums.JobStatusSending,
				"updated_at": now,
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 0 {
			// lost the race to another processor invocation
			continue
		}
		candidate.Status = enums.JobStatusSending
		claimed = append(claimed, candidate)
	}
	return claimed, nil
}

func (r *repositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.JobStatusSent,
			"sent_at":    at,
			"updated_at": at,
		}).Error
}

func (r *repositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, terminal bool) error {
	status := enums.JobStatusPending
	if terminal {
		status = enums.JobStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&models.EmailJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"attempts":      gorm.Expr("attempts + 1"),
			"error_message": errMsg,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *repositoryImpl) MarkSkipped(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.JobStatusSkipped,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repositoryImpl) CancelPendingTx(tx *gorm.DB, email string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.
		Model(&models.EmailJob{}).
		Where("recipient_email = ? AND status = ?", email, enums.JobStatusPending).
		Updates(map[string]any{
			"status":     enums.JobStatusCancelled,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EmailJob{}).
		Where("status = ? AND updated_at < ?", enums.JobStatusSending, olderThan).
		Updates(map[string]any{
			"status":     enums.JobStatusPending,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []enums.JobStatus{
			enums.JobStatusSent,
			enums.JobStatusSkipped,
			enums.JobStatusCancelled,
		}, cutoff).
		Delete(&models.EmailJob{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CountByStatus(ctx context.Context) (map[enums.JobStatus]int64, error) {
	type row struct {
		Status enums.JobStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.EmailJob{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
