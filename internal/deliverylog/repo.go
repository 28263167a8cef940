package deliverylog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
)

// Repository exposes the append-only delivery log and event recorder.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	RecordDelivery(ctx context.Context, entry *models.DeliveryLogEntry) error
	RecordEvent(ctx context.Context, event *models.EmailEvent) error
	ListDeliveries(ctx context.Context, params ListDeliveriesParams) ([]models.DeliveryLogEntry, error)
	ListEvents(ctx context.Context, emailID string) ([]models.EmailEvent, error)
	PruneDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListDeliveriesParams filter the delivery log for admin inspection.
type ListDeliveriesParams struct {
	RecipientEmail string
	EmailType      string
	Status         enums.DeliveryStatus
	Limit          int
}

const defaultListLimit = 100

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a delivery log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) RecordDelivery(ctx context.Context, entry *models.DeliveryLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) RecordEvent(ctx context.Context, event *models.EmailEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) ListDeliveries(ctx context.Context, params ListDeliveriesParams) ([]models.DeliveryLogEntry, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := r.db.WithContext(ctx).Model(&models.DeliveryLogEntry{})
	if params.RecipientEmail != "" {
		query = query.Where("recipient_email = ?", params.RecipientEmail)
	}
	if params.EmailType != "" {
		query = query.Where("email_type = ?", params.EmailType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var entries []models.DeliveryLogEntry
	err := query.Order("sent_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *repositoryImpl) ListEvents(ctx context.Context, emailID string) ([]models.EmailEvent, error) {
	var events []models.EmailEvent
	err := r.db.WithContext(ctx).
		Where("email_id = ?", emailID).
		Order("timestamp ASC").
		Find(&events).Error
	return events, err
}

func (r *repositoryImpl) PruneDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sent_at < ?", cutoff).
		Delete(&models.DeliveryLogEntry{})
	return result.RowsAffected, result.Error
}
