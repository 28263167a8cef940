package unsubscribes

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marisolvega/funnelmail-backend/pkg/db"
	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the unsubscribe registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, email string, at time.Time) error
	Exists(ctx context.Context, email string) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an unsubscribe registry bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Add inserts the address into the registry. A second insert for the same
// address is a no-op.
func (r *repositoryImpl) Add(ctx context.Context, email string, at time.Time) error {
	record := models.UnsubscribeRecord{Email: email, UnsubscribedAt: at}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if db.IsUniqueViolation(err, "") {
		// Concurrent insert of the same address won the race.
		return nil
	}
	return err
}

func (r *repositoryImpl) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UnsubscribeRecord{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}
