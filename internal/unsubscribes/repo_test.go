package unsubscribes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUnsubscribesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS unsubscribe_records (
  email TEXT PRIMARY KEY,
  unsubscribed_at DATETIME NOT NULL
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec("DELETE FROM unsubscribe_records").Error)
	return db
}

func TestAddIsIdempotent(t *testing.T) {
	db := setupUnsubscribesTestDB(t)
	repo := NewRepository(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Add(context.Background(), "lead@example.com", at))
	require.NoError(t, repo.Add(context.Background(), "lead@example.com", at.Add(time.Hour)))

	var count int64
	require.NoError(t, db.Table("unsubscribe_records").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestExists(t *testing.T) {
	db := setupUnsubscribesTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Add(context.Background(), "lead@example.com", time.Now().UTC()))

	found, err := repo.Exists(context.Background(), "lead@example.com")
	require.NoError(t, err)
	assert.True(t, found)

	missing, err := repo.Exists(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.False(t, missing)
}
