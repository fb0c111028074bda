package transfers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "transfers.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.Transfer{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_Begin(t *testing.T) {
	repo := setupTestDB(t)

	rec, err := repo.Begin("t-1", entities.TransferKindDownload, 7, "Download in progress")
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStateStarted, rec.State)
	assert.Equal(t, int64(7), rec.VideoID)

	stored, err := repo.Get("t-1")
	require.NoError(t, err)
	assert.Equal(t, entities.TransferKindDownload, stored.Kind)
	assert.Equal(t, "Download in progress", stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestRepository_Begin_RejectsKnownID(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Begin("t-1", entities.TransferKindUpload, 1, "Upload in progress")
	require.NoError(t, err)

	existing, err := repo.Begin("t-1", entities.TransferKindUpload, 1, "Upload in progress")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	require.NotNil(t, existing)
	assert.Equal(t, entities.TransferStateStarted, existing.State)
}

func TestRepository_UpdateProgress(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Begin("t-1", entities.TransferKindUpload, 0, "Upload in progress")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProgress("t-1", 12, 4096, "4.1 kB uploaded"))

	rec, err := repo.Get("t-1")
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStateInProgress, rec.State)
	assert.Equal(t, int64(12), rec.VideoID)
	assert.Equal(t, int64(4096), rec.Bytes)
}

func TestRepository_Complete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := setupTestDB(t)
		_, err := repo.Begin("t-1", entities.TransferKindDownload, 3, "Download in progress")
		require.NoError(t, err)

		require.NoError(t, repo.Complete("t-1", 3, 2048, true, "Download complete", ""))

		rec, err := repo.Get("t-1")
		require.NoError(t, err)
		assert.Equal(t, entities.TransferStateSucceeded, rec.State)
		assert.Equal(t, int64(2048), rec.Bytes)
		assert.Equal(t, "Download complete", rec.Status)
		assert.NotNil(t, rec.CompletedAt)
	})

	t.Run("failure records error", func(t *testing.T) {
		repo := setupTestDB(t)
		_, err := repo.Begin("t-1", entities.TransferKindDownload, 3, "Download in progress")
		require.NoError(t, err)

		require.NoError(t, repo.Complete("t-1", 3, 0, false, "Download failed", "connection reset"))

		rec, err := repo.Get("t-1")
		require.NoError(t, err)
		assert.Equal(t, entities.TransferStateFailed, rec.State)
		assert.Equal(t, "connection reset", rec.Error)
	})

	t.Run("terminal record is not completed twice", func(t *testing.T) {
		repo := setupTestDB(t)
		_, err := repo.Begin("t-1", entities.TransferKindDownload, 3, "Download in progress")
		require.NoError(t, err)

		require.NoError(t, repo.Complete("t-1", 3, 0, false, "Download failed", "boom"))
		require.NoError(t, repo.Complete("t-1", 3, 10, true, "Download complete", ""))
		require.NoError(t, repo.UpdateProgress("t-1", 3, 10, "late progress"))

		rec, err := repo.Get("t-1")
		require.NoError(t, err)
		assert.Equal(t, entities.TransferStateFailed, rec.State)
		assert.Equal(t, "Download failed", rec.Status)
	})
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ListRecent(t *testing.T) {
	repo := setupTestDB(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.Begin(id, entities.TransferKindDownload, 1, "Download in progress")
		require.NoError(t, err)
	}

	recs, err := repo.ListRecent(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
