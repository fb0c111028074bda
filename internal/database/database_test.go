package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := NewDatabase(dbPath, WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestNewDatabase(t *testing.T) {
	t.Run("creates tables and stores schema version", func(t *testing.T) {
		db, _ := setupTestDB(t)

		assert.True(t, db.DB.Migrator().HasTable(&entities.Video{}))
		assert.True(t, db.DB.Migrator().HasTable(&entities.Transfer{}))

		version, err := db.UserVersion()
		require.NoError(t, err)
		assert.Equal(t, SchemaVersion, version)
		assert.NoError(t, db.Ping())
	})

	t.Run("declares cache columns not null", func(t *testing.T) {
		db, _ := setupTestDB(t)

		columns, err := db.DB.Migrator().ColumnTypes(&entities.Video{})
		require.NoError(t, err)

		names := make(map[string]bool)
		for _, col := range columns {
			names[col.Name()] = true
			if col.Name() == "id" {
				continue
			}
			nullable, ok := col.Nullable()
			if ok {
				assert.False(t, nullable, "column %s must be NOT NULL", col.Name())
			}
		}
		for _, name := range []string{"id", "title", "duration", "contentType", "dataUrl", "avgRating"} {
			assert.True(t, names[name], "missing column %s", name)
		}
	})

	t.Run("reopening with the same version keeps rows", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		db, err := NewDatabase(dbPath, WithLogLevel(logger.Silent))
		require.NoError(t, err)
		require.NoError(t, db.DB.Create(&entities.Video{ID: 1, Title: "A", ContentType: "video/mp4"}).Error)
		require.NoError(t, db.Close())

		db, err = NewDatabase(dbPath, WithLogLevel(logger.Silent))
		require.NoError(t, err)
		defer db.Close()

		var count int64
		require.NoError(t, db.DB.Model(&entities.Video{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestEnsureSchema_VersionBumpWipesVideosKeepsTransfers(t *testing.T) {
	db, _ := setupTestDB(t)
	require.NoError(t, db.DB.Create(&entities.Video{ID: 1, Title: "A", ContentType: "video/mp4"}).Error)
	require.NoError(t, db.DB.Create(&entities.Transfer{ID: "t-1", Kind: entities.TransferKindDownload}).Error)

	require.NoError(t, db.ensureSchema(SchemaVersion+1))

	var videos, transfers int64
	require.NoError(t, db.DB.Model(&entities.Video{}).Count(&videos).Error)
	require.NoError(t, db.DB.Model(&entities.Transfer{}).Count(&transfers).Error)
	assert.Zero(t, videos)
	assert.Equal(t, int64(1), transfers, "transfer records guard redelivered jobs")

	version, err := db.UserVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion+1, version)
}
