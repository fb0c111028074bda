package videos

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jgesser/mobilecloud-15/internal/database"
	"github.com/jgesser/mobilecloud-15/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "cache.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB), db.DB
}

func sampleVideos() []entities.Video {
	return []entities.Video{
		{ID: 1, Title: "A", Duration: 60, ContentType: "video/mp4", DataURL: "http://catalog/video/1/data", AvgRating: 4.5},
		{ID: 2, Title: "B", Duration: 120, ContentType: "video/mp4", DataURL: "", AvgRating: 3},
		{ID: 3, Title: "C", Duration: 30, ContentType: "video/webm", DataURL: "http://catalog/video/3/data", AvgRating: 0},
	}
}

func allRows(t *testing.T, repo *Repository) []entities.Video {
	t.Helper()
	snap, err := repo.Query(context.Background(), Filter{})
	require.NoError(t, err)
	return slices.Collect(snap.Rows())
}

func TestRepository_ReplaceAll(t *testing.T) {
	ctx := context.Background()

	t.Run("populates empty cache with matching values", func(t *testing.T) {
		repo, _ := setupTestDB(t)

		require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

		assert.Equal(t, sampleVideos(), allRows(t, repo))
	})

	t.Run("removes rows missing from the new set", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

		next := []entities.Video{
			{ID: 2, Title: "B2", Duration: 121, ContentType: "video/mp4", AvgRating: 2.5},
			{ID: 7, Title: "G", Duration: 10, ContentType: "video/ogg", AvgRating: 1},
		}
		require.NoError(t, repo.ReplaceAll(ctx, next))

		assert.Equal(t, next, allRows(t, repo))
	})

	t.Run("empty set clears the cache", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

		require.NoError(t, repo.ReplaceAll(ctx, nil))

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("failure in a later batch rolls back to the old rows", func(t *testing.T) {
		repo, db := setupTestDB(t)
		require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

		var calls int
		err := db.Callback().Create().Before("gorm:create").Register("test:fail_second_batch", func(tx *gorm.DB) {
			calls++
			if calls == 2 {
				_ = tx.AddError(errors.New("disk I/O error"))
			}
		})
		require.NoError(t, err)

		next := make([]entities.Video, 0, 5)
		for i := int64(10); i < 15; i++ {
			next = append(next, entities.Video{ID: i, Title: "new", ContentType: "video/mp4"})
		}

		err = repo.WithBatchSize(2).ReplaceAll(ctx, next)
		require.Error(t, err)
		assert.GreaterOrEqual(t, calls, 2, "the first batch must have been inserted before the failure")

		assert.Equal(t, sampleVideos(), allRows(t, repo))
	})

	t.Run("duplicate ids roll back the whole replace", func(t *testing.T) {
		repo, _ := setupTestDB(t)
		require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

		dup := []entities.Video{
			{ID: 5, Title: "E", ContentType: "video/mp4"},
			{ID: 5, Title: "E again", ContentType: "video/mp4"},
		}
		require.Error(t, repo.ReplaceAll(ctx, dup))

		assert.Equal(t, sampleVideos(), allRows(t, repo))
	})
}

func TestRepository_Query(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupTestDB(t)
	require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

	t.Run("summary projection reads id and title", func(t *testing.T) {
		snap, err := repo.Query(ctx, Filter{Projection: ProjectionSummary})
		require.NoError(t, err)

		summaries := slices.Collect(snap.Summaries())
		assert.Equal(t, []entities.VideoSummary{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}}, summaries)

		for row := range snap.Rows() {
			assert.Empty(t, row.ContentType)
		}
	})

	t.Run("sequences are restartable", func(t *testing.T) {
		snap, err := repo.Query(ctx, Filter{})
		require.NoError(t, err)

		first := slices.Collect(snap.Rows())
		second := slices.Collect(snap.Rows())
		assert.Equal(t, first, second)
		assert.Len(t, first, 3)
	})

	t.Run("snapshot is not updated by later writes", func(t *testing.T) {
		snap, err := repo.Query(ctx, Filter{})
		require.NoError(t, err)

		require.NoError(t, repo.ReplaceAll(ctx, []entities.Video{{ID: 9, Title: "Z", ContentType: "video/mp4"}}))

		assert.Equal(t, []int64{1, 2, 3}, snap.IDs())

		fresh, err := repo.Query(ctx, Filter{})
		require.NoError(t, err)
		assert.Equal(t, []int64{9}, fresh.IDs())

		require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))
	})

	t.Run("filters by ids title and limit", func(t *testing.T) {
		snap, err := repo.Query(ctx, Filter{IDs: []int64{1, 3}})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, snap.IDs())

		snap, err = repo.Query(ctx, Filter{TitleContains: "b"})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, snap.IDs())

		snap, err = repo.Query(ctx, Filter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Len())
	})
}

func TestRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupTestDB(t)
	require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

	video, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, sampleVideos()[1], video)

	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateOne(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupTestDB(t)
	require.NoError(t, repo.ReplaceAll(ctx, sampleVideos()))

	t.Run("patches only the matching row", func(t *testing.T) {
		rating := 3.8
		updated, err := repo.UpdateOne(ctx, 2, Patch{AvgRating: &rating})
		require.NoError(t, err)
		assert.True(t, updated)

		rows := allRows(t, repo)
		assert.Equal(t, 3.8, rows[1].AvgRating)
		assert.Equal(t, "B", rows[1].Title)
		assert.Equal(t, sampleVideos()[0], rows[0])
		assert.Equal(t, sampleVideos()[2], rows[2])
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		title := "ghost"
		updated, err := repo.UpdateOne(ctx, 404, Patch{Title: &title})
		require.NoError(t, err)
		assert.False(t, updated)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("empty patch is a no-op", func(t *testing.T) {
		updated, err := repo.UpdateOne(ctx, 1, Patch{})
		require.NoError(t, err)
		assert.False(t, updated)
	})
}
