// Package videos provides the local catalog mirror: a disposable SQLite
// table that is replaced wholesale on every refresh and patched one row at a
// time on confirmed rating updates.
//
// # Consistency
//
// ReplaceAll runs as a single transaction, so readers never observe a
// half-populated table after it commits. Reads are otherwise read-committed
// with no isolation: a Query racing a ReplaceAll sees either the old or the
// new table, and a Snapshot taken before a replace keeps the old rows until
// the caller queries again.
//
// # Usage
//
//	repo := videos.NewRepository(db.DB)
//	err := repo.ReplaceAll(ctx, rows)
//	snap, err := repo.Query(ctx, videos.Filter{Projection: videos.ProjectionSummary})
//	for s := range snap.Summaries() { ... }
package videos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

const defaultBatchSize = 100

// ErrNotFound is returned by GetByID when no row has the requested id.
var ErrNotFound = errors.New("video not found in cache")

// Projection selects which columns a Query reads.
type Projection int

const (
	// ProjectionFull reads every column.
	ProjectionFull Projection = iota
	// ProjectionSummary reads only id and title.
	ProjectionSummary
)

// Filter narrows a Query. The zero value returns every row.
type Filter struct {
	IDs           []int64
	TitleContains string
	Projection    Projection
	Limit         int
}

// Patch lists the columns UpdateOne writes. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Duration    *int64
	ContentType *string
	DataURL     *string
	AvgRating   *float64
}

func (p Patch) columns() map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Duration != nil {
		cols["duration"] = *p.Duration
	}
	if p.ContentType != nil {
		cols["contentType"] = *p.ContentType
	}
	if p.DataURL != nil {
		cols["dataUrl"] = *p.DataURL
	}
	if p.AvgRating != nil {
		cols["avgRating"] = *p.AvgRating
	}
	return cols
}

// Repository handles all cached video database operations.
type Repository struct {
	db        *gorm.DB
	batchSize int
}

// NewRepository creates a new videos repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, batchSize: defaultBatchSize}
}

// WithBatchSize returns a copy of the repository that inserts rows in
// batches of n during ReplaceAll.
func (r *Repository) WithBatchSize(n int) *Repository {
	if n <= 0 {
		n = defaultBatchSize
	}
	return &Repository{db: r.db, batchSize: n}
}

// ReplaceAll deletes every cached row and inserts rows in one transaction.
// On any failure the transaction is rolled back and the previous rows stay.
func (r *Repository) ReplaceAll(ctx context.Context, rows []entities.Video) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Video{}).Error; err != nil {
			return fmt.Errorf("delete cached videos: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		batch := make([]entities.Video, len(rows))
		copy(batch, rows)
		if err := tx.CreateInBatches(&batch, r.batchSize).Error; err != nil {
			return fmt.Errorf("insert cached videos: %w", err)
		}
		return nil
	})
}

// Query reads the rows matching filter into a point-in-time Snapshot.
func (r *Repository) Query(ctx context.Context, filter Filter) (*Snapshot, error) {
	query := r.db.WithContext(ctx).Model(&entities.Video{}).Order("id ASC")

	if filter.Projection == ProjectionSummary {
		query = query.Select("id", "title")
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.TitleContains != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?)", "%"+filter.TitleContains+"%")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []entities.Video
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query cached videos: %w", err)
	}
	return newSnapshot(rows, filter.Projection), nil
}

// GetByID returns the full cached row for id.
func (r *Repository) GetByID(ctx context.Context, id int64) (entities.Video, error) {
	var video entities.Video
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Video{}, ErrNotFound
	}
	if err != nil {
		return entities.Video{}, fmt.Errorf("get cached video %d: %w", id, err)
	}
	return video, nil
}

// UpdateOne patches the row matching id. A missing id is not an error;
// the returned bool reports whether a row was changed.
func (r *Repository) UpdateOne(ctx context.Context, id int64, patch Patch) (bool, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return false, nil
	}

	result := r.db.WithContext(ctx).Model(&entities.Video{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return false, fmt.Errorf("update cached video %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count returns the number of cached rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Video{}).Count(&count).Error
	return count, err
}
