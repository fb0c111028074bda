// Package transfers provides database operations for transfer status records.
//
// A record is created when a job starts and completed exactly once. The
// record's ID doubles as the job's idempotency key: Begin refuses to start a
// job whose record already exists, which is how an interrupted job is kept
// from running a second time after the task queue re-delivers it.
//
// # Usage
//
//	repo := transfers.NewRepository(db)
//	rec, err := repo.Begin(id, entities.TransferKindDownload, videoID, "Download in progress")
package transfers

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

var (
	// ErrAlreadyStarted is returned by Begin when the transfer ID was seen before.
	ErrAlreadyStarted = errors.New("transfer already started")

	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("transfer not found")
)

// Repository handles all transfer record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new transfers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Begin creates a record in the started state. It returns the existing record
// together with ErrAlreadyStarted if the ID is already known.
func (r *Repository) Begin(id string, kind entities.TransferKind, videoID int64, status string) (*entities.Transfer, error) {
	var existing entities.Transfer
	err := r.db.Where("id = ?", id).First(&existing).Error
	if err == nil {
		return &existing, ErrAlreadyStarted
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	rec := &entities.Transfer{
		ID:        id,
		Kind:      kind,
		VideoID:   videoID,
		State:     entities.TransferStateStarted,
		Status:    status,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateProgress moves a running transfer to in_progress with the bytes
// moved so far. Terminal records are left untouched.
func (r *Repository) UpdateProgress(id string, videoID int64, bytes int64, status string) error {
	return r.db.Model(&entities.Transfer{}).
		Where("id = ? AND state IN ?", id, []entities.TransferState{entities.TransferStateStarted, entities.TransferStateInProgress}).
		Updates(map[string]any{
			"state":      entities.TransferStateInProgress,
			"video_id":   videoID,
			"bytes":      bytes,
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// Complete marks a transfer succeeded or failed and stores its final video
// and byte count. A record that is already terminal is not changed again.
func (r *Repository) Complete(id string, videoID, bytes int64, succeeded bool, status, errorMsg string) error {
	now := time.Now()
	state := entities.TransferStateSucceeded
	if !succeeded {
		state = entities.TransferStateFailed
	}

	updates := map[string]any{
		"state":        state,
		"video_id":     videoID,
		"bytes":        bytes,
		"status":       status,
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.db.Model(&entities.Transfer{}).
		Where("id = ? AND state NOT IN ?", id, []entities.TransferState{entities.TransferStateSucceeded, entities.TransferStateFailed}).
		Updates(updates).Error
}

// Get returns the record for id.
func (r *Repository) Get(id string) (*entities.Transfer, error) {
	var rec entities.Transfer
	err := r.db.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecent returns the most recently started transfers, newest first.
func (r *Repository) ListRecent(limit int) ([]entities.Transfer, error) {
	var recs []entities.Transfer
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&recs).Error
	return recs, err
}
