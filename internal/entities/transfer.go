package entities

import (
	"time"
)

type TransferKind string

const (
	TransferKindUpload   TransferKind = "upload"
	TransferKindDownload TransferKind = "download"
)

type TransferState string

const (
	TransferStateStarted    TransferState = "started"
	TransferStateInProgress TransferState = "in_progress"
	TransferStateSucceeded  TransferState = "succeeded"
	TransferStateFailed     TransferState = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s TransferState) IsTerminal() bool {
	return s == TransferStateSucceeded || s == TransferStateFailed
}

// Transfer is the persisted status of a single upload or download job.
// The ID is the job's idempotency key: a job is executed at most once per ID.
type Transfer struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	Kind        TransferKind  `gorm:"size:20;index" json:"kind"`
	VideoID     int64         `gorm:"index" json:"video_id"`
	State       TransferState `gorm:"size:20" json:"state"`
	Status      string        `gorm:"size:512" json:"status"`
	Bytes       int64         `json:"bytes"`
	Error       string        `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

func (Transfer) TableName() string {
	return "transfers"
}
