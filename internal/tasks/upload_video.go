package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

// transferTimeout bounds a single transfer task. Payload size is unknown,
// so the bound is generous.
const transferTimeout = 12 * time.Hour

// Uploader runs one upload.
type Uploader interface {
	RunUpload(ctx context.Context, req transfer.UploadRequest) (transfer.Result, error)
}

// UploadVideoTask sends a local file to the catalog.
type UploadVideoTask struct {
	TransferID  string `json:"transfer_id"`
	VideoID     int64  `json:"video_id,omitempty"`
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Duration    int64  `json:"duration,omitempty"`
}

// Config returns the queue configuration for upload tasks. A failed upload
// is never retried.
func (t UploadVideoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "upload_video",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     transferTimeout,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t UploadVideoTask) request() transfer.UploadRequest {
	return transfer.UploadRequest{
		TransferID:  t.TransferID,
		VideoID:     t.VideoID,
		Path:        t.Path,
		Title:       t.Title,
		ContentType: t.ContentType,
		Duration:    t.Duration,
	}
}

// UploadVideoProcessor creates a processor function for UploadVideoTask.
func UploadVideoProcessor(uploader Uploader) backlite.QueueProcessor[UploadVideoTask] {
	return func(ctx context.Context, task UploadVideoTask) error {
		if uploader == nil {
			return fmt.Errorf("uploader not configured")
		}
		if _, err := uploader.RunUpload(ctx, task.request()); err != nil {
			return fmt.Errorf("upload %s: %w", task.Path, err)
		}
		return nil
	}
}

// NewUploadVideoQueue creates a backlite queue for upload tasks.
func NewUploadVideoQueue(uploader Uploader) backlite.Queue {
	return backlite.NewQueue(UploadVideoProcessor(uploader))
}

// EnqueueUpload queues an upload and returns its transfer ID and task ID.
// The transfer ID is assigned here so that a redelivered task carries the
// same idempotency key.
func (c *Client) EnqueueUpload(task UploadVideoTask) (string, string, error) {
	if task.TransferID == "" {
		task.TransferID = uuid.NewString()
	}
	ids, err := c.Add(task).Save()
	if err != nil {
		return "", "", fmt.Errorf("enqueue upload: %w", err)
	}
	return task.TransferID, ids[0], nil
}
