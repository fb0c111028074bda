package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

// Downloader runs one download.
type Downloader interface {
	RunDownload(ctx context.Context, req transfer.DownloadRequest) (transfer.Result, error)
}

// DownloadVideoTask fetches a video's payload into the download directory.
type DownloadVideoTask struct {
	TransferID  string `json:"transfer_id"`
	VideoID     int64  `json:"video_id"`
	ContentType string `json:"content_type,omitempty"`
}

// Config returns the queue configuration for download tasks.
func (t DownloadVideoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "download_video",
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

// DownloadVideoProcessor creates a processor function for DownloadVideoTask.
func DownloadVideoProcessor(downloader Downloader) backlite.QueueProcessor[DownloadVideoTask] {
	return func(ctx context.Context, task DownloadVideoTask) error {
		if downloader == nil {
			return fmt.Errorf("downloader not configured")
		}
		_, err := downloader.RunDownload(ctx, transfer.DownloadRequest{
			TransferID:  task.TransferID,
			VideoID:     task.VideoID,
			ContentType: task.ContentType,
		})
		if err != nil {
			return fmt.Errorf("download video %d: %w", task.VideoID, err)
		}
		return nil
	}
}

// NewDownloadVideoQueue creates a backlite queue for download tasks.
func NewDownloadVideoQueue(downloader Downloader) backlite.Queue {
	return backlite.NewQueue(DownloadVideoProcessor(downloader))
}

// EnqueueDownload queues a download and returns its transfer ID and task ID.
func (c *Client) EnqueueDownload(task DownloadVideoTask) (string, string, error) {
	if task.TransferID == "" {
		task.TransferID = uuid.NewString()
	}
	ids, err := c.Add(task).Save()
	if err != nil {
		return "", "", fmt.Errorf("enqueue download: %w", err)
	}
	return task.TransferID, ids[0], nil
}
