package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/entities"
	"github.com/jgesser/mobilecloud-15/internal/tasks"
)

// VideoService is the part of the sync coordinator the API uses.
type VideoService interface {
	Refresh(ctx context.Context) (*videos.Snapshot, error)
	Videos(ctx context.Context, filter videos.Filter) (*videos.Snapshot, error)
	LoadOne(ctx context.Context, id int64) (entities.Video, error)
	Rate(ctx context.Context, id int64, rating float64) (entities.Video, error)
}

// TransferStore reads transfer status records.
type TransferStore interface {
	Get(id string) (*entities.Transfer, error)
	ListRecent(limit int) ([]entities.Transfer, error)
}

// TransferQueue enqueues transfers for the background workers.
type TransferQueue interface {
	EnqueueUpload(task tasks.UploadVideoTask) (transferID, taskID string, err error)
	EnqueueDownload(task tasks.DownloadVideoTask) (transferID, taskID string, err error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
