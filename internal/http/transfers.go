package http

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/pkg/errors"

	"github.com/jgesser/mobilecloud-15/internal/database/transfers"
	"github.com/jgesser/mobilecloud-15/internal/tasks"
)

const defaultTransferListLimit = 20

// TransfersController queues uploads and downloads and reports their status.
type TransfersController struct {
	queue  TransferQueue
	store  TransferStore
	videos VideoService
}

func NewTransfersController(queue TransferQueue, store TransferStore, videos VideoService) *TransfersController {
	return &TransfersController{queue: queue, store: store, videos: videos}
}

// EnqueueResponse is returned when a transfer is queued. Poll
// GET /transfers/:transfer_id for its status.
type EnqueueResponse struct {
	TransferID string `json:"transfer_id"`
	TaskID     string `json:"task_id"`
	Message    string `json:"message"`
}

type UploadRequest struct {
	Path        string `json:"path" binding:"required"`
	VideoID     int64  `json:"video_id"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	Duration    int64  `json:"duration"`
}

// Upload handles POST /transfers/upload
func (tc *TransfersController) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "path is required")
		return
	}
	info, err := os.Stat(req.Path)
	if err != nil || info.IsDir() {
		respondBadRequest(c, "path must be a readable file")
		return
	}

	transferID, taskID, err := tc.queue.EnqueueUpload(tasks.UploadVideoTask{
		VideoID:     req.VideoID,
		Path:        req.Path,
		Title:       req.Title,
		ContentType: req.ContentType,
		Duration:    req.Duration,
	})
	if err != nil {
		respondInternalError(c, err, "enqueue upload")
		return
	}
	respondAccepted(c, EnqueueResponse{TransferID: transferID, TaskID: taskID, Message: "upload queued"})
}

// Download handles POST /transfers/download/:id
func (tc *TransfersController) Download(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task := tasks.DownloadVideoTask{VideoID: id}
	if tc.videos != nil {
		if row, err := tc.videos.LoadOne(c.Request.Context(), id); err == nil {
			task.ContentType = row.ContentType
		}
	}

	transferID, taskID, err := tc.queue.EnqueueDownload(task)
	if err != nil {
		respondInternalError(c, err, "enqueue download")
		return
	}
	respondAccepted(c, EnqueueResponse{TransferID: transferID, TaskID: taskID, Message: "download queued"})
}

// GetTransfer handles GET /transfers/:id
func (tc *TransfersController) GetTransfer(c *gin.Context) {
	rec, err := tc.store.Get(c.Param("id"))
	if errors.Is(err, transfers.ErrNotFound) {
		respondNotFound(c, "transfer")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get transfer")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListTransfers handles GET /transfers
func (tc *TransfersController) ListTransfers(c *gin.Context) {
	recs, err := tc.store.ListRecent(parseLimit(c, defaultTransferListLimit))
	if err != nil {
		respondInternalError(c, err, "list transfers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": recs, "count": len(recs)})
}

// GetTaskStatus handles GET /tasks/:id
// Returns the queue status of a transfer task.
func (tc *TransfersController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
