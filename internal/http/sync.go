package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SyncStatus is the part of the refresh scheduler the API reports on.
type SyncStatus interface {
	IsRunning() bool
	IsSyncing() bool
	GetNextRunTime() *time.Time
	LastResult() (time.Time, error)
	RunNow(ctx context.Context)
}

type SyncController struct {
	sync SyncStatus
}

func NewSyncController(sync SyncStatus) *SyncController {
	return &SyncController{sync: sync}
}

// SyncStatusResponse is the response for GET /sync/status
type SyncStatusResponse struct {
	IsRunning bool       `json:"is_running"`
	IsSyncing bool       `json:"is_syncing"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// GetStatus handles GET /sync/status
func (sc *SyncController) GetStatus(c *gin.Context) {
	resp := SyncStatusResponse{
		IsRunning: sc.sync.IsRunning(),
		IsSyncing: sc.sync.IsSyncing(),
		NextRun:   sc.sync.GetNextRunTime(),
	}
	if last, err := sc.sync.LastResult(); !last.IsZero() {
		resp.LastRun = &last
		if err != nil {
			resp.LastError = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RunNow handles POST /sync/run. The refresh outlives the request.
func (sc *SyncController) RunNow(c *gin.Context) {
	sc.sync.RunNow(context.WithoutCancel(c.Request.Context()))
	respondAccepted(c, gin.H{"message": "refresh started"})
}
