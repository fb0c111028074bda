package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jgesser/mobilecloud-15/internal/database"
	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// CacheHealth describes the local SQLite mirror.
type CacheHealth struct {
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	Schema          int    `json:"schema,omitempty"`
	Videos          int64  `json:"videos"`
	ActiveTransfers int64  `json:"active_transfers"`
}

// RefreshHealth describes the most recent background refresh.
type RefreshHealth struct {
	Syncing     bool       `json:"syncing"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// HealthResponse is "healthy", "degraded" when the cache is serving but the
// last refresh failed, or "unhealthy" when the cache cannot be read.
type HealthResponse struct {
	Status       string         `json:"status"`
	Time         string         `json:"time"`
	Version      string         `json:"version,omitempty"`
	Cache        CacheHealth    `json:"cache"`
	Refresh      *RefreshHealth `json:"refresh,omitempty"`
	EventClients int            `json:"event_clients"`
}

type HealthController struct {
	db      *database.Database
	sync    SyncStatus
	hub     *EventsHub
	version string
}

func NewHealthController(cfg RouterConfig) *HealthController {
	return &HealthController{
		db:      cfg.Database,
		sync:    cfg.Sync,
		hub:     cfg.Hub,
		version: cfg.Version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	health := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Cache:   h.cacheHealth(),
	}

	if h.sync != nil {
		refresh := &RefreshHealth{Syncing: h.sync.IsSyncing()}
		if at, err := h.sync.LastResult(); !at.IsZero() {
			refresh.LastRefresh = &at
			if err != nil {
				refresh.LastError = err.Error()
				health.Status = "degraded"
			}
		}
		health.Refresh = refresh
	}
	if h.hub != nil {
		health.EventClients = h.hub.Count()
	}

	statusCode := http.StatusOK
	if health.Cache.Status == "error" {
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}
	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) cacheHealth() CacheHealth {
	if h.db == nil {
		return CacheHealth{Status: "not configured"}
	}
	if err := h.db.Ping(); err != nil {
		return CacheHealth{Status: "error", Error: err.Error()}
	}

	cache := CacheHealth{Status: "ok"}
	if v, err := h.db.UserVersion(); err == nil {
		cache.Schema = v
	}
	if err := h.db.DB.Model(&entities.Video{}).Count(&cache.Videos).Error; err != nil {
		return CacheHealth{Status: "error", Error: err.Error()}
	}
	active := []entities.TransferState{entities.TransferStateStarted, entities.TransferStateInProgress}
	if err := h.db.DB.Model(&entities.Transfer{}).Where("state IN ?", active).Count(&cache.ActiveTransfers).Error; err != nil {
		return CacheHealth{Status: "error", Error: err.Error()}
	}
	return cache
}
