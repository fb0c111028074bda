package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/jgesser/mobilecloud-15/internal/catalog"
	"github.com/jgesser/mobilecloud-15/internal/coordinator"
	"github.com/jgesser/mobilecloud-15/internal/database/transfers"
	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/http"
	"github.com/jgesser/mobilecloud-15/internal/scheduler"
	"github.com/jgesser/mobilecloud-15/internal/tasks"
	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Cache implementations
var _ coordinator.Cache = (*videos.Repository)(nil)

// Transfer record implementations
var _ transfer.Recorder = (*transfers.Repository)(nil)
var _ http.TransferStore = (*transfers.Repository)(nil)

// =============================================================================
// Remote Catalog
// =============================================================================

var _ catalog.Client = (*catalog.HTTPClient)(nil)
var _ catalog.Store = (*catalog.MemoryStore)(nil)

// =============================================================================
// Sync and Transfers
// =============================================================================

var _ http.VideoService = (*coordinator.Coordinator)(nil)
var _ scheduler.Refresher = (*coordinator.Coordinator)(nil)
var _ http.SyncStatus = (*scheduler.RefreshSyncScheduler)(nil)

var _ tasks.Uploader = (*transfer.Worker)(nil)
var _ tasks.Downloader = (*transfer.Worker)(nil)
var _ http.TransferQueue = (*tasks.Client)(nil)

var _ transfer.Notifier = transfer.LogNotifier{}
var _ transfer.Notifier = transfer.Notifiers(nil)
