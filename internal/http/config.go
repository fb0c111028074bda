package http

import (
	"github.com/jgesser/mobilecloud-15/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Videos   VideoService
	Database *database.Database

	// Transfer status records
	Transfers TransferStore

	// Task queue (optional). Without it the transfer endpoints are not
	// registered.
	Queue TransferQueue

	// Scheduled refresh (optional)
	Sync SyncStatus

	// Websocket relay for transfer completion events (optional). The caller
	// runs the hub against its broadcaster.
	Hub *EventsHub

	// Application info
	Version string
}
