// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - coordinator.Cache: the local catalog mirror (internal/database/videos)
//   - transfer.Recorder: persisted transfer status (internal/database/transfers)
//   - http.TransferStore: read side of the transfer records
//
// ## Remote Catalog Interfaces
//
//   - catalog.Client: the remote video catalog (internal/catalog/http_client.go)
//   - catalog.Store: storage behind the development catalog server
//
// ## Sync and Transfer Interfaces
//
//   - http.VideoService, scheduler.Refresher: implemented by coordinator.Coordinator
//   - coordinator.View: receives asynchronous results; attach with Coordinator.Attach
//   - tasks.Uploader, tasks.Downloader: implemented by transfer.Worker
//   - transfer.Notifier: per-transfer status updates
//
// # Adding a New Catalog Backend
//
//  1. Implement catalog.Client:
//
//     type GRPCClient struct { conn *grpc.ClientConn }
//
//     func (c *GRPCClient) ListVideos(ctx context.Context) ([]catalog.Video, error)
//     ...
//
//     var _ catalog.Client = (*GRPCClient)(nil)
//
//  2. Pass it to coordinator.New and transfer.NewWorker in entrypoint.go
//
// # Adding a New Transfer Kind
//
//  1. Add a task type in internal/tasks with a Config() and a processor
//  2. Register its queue in entrypoint.go
//  3. Add an Enqueue method on tasks.Client and expose it through http.TransferQueue
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
