package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jgesser/mobilecloud-15/internal/catalog"
	"github.com/jgesser/mobilecloud-15/internal/config"
	"github.com/jgesser/mobilecloud-15/internal/coordinator"
	"github.com/jgesser/mobilecloud-15/internal/database"
	"github.com/jgesser/mobilecloud-15/internal/database/transfers"
	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	http_controllers "github.com/jgesser/mobilecloud-15/internal/http"
	"github.com/jgesser/mobilecloud-15/internal/scheduler"
	"github.com/jgesser/mobilecloud-15/internal/tasks"
	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

// App holds the sync core shared by the server and the one-shot commands.
type App struct {
	Config      *config.Config
	Database    *database.Database
	Videos      *videos.Repository
	Transfers   *transfers.Repository
	Remote      *catalog.HTTPClient
	Coordinator *coordinator.Coordinator
	Events      *transfer.Broadcaster

	// Uploads and downloads have separate workers so that each kind is
	// serialized on its own.
	Uploader   *transfer.Worker
	Downloader *transfer.Worker
}

// ConfigureLogging sets the logrus level, falling back to info.
func ConfigureLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// NewApp opens the cache and wires the coordinator and transfer workers.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Cache.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cache")
	}

	remote := catalog.NewHTTPClient(cfg.Catalog.URL, cfg.Catalog.Timeout)
	videoRepo := videos.NewRepository(db.DB)
	transferRepo := transfers.NewRepository(db.DB)
	events := transfer.NewBroadcaster()

	workerOpts := []transfer.Option{
		transfer.WithRecorder(transferRepo),
		transfer.WithNotifier(transfer.LogNotifier{}),
		transfer.WithEvents(events),
		transfer.WithDownloadDir(cfg.Downloads.Dir),
	}

	return &App{
		Config:      cfg,
		Database:    db,
		Videos:      videoRepo,
		Transfers:   transferRepo,
		Remote:      remote,
		Coordinator: coordinator.New(remote, videoRepo),
		Events:      events,
		Uploader:    transfer.NewWorker(remote, workerOpts...),
		Downloader:  transfer.NewWorker(remote, workerOpts...),
	}, nil
}

// Close stops pending coordinator work and closes the cache.
func (a *App) Close() error {
	a.Coordinator.Close()
	return a.Database.Close()
}

// Run starts the local API with the task queue and refresh scheduler, and
// blocks until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	log.WithField("version", version).Info("Starting video sync client")

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.WithError(err).Error("Error closing cache")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var taskClient *tasks.Client
	taskCtx, taskCancel := context.WithCancel(context.Background())
	defer taskCancel()
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Cache.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			return errors.Wrap(err, "failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.WithError(err).Error("Error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewUploadVideoQueue(app.Uploader),
			tasks.NewDownloadVideoQueue(app.Downloader),
		)
		// The queue gets its own context so Stop can drain running transfers
		// after the signal arrives.
		taskClient.Start(taskCtx)
	} else {
		log.Warn("Task queue disabled, transfer endpoints are not available")
	}

	sched := scheduler.NewRefreshSyncScheduler(app.Coordinator, app.Events, scheduler.RefreshConfig{
		Enabled:    cfg.RefreshSync.Enabled,
		Schedule:   cfg.RefreshSync.Schedule,
		OnTransfer: cfg.RefreshSync.OnTransfer,
	})
	if err := sched.Start(ctx); err != nil {
		log.WithError(err).Error("Refresh scheduler not started")
	}

	hub := http_controllers.NewEventsHub()

	routerCfg := http_controllers.RouterConfig{
		Videos:    app.Coordinator,
		Database:  app.Database,
		Transfers: app.Transfers,
		Sync:      sched,
		Hub:       hub,
		Version:   version,
	}
	if taskClient != nil {
		routerCfg.Queue = taskClient
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: http_controllers.NewRouter(routerCfg),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx, app.Events)
		return nil
	})
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
		log.WithField("timeout", timeout).Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		sched.Stop()
		if taskClient != nil {
			taskClient.Stop(shutdownCtx)
			taskCancel()
		}
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("Server exiting")
	return err
}

// RunStub serves an in-memory catalog until SIGINT or SIGTERM.
func RunStub(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Stub.Host, cfg.Stub.Port),
		Handler: catalog.NewServer(catalog.NewMemoryStore()).Router(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("Starting catalog stub")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Global.ShutdownTimeoutInSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Exit logs err and exits non-zero. It is a no-op for nil.
func Exit(err error) {
	if err == nil {
		return
	}
	log.WithError(err).Error("Command failed")
	os.Exit(1)
}
