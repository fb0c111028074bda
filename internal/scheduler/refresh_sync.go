package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/jgesser/mobilecloud-15/internal/coordinator"
	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule checks a five-field cron expression or descriptor.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Refresher replaces the cache with the catalog's current list.
type Refresher interface {
	Refresh(ctx context.Context) (*videos.Snapshot, error)
}

type RefreshConfig struct {
	// Enabled turns on the periodic refresh.
	Enabled  bool
	Schedule string
	// OnTransfer refreshes whenever a transfer finishes.
	OnTransfer bool
}

// RefreshSyncScheduler keeps the cache warm: on a cron schedule, and after
// every finished transfer.
type RefreshSyncScheduler struct {
	refresher Refresher
	events    *transfer.Broadcaster
	config    RefreshConfig

	cron        *cron.Cron
	entryID     cron.EntryID
	mu          sync.RWMutex
	isRunning   bool
	cancelFunc  context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup

	// inFlight counts refreshes from every trigger that have not returned.
	inFlight atomic.Int32

	lastRun time.Time
	lastErr error
}

func NewRefreshSyncScheduler(refresher Refresher, events *transfer.Broadcaster, cfg RefreshConfig) *RefreshSyncScheduler {
	return &RefreshSyncScheduler{
		refresher: refresher,
		events:    events,
		config:    cfg,
		cron:      cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the periodic refresh and subscribes to transfer
// completions, as configured. It returns immediately.
func (s *RefreshSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled && !(s.config.OnTransfer && s.events != nil) {
		log.Info("Refresh scheduler: disabled")
		return nil
	}

	var runCtx context.Context
	runCtx, s.cancelFunc = context.WithCancel(ctx)

	if s.config.Enabled {
		if err := ValidateCronSchedule(s.config.Schedule); err != nil {
			s.cancelFunc()
			return errors.Wrapf(err, "invalid cron schedule '%s'", s.config.Schedule)
		}
		entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
			s.runScheduled(runCtx)
		})
		if err != nil {
			s.cancelFunc()
			return errors.Wrap(err, "failed to schedule refresh job")
		}
		s.entryID = entryID
		s.cron.Start()

		log.WithFields(log.Fields{
			"schedule": s.config.Schedule,
			"next":     s.cron.Entry(entryID).Next,
		}).Info("Refresh scheduler: started")
	}

	if s.config.OnTransfer && s.events != nil {
		finished, unsubscribe := s.events.Subscribe()
		s.unsubscribe = unsubscribe
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for range finished {
				s.refresh(runCtx, "transfer finished")
			}
		}()
		log.Info("Refresh scheduler: refreshing after each finished transfer")
	}

	s.isRunning = true

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the schedule and the transfer listener, waiting for a refresh
// in progress to return.
func (s *RefreshSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	unsubscribe := s.unsubscribe
	s.cancelFunc = nil
	s.unsubscribe = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()
	if unsubscribe != nil {
		unsubscribe()
	}
	s.wg.Wait()

	log.Info("Refresh scheduler: stopped")
}

// RunNow triggers an immediate refresh.
func (s *RefreshSyncScheduler) RunNow(ctx context.Context) {
	go s.refresh(ctx, "manual")
}

func (s *RefreshSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *RefreshSyncScheduler) IsSyncing() bool {
	return s.inFlight.Load() > 0
}

// GetNextRunTime returns when the next scheduled refresh will occur.
func (s *RefreshSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || s.entryID == 0 {
		return nil
	}
	t := s.cron.Entry(s.entryID).Next
	return &t
}

// LastResult returns when the last refresh completed and its error.
func (s *RefreshSyncScheduler) LastResult() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}

// runScheduled skips a tick while a refresh is still running.
func (s *RefreshSyncScheduler) runScheduled(ctx context.Context) {
	if s.IsSyncing() {
		log.Debug("Scheduled refresh: skipped (already refreshing)")
		return
	}
	s.refresh(ctx, "schedule")
}

// refresh always issues a new refresh; one still in flight is superseded.
func (s *RefreshSyncScheduler) refresh(ctx context.Context, trigger string) {
	s.inFlight.Add(1)
	snap, err := s.refresher.Refresh(ctx)
	s.inFlight.Add(-1)

	s.mu.Lock()
	if !errors.Is(err, coordinator.ErrSuperseded) {
		s.lastRun = time.Now()
		s.lastErr = err
	}
	s.mu.Unlock()

	entry := log.WithField("trigger", trigger)
	switch {
	case errors.Is(err, coordinator.ErrSuperseded):
		entry.Debug("Refresh superseded by a newer one")
	case err != nil:
		entry.WithError(err).Warn("Refresh failed, keeping cached videos")
	default:
		entry.WithField("videos", snap.Len()).Info("Refresh completed")
	}
}
