package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgesser/mobilecloud-15/internal/coordinator"
	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

type mockRefresher struct {
	calls atomic.Int32
	err   error
}

func (m *mockRefresher) Refresh(ctx context.Context) (*videos.Snapshot, error) {
	m.calls.Add(1)
	return nil, m.err
}

// gatedRefresher blocks each Refresh until release is closed.
type gatedRefresher struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRefresher) Refresh(ctx context.Context) (*videos.Snapshot, error) {
	g.entered <- struct{}{}
	<-g.release
	return nil, coordinator.ErrSuperseded
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.NoError(t, ValidateCronSchedule("@hourly"))
	assert.Error(t, ValidateCronSchedule("every now and then"))
	assert.Error(t, ValidateCronSchedule("* * * * * *"), "seconds field is not accepted")
}

func TestRefreshSyncScheduler_Disabled(t *testing.T) {
	s := NewRefreshSyncScheduler(&mockRefresher{}, nil, RefreshConfig{})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestRefreshSyncScheduler_InvalidSchedule(t *testing.T) {
	s := NewRefreshSyncScheduler(&mockRefresher{}, nil, RefreshConfig{Enabled: true, Schedule: "nope"})

	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestRefreshSyncScheduler_Schedule(t *testing.T) {
	refresher := &mockRefresher{}
	s := NewRefreshSyncScheduler(refresher, nil, RefreshConfig{Enabled: true, Schedule: "@every 1s"})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	require.NotNil(t, s.GetNextRunTime())

	assert.Eventually(t, func() bool { return refresher.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestRefreshSyncScheduler_RefreshesAfterTransfer(t *testing.T) {
	refresher := &mockRefresher{}
	events := transfer.NewBroadcaster()
	s := NewRefreshSyncScheduler(refresher, events, RefreshConfig{OnTransfer: true})

	require.NoError(t, s.Start(context.Background()))
	assert.Nil(t, s.GetNextRunTime(), "no periodic schedule configured")

	events.Publish()
	assert.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Equal(t, 0, events.Subscribers())

	events.Publish()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestRefreshSyncScheduler_RecordsLastResult(t *testing.T) {
	refresher := &mockRefresher{err: coordinator.ErrUnavailable}
	s := NewRefreshSyncScheduler(refresher, nil, RefreshConfig{})

	s.refresh(context.Background(), "test")

	at, err := s.LastResult()
	assert.False(t, at.IsZero())
	assert.True(t, errors.Is(err, coordinator.ErrUnavailable))
}

func TestRefreshSyncScheduler_SupersededIsNotRecorded(t *testing.T) {
	refresher := &mockRefresher{err: coordinator.ErrSuperseded}
	s := NewRefreshSyncScheduler(refresher, nil, RefreshConfig{})

	s.refresh(context.Background(), "test")

	at, err := s.LastResult()
	assert.True(t, at.IsZero())
	assert.NoError(t, err)
}

func TestRefreshSyncScheduler_IsSyncingUntilLastRefreshReturns(t *testing.T) {
	gate := &gatedRefresher{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewRefreshSyncScheduler(gate, nil, RefreshConfig{})
	assert.False(t, s.IsSyncing())

	first := make(chan struct{})
	go func() {
		s.refresh(context.Background(), "schedule")
		close(first)
	}()
	<-gate.entered

	s.RunNow(context.Background())
	<-gate.entered

	// Let exactly one of the two return.
	gate.release <- struct{}{}
	require.Eventually(t, func() bool { return s.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsSyncing())

	close(gate.release)
	<-first
	assert.Eventually(t, func() bool { return !s.IsSyncing() }, time.Second, 5*time.Millisecond)
}

func TestRefreshSyncScheduler_StopWhenContextCancelled(t *testing.T) {
	events := transfer.NewBroadcaster()
	s := NewRefreshSyncScheduler(&mockRefresher{}, events, RefreshConfig{OnTransfer: true})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}
