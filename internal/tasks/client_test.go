package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgesser/mobilecloud-15/internal/transfer"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "cache.db")

	client, err := NewClient(dbPath, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "cache-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "video-cache-tasks.db"), TasksDBPath(filepath.Join("data", "video-cache.db")))
	assert.Equal(t, "cache-tasks", TasksDBPath("cache"))
}

func TestClientStartStop(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "cache.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestStopWithoutStart(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "cache.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.Stop(context.Background()))
}

type fakeDownloader struct {
	requests chan transfer.DownloadRequest
	err      error
}

func (f *fakeDownloader) RunDownload(ctx context.Context, req transfer.DownloadRequest) (transfer.Result, error) {
	f.requests <- req
	return transfer.Result{TransferID: req.TransferID, VideoID: req.VideoID}, f.err
}

type fakeUploader struct {
	requests []transfer.UploadRequest
	err      error
}

func (f *fakeUploader) RunUpload(ctx context.Context, req transfer.UploadRequest) (transfer.Result, error) {
	f.requests = append(f.requests, req)
	return transfer.Result{TransferID: req.TransferID}, f.err
}

func TestEnqueueDownload_RunsWorker(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "cache.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	downloader := &fakeDownloader{requests: make(chan transfer.DownloadRequest, 1)}
	client.Register(NewDownloadVideoQueue(downloader))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	transferID, taskID, err := client.EnqueueDownload(DownloadVideoTask{VideoID: 12, ContentType: "video/mp4"})
	require.NoError(t, err)
	assert.NotEmpty(t, transferID)
	assert.NotEmpty(t, taskID)

	select {
	case req := <-downloader.requests:
		assert.Equal(t, transferID, req.TransferID)
		assert.Equal(t, int64(12), req.VideoID)
		assert.Equal(t, "video/mp4", req.ContentType)
	case <-time.After(5 * time.Second):
		t.Fatal("download task was not executed within timeout")
	}
}

func TestEnqueueUpload_KeepsTransferID(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "cache.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()
	client.Register(NewUploadVideoQueue(&fakeUploader{}))

	transferID, taskID, err := client.EnqueueUpload(UploadVideoTask{TransferID: "fixed-id", Path: "/tmp/a.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", transferID)

	status, err := client.Status(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, backlite.TaskStatusPending, status)
}

func TestUploadVideoProcessor(t *testing.T) {
	t.Run("passes the task through", func(t *testing.T) {
		uploader := &fakeUploader{}
		process := UploadVideoProcessor(uploader)

		err := process(context.Background(), UploadVideoTask{TransferID: "t-1", Path: "/videos/a.mp4", Title: "A"})
		require.NoError(t, err)
		require.Len(t, uploader.requests, 1)
		assert.Equal(t, transfer.UploadRequest{TransferID: "t-1", Path: "/videos/a.mp4", Title: "A"}, uploader.requests[0])
	})

	t.Run("reports failure to the queue", func(t *testing.T) {
		uploader := &fakeUploader{err: transfer.ErrTransferFailure}
		err := UploadVideoProcessor(uploader)(context.Background(), UploadVideoTask{Path: "/videos/a.mp4"})
		assert.True(t, errors.Is(err, transfer.ErrTransferFailure))
	})

	t.Run("nil uploader", func(t *testing.T) {
		err := UploadVideoProcessor(nil)(context.Background(), UploadVideoTask{})
		assert.Error(t, err)
	})
}

func TestTransferTaskConfig(t *testing.T) {
	up := UploadVideoTask{}.Config()
	assert.Equal(t, "upload_video", up.Name)
	assert.Equal(t, 1, up.MaxAttempts)
	assert.Equal(t, transferTimeout, up.Timeout)
	assert.NotNil(t, up.Retention)

	down := DownloadVideoTask{}.Config()
	assert.Equal(t, "download_video", down.Name)
	assert.Equal(t, 1, down.MaxAttempts)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 24*time.Hour, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
