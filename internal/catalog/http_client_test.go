package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalog(t *testing.T) (*HTTPClient, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	srv := httptest.NewServer(NewServer(store).Router())
	t.Cleanup(srv.Close)

	return NewHTTPClient(srv.URL, 5*time.Second), store
}

func TestHTTPClient_AddAndList(t *testing.T) {
	client, _ := setupCatalog(t)
	ctx := context.Background()

	a, err := client.AddVideo(ctx, Video{Title: "A", Duration: 10, ContentType: "video/mp4"})
	require.NoError(t, err)
	b, err := client.AddVideo(ctx, Video{Title: "B", Duration: 20, ContentType: "video/mp4"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.True(t, strings.HasSuffix(a.DataURL, "/video/1/data"))

	videos, err := client.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "A", videos[0].Title)
	assert.Equal(t, "B", videos[1].Title)
}

func TestHTTPClient_GetVideo(t *testing.T) {
	client, _ := setupCatalog(t)
	ctx := context.Background()

	_, err := client.AddVideo(ctx, Video{Title: "A", ContentType: "video/mp4"})
	require.NoError(t, err)

	video, err := client.GetVideo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", video.Title)

	_, err = client.GetVideo(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_RateVideo(t *testing.T) {
	client, _ := setupCatalog(t)
	ctx := context.Background()

	_, err := client.AddVideo(ctx, Video{Title: "A"})
	require.NoError(t, err)

	video, err := client.RateVideo(ctx, 1, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, video.AvgRating, 1e-9)

	// The service returns the running average, not the submitted value.
	video, err = client.RateVideo(ctx, 1, 3)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, video.AvgRating, 1e-9)

	_, err = client.RateVideo(ctx, 9, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_UploadAndDownload(t *testing.T) {
	client, _ := setupCatalog(t)
	ctx := context.Background()

	_, err := client.AddVideo(ctx, Video{Title: "A", ContentType: "video/mp4"})
	require.NoError(t, err)

	_, err = client.DownloadBytes(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound, "no payload stored yet")

	status, err := client.UploadBytes(ctx, 1, strings.NewReader("frame-data"))
	require.NoError(t, err)
	assert.Equal(t, VideoStateReady, status.State)

	rc, err := client.DownloadBytes(ctx, 1)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "frame-data", string(body))
}

func TestHTTPClient_UploadUnknownVideo(t *testing.T) {
	client, _ := setupCatalog(t)

	_, err := client.UploadBytes(context.Background(), 5, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	_, err := client.ListVideos(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Body)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	client, _ := setupCatalog(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListVideos(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
