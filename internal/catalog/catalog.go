// Package catalog is the client side of the remote video catalog service.
//
// The core only depends on the Client interface. HTTPClient talks to a real
// service; Server and MemoryStore provide an in-process catalog for local
// development and tests.
package catalog

import (
	"context"
	"io"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// Video is the catalog's canonical record. ID and AvgRating are owned by
// the service; DataURL is empty until a payload has been uploaded.
type Video struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Duration    int64   `json:"duration"`
	ContentType string  `json:"contentType"`
	DataURL     string  `json:"dataUrl,omitempty"`
	AvgRating   float64 `json:"avgRating"`
}

// Row converts the remote record to its cache row.
func (v Video) Row() entities.Video {
	return entities.Video{
		ID:          v.ID,
		Title:       v.Title,
		Duration:    v.Duration,
		ContentType: v.ContentType,
		DataURL:     v.DataURL,
		AvgRating:   v.AvgRating,
	}
}

// FromRow converts a cache row back to the catalog record.
func FromRow(row entities.Video) Video {
	return Video{
		ID:          row.ID,
		Title:       row.Title,
		Duration:    row.Duration,
		ContentType: row.ContentType,
		DataURL:     row.DataURL,
		AvgRating:   row.AvgRating,
	}
}

// Rows converts a remote list to cache rows.
func Rows(videos []Video) []entities.Video {
	rows := make([]entities.Video, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, v.Row())
	}
	return rows
}

type VideoState string

const (
	VideoStateReady VideoState = "READY"
)

// VideoStatus acknowledges a stored payload.
type VideoStatus struct {
	State VideoState `json:"state"`
}

// Client defines the remote catalog operations the sync core relies on.
type Client interface {
	// ListVideos returns every video in the catalog.
	ListVideos(ctx context.Context) ([]Video, error)

	// GetVideo returns one video, or ErrNotFound.
	GetVideo(ctx context.Context, id int64) (Video, error)

	// AddVideo registers metadata and returns the record with its assigned ID.
	AddVideo(ctx context.Context, video Video) (Video, error)

	// RateVideo submits a rating and returns the video with the canonical
	// average, which may differ from the submitted value.
	RateVideo(ctx context.Context, id int64, rating float64) (Video, error)

	// UploadBytes stores the payload for id.
	UploadBytes(ctx context.Context, id int64, data io.Reader) (VideoStatus, error)

	// DownloadBytes streams the payload for id, or returns ErrNotFound.
	DownloadBytes(ctx context.Context, id int64) (io.ReadCloser, error)
}
