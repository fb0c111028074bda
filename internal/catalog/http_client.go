package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	videoSvcPath  = "/video"
	dataParameter = "data"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// HTTPClient talks to the catalog service over its REST surface.
type HTTPClient struct {
	baseURL string

	// httpClient carries the metadata timeout.
	httpClient *http.Client
	// transferClient has no overall timeout so payloads of any size can
	// stream; a stalled transfer is bounded only by the caller's context.
	transferClient *http.Client
}

// NewHTTPClient creates a catalog client for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		transferClient: &http.Client{},
	}
}

func (c *HTTPClient) videoURL(id int64) string {
	return fmt.Sprintf("%s%s/%d", c.baseURL, videoSvcPath, id)
}

func (c *HTTPClient) dataURL(id int64) string {
	return c.videoURL(id) + "/data"
}

// ListVideos fetches the full catalog.
func (c *HTTPClient) ListVideos(ctx context.Context) ([]Video, error) {
	var videos []Video
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+videoSvcPath, nil, &videos); err != nil {
		return nil, errors.Wrap(err, "list videos")
	}
	return videos, nil
}

// GetVideo fetches one video.
func (c *HTTPClient) GetVideo(ctx context.Context, id int64) (Video, error) {
	var video Video
	if err := c.doJSON(ctx, http.MethodGet, c.videoURL(id), nil, &video); err != nil {
		return Video{}, errors.Wrapf(err, "get video %d", id)
	}
	return video, nil
}

// AddVideo registers video metadata.
func (c *HTTPClient) AddVideo(ctx context.Context, video Video) (Video, error) {
	var created Video
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+videoSvcPath, video, &created); err != nil {
		return Video{}, errors.Wrap(err, "add video")
	}
	return created, nil
}

type ratingRequest struct {
	Rating float64 `json:"rating"`
}

// RateVideo submits a rating and returns the canonical record.
func (c *HTTPClient) RateVideo(ctx context.Context, id int64, rating float64) (Video, error) {
	var video Video
	if err := c.doJSON(ctx, http.MethodPost, c.videoURL(id)+"/rating", ratingRequest{Rating: rating}, &video); err != nil {
		return Video{}, errors.Wrapf(err, "rate video %d", id)
	}
	return video, nil
}

// UploadBytes streams data as a multipart "data" part.
func (c *HTTPClient) UploadBytes(ctx context.Context, id int64, data io.Reader) (VideoStatus, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(dataParameter, fmt.Sprintf("video-%d", id))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, data); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.dataURL(id), pr)
	if err != nil {
		pr.Close()
		return VideoStatus{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.transferClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return VideoStatus{}, errors.Wrapf(err, "upload video %d", id)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return VideoStatus{}, errors.Wrapf(err, "upload video %d", id)
	}

	var status VideoStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return VideoStatus{}, errors.Wrap(err, "failed to decode response")
	}
	return status, nil
}

// DownloadBytes opens the payload stream for id. The caller closes it.
func (c *HTTPClient) DownloadBytes(ctx context.Context, id int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.dataURL(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "download video %d", id)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, errors.Wrapf(err, "download video %d", id)
	}
	return resp.Body, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if strings.Contains(string(body), ErrInvalidRating.Error()) {
			return ErrInvalidRating
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
