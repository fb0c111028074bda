package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/jgesser/mobilecloud-15/internal/coordinator"
	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/entities"
)

type VideosController struct {
	service VideoService
}

func NewVideosController(service VideoService) *VideosController {
	return &VideosController{service: service}
}

// VideoListResponse is returned by GET /videos. Summary listings carry only
// id and title per row.
type VideoListResponse struct {
	Videos  any    `json:"videos"`
	Count   int    `json:"count"`
	TakenAt string `json:"taken_at"`
}

// ListVideos handles GET /videos
//
// Query parameters:
//   - refresh=1 replaces the cache from the catalog first
//   - fields=summary returns the id/title projection
//   - q filters by title substring
//   - limit caps the number of rows
func (vc *VideosController) ListVideos(c *gin.Context) {
	if c.Query("refresh") == "1" || c.Query("refresh") == "true" {
		if _, err := vc.service.Refresh(c.Request.Context()); err != nil {
			switch {
			case errors.Is(err, coordinator.ErrSuperseded):
				c.JSON(http.StatusConflict, ErrorResponse{Error: "refresh superseded by a newer request", Code: "superseded"})
			default:
				respondUnavailable(c, "video catalog unavailable", nil)
			}
			return
		}
	}

	filter := videos.Filter{
		TitleContains: c.Query("q"),
		Limit:         parseLimit(c, 0),
	}
	summary := c.Query("fields") == "summary"
	if summary {
		filter.Projection = videos.ProjectionSummary
	}

	snap, err := vc.service.Videos(c.Request.Context(), filter)
	if err != nil {
		respondUnavailable(c, "video cache unavailable", nil)
		return
	}

	var rows any
	if summary {
		list := make([]entities.VideoSummary, 0, snap.Len())
		for s := range snap.Summaries() {
			list = append(list, s)
		}
		rows = list
	} else {
		list := make([]entities.Video, 0, snap.Len())
		for row := range snap.Rows() {
			list = append(list, row)
		}
		rows = list
	}

	c.JSON(http.StatusOK, VideoListResponse{
		Videos:  rows,
		Count:   snap.Len(),
		TakenAt: snap.TakenAt().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// GetVideo handles GET /videos/:id from the cache only.
func (vc *VideosController) GetVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	video, err := vc.service.LoadOne(c.Request.Context(), id)
	if errors.Is(err, coordinator.ErrNotFound) {
		respondNotFound(c, "video")
		return
	}
	if err != nil {
		respondUnavailable(c, "video cache unavailable", nil)
		return
	}
	c.JSON(http.StatusOK, video)
}

type RateRequest struct {
	Rating *float64 `json:"rating" binding:"required"`
}

// RateVideo handles POST /videos/:id/rating
//
// On failure the response carries the last cached row in details, so a
// client that displayed the submitted rating can revert to it.
func (vc *VideosController) RateVideo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}

	video, err := vc.service.Rate(c.Request.Context(), id, *req.Rating)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, video)
	case errors.Is(err, coordinator.ErrNotFound):
		respondNotFound(c, "video")
	case errors.Is(err, coordinator.ErrInvalidRating):
		respondBadRequest(c, "invalid rating")
	default:
		var previous any
		if row, lerr := vc.service.LoadOne(c.Request.Context(), id); lerr == nil {
			previous = row
		}
		respondUnavailable(c, "rating was not saved", previous)
	}
}
