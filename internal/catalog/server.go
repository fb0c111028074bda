package catalog

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Server exposes a Store over the catalog's REST surface.
type Server struct {
	store Store
}

func NewServer(store Store) *Server {
	return &Server{store: store}
}

// Router builds the gin engine serving the catalog routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	s.RegisterRoutes(router)
	return router
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET(videoSvcPath, s.listVideos)
	r.POST(videoSvcPath, s.addVideo)
	r.GET(videoSvcPath+"/:id", s.getVideo)
	r.POST(videoSvcPath+"/:id/rating", s.rateVideo)
	r.POST(videoSvcPath+"/:id/data", s.putData)
	r.GET(videoSvcPath+"/:id/data", s.getData)
}

func (s *Server) listVideos(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) addVideo(c *gin.Context) {
	var video Video
	if err := c.ShouldBindJSON(&video); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	base := "http://" + c.Request.Host
	created := s.store.Add(video, func(id int64) string {
		return fmt.Sprintf("%s%s/%d/data", base, videoSvcPath, id)
	})
	log.WithField("id", created.ID).Info("catalog: video added")
	c.JSON(http.StatusOK, created)
}

func (s *Server) getVideo(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	video, err := s.store.Get(id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (s *Server) rateVideo(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidRating.Error()})
		return
	}
	video, err := s.store.Rate(id, req.Rating)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (s *Server) putData(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	file, _, err := c.Request.FormFile(dataParameter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing data part"})
		return
	}
	defer file.Close()

	if err := s.store.PutData(id, file); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, VideoStatus{State: VideoStateReady})
}

func (s *Server) getData(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	video, err := s.store.Get(id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	rc, err := s.store.OpenData(id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	defer rc.Close()

	contentType := video.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.WithError(err).WithField("id", id).Warn("catalog: payload copy interrupted")
	}
}

func videoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video ID"})
		return 0, false
	}
	return id, true
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
