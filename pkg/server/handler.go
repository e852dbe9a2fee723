package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const (
	feedContentType = "application/rss+xml; charset=UTF-8"
	opmlContentType = "text/x-opml; charset=UTF-8"
)

type handler struct {
	files files
	feeds feeds
}

type youtubeRequest struct {
	URL string `json:"url"`
}

type chapterRequest struct {
	Filename string `json:"filename"`
}

type listResponse struct {
	Files []*model.Listing `json:"files"`
	Next  *string          `json:"next"`
}

func NewHandler(cfg Config, files files, feeds feeds) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog())

	if cfg.UIOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.UIOrigin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if len(cfg.Accounts) > 0 && len(cfg.Protected) > 0 {
		r.Use(protect(gin.Accounts(cfg.Accounts), cfg.Protected))
	}

	h := handler{
		files: files,
		feeds: feeds,
	}

	compress := gzip.Gzip(gzip.DefaultCompression)

	r.GET("/health", h.health)

	r.GET("/files", h.list)
	r.POST("/files/youtube/add", h.addYoutube)
	r.POST("/files/book/add", h.addBook)
	r.POST("/files/book/:book_id/add_chapter", h.addChapter)
	r.POST("/files/book/:book_id/complete", h.completeBook)
	r.DELETE("/files/:file_id", h.delete)

	r.GET("/youtube/feed", compress, h.youtubeFeed)
	r.GET("/book/:book_id/feed", compress, h.bookFeed)
	r.GET("/opml.xml", compress, h.opml)
	r.GET("/media/*episode_id", h.media)

	r.GET("/tasks", h.tasks)
	r.GET("/tasks/:task_id", h.task)
	r.DELETE("/tasks/:task_id", h.deleteTask)

	return r
}

func (h handler) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h handler) list(c *gin.Context) {
	files, err := h.files.ListFiles(c.Request.Context(), c.QueryArray("id"))
	if err != nil {
		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusOK, listResponse{Files: files})
}

func (h handler) addYoutube(c *gin.Context) {
	req := &youtubeRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(badRequest(err))
		return
	}

	accepted, err := h.files.RegisterYoutube(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusAccepted, accepted)
}

func (h handler) addBook(c *gin.Context) {
	accepted, err := h.files.StartBookUpload(c.Request.Context())
	if err != nil {
		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": accepted.ID})
}

func (h handler) addChapter(c *gin.Context) {
	req := &chapterRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(badRequest(err))
		return
	}

	upload, err := h.files.UploadBookChapter(c.Request.Context(), c.Param("book_id"), req.Filename)
	if err != nil {
		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusCreated, upload)
}

func (h handler) completeBook(c *gin.Context) {
	accepted, err := h.files.CompleteBookUpload(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusAccepted, accepted)
}

func (h handler) delete(c *gin.Context) {
	fileID := c.Param("file_id")
	if err := h.files.DeleteEntry(c.Request.Context(), fileID); err != nil {
		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": fileID})
}

func (h handler) youtubeFeed(c *gin.Context) {
	podcast, err := h.feeds.Youtube(c.Request.Context())
	if err != nil {
		c.String(feedFailure(err))
		return
	}

	c.Data(http.StatusOK, feedContentType, podcast.Bytes())
}

func (h handler) bookFeed(c *gin.Context) {
	podcast, err := h.feeds.Book(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.String(feedFailure(err))
		return
	}

	c.Data(http.StatusOK, feedContentType, podcast.Bytes())
}

func (h handler) opml(c *gin.Context) {
	opml, err := h.feeds.OPML(c.Request.Context())
	if err != nil {
		c.String(feedFailure(err))
		return
	}

	c.Data(http.StatusOK, opmlContentType, []byte(opml))
}

func (h handler) media(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("episode_id"), "/")

	location, err := h.files.MediaURL(c.Request.Context(), key)
	if err != nil {
		c.JSON(failure(err))
		return
	}

	c.Redirect(http.StatusPermanentRedirect, location)
}

func (h handler) tasks(c *gin.Context) {
	tasks, err := h.files.Tasks(c.Request.Context())
	if err != nil {
		c.JSON(failure(err))
		return
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "queued": h.files.Queued()})
}

func (h handler) task(c *gin.Context) {
	task, err := h.files.Task(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h handler) deleteTask(c *gin.Context) {
	taskID := c.Param("task_id")
	if err := h.files.DeleteTask(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(failure(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": taskID})
}

// protect requires basic auth on paths under any of the prefixes. Preflight requests pass through.
func protect(accounts gin.Accounts, prefixes []string) gin.HandlerFunc {
	auth := gin.BasicAuth(accounts)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			return
		}

		for _, prefix := range prefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				auth(c)
				return
			}
		}
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed")
		} else {
			logger.Debug("request")
		}
	}
}

func status(err error) int {
	switch {
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func failure(err error) (int, interface{}) {
	code := status(err)
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("server error")
	}

	return code, gin.H{"error": err.Error()}
}

func feedFailure(err error) (int, string) {
	code, _ := failure(err)
	if errors.Is(err, model.ErrNotFound) {
		code = http.StatusNotFound
	}

	return code, err.Error()
}

func badRequest(err error) (int, interface{}) {
	return http.StatusBadRequest, gin.H{"error": err.Error()}
}
