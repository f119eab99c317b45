// Package api exposes the engine over HTTP. Authentication is the outer web
// layer's job; callers identify themselves with the X-User-ID header.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/robert-crandall/journal-app/internal/engine"
)

type Server struct {
	svc    *engine.Service
	logger *slog.Logger
}

func NewServer(svc *engine.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/users", s.createUser)
	r.DELETE("/users/:id", s.deleteUser)

	r.POST("/stats", s.createStat)
	r.GET("/stats", s.listStats)
	r.GET("/stats/:id", s.getStat)
	r.POST("/stats/:id/acknowledge", s.acknowledgeLevelUp)
	r.DELETE("/stats/:id", s.deleteStat)
	r.GET("/stats/:id/grants", s.listGrants)
	r.POST("/grants", s.appendGrant)

	r.POST("/tasks", s.createTask)
	r.POST("/tasks/:id/complete", s.completeTask)
	r.DELETE("/tasks/:id", s.archiveTask)
	r.GET("/dashboard", s.dashboard)

	r.POST("/quests", s.createQuest)
	r.DELETE("/quests/:id", s.deleteQuest)

	r.PUT("/journal/:date", s.saveDraft)
	r.GET("/journal/:date", s.getJournal)
	r.POST("/journal/:date/review", s.beginReview)
	r.POST("/journal/:date/turns", s.appendTurn)
	r.POST("/journal/:date/finalize", s.finalizeJournal)

	r.GET("/metrics", s.periodMetrics)
	r.GET("/generation-context", s.generationContext)

	return r
}

func (s *Server) Run(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.Router().Run(addr)
}

// userID reads the caller identity header. Requests without one are
// malformed, not unauthorized; there is no auth at this layer.
func userID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-User-ID header"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-User-ID header"})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps the engine's error taxonomy onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		validation engine.ValidationError
		notFound   engine.NotFoundError
		conflict   engine.ConflictError
		forbidden  engine.ForbiddenError
		integrity  engine.IntegrityError
		external   engine.ExternalServiceError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &integrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &external):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error("internal error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
