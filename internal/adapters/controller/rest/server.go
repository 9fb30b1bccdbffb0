// Package rest exposes one trigger endpoint per notification category so an
// external cron can drive the dispatcher alongside the in-process scheduler.
package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ci-events/notify-server/pkg/logger"
)

type dispatcher interface {
	NotifySubscribers(ctx context.Context) error
	DueReminders(ctx context.Context) error
	ResponseNotifications(ctx context.Context) error
	AdminNotifications(ctx context.Context) error
}

type cleaner interface {
	CleanupAlerts(ctx context.Context) error
	CleanupReminders(ctx context.Context) error
}

type digester interface {
	SendWeeklyDigest(ctx context.Context) error
}

type Server struct {
	engine *gin.Engine
	logger *logger.Logger
}

func NewServer(dispatcher dispatcher, cleaner cleaner, digester digester, logger *logger.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		logger: logger,
	}

	api := engine.Group("/api")
	{
		api.POST("/notify-subscribers", s.trigger("notify-subscribers", dispatcher.NotifySubscribers))
		api.POST("/due-notifications", s.trigger("due-notifications", dispatcher.DueReminders))
		api.POST("/response-notifications", s.trigger("response-notifications", dispatcher.ResponseNotifications))
		api.POST("/admin-notifications", s.trigger("admin-notifications", dispatcher.AdminNotifications))
		api.POST("/cleanup-alerts", s.trigger("cleanup-alerts", func(ctx context.Context) error {
			if err := cleaner.CleanupAlerts(ctx); err != nil {
				return err
			}
			return cleaner.CleanupReminders(ctx)
		}))
		api.POST("/weekly-digest", s.trigger("weekly-digest", digester.SendWeeklyDigest))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s
}

// trigger invokes the category and answers with a fixed acknowledgement.
func (s *Server) trigger(category string, fn func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context()); err != nil {
			s.logger.Errorf("%s failed: %v", category, err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "category": category})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "category": category})
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
