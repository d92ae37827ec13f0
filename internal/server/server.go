// Package server exposes the health, status and metrics endpoints for the
// long-running schedule command.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/internal/scheduler"
)

// Server wraps the HTTP surface of the schedule command.
type Server struct {
	archiver  *archive.Manager
	scheduler *scheduler.Scheduler
	http      *http.Server
}

// New builds the server. The scheduler may be nil when the endpoints are
// served without background syncing.
func New(addr string, archiver *archive.Manager, sched *scheduler.Scheduler) *Server {
	s := &Server{archiver: archiver, scheduler: sched}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware())

	router.GET("/health", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func loggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}

	if _, err := s.archiver.Stats(); err != nil {
		response["status"] = "error"
		response["store"] = "error"
		logrus.Errorf("Store health check failed: %v", err)
	} else {
		response["store"] = "ok"
	}

	if s.scheduler != nil && s.scheduler.IsRunning() {
		response["scheduler"] = "running"
		response["next_run"] = s.scheduler.GetNextRun().Format(time.RFC3339)
	} else {
		response["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if response["status"] == "error" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

func (s *Server) handleStatus(c *gin.Context) {
	stats, err := s.archiver.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListenAndServe blocks serving HTTP until the listener fails or Shutdown
// is called.
func (s *Server) ListenAndServe() error {
	logrus.Infof("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
