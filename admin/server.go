package admin

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fsdfsfssdf/gryflux/component"
	"github.com/fsdfsfssdf/gryflux/logger"
	"github.com/fsdfsfssdf/gryflux/util"
)

// StatsProvider is the read-only surface of a running dag.StreamingPipeline
// the admin server needs; satisfied by *dag.StreamingPipeline.
type StatsProvider interface {
	Name() string
	ProcessedItemCount() int64
	ErrorCount() int64
	InputSize() int
	OutputSize() int
	IsRunning() bool
	TaskStatsSnapshot() map[string]struct {
		AvgMs float64
		Count int64
	}
}

// Server is a small read-only HTTP surface over a running pipeline: a
// health check, a point-in-time stats snapshot, and a Server-Sent
// Events stream of the same snapshot polled on an interval. It
// implements component.Component so it starts and stops alongside the
// pipeline it observes, but never sits between callers and the pipeline
// — it is a peripheral, not a dependency the dag package imports back.
type Server struct {
	cfg      Config
	pipeline StatsProvider
	registry *component.Registry

	engine     *gin.Engine
	httpServer *http.Server
	log        *logger.Logger
}

// New creates an admin server observing pipeline. registry, if non-nil,
// is consulted for GET /healthz to aggregate every registered
// component's health, not just the pipeline's.
func New(cfg Config, pipeline StatsProvider, registry *component.Registry, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("admin")

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	s := &Server{cfg: cfg, pipeline: pipeline, registry: registry, engine: engine, log: log}
	engine.Use(s.recovery())
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

// Name satisfies component.Component.
func (s *Server) Name() string { return "admin" }

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic recovered", map[string]interface{}{
					"error": fmt.Sprintf("%v", r), "stack": string(debug.Stack()), "path": c.Request.URL.Path,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/stats", s.handleStats)
	s.engine.GET("/stats/stream", s.handleStatsStream)
}

func (s *Server) handleHealthz(c *gin.Context) {
	status := "healthy"
	var components []component.Health
	if s.registry != nil {
		components = s.registry.HealthAll(c.Request.Context())
		for _, h := range components {
			if h.Status == component.StatusUnhealthy {
				status = "unhealthy"
				break
			}
			if h.Status == component.StatusDegraded && status != "unhealthy" {
				status = "degraded"
			}
		}
	}
	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}

func (s *Server) statsSnapshot() gin.H {
	tasks := s.pipeline.TaskStatsSnapshot()
	taskOut := make(map[string]gin.H, len(tasks))
	for id, st := range tasks {
		taskOut[id] = gin.H{"avg_ms": st.AvgMs, "count": st.Count}
	}
	taskIDs := util.Keys(tasks)
	sort.Strings(taskIDs)
	return gin.H{
		"pipeline":        s.pipeline.Name(),
		"running":         s.pipeline.IsRunning(),
		"processed_items": s.pipeline.ProcessedItemCount(),
		"error_count":     s.pipeline.ErrorCount(),
		"input_queue":     s.pipeline.InputSize(),
		"output_queue":    s.pipeline.OutputSize(),
		"task_ids":        taskIDs,
		"tasks":           taskOut,
	}
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.statsSnapshot())
}

func (s *Server) handleStatsStream(c *gin.Context) {
	period := time.Duration(s.cfg.StatsPeriod) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			c.SSEvent("stats", s.statsSnapshot())
			return true
		}
	})
}

// Start binds the configured port and begins serving.
func (s *Server) Start(context.Context) error {
	s.log.Info("starting admin server", map[string]interface{}{"addr": s.httpServer.Addr})
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("admin: failed to bind %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin server error", map[string]interface{}{"error": err.Error()})
		}
	}()
	return nil
}

// Stop gracefully shuts down the server within 5 seconds.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin: shutdown error: %w", err)
	}
	return nil
}

// Health reports the admin server itself as healthy once constructed;
// it has no external dependencies of its own to fail.
func (s *Server) Health(context.Context) component.Health {
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}
