// Package api exposes the dashboard's HTTP surface: the on-demand snapshot
// endpoint, the websocket streaming upgrade, health, and Prometheus
// exposition.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	limiter "github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/internal/config"
	"github.com/freightpulse/freightpulse/internal/metrics"
	"github.com/freightpulse/freightpulse/internal/stream"
)

// SnapshotSource provides the current KPI snapshot. Satisfied by
// *metrics.Simulator.
type SnapshotSource interface {
	Current() metrics.Snapshot
}

// Server is the HTTP/WebSocket front of the dashboard backend.
type Server struct {
	router *gin.Engine
	logger *zap.Logger
	source SnapshotSource
	hub    *stream.Hub
	cfg    *config.Config
	start  time.Time
}

// NewServer wires the snapshot source and hub into a gin router.
func NewServer(logger *zap.Logger, source SnapshotSource, hub *stream.Hub, cfg *config.Config) *Server {
	s := &Server{
		logger: logger,
		source: source,
		hub:    hub,
		cfg:    cfg,
		start:  time.Now(),
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	store := memory.NewStore()
	rate, _ := limiter.NewRateFromFormatted("300-M")
	rateLimiter := ginlimiter.NewMiddleware(limiter.New(store, rate))

	rest := router.Group("/api/v1", rateLimiter)
	{
		rest.GET("/metrics", s.handleSnapshot)
	}
	router.GET("/ws/metrics", s.handleStream)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = router
	return s
}

// Start runs the HTTP server on addr, blocking until it stops.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// handleSnapshot returns the current KPI snapshot. The simulator always
// holds a valid snapshot once constructed, so this cannot fail.
func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.Current())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"subscribers": s.hub.Len(),
		"uptime":      time.Since(s.start).String(),
	})
}
