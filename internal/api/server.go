// Package api exposes the decision engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analyzer runs one analysis. *engine.Engine satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Analyzer     Analyzer
	PriceSummary marketdata.Summary
	ForecastMode string
	Service      string
	Version      string
	Logger       logger.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	h := &Handler{deps: d, logger: d.Logger.WithFields(map[string]interface{}{"component": "http"})}

	r.Use(gin.Recovery(), h.observe, cors)

	r.GET("/", h.Info)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/analyze", h.Analyze)
		v1.GET("/health", h.Health)
		v1.GET("/catalog", h.Catalog)
	}
	return r
}

// observe logs every request and counts it by route template and status.
func (h *Handler) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

	if route == "/metrics" {
		return
	}
	h.logger.Info("http request", map[string]interface{}{
		"method":   c.Request.Method,
		"route":    route,
		"status":   status,
		"duration": time.Since(start).String(),
	})
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// Server owns the listening http.Server.
type Server struct {
	srv    *http.Server
	logger logger.Logger
}

func NewServer(addr string, readTimeout, writeTimeout time.Duration, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		logger: log,
	}
}

// Start serves in the background; a listen failure is logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
