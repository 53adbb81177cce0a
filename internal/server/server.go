// Package server exposes the facts reports over an HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pickrace/olist-streamlit-bi/internal/config"
	"github.com/pickrace/olist-streamlit-bi/internal/facts"
	"github.com/pickrace/olist-streamlit-bi/internal/logging"
	"github.com/pickrace/olist-streamlit-bi/internal/report"
)

// Server wires the facts cache and reports into a gin engine.
type Server struct {
	cfg      config.Config
	cache    *facts.Cache
	registry *prometheus.Registry
	engine   *gin.Engine
	log      *slog.Logger
}

// New builds the server and its routes. The registry backs the /metrics
// endpoint; pass the same one the pipeline metrics were registered on.
func New(cfg config.Config, cache *facts.Cache, registry *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		cache:    cache,
		registry: registry,
		engine:   gin.New(),
		log:      logging.Component("server"),
	}

	s.engine.Use(gin.Recovery(), s.requestLog())

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")
	api.GET("/summary", s.handleSummary)
	api.GET("/kpi/daily", s.handleDaily)
	api.GET("/kpi/monthly", s.handleMonthly)
	api.GET("/payments", s.handlePayments)
	api.GET("/reviews", s.handleReviews)
	api.GET("/rfm", s.handleRFM)
	api.GET("/rfm/segments", s.handleRFMSegments)
	api.GET("/sla", s.handleSLA)
	api.GET("/sla/whatif", s.handleWhatIf)

	return s
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Listen,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = logging.GenerateCorrelationID()
		}
		c.Request = c.Request.WithContext(logging.WithCorrelationID(c.Request.Context(), id))
		c.Header("X-Correlation-ID", id)

		start := time.Now()
		c.Next()

		logging.RequestLogger(id, c.Request.Method, c.Request.URL.Path).Info("request",
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// view resolves the facts slice for a request: the configured build options
// (with an optional ?year= override) narrowed by ?from= / ?to= date bounds.
// It writes the error response itself and returns ok=false on bad input.
func (s *Server) view(c *gin.Context) (facts.Table, bool) {
	opts := facts.Options{
		MaxOrders: s.cfg.Facts.MaxOrders,
		Year:      s.cfg.Facts.Year,
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a non-negative integer"})
			return nil, false
		}
		opts.Year = year
	}

	from := c.Query("from")
	to := c.Query("to")
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
			return nil, false
		}
	}

	t, err := s.cache.Facts(c.Request.Context(), opts)
	if err != nil {
		s.log.Error("facts build failed",
			"correlation_id", logging.CorrelationID(c.Request.Context()),
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "facts build failed"})
		return nil, false
	}
	return t.Between(from, to), true
}

func (s *Server) handleSummary(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.Summarize(t))
}

func (s *Server) handleDaily(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.DailyTrend(t))
}

func (s *Server) handleMonthly(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.MonthlyTrend(t))
}

func (s *Server) handlePayments(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.PaymentMix(t))
}

func (s *Server) handleReviews(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"distribution": report.ScoreDistribution(t),
		"delivery":     report.DeliveryByScore(t),
	})
}

func (s *Server) handleRFM(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.RFM(t))
}

func (s *Server) handleRFMSegments(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.RFMSegments(t))
}

func (s *Server) handleSLA(c *gin.Context) {
	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.SLA(t))
}

func (s *Server) handleWhatIf(c *gin.Context) {
	reduction := 10.0
	if raw := c.Query("reduction_pp"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reduction_pp must be between 0 and 100"})
			return
		}
		reduction = parsed
	}

	t, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reduction_pp":       reduction,
		"recaptured_revenue": report.Recapture(t, reduction),
		"late_revenue":       report.Recapture(t, 100),
	})
}
