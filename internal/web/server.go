// Package web serves the single-page front end: the question form, the
// rendered explanation and the daily commit chart.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/view"
	"github.com/huangsam/repopulse/schema"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// chartCache is the last chart fragment shown on the page.
type chartCache struct {
	repo     schema.RepoRef
	darkMode bool
	html     template.HTML
	err      string
}

// Server holds one page state shared by every request.
type Server struct {
	cfg     *contract.Config
	mgr     contract.StoreManager
	client  contract.AnalyticsClient
	prefs   *view.Preferences
	logger  *zap.Logger
	metrics *Metrics
	page    *template.Template
	engine  *gin.Engine

	mu    sync.Mutex
	state view.State
	chart chartCache
}

// NewServer creates the server and loads the stored theme into its state.
// A nil logger uses the process logger.
func NewServer(cfg *contract.Config, mgr contract.StoreManager, client contract.AnalyticsClient, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = contract.Logger()
	}
	page, err := parsePage()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		mgr:     mgr,
		client:  client,
		prefs:   core.Preferences(cfg, mgr),
		logger:  logger,
		metrics: NewMetrics(),
		page:    page,
	}

	state, err := s.prefs.Load(view.State{})
	if err != nil {
		logger.Warn("Failed to load dark mode preference", zap.Error(err))
	}
	s.state = state
	s.engine = s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(CustomRecoveryMiddleware(s.logger))
	router.Use(LoggerMiddleware(s.logger))
	router.Use(MetricsMiddleware(s.metrics))

	router.GET("/", s.handleIndex)
	router.POST("/analyze", s.handleAnalyze)
	router.GET("/chart", s.handleChart)
	router.POST("/prefs/dark-mode", s.handleDarkMode)

	api := router.Group("/api")
	{
		api.GET("/series", s.handleSeries)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return router
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() http.Handler {
	return s.engine
}

// State returns a copy of the current page state.
func (s *Server) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// reduce applies events to the shared state and returns the result.
func (s *Server) reduce(events ...view.Event) view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = view.ReduceAll(s.state, events...)
	return s.state
}

// Run serves on cfg.ListenAddr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("Serving web front end", zap.String("addr", "http://"+s.cfg.ListenAddr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down web front end")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown failed: %w", err)
		}
		return nil
	}
}
