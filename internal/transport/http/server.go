package transporthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ica/internal/agent"
	"ica/internal/logger"
	"ica/internal/signal"
	"ica/internal/store"

	"github.com/gin-gonic/gin"
)

// SignalProcessor is the slice of the agent engine the API needs.
type SignalProcessor interface {
	ProcessSignal(ctx context.Context, sig signal.Signal) (agent.TradeResult, error)
}

// Server exposes the agent's portfolio and a manual signal injection endpoint.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the HTTP server dependencies.
type ServerConfig struct {
	Addr      string
	AgentID   string
	Store     store.PortfolioStore
	Processor SignalProcessor
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("http server requires a portfolio store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8391"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/agents/:id")
	api.GET("/portfolio", portfolioHandler(cfg.Store))
	api.GET("/metrics", metricsHandler(cfg.Store))
	if cfg.Processor != nil {
		api.POST("/signal", signalHandler(cfg.AgentID, cfg.Processor))
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

func portfolioHandler(st store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok, err := st.FindByAgent(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent_id": doc.AgentID, "portfolio_details": doc.Details})
	}
}

func metricsHandler(st store.PortfolioStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok, err := st.FindByAgent(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent_id": doc.AgentID, "portfolio_metrics": doc.Metrics})
	}
}

func signalHandler(agentID string, processor SignalProcessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if agentID != "" && c.Param("id") != agentID {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown agent"})
			return
		}
		var sig signal.Signal
		if err := c.ShouldBindJSON(&sig); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := processor.ProcessSignal(c.Request.Context(), sig)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, res)
		case errors.Is(err, agent.ErrNoSafeToken), errors.Is(err, agent.ErrSymbolUnresolved):
			// No-op outcomes: report the status rather than failing the call.
			c.JSON(http.StatusOK, res)
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
