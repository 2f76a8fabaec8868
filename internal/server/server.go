package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"DivTracker/internal/cache"
	"DivTracker/internal/portfolio"
	"DivTracker/internal/ratelimit"
)

// Server exposes the cache, limiter and portfolio services over a JSON API.
type Server struct {
	cache      *cache.Service
	limiter    *ratelimit.Limiter
	portfolios *portfolio.Service

	// FreshWindow bounds the cached-quote listing used for suggestions.
	// Retention is the cutoff handed to manual cleanup requests.
	freshWindow time.Duration
	retention   time.Duration

	router *http.ServeMux
	server *http.Server
}

// New creates the HTTP server and wires all routes.
func New(addr string, cacheSvc *cache.Service, limiter *ratelimit.Limiter, portfolios *portfolio.Service, freshWindow, retention time.Duration) *Server {
	s := &Server{
		cache:       cacheSvc,
		limiter:     limiter,
		portfolios:  portfolios,
		freshWindow: freshWindow,
		retention:   retention,
	}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Market data.
	mux.HandleFunc("GET /api/quote", s.handleQuote)
	mux.HandleFunc("GET /api/quotes", s.handleQuotes)
	mux.HandleFunc("GET /api/dividend", s.handleDividend)
	mux.HandleFunc("GET /api/cached", s.handleCached)
	mux.HandleFunc("GET /api/ratelimits", s.handleRateLimits)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/cleanup", s.handleCleanup)

	// Portfolios and positions.
	mux.HandleFunc("GET /api/portfolios", s.handleListPortfolios)
	mux.HandleFunc("POST /api/portfolios", s.handleCreatePortfolio)
	mux.HandleFunc("GET /api/portfolios/main", s.handleMainPortfolio)
	mux.HandleFunc("GET /api/portfolios/{id}", s.handleGetPortfolio)
	mux.HandleFunc("PUT /api/portfolios/{id}", s.handleUpdatePortfolio)
	mux.HandleFunc("DELETE /api/portfolios/{id}", s.handleDeletePortfolio)
	mux.HandleFunc("POST /api/portfolios/{id}/main", s.handleSetMain)
	mux.HandleFunc("GET /api/portfolios/{id}/summary", s.handleSummary)
	mux.HandleFunc("POST /api/portfolios/{id}/refresh-prices", s.handleRefreshPrices)
	mux.HandleFunc("GET /api/portfolios/{id}/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/portfolios/{id}/positions", s.handleListPositions)
	mux.HandleFunc("POST /api/portfolios/{id}/positions", s.handleCreatePosition)
	mux.HandleFunc("PUT /api/positions/{id}", s.handleUpdatePosition)
	mux.HandleFunc("DELETE /api/positions/{id}", s.handleDeletePosition)

	// Analytics.
	mux.HandleFunc("POST /api/projection", s.handleProjection)

	return mux
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Handler returns the fully wired handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}
