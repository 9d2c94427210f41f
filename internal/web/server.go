// Package web provides the HTTP server for the grid console: a JSON API over
// view sessions and exports, and server-rendered grid pages.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/admingrid/internal/config"
	"github.com/JonMunkholm/admingrid/internal/core"
	mw "github.com/JonMunkholm/admingrid/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the grid console.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.ClientIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	if s.cfg.Security.EnableCSP {
		s.router.Use(securityHeaders)
	}

	if s.cfg.Rate.Enabled {
		limiter := mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst, s.rateLimited)
		s.router.Use(limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// The selection stream stays open, so it lives outside the request timeout.
	s.router.Get("/api/views/{viewID}/selection/events", s.handleSelectionEvents)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

		r.Get("/health", s.handleHealth)

		// Pages
		r.Get("/", s.handleDashboard)
		r.Get("/grid/{gridKey}", s.handleGridPage)

		r.Route("/api", func(r chi.Router) {
			r.Get("/grids", s.handleListGrids)
			r.Get("/audit-log", s.handleAuditLog)

			r.Post("/views", s.handleOpenView)
			r.Route("/views/{viewID}", func(r chi.Router) {
				r.Get("/", s.handleGetView)
				r.Delete("/", s.handleCloseView)

				// Table state
				r.Post("/search", s.handleSearch)
				r.Post("/status", s.handleStatusFilter)
				r.Post("/sort", s.handleSortMode)
				r.Post("/sort/{field}", s.handleColumnSort)
				r.Post("/page", s.handlePage)
				r.Post("/page-size", s.handlePageSize)
				r.Post("/date-range", s.handleDateRange)
				r.Post("/predicate", s.handlePredicate)
				r.Post("/refresh", s.handleRefresh)

				// Selection
				r.Post("/select/{id}", s.handleToggleSelect)
				r.Post("/select-all", s.handleSelectAll)
				r.Post("/select-all-filtered", s.handleSelectAllFiltered)
				r.Post("/clear-selection", s.handleClearSelection)

				// Row and bulk actions
				r.Get("/records/{id}", s.handleRecord)
				r.Post("/actions/{action}", s.handleBulkAction)
			})

			r.Route("/export/{gridKey}", func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					limiter := mw.NewRateLimiter(s.cfg.Rate.ExportLimit, s.cfg.Rate.ExportLimit, s.rateLimited)
					r.Use(limiter.Handler)
				}
				r.Get("/status", s.handleExportStatus)
				r.Post("/preview", s.handleExportPreview)
				r.Post("/csv", s.handleExportFile(core.FormatCSV))
				r.Post("/pdf", s.handleExportFile(core.FormatPDF))
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("http server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		// Grid pages carry inline styles for status pills and nothing else.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimited answers throttled requests in the client's format.
func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
