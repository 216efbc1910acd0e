// Package web provides the HTTP server and JSON handlers for the commerce
// API. It is a thin shell over core.Service: handlers decode requests, call
// one service operation, and encode the result or an error envelope.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"crmcore/internal/config"
	"crmcore/internal/core"
	"crmcore/internal/metrics"
	"crmcore/internal/web/middleware"
)

// Server is the HTTP server for the commerce API.
type Server struct {
	service *core.Service
	metrics *metrics.Recorder
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server wired to the given service. The metrics
// recorder may be nil; /metrics then serves an empty registry.
func NewServer(service *core.Service, rec *metrics.Recorder, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		metrics: rec,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", s.handleCreateCustomer)
			r.Post("/bulk", s.handleBulkCreateCustomers)
			r.Post("/import", s.handleImportCustomers)
			r.Get("/", s.handleListCustomers)
			r.Get("/{customerID}", s.handleGetCustomer)
			r.Delete("/{customerID}", s.handleDeleteCustomer)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", s.handleCreateProduct)
			r.Get("/", s.handleListProducts)
			r.Get("/{productID}", s.handleGetProduct)
			r.Delete("/{productID}", s.handleDeleteProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", s.handleCreateOrder)
			r.Get("/", s.handleListOrders)
			r.Get("/{orderID}", s.handleGetOrder)
			r.Delete("/{orderID}", s.handleDeleteOrder)
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
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
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports liveness, store reachability, and importer occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status  string                   `json:"status"`
		Store   string                   `json:"store"`
		Imports core.ImportLimiterStatus `json:"imports"`
	}{
		Status:  "ok",
		Store:   "ok",
		Imports: s.service.Limiter().Status(),
	}

	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
