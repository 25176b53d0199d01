// Package web provides the HTTP server, pages and JSON API for the shop.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/brickshop/internal/config"
	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/JonMunkholm/brickshop/internal/logging"
	"github.com/JonMunkholm/brickshop/internal/metrics"
	mw "github.com/JonMunkholm/brickshop/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the catalog and cart.
type Server struct {
	service *core.Service
	metrics *metrics.Metrics
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *ipLimiter
	stop    context.CancelFunc
}

// NewServer creates a Server. m may be nil, which disables /metrics and
// request metrics.
func NewServer(service *core.Service, m *metrics.Metrics, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		metrics: m,
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
	if len(s.cfg.Security.TrustedProxies) > 0 {
		s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	}
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(mw.Metrics(s.metrics))
	}
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		ctx, cancel := context.WithCancel(context.Background())
		s.stop = cancel
		s.limiter = newIPLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		go s.limiter.cleanup(ctx)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// Pages
	s.router.Get("/", s.handleCatalogPage)
	s.router.Get("/cart", s.handleCartPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/status", s.handleCatalogStatus)
			r.Group(func(r chi.Router) {
				r.Use(mw.APIKeyAuth(s.cfg.Security.CatalogKeys))
				r.Post("/upload", s.handleUpload)
				r.Post("/preview", s.handlePreview)
			})
		})

		r.Get("/template", s.handleDownloadTemplate)

		r.Get("/cart", s.handleGetCart)
		r.Delete("/cart", s.handleClearCart)
		r.Post("/cart/items", s.handleAddToCart)
		r.Put("/cart/items/{id}", s.handleSetQuantity)
		r.Delete("/cart/items/{id}", s.handleRemoveFromCart)
		r.Get("/cart/export", s.handleExportOrder)
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

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": s.service.CatalogSize(),
	})
}

// Product images come from the Rebrickable CDN and placeholder hosts, and
// the page shell pulls Bootstrap and htmx from public CDNs.
const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net; " +
	"img-src 'self' data: https:; font-src 'self'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}

// attachment sets the headers for a CSV download.
func attachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
}
