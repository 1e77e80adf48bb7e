package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/laptopstore/pkg/health"
	"github.com/utafrali/laptopstore/pkg/middleware"
)

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	CORS       middleware.CORSConfig
	PprofCIDRs []string
	// RequestTimeout bounds each request; API calls inside it carry their
	// own shorter timeout.
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all view-layer routes registered.
func NewRouter(h *Handler, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Identify(func(context.Context) string {
		return h.session.Snapshot().UserID()
	}))
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{itemId}", h.UpdateItemQuantity)
			r.Delete("/items/{itemId}", h.RemoveItem)
			r.Post("/clear", h.ClearCart)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Get("/count", h.GetWishlistCount)
			r.Post("/{productId}/toggle", h.ToggleWishlist)
		})

		r.Get("/products/{productId}", h.GetProduct)

		r.Get("/notices", h.ListNotices)
		r.Delete("/notices/{id}", h.DismissNotice)
	})

	return r
}
