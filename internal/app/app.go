// Package app wires the storefront client together: local store, store API
// client, session manager, cart and wishlist synchronizers and the view layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/laptopstore/internal/apiclient"
	"github.com/utafrali/laptopstore/internal/cart"
	"github.com/utafrali/laptopstore/internal/config"
	handler "github.com/utafrali/laptopstore/internal/handler/http"
	"github.com/utafrali/laptopstore/internal/notify"
	"github.com/utafrali/laptopstore/internal/session"
	"github.com/utafrali/laptopstore/internal/store"
	"github.com/utafrali/laptopstore/internal/store/memory"
	redisstore "github.com/utafrali/laptopstore/internal/store/redis"
	"github.com/utafrali/laptopstore/internal/store/sqlite"
	"github.com/utafrali/laptopstore/internal/wishlist"
	"github.com/utafrali/laptopstore/pkg/health"
	"github.com/utafrali/laptopstore/pkg/httpclient"
	"github.com/utafrali/laptopstore/pkg/middleware"
	"github.com/utafrali/laptopstore/pkg/tracing"
)

const serviceName = "storefront"

// App owns every long-lived component of the client.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	Store    *store.Store
	API      *apiclient.Client
	Session  *session.Manager
	Cart     *cart.Synchronizer
	Wishlist *wishlist.Synchronizer
	Notices  *notify.Center

	router         http.Handler
	httpServer     *http.Server
	shutdownTracer func(context.Context) error

	closeOnce sync.Once
}

// OpenBackend opens the local store backend selected by cfg.StoreDriver.
func OpenBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		b, err := sqlite.Open(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return b, nil
	case config.DriverRedis:
		b, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return b, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.StoreDriver)
	}
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Tracing.
	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTELEnabled
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	shutdownTracer, err := tracing.InitTracer(initCtx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Local store.
	backend, err := OpenBackend(initCtx, cfg)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, err
	}
	logger.Info("local store opened", slog.String("driver", cfg.StoreDriver))
	st := store.New(backend, cfg.StoreNamespace, logger)

	// Store API client.
	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = cfg.APITimeout
	hcfg.MaxRetries = cfg.APIMaxRetries
	hcfg.RateLimit = cfg.APIRateLimitRPS
	hcfg.RateBurst = cfg.APIRateLimitBurst
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(hcfg),
		httpclient.DefaultCircuitBreakerConfig("store-api"),
		logger,
	)
	api := apiclient.New(cfg.APIBaseURL, breaker, logger, apiclient.WithTimeout(cfg.APITimeout))

	// Session, then everything that follows it.
	mgr := session.NewManager(api, st, logger, session.WithLoginRoute(cfg.LoginRoute))
	api.SetTokenSource(mgr)
	api.OnUnauthorized(func(ctx context.Context, rejected string) {
		mgr.HandleUnauthorized(ctx, rejected)
	})

	notices := notify.NewCenter(cfg.NoticeTTL)
	cartSync := cart.New(api, st, mgr, notices, logger, cart.WithMergeOnLogin(cfg.MergeGuestOnLogin))
	wishSync := wishlist.New(api, st, mgr, notices, logger, wishlist.WithMergeOnLogin(cfg.MergeGuestOnLogin))
	mgr.Subscribe(cartSync.OnSessionEvent)
	mgr.Subscribe(wishSync.OnSessionEvent)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("store", st.Ping)
	healthHandler.RegisterNonCritical("store-api", func(context.Context) error {
		if breaker.State() == gobreaker.StateOpen {
			return errors.New("circuit open")
		}
		return nil
	})

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins
	h := handler.NewHandler(mgr, cartSync, wishSync, api, notices, logger)
	router := handler.NewRouter(h, healthHandler, logger, handler.RouterConfig{
		CORS:           cors,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: 2 * cfg.APITimeout,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.APITimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		Store:          st,
		API:            api,
		Session:        mgr,
		Cart:           cartSync,
		Wishlist:       wishSync,
		Notices:        notices,
		router:         router,
		httpServer:     httpServer,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Handler returns the view-layer router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Restore brings the persisted session back and loads the badge counts.
// A failed restore leaves a guest session; it is logged, not returned.
func (a *App) Restore(ctx context.Context) {
	if err := a.Session.Initialize(ctx); err != nil {
		a.logger.InfoContext(ctx, "continuing as guest", slog.String("reason", err.Error()))
	}
	a.Cart.FetchCart(ctx)
	a.Wishlist.FetchWishlistCount(ctx)
}

// Run restores the session in the background, starts the HTTP server and
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.Restore(ctx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. It is safe to call more than once.
func (a *App) Shutdown() error {
	a.closeOnce.Do(func() {
		a.logger.Info("shutting down application...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}

		if err := a.Store.Close(); err != nil {
			a.logger.Error("local store close error", slog.String("error", err.Error()))
		}

		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}

		a.logger.Info("application shutdown complete")
	})
	return nil
}
