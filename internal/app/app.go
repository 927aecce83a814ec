package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/northwind-labs/storefront/internal/domain/auth"
	"github.com/northwind-labs/storefront/internal/domain/order"
	"github.com/northwind-labs/storefront/internal/events"
	"github.com/northwind-labs/storefront/internal/httpapi"
	"github.com/northwind-labs/storefront/internal/repository"
	"github.com/northwind-labs/storefront/internal/session"
	"github.com/northwind-labs/storefront/pkg/health"
	"github.com/northwind-labs/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil || taxRate.IsNegative() {
		return errors.Errorf("invalid tax rate %q", cfg.TaxRate)
	}

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	categoryRepo := repository.NewCategoryRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	promoRepo := repository.NewPromoRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	wishlistRepo := repository.NewWishlistRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// Order events are optional; without brokers orders are still durable,
	// just unannounced.
	var publisher order.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, func() string { return uuid.New().String() })
		defer func() {
			if err := producer.Close(); err != nil {
				lg.Warn("Close event producer", zap.Error(err))
			}
		}()
		publisher = producer
		lg.Info("Order event publication enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Domain services.
	authSvc := auth.NewService(userRepo, auth.NewTokenIssuer([]byte(cfg.JWTSecret)))
	orderSvc := order.NewService(orderRepo, promoRepo, publisher, taxRate)

	sessions := session.NewStore(cartRepo, wishlistRepo, cfg.Session.IdleTTL)
	sessions.StartJanitor(ctx, cfg.Session.JanitorInterval)

	// HTTP surface.
	h := httpapi.NewHandler(
		httpapi.Config{TaxRate: taxRate, AdminSecret: cfg.AdminSecret},
		categoryRepo, productRepo, authSvc, sessions, orderSvc, userRepo, statsRepo,
	)

	mux := http.NewServeMux()
	mux.Handle("/livez", healthSvc.LiveHandler())
	mux.Handle("/readyz", healthSvc.ReadyHandler())
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Admin-Secret"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
