package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/fieldservice/backend/docs"
	appbilling "github.com/fieldservice/backend/internal/application/billing"
	appcatalog "github.com/fieldservice/backend/internal/application/catalog"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/cache"
	"github.com/fieldservice/backend/internal/infrastructure/config"
	"github.com/fieldservice/backend/internal/infrastructure/logger"
	"github.com/fieldservice/backend/internal/infrastructure/payment"
	"github.com/fieldservice/backend/internal/infrastructure/persistence"
	"github.com/fieldservice/backend/internal/infrastructure/telemetry"
	"github.com/fieldservice/backend/internal/interfaces/http/handler"
	"github.com/fieldservice/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Field Service Billing API
//	@version		1.0
//	@description	Estimates, progress invoices, bundle flattening and payment reconciliation.
//	@BasePath		/api/v1

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const slowQueryThreshold = 200 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync(log)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version))

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	log = lp.BridgeLogger(log, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Logger provider shutdown failed", zap.Error(err))
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	dbMetrics, err := telemetry.NewDBMetrics(mp.Meter("db.client"), slowQueryThreshold, log)
	if err != nil {
		return fmt.Errorf("failed to create database metrics: %w", err)
	}
	defer dbMetrics.Stop()

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), slowQueryThreshold)),
		persistence.WithPlugin(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry), log)),
		persistence.WithPlugin(dbMetrics),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Database close failed", zap.Error(err))
		}
	}()
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	idempotency, err := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = idempotency.Close()
	}()

	payments, err := payment.NewRegistry(cfg.Payment, log)
	if err != nil {
		return fmt.Errorf("failed to configure payment provider: %w", err)
	}

	billingMetrics, err := telemetry.NewBillingMetrics(mp.Meter(telemetry.BillingMeterName))
	if err != nil {
		return fmt.Errorf("failed to create billing metrics: %w", err)
	}

	handlers := wireHandlers(cfg, db, payments, idempotency, billingMetrics, log)
	handlers.System = handler.NewSystemHandler(cfg.App.Name, version, sqlDB)

	engine, err := router.New(router.Config{
		Logger:              log,
		ServiceName:         cfg.Telemetry.ServiceName,
		TracingEnabled:      tp.IsEnabled(),
		Meter:               mp.Meter("http.server"),
		WebhookMaxBodyBytes: cfg.Billing.WebhookMaxBodyBytes,
		TrustedProxies:      cfg.HTTP.TrustedProxies,
		SwaggerEnabled:      !cfg.App.IsProduction(),
	}, handlers)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}

// wireHandlers builds repositories, services and the handlers that use them
func wireHandlers(
	cfg *config.Config,
	db *persistence.Database,
	payments *payment.Registry,
	idempotency shared.IdempotencyStore,
	metrics *telemetry.BillingMetrics,
	log *zap.Logger,
) router.Handlers {
	clients := persistence.NewGormClientRepository(db.DB)
	users := persistence.NewGormUserRepository(db.DB)
	notifier := persistence.NewGormNotifier(db.DB)
	billingScope := persistence.NewGormBillingTransactionScope(db.DB)

	conversionCfg := appbilling.ConversionServiceConfig{
		TxScope:   billingScope,
		Clients:   clients,
		PublicURL: cfg.Billing.PublicURL,
		Metrics:   metrics,
		Logger:    log.Named("conversion"),
	}
	// links are disabled for the noop provider
	if links := payments.LinkProvider(); links != nil {
		conversionCfg.LinkProvider = links
		conversionCfg.WebhookPath = webhookPath(links)
	}
	conversion := appbilling.NewConversionService(conversionCfg)

	materializer := appbilling.NewJobMaterializer(appbilling.JobMaterializerConfig{
		TxScope:  billingScope,
		Users:    users,
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   log.Named("jobs"),
	})

	reconciliation := appbilling.NewReconciliationService(appbilling.ReconciliationServiceConfig{
		TxScope:      billingScope,
		Invoices:     persistence.NewGormInvoiceRepository(db.DB),
		Payments:     persistence.NewGormPaymentRepository(db.DB),
		Clients:      clients,
		Users:        users,
		Notifier:     notifier,
		Materializer: materializer,
		Idempotency:  idempotency,
		IdempotencyConfig: shared.IdempotencyConfig{
			TTL:     cfg.Billing.IdempotencyTTL,
			Enabled: cfg.Billing.IdempotencyEnabled,
		},
		Metrics: metrics,
		Logger:  log.Named("reconciliation"),
	})

	bundles := appcatalog.NewBundleService(appcatalog.BundleServiceConfig{
		TxScope: persistence.NewGormCatalogTransactionScope(db.DB),
		Items:   persistence.NewGormItemRepository(db.DB),
		Bundles: persistence.NewGormBundleRepository(db.DB),
		Logger:  log.Named("bundles"),
	})

	return router.Handlers{
		EstimateBilling: handler.NewEstimateBillingHandler(conversion),
		PaymentWebhook:  handler.NewPaymentWebhookHandler(reconciliation, payments),
		Bundle:          handler.NewBundleHandler(bundles),
	}
}

// webhookPath routes provider notifications to the provider's own resolver
func webhookPath(links billing.PaymentLinkProvider) string {
	return appbilling.DefaultWebhookPath + "/" + links.Name()
}
