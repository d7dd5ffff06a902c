package router

import (
	"github.com/fieldservice/backend/internal/infrastructure/logger"
	"github.com/fieldservice/backend/internal/interfaces/http/handler"
	"github.com/fieldservice/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	defaultMaxBodyBytes        = 1 << 20
	defaultWebhookMaxBodyBytes = 64 << 10
)

// Config controls the engine middleware stack
type Config struct {
	Logger              *zap.Logger
	ServiceName         string
	TracingEnabled      bool
	Meter               metric.Meter
	MaxBodyBytes        int64
	WebhookMaxBodyBytes int64
	TrustedProxies      []string
	// SwaggerEnabled serves the registered OpenAPI document at /swagger
	SwaggerEnabled bool
}

// Handlers are the HTTP handlers mounted by New
type Handlers struct {
	EstimateBilling *handler.EstimateBillingHandler
	PaymentWebhook  *handler.PaymentWebhookHandler
	Bundle          *handler.BundleHandler
	System          *handler.SystemHandler
}

// New builds the gin engine with the middleware stack and every route.
// Tenant routes require X-Tenant-ID; webhook routes are tenantless and have
// their own body limit.
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.WebhookMaxBodyBytes <= 0 {
		cfg.WebhookMaxBodyBytes = defaultWebhookMaxBodyBytes
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(cfg.Meter, log),
		middleware.Secure(),
	)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if cfg.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	tenant := []gin.HandlerFunc{
		middleware.BodyLimit(cfg.MaxBodyBytes),
		middleware.Actor(),
		middleware.TracingAttributeInjector(),
	}

	r := NewRouter(engine)

	if h.EstimateBilling != nil || h.Bundle != nil {
		estimates := NewDomainGroup("estimates", "/estimates").Use(tenant...)
		if h.EstimateBilling != nil {
			estimates.POST("/:id/convert-to-invoice", h.EstimateBilling.ConvertToInvoice)
		}
		if h.Bundle != nil {
			estimates.POST("/:id/bundles", h.Bundle.ApplyToEstimate)
		}
		r.Register(estimates)
	}

	if h.Bundle != nil {
		r.Register(NewDomainGroup("bundles", "/bundles").
			Use(tenant...).
			POST("", h.Bundle.CreateBundle).
			GET("/:id/flatten", h.Bundle.Flatten).
			POST("/:id/recalculate", h.Bundle.RecalculateRollup))
	}

	if h.PaymentWebhook != nil {
		r.Register(NewDomainGroup("webhooks", "/webhooks/payments").
			Use(middleware.BodyLimit(cfg.WebhookMaxBodyBytes)).
			POST("", h.PaymentWebhook.Receive).
			POST("/:provider", h.PaymentWebhook.Receive))
	}

	if h.System != nil {
		r.Register(NewDomainGroup("system", "/system").GET("/info", h.System.GetSystemInfo))
	}

	r.Setup()
	return engine, nil
}
