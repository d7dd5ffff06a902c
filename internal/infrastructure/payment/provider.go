// Package payment adapts hosted payment providers to the billing ports:
// payment link creation on invoice conversion and webhook payload
// resolution on payment.
package payment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Provider names
const (
	ProviderGateway     = "gateway"
	ProviderMercadoPago = config.PaymentProviderMercadoPago
	ProviderNoop        = config.PaymentProviderNoop
)

// ErrInvalidPayload marks a webhook body that cannot be decoded
var ErrInvalidPayload = shared.NewValidationError("INVALID_PAYMENT_PAYLOAD", "Invalid payment payload")

// ErrUnknownProvider is returned for a webhook addressed to a provider that
// is not configured
var ErrUnknownProvider = shared.NewNotFoundError("UNKNOWN_PAYMENT_PROVIDER", "Unknown payment provider")

// GatewayResolver normalizes form-style gateway callbacks that carry the
// result, invoice id and amount in the body itself
type GatewayResolver struct{}

// Name returns the provider name
func (GatewayResolver) Name() string {
	return ProviderGateway
}

// ResolvePaymentEvent normalizes the payload without calling out
func (GatewayResolver) ResolvePaymentEvent(_ context.Context, raw []byte) (billing.PaymentEvent, error) {
	evt, err := billing.NormalizeGatewayPayload(ProviderGateway, raw)
	if err != nil {
		return billing.PaymentEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return evt, nil
}

// Registry holds the configured link provider and webhook resolvers
type Registry struct {
	links     billing.PaymentLinkProvider
	resolvers map[string]billing.PaymentEventResolver
}

// NewRegistry builds the providers selected by cfg. The gateway resolver is
// always available; Mercado Pago adds a link provider and its own resolver.
func NewRegistry(cfg config.PaymentConfig, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{resolvers: map[string]billing.PaymentEventResolver{}}
	r.Register(GatewayResolver{})

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNoop:
		logger.Info("Payment links disabled")
	case ProviderMercadoPago:
		links, err := NewMercadoPagoLinkProvider(cfg, logger)
		if err != nil {
			return nil, err
		}
		resolver, err := NewMercadoPagoResolver(cfg)
		if err != nil {
			return nil, err
		}
		r.links = links
		r.Register(resolver)
		logger.Info("Payment provider configured", zap.String("provider", ProviderMercadoPago))
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
	return r, nil
}

// Register adds or replaces a resolver under its name
func (r *Registry) Register(resolver billing.PaymentEventResolver) {
	r.resolvers[resolver.Name()] = resolver
}

// LinkProvider returns the configured link provider, or nil when links are
// disabled
func (r *Registry) LinkProvider() billing.PaymentLinkProvider {
	return r.links
}

// Resolver returns the resolver for provider. An empty name selects the
// gateway resolver.
func (r *Registry) Resolver(provider string) (billing.PaymentEventResolver, error) {
	if provider == "" {
		provider = ProviderGateway
	}
	resolver, ok := r.resolvers[strings.ToLower(provider)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return resolver, nil
}

// Providers lists the registered resolver names in order
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
