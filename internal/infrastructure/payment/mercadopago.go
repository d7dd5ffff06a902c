package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/fieldservice/backend/internal/infrastructure/config"
	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"
)

var (
	ErrMissingAccessToken = errors.New("missing mercado pago access token")
	ErrEmptyInitPoint     = errors.New("mercado pago preference has no init point")
)

const (
	// mercadoPagoApproved is the only payment status that credits an invoice
	mercadoPagoApproved = "approved"
	defaultTimeout      = 15 * time.Second
)

// MercadoPagoLinkProvider creates hosted checkout links as Mercado Pago
// preferences. The invoice id travels as the preference external reference
// so the webhook can find the invoice again.
type MercadoPagoLinkProvider struct {
	preferences preference.Client
	currency    string
	logger      *zap.Logger
}

// NewMercadoPagoLinkProvider creates a provider authenticated with the
// configured access token
func NewMercadoPagoLinkProvider(cfg config.PaymentConfig, logger *zap.Logger) (*MercadoPagoLinkProvider, error) {
	sdkCfg, err := newSDKConfig(cfg.AccessToken, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return newMercadoPagoLinkProvider(preference.NewClient(sdkCfg), cfg.Currency, logger), nil
}

func newMercadoPagoLinkProvider(client preference.Client, currency string, logger *zap.Logger) *MercadoPagoLinkProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "USD"
	}
	return &MercadoPagoLinkProvider{preferences: client, currency: strings.ToUpper(currency), logger: logger}
}

func newSDKConfig(accessToken string, timeout time.Duration) (*mpconfig.Config, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingAccessToken
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg, err := mpconfig.New(accessToken, mpconfig.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("create mercado pago config: %w", err)
	}
	return cfg, nil
}

// Name returns the provider name
func (p *MercadoPagoLinkProvider) Name() string {
	return ProviderMercadoPago
}

// CreatePaymentLink creates a single-item preference for the invoice balance
func (p *MercadoPagoLinkProvider) CreatePaymentLink(ctx context.Context, req billing.PaymentLinkRequest) (*billing.PaymentLink, error) {
	amount, _ := req.Amount.Amount().Float64()

	prefReq := preference.Request{
		ExternalReference: req.InvoiceID.String(),
		NotificationURL:   req.WebhookURL,
		Items: []preference.ItemRequest{{
			ID:          req.InvoiceNumber,
			Title:       req.Description,
			Quantity:    1,
			UnitPrice:   amount,
			CurrencyID:  p.currency,
			Description: req.Description,
		}},
		Metadata: map[string]any{
			"invoice_id":     req.InvoiceID.String(),
			"invoice_number": req.InvoiceNumber,
		},
	}
	if req.ReturnURL != "" {
		prefReq.BackURLs = &preference.BackURLsRequest{
			Success: req.ReturnURL,
			Pending: req.ReturnURL,
			Failure: req.ReturnURL,
		}
		prefReq.AutoReturn = mercadoPagoApproved
	}
	if req.PayerEmail != "" || req.PayerName != "" {
		prefReq.Payer = &preference.PayerRequest{Name: req.PayerName, Email: req.PayerEmail}
	}

	resp, err := p.preferences.Create(ctx, prefReq)
	if err != nil {
		return nil, fmt.Errorf("create mercado pago preference: %w", err)
	}
	if resp.InitPoint == "" {
		return nil, ErrEmptyInitPoint
	}

	p.logger.Debug("Mercado Pago preference created",
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("preference_id", resp.ID))
	return &billing.PaymentLink{URL: resp.InitPoint, ProviderTransactionID: resp.ID}, nil
}

// MercadoPagoResolver turns Mercado Pago webhook notifications into payment
// events. Notifications only carry the payment id, so the payment itself is
// fetched from the API before anything is trusted.
type MercadoPagoResolver struct {
	payments mppayment.Client
}

// NewMercadoPagoResolver creates a resolver authenticated with the
// configured access token
func NewMercadoPagoResolver(cfg config.PaymentConfig) (*MercadoPagoResolver, error) {
	sdkCfg, err := newSDKConfig(cfg.AccessToken, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &MercadoPagoResolver{payments: mppayment.NewClient(sdkCfg)}, nil
}

// mercadoPagoNotification is the webhook body Mercado Pago posts
type mercadoPagoNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Name returns the provider name
func (r *MercadoPagoResolver) Name() string {
	return ProviderMercadoPago
}

// ResolvePaymentEvent fetches the notified payment. Notifications about
// anything other than a payment resolve to a non-success event.
func (r *MercadoPagoResolver) ResolvePaymentEvent(ctx context.Context, raw []byte) (billing.PaymentEvent, error) {
	evt := billing.PaymentEvent{Provider: ProviderMercadoPago, Raw: json.RawMessage(raw)}

	var n mercadoPagoNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return billing.PaymentEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if n.Type != "payment" {
		return evt, nil
	}

	id, err := parseNotificationID(n.Data.ID)
	if err != nil {
		return billing.PaymentEvent{}, err
	}

	p, err := r.payments.Get(ctx, id)
	if err != nil {
		return billing.PaymentEvent{}, fmt.Errorf("get mercado pago payment %d: %w", id, err)
	}

	evt.Success = p.Status == mercadoPagoApproved
	evt.InvoiceID = p.ExternalReference
	evt.TransactionID = strconv.Itoa(p.ID)
	if p.TransactionAmount > 0 {
		amt := valueobject.NewMoneyFromFloat(p.TransactionAmount)
		evt.Amount = &amt
	}
	return evt, nil
}

// parseNotificationID accepts the payment id as a JSON number or string
func parseNotificationID(raw json.RawMessage) (int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid payment id %q", ErrInvalidPayload, s)
	}
	return id, nil
}
