package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	appbilling "github.com/fieldservice/backend/internal/application/billing"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/infrastructure/logger"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentEventProcessor reconciles a normalized payment event
type PaymentEventProcessor interface {
	HandlePaymentEvent(ctx context.Context, evt billing.PaymentEvent) (*appbilling.PaymentEventResult, error)
}

// ResolverLookup finds the webhook resolver for a provider; an empty name
// selects the default gateway format
type ResolverLookup interface {
	Resolver(provider string) (billing.PaymentEventResolver, error)
}

// PaymentWebhookHandler receives payment provider callbacks. Webhooks carry
// no tenant header; the tenant is taken from the invoice they reference.
type PaymentWebhookHandler struct {
	BaseHandler
	events    PaymentEventProcessor
	resolvers ResolverLookup
}

// NewPaymentWebhookHandler creates a new PaymentWebhookHandler
func NewPaymentWebhookHandler(events PaymentEventProcessor, resolvers ResolverLookup) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{events: events, resolvers: resolvers}
}

// Receive godoc
// @ID           receivePaymentWebhook
// @Summary      Receive a payment webhook
// @Description  Applies a successful payment to its invoice and ensures the job exists. Redeliveries are acknowledged without a second credit.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider path string false "Payment provider"
// @Success      200 {object} dto.PaymentWebhookResponse
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /webhooks/payments [post]
// @Router       /webhooks/payments/{provider} [post]
func (h *PaymentWebhookHandler) Receive(c *gin.Context) {
	resolver, err := h.resolvers.Resolver(c.Param("provider"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, dto.ErrCodeBadRequest, "Failed to read request body")
		return
	}
	if !json.Valid(raw) {
		h.BadRequest(c, dto.ErrCodeInvalidJSON, "Invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	evt, err := resolver.ResolvePaymentEvent(ctx, raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.events.HandlePaymentEvent(ctx, evt)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.PaymentWebhookResponse{
		OK:        true,
		Ignored:   result.Outcome == appbilling.OutcomeIgnored,
		Duplicate: result.Outcome == appbilling.OutcomeDuplicate,
	}
	if result.Job != nil {
		resp.JobID = result.Job.JobID
	}

	logger.FromGin(c).Info("Payment webhook processed",
		zap.String("provider", resolver.Name()),
		zap.String("outcome", result.Outcome))
	c.JSON(http.StatusOK, resp)
}
