package handler

import (
	"context"

	appbilling "github.com/fieldservice/backend/internal/application/billing"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// EstimateConverter turns an accepted estimate into an invoice
type EstimateConverter interface {
	ConvertEstimate(ctx context.Context, actor shared.Actor, cmd appbilling.ConvertEstimateCommand) (*appbilling.ConversionResult, error)
}

// EstimateBillingHandler handles estimate-to-invoice conversion
type EstimateBillingHandler struct {
	BaseHandler
	converter EstimateConverter
}

// NewEstimateBillingHandler creates a new EstimateBillingHandler
func NewEstimateBillingHandler(converter EstimateConverter) *EstimateBillingHandler {
	return &EstimateBillingHandler{converter: converter}
}

// ConvertToInvoice godoc
// @ID           convertEstimateToInvoice
// @Summary      Convert an estimate to an invoice
// @Description  Bills the estimate in FULL, PERCENTAGE or MANUAL mode and requests a payment link. An empty body bills in FULL mode.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        id path string true "Estimate ID" format(uuid)
// @Param        request body dto.ConvertEstimateRequest false "Billing mode"
// @Success      201 {object} dto.Response{data=dto.ConversionResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /estimates/{id}/convert-to-invoice [post]
func (h *EstimateBillingHandler) ConvertToInvoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	estimateID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.ConvertEstimateRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.converter.ConvertEstimate(c.Request.Context(), actor, appbilling.ConvertEstimateCommand{
		EstimateID:          estimateID,
		BillingMode:         req.BillingMode,
		Percentage:          req.Percentage,
		SelectedLineItemIDs: req.SelectedLineItemIDs,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ConversionResponse{
		Invoice:          dto.ToInvoiceResponse(result.Invoice),
		PaymentLinkError: result.PaymentLinkErr != nil,
	})
}
