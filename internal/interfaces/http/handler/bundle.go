package handler

import (
	"context"

	appcatalog "github.com/fieldservice/backend/internal/application/catalog"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BundleManager is the bundle use-case surface the handler needs
type BundleManager interface {
	CreateBundle(ctx context.Context, actor shared.Actor, cmd appcatalog.CreateBundleCommand) (*appcatalog.BundleResult, error)
	Flatten(ctx context.Context, tenantID, bundleID uuid.UUID) (*appcatalog.FlattenResult, error)
	RecalculateRollup(ctx context.Context, tenantID, bundleID uuid.UUID) (*catalog.Rollup, error)
	ApplyBundleToEstimate(ctx context.Context, actor shared.Actor, cmd appcatalog.ApplyBundleCommand) (*appcatalog.AppliedBundle, error)
}

// BundleHandler handles bundle composition and expansion endpoints
type BundleHandler struct {
	BaseHandler
	bundles BundleManager
}

// NewBundleHandler creates a new BundleHandler
func NewBundleHandler(bundles BundleManager) *BundleHandler {
	return &BundleHandler{bundles: bundles}
}

// CreateBundle godoc
// @ID           createBundle
// @Summary      Create a bundle item
// @Description  Creates a BUNDLE item and its component list; circular compositions are rejected
// @Tags         bundles
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateBundleRequest true "Bundle"
// @Success      201 {object} dto.Response{data=dto.BundleResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /bundles [post]
func (h *BundleHandler) CreateBundle(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req dto.CreateBundleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cmd := appcatalog.CreateBundleCommand{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Components:  make([]appcatalog.ComponentCommand, 0, len(req.Components)),
	}
	for _, comp := range req.Components {
		cmd.Components = append(cmd.Components, appcatalog.ComponentCommand{
			Type:              comp.Type,
			ItemID:            comp.ItemID,
			BundleID:          comp.BundleID,
			Quantity:          comp.Quantity,
			UnitPriceOverride: comp.UnitPriceOverride,
			UnitCostOverride:  comp.UnitCostOverride,
		})
	}

	result, err := h.bundles.CreateBundle(c.Request.Context(), actor, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.BundleResponse{
		Item:       dto.ToItemResponse(result.Item),
		Definition: dto.ToBundleDefinitionResponse(result.Definition),
		Rollup:     result.Rollup,
	})
}

// Flatten godoc
// @ID           flattenBundle
// @Summary      Preview a flattened bundle
// @Description  Returns the leaf components of a bundle with multiplied quantities and the price/cost rollup
// @Tags         bundles
// @Produce      json
// @Param        id path string true "Bundle item ID" format(uuid)
// @Success      200 {object} dto.Response{data=appcatalog.FlattenResult}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /bundles/{id}/flatten [get]
func (h *BundleHandler) Flatten(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	bundleID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.bundles.Flatten(c.Request.Context(), actor.TenantID, bundleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecalculateRollup godoc
// @ID           recalculateBundleRollup
// @Summary      Recalculate a bundle's rolled-up price and cost
// @Tags         bundles
// @Produce      json
// @Param        id path string true "Bundle item ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.Rollup}
// @Failure      404 {object} dto.Response
// @Router       /bundles/{id}/recalculate [post]
func (h *BundleHandler) RecalculateRollup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	bundleID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	rollup, err := h.bundles.RecalculateRollup(c.Request.Context(), actor.TenantID, bundleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rollup)
}

// ApplyToEstimate godoc
// @ID           applyBundleToEstimate
// @Summary      Expand a bundle onto an estimate
// @Description  Adds one line per flattened component under a new line group and recomputes the estimate totals
// @Tags         bundles
// @Accept       json
// @Produce      json
// @Param        id path string true "Estimate ID" format(uuid)
// @Param        request body dto.ApplyBundleRequest true "Bundle"
// @Success      201 {object} dto.Response{data=dto.AppliedBundleResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /estimates/{id}/bundles [post]
func (h *BundleHandler) ApplyToEstimate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	estimateID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.ApplyBundleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.bundles.ApplyBundleToEstimate(c.Request.Context(), actor, appcatalog.ApplyBundleCommand{
		EstimateID: estimateID,
		BundleID:   uuid.MustParse(req.BundleID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.AppliedBundleResponse{
		Group:     dto.ToLineGroupResponse(result.Group),
		LineItems: dto.ToLineItemResponses(result.LineItems),
		Estimate:  dto.ToEstimateResponse(result.Estimate),
	})
}
