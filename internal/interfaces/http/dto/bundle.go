package dto

import (
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BundleComponentRequest is one component of a bundle being created.
// Exactly one of item_id and bundle_id is set, matching type.
type BundleComponentRequest struct {
	Type              string           `json:"type" binding:"required,oneof=ITEM BUNDLE"`
	ItemID            *uuid.UUID       `json:"item_id"`
	BundleID          *uuid.UUID       `json:"bundle_id"`
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitPriceOverride *decimal.Decimal `json:"unit_price_override"`
	UnitCostOverride  *decimal.Decimal `json:"unit_cost_override"`
}

// CreateBundleRequest is the body of POST /bundles
type CreateBundleRequest struct {
	Name        string                   `json:"name" binding:"required,max=200"`
	Description string                   `json:"description" binding:"max=2000"`
	Unit        string                   `json:"unit" binding:"max=20"`
	Components  []BundleComponentRequest `json:"components" binding:"required,min=1,dive"`
}

// ApplyBundleRequest is the body of POST /estimates/:id/bundles
type ApplyBundleRequest struct {
	BundleID string `json:"bundle_id" binding:"required,uuid"`
}

// ItemResponse is a catalog item
type ItemResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Unit        string             `json:"unit,omitempty"`
	Kind        string             `json:"kind"`
	UnitPrice   valueobject.Money  `json:"unit_price"`
	UnitCost    *valueobject.Money `json:"unit_cost,omitempty"`
	IsActive    bool               `json:"is_active"`
	TimestampResponse
}

// BundleComponentResponse is one stored edge of a bundle definition
type BundleComponentResponse struct {
	ID                uuid.UUID          `json:"id"`
	Type              string             `json:"type"`
	ItemID            *uuid.UUID         `json:"item_id,omitempty"`
	BundleID          *uuid.UUID         `json:"bundle_id,omitempty"`
	Quantity          decimal.Decimal    `json:"quantity"`
	UnitPriceOverride *valueobject.Money `json:"unit_price_override,omitempty"`
	UnitCostOverride  *valueobject.Money `json:"unit_cost_override,omitempty"`
	SortOrder         int                `json:"sort_order"`
}

// BundleDefinitionResponse is a bundle definition with its components
type BundleDefinitionResponse struct {
	ID              uuid.UUID                 `json:"id"`
	ItemID          uuid.UUID                 `json:"item_id"`
	Name            string                    `json:"name"`
	PricingStrategy string                    `json:"pricing_strategy"`
	IsActive        bool                      `json:"is_active"`
	Components      []BundleComponentResponse `json:"components"`
}

// BundleResponse is returned when a bundle is created
type BundleResponse struct {
	Item       ItemResponse             `json:"item"`
	Definition BundleDefinitionResponse `json:"definition"`
	Rollup     catalog.Rollup           `json:"rollup"`
}

// LineGroupResponse is the group created for one bundle expansion
type LineGroupResponse struct {
	ID               uuid.UUID  `json:"id"`
	DocumentType     string     `json:"document_type"`
	DocumentID       uuid.UUID  `json:"document_id"`
	Name             string     `json:"name"`
	SourceBundleID   *uuid.UUID `json:"source_bundle_id,omitempty"`
	SourceBundleName string     `json:"source_bundle_name,omitempty"`
	SortOrder        int        `json:"sort_order"`
}

// AppliedBundleResponse is returned when a bundle is expanded onto an estimate
type AppliedBundleResponse struct {
	Group     LineGroupResponse  `json:"group"`
	LineItems []LineItemResponse `json:"line_items"`
	Estimate  EstimateResponse   `json:"estimate"`
}

// ToItemResponse converts a catalog item
func ToItemResponse(item *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Unit:        item.Unit,
		Kind:        string(item.Kind),
		UnitPrice:   item.UnitPrice,
		UnitCost:    item.UnitCost,
		IsActive:    item.IsActive,
		TimestampResponse: TimestampResponse{
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
	}
}

// ToBundleDefinitionResponse converts a bundle definition
func ToBundleDefinitionResponse(def *catalog.BundleDefinition) BundleDefinitionResponse {
	components := make([]BundleComponentResponse, 0, len(def.Components))
	for _, c := range def.Components {
		components = append(components, BundleComponentResponse{
			ID:                c.ID,
			Type:              string(c.Type),
			ItemID:            c.ItemID,
			BundleID:          c.ChildBundleID,
			Quantity:          c.Quantity,
			UnitPriceOverride: c.UnitPriceOverride,
			UnitCostOverride:  c.UnitCostOverride,
			SortOrder:         c.SortOrder,
		})
	}
	return BundleDefinitionResponse{
		ID:              def.ID,
		ItemID:          def.ItemID,
		Name:            def.Name,
		PricingStrategy: string(def.PricingStrategy),
		IsActive:        def.IsActive,
		Components:      components,
	}
}

// ToLineGroupResponse converts a document line group
func ToLineGroupResponse(g *billing.DocumentLineGroup) LineGroupResponse {
	return LineGroupResponse{
		ID:               g.ID,
		DocumentType:     string(g.DocumentType),
		DocumentID:       g.DocumentID,
		Name:             g.Name,
		SourceBundleID:   g.SourceBundleID,
		SourceBundleName: g.SourceBundleName,
		SortOrder:        g.SortOrder,
	}
}
