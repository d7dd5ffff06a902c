package catalog

import (
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentCommand is one component of a bundle being authored
type ComponentCommand struct {
	Type              string          `validate:"required,oneof=ITEM BUNDLE"`
	ItemID            *uuid.UUID      `validate:"required_if=Type ITEM,excluded_if=Type BUNDLE"`
	BundleID          *uuid.UUID      `validate:"required_if=Type BUNDLE,excluded_if=Type ITEM"`
	Quantity          decimal.Decimal `validate:"-"`
	UnitPriceOverride *decimal.Decimal
	UnitCostOverride  *decimal.Decimal
}

func (c ComponentCommand) input() catalog.ComponentInput {
	in := catalog.ComponentInput{
		Type:          catalog.ComponentType(c.Type),
		ItemID:        c.ItemID,
		ChildBundleID: c.BundleID,
		Quantity:      c.Quantity,
	}
	if c.UnitPriceOverride != nil {
		m := valueobject.NewMoney(*c.UnitPriceOverride)
		in.UnitPriceOverride = &m
	}
	if c.UnitCostOverride != nil {
		m := valueobject.NewMoney(*c.UnitCostOverride)
		in.UnitCostOverride = &m
	}
	return in
}

// CreateBundleCommand authors a BUNDLE catalog item with its components
type CreateBundleCommand struct {
	Name        string             `validate:"required,max=200"`
	Description string             `validate:"max=2000"`
	Unit        string             `validate:"max=20"`
	Components  []ComponentCommand `validate:"required,min=1,dive"`
}

// ApplyBundleCommand adds a bundle's flattened lines to an estimate
type ApplyBundleCommand struct {
	EstimateID uuid.UUID `validate:"required"`
	BundleID   uuid.UUID `validate:"required"`
}

// FlattenResult is a bundle expanded to priced leaves plus its rollup
type FlattenResult struct {
	BundleID   uuid.UUID                    `json:"bundle_id"`
	Components []catalog.FlattenedComponent `json:"components"`
	Rollup     catalog.Rollup               `json:"rollup"`
}

// BundleResult is a created bundle item with its definition
type BundleResult struct {
	Item       *catalog.Item             `json:"item"`
	Definition *catalog.BundleDefinition `json:"definition"`
	Rollup     catalog.Rollup            `json:"rollup"`
}

// AppliedBundle is the group and lines added to an estimate
type AppliedBundle struct {
	Group     *billing.DocumentLineGroup `json:"group"`
	LineItems []billing.LineItem         `json:"line_items"`
	Estimate  *billing.Estimate          `json:"estimate"`
}
