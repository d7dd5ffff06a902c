package catalog

import (
	"sort"
	"strings"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentType is the edge type of the bundle composition graph
type ComponentType string

const (
	ComponentTypeItem   ComponentType = "ITEM"
	ComponentTypeBundle ComponentType = "BUNDLE"
)

// PricingStrategy determines how a bundle item's default price is derived
type PricingStrategy string

const (
	// PricingSumComponents prices a bundle at the sum of its flattened components
	PricingSumComponents PricingStrategy = "SUM_COMPONENTS"
)

// ErrCircularBundle is returned when a bundle is its own ancestor
var ErrCircularBundle = shared.NewConflictError("CIRCULAR_BUNDLE_REFERENCE", "Circular bundle reference detected")

// BundleComponent is one entry of a bundle definition. It references exactly
// one of a catalog item or another bundle definition.
type BundleComponent struct {
	ID                uuid.UUID
	BundleID          uuid.UUID
	Type              ComponentType
	ItemID            *uuid.UUID
	ChildBundleID     *uuid.UUID
	Quantity          decimal.Decimal
	UnitPriceOverride *valueobject.Money
	UnitCostOverride  *valueobject.Money
	SortOrder         int
}

// Validate checks the component's reference and quantity
func (c BundleComponent) Validate() error {
	switch c.Type {
	case ComponentTypeItem:
		if c.ItemID == nil || c.ChildBundleID != nil {
			return shared.NewValidationError("INVALID_BUNDLE_COMPONENT", "An ITEM component must reference an item and no bundle")
		}
	case ComponentTypeBundle:
		if c.ChildBundleID == nil || c.ItemID != nil {
			return shared.NewValidationError("INVALID_BUNDLE_COMPONENT", "A BUNDLE component must reference a bundle and no item")
		}
	default:
		return shared.NewValidationError("INVALID_BUNDLE_COMPONENT", "Component type must be ITEM or BUNDLE")
	}
	if c.Quantity.IsNegative() {
		return shared.NewValidationError("INVALID_BUNDLE_COMPONENT", "Component quantity cannot be negative")
	}
	if c.UnitPriceOverride != nil && c.UnitPriceOverride.IsNegative() {
		return shared.NewValidationError("INVALID_BUNDLE_COMPONENT", "Component price override cannot be negative")
	}
	if c.UnitCostOverride != nil && c.UnitCostOverride.IsNegative() {
		return shared.NewValidationError("INVALID_BUNDLE_COMPONENT", "Component cost override cannot be negative")
	}
	return nil
}

// BundleDefinition owns the ordered component list of a bundle item
type BundleDefinition struct {
	shared.TenantEntity
	ItemID          uuid.UUID
	Name            string
	PricingStrategy PricingStrategy
	IsActive        bool
	Components      []BundleComponent
}

// ComponentInput describes a component when authoring a bundle
type ComponentInput struct {
	Type              ComponentType
	ItemID            *uuid.UUID
	ChildBundleID     *uuid.UUID
	Quantity          decimal.Decimal
	UnitPriceOverride *valueobject.Money
	UnitCostOverride  *valueobject.Money
}

// NewBundleDefinition creates a bundle definition for a bundle item.
// Components keep their input order as their sort order.
func NewBundleDefinition(item *Item, components []ComponentInput) (*BundleDefinition, error) {
	if item == nil || !item.IsBundle() {
		return nil, shared.NewValidationError("INVALID_BUNDLE_ITEM", "A bundle definition must belong to a BUNDLE item")
	}
	if len(components) == 0 {
		return nil, shared.NewValidationError("EMPTY_BUNDLE", "Bundle must contain at least one component")
	}

	def := &BundleDefinition{
		TenantEntity:    shared.NewTenantEntity(item.TenantID),
		ItemID:          item.ID,
		Name:            strings.TrimSpace(item.Name),
		PricingStrategy: PricingSumComponents,
		IsActive:        true,
		Components:      make([]BundleComponent, 0, len(components)),
	}

	for i, in := range components {
		c := BundleComponent{
			ID:                uuid.New(),
			BundleID:          def.ID,
			Type:              in.Type,
			ItemID:            in.ItemID,
			ChildBundleID:     in.ChildBundleID,
			Quantity:          in.Quantity,
			UnitPriceOverride: in.UnitPriceOverride,
			UnitCostOverride:  in.UnitCostOverride,
			SortOrder:         i,
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.ChildBundleID != nil && *c.ChildBundleID == def.ID {
			return nil, ErrCircularBundle
		}
		def.Components = append(def.Components, c)
	}

	return def, nil
}

// OrderedComponents returns the components sorted by sort order. The
// receiver's slice is not modified.
func (b *BundleDefinition) OrderedComponents() []BundleComponent {
	out := make([]BundleComponent, len(b.Components))
	copy(out, b.Components)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// ItemIDs returns the ids of the items directly referenced by the bundle
func (b *BundleDefinition) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Components))
	for _, c := range b.Components {
		if c.Type == ComponentTypeItem && c.ItemID != nil {
			ids = append(ids, *c.ItemID)
		}
	}
	return ids
}
