package catalog

import (
	"strings"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ItemKind distinguishes plain catalog items from bundles
type ItemKind string

const (
	ItemKindSingle ItemKind = "SINGLE"
	ItemKindBundle ItemKind = "BUNDLE"
)

// IsValid checks if the kind is known
func (k ItemKind) IsValid() bool {
	return k == ItemKindSingle || k == ItemKindBundle
}

// Item is a catalog entry that can be placed on documents or composed into
// bundles. A BUNDLE item owns exactly one BundleDefinition.
type Item struct {
	shared.TenantEntity
	Name        string
	Description string
	Unit        string
	Kind        ItemKind
	UnitPrice   valueobject.Money
	UnitCost    *valueobject.Money
	IsActive    bool
}

// NewItem creates a new catalog item
func NewItem(tenantID uuid.UUID, name string, kind ItemKind, unitPrice valueobject.Money, unitCost *valueobject.Money) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("INVALID_ITEM_NAME", "Item name cannot exceed 200 characters")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_ITEM_KIND", "Item kind must be SINGLE or BUNDLE")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_ITEM_PRICE", "Item price cannot be negative")
	}
	if unitCost != nil && unitCost.IsNegative() {
		return nil, shared.NewValidationError("INVALID_ITEM_COST", "Item cost cannot be negative")
	}

	return &Item{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		Unit:         "each",
		Kind:         kind,
		UnitPrice:    unitPrice,
		UnitCost:     unitCost,
		IsActive:     true,
	}, nil
}

// IsBundle returns true for bundle items
func (i *Item) IsBundle() bool {
	return i.Kind == ItemKindBundle
}

// ApplyRollup replaces the item's default price and cost with a bundle
// rollup. Only bundle items carry derived defaults.
func (i *Item) ApplyRollup(r Rollup) error {
	if !i.IsBundle() {
		return shared.NewInvalidStateError("NOT_A_BUNDLE", "Only bundle items can take a component rollup")
	}
	i.UnitPrice = r.UnitPrice
	cost := r.UnitCost
	i.UnitCost = &cost
	i.Touch()
	return nil
}
