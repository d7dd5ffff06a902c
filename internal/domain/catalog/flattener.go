package catalog

import (
	"context"
	"fmt"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlattenedComponent is one priced leaf of a fully expanded bundle. It is
// not persisted; callers turn it into document line items.
type FlattenedComponent struct {
	ItemID         uuid.UUID          `json:"item_id"`
	SourceBundleID uuid.UUID          `json:"source_bundle_id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Unit           string             `json:"unit,omitempty"`
	Quantity       decimal.Decimal    `json:"quantity"`
	UnitPrice      valueobject.Money  `json:"unit_price"`
	UnitCost       *valueobject.Money `json:"unit_cost,omitempty"`
}

// DisplayText is the text a document line should show for the component
func (c FlattenedComponent) DisplayText() string {
	if c.Description != "" {
		return c.Description
	}
	return c.Name
}

// LineTotal returns round(quantity × unit price)
func (c FlattenedComponent) LineTotal() valueobject.Money {
	return c.UnitPrice.MultiplyQuantity(c.Quantity)
}

// Rollup is the price/cost of one unit of a bundle, summed over its
// flattened components
type Rollup struct {
	UnitPrice valueobject.Money `json:"unit_price"`
	UnitCost  valueobject.Money `json:"unit_cost"`
}

// ComputeRollup sums unitPrice × quantity and unitCost × quantity over a
// flattened list. Components without a cost contribute nothing to the cost.
func ComputeRollup(components []FlattenedComponent) Rollup {
	var r Rollup
	for _, c := range components {
		r.UnitPrice = r.UnitPrice.Add(c.UnitPrice.MultiplyQuantity(c.Quantity))
		if c.UnitCost != nil {
			r.UnitCost = r.UnitCost.Add(c.UnitCost.MultiplyQuantity(c.Quantity))
		}
	}
	return r
}

// ancestorPath is the set of bundles on the current recursion path. It is
// copied on every descent so sibling branches never see each other's
// entries.
type ancestorPath map[uuid.UUID]struct{}

func (p ancestorPath) contains(id uuid.UUID) bool {
	_, ok := p[id]
	return ok
}

func (p ancestorPath) with(id uuid.UUID) ancestorPath {
	next := make(ancestorPath, len(p)+1)
	for k := range p {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

// Flattener expands bundle definitions into flat component lists. It only
// reads from its repositories and holds no mutable state, so one instance is
// safe for concurrent use.
type Flattener struct {
	bundles BundleReader
	items   ItemReader
}

// NewFlattener creates a new Flattener
func NewFlattener(bundles BundleReader, items ItemReader) *Flattener {
	return &Flattener{bundles: bundles, items: items}
}

// Flatten expands the bundle into its priced leaf components, in component
// sort order, depth first.
//
// An unknown bundle id flattens to an empty list. A bundle that is its own
// ancestor along any path fails the whole call with ErrCircularBundle. The
// same bundle reached through two different branches is expanded twice,
// each time with its own multiplier.
func (f *Flattener) Flatten(ctx context.Context, tenantID, bundleID uuid.UUID) ([]FlattenedComponent, error) {
	return f.flatten(ctx, tenantID, bundleID, ancestorPath{}, decimal.NewFromInt(1))
}

func (f *Flattener) flatten(ctx context.Context, tenantID, bundleID uuid.UUID, path ancestorPath, multiplier decimal.Decimal) ([]FlattenedComponent, error) {
	if path.contains(bundleID) {
		return nil, shared.NewConflictError(ErrCircularBundle.Code,
			fmt.Sprintf("%s: bundle %s includes itself", ErrCircularBundle.Message, bundleID))
	}

	def, err := f.bundles.FindBundle(ctx, tenantID, bundleID)
	if err != nil {
		if shared.IsNotFound(err) {
			return []FlattenedComponent{}, nil
		}
		return nil, fmt.Errorf("load bundle %s: %w", bundleID, err)
	}

	items, err := f.items.FindItemsByIDs(ctx, tenantID, def.ItemIDs())
	if err != nil {
		return nil, fmt.Errorf("load items of bundle %s: %w", bundleID, err)
	}
	byID := make(map[uuid.UUID]*Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	next := path.with(bundleID)
	out := make([]FlattenedComponent, 0, len(def.Components))

	for _, c := range def.OrderedComponents() {
		qty := c.Quantity.Mul(multiplier)

		switch c.Type {
		case ComponentTypeItem:
			if c.ItemID == nil {
				continue
			}
			item, ok := byID[*c.ItemID]
			if !ok {
				// dangling reference: the item was deleted after authoring
				continue
			}
			out = append(out, resolveComponent(def.ID, c, item, qty))

		case ComponentTypeBundle:
			if c.ChildBundleID == nil {
				continue
			}
			nested, err := f.flatten(ctx, tenantID, *c.ChildBundleID, next, qty)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}

	return out, nil
}

func resolveComponent(bundleID uuid.UUID, c BundleComponent, item *Item, qty decimal.Decimal) FlattenedComponent {
	price := item.UnitPrice
	if c.UnitPriceOverride != nil {
		price = *c.UnitPriceOverride
	}

	var cost *valueobject.Money
	switch {
	case c.UnitCostOverride != nil:
		v := *c.UnitCostOverride
		cost = &v
	case item.UnitCost != nil:
		v := *item.UnitCost
		cost = &v
	}

	return FlattenedComponent{
		ItemID:         item.ID,
		SourceBundleID: bundleID,
		Name:           item.Name,
		Description:    item.Description,
		Unit:           item.Unit,
		Quantity:       qty,
		UnitPrice:      price,
		UnitCost:       cost,
	}
}
