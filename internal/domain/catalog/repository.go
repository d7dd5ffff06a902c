package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ItemReader loads catalog items
type ItemReader interface {
	FindItemByID(ctx context.Context, tenantID, id uuid.UUID) (*Item, error)
	// FindItemsByIDs returns the items that exist; missing ids are skipped
	FindItemsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Item, error)
}

// BundleReader loads bundle definitions with their components
type BundleReader interface {
	// FindBundle returns shared.ErrNotFound when the bundle does not exist
	// for the tenant
	FindBundle(ctx context.Context, tenantID, id uuid.UUID) (*BundleDefinition, error)
}

// ItemRepository persists catalog items
type ItemRepository interface {
	ItemReader
	SaveItem(ctx context.Context, item *Item) error
}

// BundleRepository persists bundle definitions
type BundleRepository interface {
	BundleReader
	FindBundleByItemID(ctx context.Context, tenantID, itemID uuid.UUID) (*BundleDefinition, error)
	SaveBundle(ctx context.Context, def *BundleDefinition) error
}
