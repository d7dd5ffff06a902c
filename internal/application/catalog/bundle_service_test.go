package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCatalog is an in-memory catalog and estimate store that restores its
// previous state when a unit of work fails
type memCatalog struct {
	mu        sync.Mutex
	items     map[uuid.UUID]catalog.Item
	bundles   map[uuid.UUID]catalog.BundleDefinition
	estimates map[uuid.UUID]billing.Estimate
	groups    []billing.DocumentLineGroup
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		items:     map[uuid.UUID]catalog.Item{},
		bundles:   map[uuid.UUID]catalog.BundleDefinition{},
		estimates: map[uuid.UUID]billing.Estimate{},
	}
}

func (m *memCatalog) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	m.mu.Lock()
	items := make(map[uuid.UUID]catalog.Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	bundles := make(map[uuid.UUID]catalog.BundleDefinition, len(m.bundles))
	for k, v := range m.bundles {
		bundles[k] = v
	}
	estimates := make(map[uuid.UUID]billing.Estimate, len(m.estimates))
	for k, v := range m.estimates {
		estimates[k] = v
	}
	groups := append([]billing.DocumentLineGroup(nil), m.groups...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.items, m.bundles, m.estimates, m.groups = items, bundles, estimates, groups
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memCatalog) ItemRepo() catalog.ItemRepository         { return m }
func (m *memCatalog) BundleRepo() catalog.BundleRepository     { return m }
func (m *memCatalog) EstimateRepo() billing.EstimateRepository { return m }

func (m *memCatalog) FindItemByID(_ context.Context, tenantID, id uuid.UUID) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

func (m *memCatalog) FindItemsByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := m.items[id]; ok && item.TenantID == tenantID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memCatalog) SaveItem(_ context.Context, item *catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = *item
	return nil
}

func (m *memCatalog) FindBundle(_ context.Context, tenantID, id uuid.UUID) (*catalog.BundleDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.bundles[id]
	if !ok || def.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &def, nil
}

func (m *memCatalog) FindBundleByItemID(_ context.Context, tenantID, itemID uuid.UUID) (*catalog.BundleDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, def := range m.bundles {
		if def.TenantID == tenantID && def.ItemID == itemID {
			return &def, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memCatalog) SaveBundle(_ context.Context, def *catalog.BundleDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[def.ID] = *def
	return nil
}

func (m *memCatalog) FindEstimate(_ context.Context, tenantID, id uuid.UUID) (*billing.Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	est, ok := m.estimates[id]
	if !ok || est.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	est.LineItems = append([]billing.LineItem(nil), est.LineItems...)
	return &est, nil
}

func (m *memCatalog) FindEstimateForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Estimate, error) {
	return m.FindEstimate(ctx, tenantID, id)
}

func (m *memCatalog) SaveEstimate(_ context.Context, est *billing.Estimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *est
	cp.LineItems = append([]billing.LineItem(nil), est.LineItems...)
	m.estimates[est.ID] = cp
	return nil
}

func (m *memCatalog) SaveLineGroup(_ context.Context, group *billing.DocumentLineGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append(m.groups, *group)
	return nil
}

func (m *memCatalog) addItem(t *testing.T, tenantID uuid.UUID, name string, priceCents, costCents int64) uuid.UUID {
	t.Helper()
	cost := valueobject.NewMoneyFromCents(costCents)
	item, err := catalog.NewItem(tenantID, name, catalog.ItemKindSingle, valueobject.NewMoneyFromCents(priceCents), &cost)
	require.NoError(t, err)
	m.items[item.ID] = *item
	return item.ID
}

func newBundleService(store *memCatalog) *BundleService {
	return NewBundleService(BundleServiceConfig{TxScope: store, Items: store, Bundles: store})
}

func itemComponent(id uuid.UUID, qty string) ComponentCommand {
	return ComponentCommand{Type: "ITEM", ItemID: &id, Quantity: decimal.RequireFromString(qty)}
}

func bundleComponent(id uuid.UUID, qty string) ComponentCommand {
	return ComponentCommand{Type: "BUNDLE", BundleID: &id, Quantity: decimal.RequireFromString(qty)}
}

func TestBundleService_CreateAndFlatten(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	tenantID := uuid.New()
	actor := shared.NewActor(tenantID, nil)
	svc := newBundleService(store)

	valve := store.addItem(t, tenantID, "Valve", 1250, 800)
	pipe := store.addItem(t, tenantID, "Pipe (ft)", 300, 120)

	inner, err := svc.CreateBundle(ctx, actor, CreateBundleCommand{
		Name:       "Valve kit",
		Components: []ComponentCommand{itemComponent(valve, "1"), itemComponent(pipe, "2.5")},
	})
	require.NoError(t, err)
	// 12.50 + round(2.5 × 3.00) = 20.00; cost 8.00 + 3.00 = 11.00
	assert.Equal(t, int64(2000), inner.Rollup.UnitPrice.Cents())
	assert.Equal(t, int64(1100), inner.Rollup.UnitCost.Cents())
	assert.Equal(t, int64(2000), store.items[inner.Item.ID].UnitPrice.Cents())

	outer, err := svc.CreateBundle(ctx, actor, CreateBundleCommand{
		Name: "Bathroom rough-in",
		Components: []ComponentCommand{
			bundleComponent(inner.Definition.ID, "2"),
			itemComponent(valve, "1"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5250), outer.Rollup.UnitPrice.Cents())

	flat, err := svc.Flatten(ctx, tenantID, outer.Definition.ID)
	require.NoError(t, err)
	require.Len(t, flat.Components, 3)
	assert.Equal(t, valve, flat.Components[0].ItemID)
	assert.True(t, flat.Components[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, flat.Components[1].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, inner.Definition.ID, flat.Components[1].SourceBundleID)
	assert.Equal(t, outer.Definition.ID, flat.Components[2].SourceBundleID)
	assert.Equal(t, int64(5250), flat.Rollup.UnitPrice.Cents())
}

func TestBundleService_CreateRejections(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	tenantID := uuid.New()
	actor := shared.NewActor(tenantID, nil)
	svc := newBundleService(store)
	valve := store.addItem(t, tenantID, "Valve", 1250, 800)

	tests := []struct {
		name  string
		cmd   CreateBundleCommand
		check func(t *testing.T, err error)
	}{
		{
			name: "no components",
			cmd:  CreateBundleCommand{Name: "Empty"},
			check: func(t *testing.T, err error) {
				assert.True(t, shared.IsValidation(err))
			},
		},
		{
			name: "component with both references",
			cmd: CreateBundleCommand{Name: "Both", Components: []ComponentCommand{
				{Type: "ITEM", ItemID: &valve, BundleID: &valve, Quantity: decimal.NewFromInt(1)},
			}},
			check: func(t *testing.T, err error) {
				assert.True(t, shared.IsValidation(err))
			},
		},
		{
			name: "negative quantity",
			cmd:  CreateBundleCommand{Name: "Negative", Components: []ComponentCommand{itemComponent(valve, "-1")}},
			check: func(t *testing.T, err error) {
				assert.True(t, shared.IsValidation(err))
			},
		},
		{
			name: "unknown item",
			cmd:  CreateBundleCommand{Name: "Ghost", Components: []ComponentCommand{itemComponent(uuid.New(), "1")}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrItemNotFound)
			},
		},
		{
			name: "unknown child bundle",
			cmd:  CreateBundleCommand{Name: "Ghost", Components: []ComponentCommand{bundleComponent(uuid.New(), "1")}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrBundleNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBundle(ctx, actor, tt.cmd)
			require.Error(t, err)
			tt.check(t, err)
			assert.Len(t, store.items, 1)
			assert.Empty(t, store.bundles)
		})
	}
}

func TestBundleService_CircularCompositionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	tenantID := uuid.New()
	actor := shared.NewActor(tenantID, nil)
	svc := newBundleService(store)
	valve := store.addItem(t, tenantID, "Valve", 1250, 800)

	a, err := svc.CreateBundle(ctx, actor, CreateBundleCommand{Name: "A", Components: []ComponentCommand{itemComponent(valve, "1")}})
	require.NoError(t, err)
	b, err := svc.CreateBundle(ctx, actor, CreateBundleCommand{Name: "B", Components: []ComponentCommand{bundleComponent(a.Definition.ID, "1")}})
	require.NoError(t, err)

	// close the loop A -> B -> A behind the service's back
	defA := store.bundles[a.Definition.ID]
	bID := b.Definition.ID
	defA.Components = append(defA.Components, catalog.BundleComponent{
		ID: uuid.New(), BundleID: defA.ID, Type: catalog.ComponentTypeBundle,
		ChildBundleID: &bID, Quantity: decimal.NewFromInt(1), SortOrder: 1,
	})
	store.bundles[defA.ID] = defA
	before := store.items[a.Item.ID].UnitPrice

	_, err = svc.RecalculateRollup(ctx, tenantID, a.Definition.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCircularBundle)
	assert.Equal(t, before, store.items[a.Item.ID].UnitPrice)

	_, err = svc.Flatten(ctx, tenantID, b.Definition.ID)
	assert.ErrorIs(t, err, catalog.ErrCircularBundle)
}

func TestBundleService_ApplyBundleToEstimate(t *testing.T) {
	ctx := context.Background()
	store := newMemCatalog()
	tenantID := uuid.New()
	actor := shared.NewActor(tenantID, nil)
	svc := newBundleService(store)

	valve := store.addItem(t, tenantID, "Valve", 1250, 800)
	pipe := store.addItem(t, tenantID, "Pipe (ft)", 300, 120)
	kit, err := svc.CreateBundle(ctx, actor, CreateBundleCommand{
		Name:       "Valve kit",
		Components: []ComponentCommand{itemComponent(valve, "1"), itemComponent(pipe, "2.5")},
	})
	require.NoError(t, err)

	est := billing.NewEstimate(tenantID, "EST-000001", "Bathroom", decimal.RequireFromString("0.1"))
	existing, err := billing.NewLineItem("Site visit", decimal.NewFromInt(1), valueobject.NewMoneyFromCents(5000), nil)
	require.NoError(t, err)
	require.NoError(t, est.AppendLineItems(existing))
	store.estimates[est.ID] = *est

	applied, err := svc.ApplyBundleToEstimate(ctx, actor, ApplyBundleCommand{EstimateID: est.ID, BundleID: kit.Definition.ID})
	require.NoError(t, err)

	require.Len(t, applied.LineItems, 2)
	assert.Equal(t, 1, applied.LineItems[0].SortOrder)
	assert.Equal(t, 2, applied.LineItems[1].SortOrder)
	assert.Equal(t, applied.Group.ID, *applied.LineItems[0].GroupID)
	assert.Equal(t, valve, *applied.LineItems[0].SourceItemID)
	assert.Equal(t, kit.Definition.ID, *applied.LineItems[0].SourceBundleID)
	assert.Equal(t, int64(750), applied.LineItems[1].Total.Cents())

	assert.Equal(t, billing.DocumentTypeEstimate, applied.Group.DocumentType)
	assert.Equal(t, "Valve kit", applied.Group.SourceBundleName)

	stored := store.estimates[est.ID]
	require.Len(t, stored.LineItems, 3)
	// 50.00 + 12.50 + 7.50 = 70.00, tax 7.00
	assert.Equal(t, int64(7000), stored.Subtotal.Cents())
	assert.Equal(t, int64(700), stored.TaxAmount.Cents())
	assert.Equal(t, int64(7700), stored.Total.Cents())
	assert.Len(t, store.groups, 1)

	t.Run("unknown estimate", func(t *testing.T) {
		_, err := svc.ApplyBundleToEstimate(ctx, actor, ApplyBundleCommand{EstimateID: uuid.New(), BundleID: kit.Definition.ID})
		assert.ErrorIs(t, err, ErrEstimateNotFound)
	})

	t.Run("unknown bundle", func(t *testing.T) {
		_, err := svc.ApplyBundleToEstimate(ctx, actor, ApplyBundleCommand{EstimateID: est.ID, BundleID: uuid.New()})
		assert.ErrorIs(t, err, ErrBundleNotFound)
		assert.Len(t, store.groups, 1)
	})
}
