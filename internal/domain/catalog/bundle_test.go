package catalog

import (
	"testing"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBundleItem(t *testing.T) *Item {
	t.Helper()
	item, err := NewItem(tenantID, "Water Heater Install", ItemKindBundle, valueobject.Zero(), nil)
	require.NoError(t, err)
	return item
}

func TestNewItem(t *testing.T) {
	t.Run("valid item", func(t *testing.T) {
		item, err := NewItem(tenantID, "  Copper Pipe ", ItemKindSingle, valueobject.NewMoneyFromCents(1299), nil)
		require.NoError(t, err)
		assert.Equal(t, "Copper Pipe", item.Name)
		assert.Equal(t, tenantID, item.TenantID)
		assert.True(t, item.IsActive)
		assert.False(t, item.IsBundle())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewItem(tenantID, " ", ItemKindSingle, valueobject.Zero(), nil)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewItem(tenantID, "x", ItemKind("KIT"), valueobject.Zero(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewItem(tenantID, "x", ItemKindSingle, valueobject.NewMoneyFromCents(-1), nil)
		assert.Error(t, err)
	})
}

func TestItem_ApplyRollup(t *testing.T) {
	item := newBundleItem(t)
	require.NoError(t, item.ApplyRollup(Rollup{
		UnitPrice: valueobject.NewMoneyFromCents(5000),
		UnitCost:  valueobject.NewMoneyFromCents(2000),
	}))
	assert.Equal(t, int64(5000), item.UnitPrice.Cents())
	assert.Equal(t, int64(2000), item.UnitCost.Cents())

	single, err := NewItem(tenantID, "x", ItemKindSingle, valueobject.Zero(), nil)
	require.NoError(t, err)
	assert.Error(t, single.ApplyRollup(Rollup{}))
}

func TestNewBundleDefinition(t *testing.T) {
	itemID := uuid.New()
	childID := uuid.New()

	t.Run("assigns sort order from input order", func(t *testing.T) {
		item := newBundleItem(t)
		def, err := NewBundleDefinition(item, []ComponentInput{
			{Type: ComponentTypeItem, ItemID: &itemID, Quantity: decimal.NewFromInt(2)},
			{Type: ComponentTypeBundle, ChildBundleID: &childID, Quantity: decimal.NewFromInt(1)},
		})
		require.NoError(t, err)
		assert.Equal(t, item.ID, def.ItemID)
		assert.Equal(t, PricingSumComponents, def.PricingStrategy)
		require.Len(t, def.Components, 2)
		assert.Equal(t, 0, def.Components[0].SortOrder)
		assert.Equal(t, 1, def.Components[1].SortOrder)
		assert.Equal(t, def.ID, def.Components[1].BundleID)
		assert.Equal(t, []uuid.UUID{itemID}, def.ItemIDs())
	})

	t.Run("requires at least one component", func(t *testing.T) {
		_, err := NewBundleDefinition(newBundleItem(t), nil)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("requires a bundle item", func(t *testing.T) {
		single, err := NewItem(tenantID, "x", ItemKindSingle, valueobject.Zero(), nil)
		require.NoError(t, err)
		_, err = NewBundleDefinition(single, []ComponentInput{{Type: ComponentTypeItem, ItemID: &itemID, Quantity: decimal.NewFromInt(1)}})
		assert.Error(t, err)
	})

	tests := []struct {
		name string
		in   ComponentInput
	}{
		{"item without reference", ComponentInput{Type: ComponentTypeItem, Quantity: decimal.NewFromInt(1)}},
		{"item with both references", ComponentInput{Type: ComponentTypeItem, ItemID: &itemID, ChildBundleID: &childID, Quantity: decimal.NewFromInt(1)}},
		{"bundle referencing item", ComponentInput{Type: ComponentTypeBundle, ItemID: &itemID, Quantity: decimal.NewFromInt(1)}},
		{"unknown type", ComponentInput{Type: "KIT", ItemID: &itemID, Quantity: decimal.NewFromInt(1)}},
		{"negative quantity", ComponentInput{Type: ComponentTypeItem, ItemID: &itemID, Quantity: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := NewBundleDefinition(newBundleItem(t), []ComponentInput{tt.in})
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestBundleDefinition_OrderedComponents(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	def := &BundleDefinition{Components: []BundleComponent{
		{ItemID: &b, SortOrder: 2},
		{ItemID: &a, SortOrder: 1},
	}}
	ordered := def.OrderedComponents()
	assert.Equal(t, a, *ordered[0].ItemID)
	assert.Equal(t, b, *def.Components[0].ItemID, "receiver must not be reordered")
}
