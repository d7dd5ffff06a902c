package handler

import (
	"net/http"
	"testing"

	appcatalog "github.com/fieldservice/backend/internal/application/catalog"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bundleRouter(bundles BundleManager) *gin.Engine {
	h := NewBundleHandler(bundles)
	return tenantRouter(func(rg *gin.RouterGroup) {
		rg.POST("/bundles", h.CreateBundle)
		rg.GET("/bundles/:id/flatten", h.Flatten)
		rg.POST("/bundles/:id/recalculate", h.RecalculateRollup)
		rg.POST("/estimates/:id/bundles", h.ApplyToEstimate)
	})
}

func TestBundleHandler_CreateBundle(t *testing.T) {
	tenantID := uuid.New()
	valveID := uuid.New()
	kitID := uuid.New()

	t.Run("creates bundle", func(t *testing.T) {
		bundles := new(mockBundles)
		bundles.On("CreateBundle", mock.Anything, mock.Anything,
			mock.MatchedBy(func(cmd appcatalog.CreateBundleCommand) bool {
				if cmd.Name != "Water heater install" || len(cmd.Components) != 2 {
					return false
				}
				first, second := cmd.Components[0], cmd.Components[1]
				return first.Type == "ITEM" && *first.ItemID == valveID && first.Quantity.Equal(decimal.NewFromInt(2)) &&
					first.UnitPriceOverride != nil && first.UnitPriceOverride.Equal(decimal.RequireFromString("12.5")) &&
					second.Type == "BUNDLE" && *second.BundleID == kitID
			}),
		).Return(&appcatalog.BundleResult{
			Item: &catalog.Item{
				TenantEntity: shared.NewTenantEntity(tenantID),
				Name:         "Water heater install",
				Kind:         catalog.ItemKindBundle,
				UnitPrice:    valueobject.NewMoneyFromCents(42500),
				IsActive:     true,
			},
			Definition: &catalog.BundleDefinition{
				TenantEntity:    shared.NewTenantEntity(tenantID),
				Name:            "Water heater install",
				PricingStrategy: catalog.PricingSumComponents,
				IsActive:        true,
				Components: []catalog.BundleComponent{
					{ID: uuid.New(), Type: catalog.ComponentTypeItem, ItemID: &valveID, Quantity: decimal.NewFromInt(2)},
					{ID: uuid.New(), Type: catalog.ComponentTypeBundle, ChildBundleID: &kitID, Quantity: decimal.NewFromInt(1), SortOrder: 1},
				},
			},
			Rollup: catalog.Rollup{UnitPrice: valueobject.NewMoneyFromCents(42500), UnitCost: valueobject.NewMoneyFromCents(30000)},
		}, nil)

		w := doJSON(t, bundleRouter(bundles), http.MethodPost, "/bundles", tenantID, map[string]any{
			"name": "Water heater install",
			"components": []map[string]any{
				{"type": "ITEM", "item_id": valveID, "quantity": "2", "unit_price_override": 12.5},
				{"type": "BUNDLE", "bundle_id": kitID, "quantity": 1},
			},
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var got dto.BundleResponse
		envelope(t, w, &got)
		assert.Equal(t, "BUNDLE", got.Item.Kind)
		assert.Equal(t, int64(42500), got.Rollup.UnitPrice.Cents())
		require.Len(t, got.Definition.Components, 2)
		assert.Equal(t, &kitID, got.Definition.Components[1].BundleID)
		bundles.AssertExpectations(t)
	})

	t.Run("cycle is a conflict", func(t *testing.T) {
		bundles := new(mockBundles)
		bundles.On("CreateBundle", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, shared.NewConflictError("CIRCULAR_BUNDLE", "Circular bundle reference detected"))

		w := doJSON(t, bundleRouter(bundles), http.MethodPost, "/bundles", tenantID, map[string]any{
			"name":       "Loop",
			"components": []map[string]any{{"type": "BUNDLE", "bundle_id": kitID, "quantity": 1}},
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CIRCULAR_BUNDLE", envelope(t, w, nil).Error.Code)
	})

	t.Run("invalid bodies", func(t *testing.T) {
		bundles := new(mockBundles)
		r := bundleRouter(bundles)

		for _, body := range []string{
			`{"components":[{"type":"ITEM","quantity":1}]}`,
			`{"name":"Kit","components":[]}`,
			`{"name":"Kit","components":[{"type":"SERVICE","quantity":1}]}`,
		} {
			w := doJSON(t, r, http.MethodPost, "/bundles", tenantID, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
		bundles.AssertNotCalled(t, "CreateBundle", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBundleHandler_Flatten(t *testing.T) {
	tenantID := uuid.New()
	bundleID := uuid.New()
	cost := valueobject.NewMoneyFromCents(800)

	bundles := new(mockBundles)
	bundles.On("Flatten", mock.Anything, tenantID, bundleID).Return(&appcatalog.FlattenResult{
		BundleID: bundleID,
		Components: []catalog.FlattenedComponent{{
			ItemID:         uuid.New(),
			SourceBundleID: bundleID,
			Name:           "Ball valve",
			Quantity:       decimal.NewFromInt(4),
			UnitPrice:      valueobject.NewMoneyFromCents(1250),
			UnitCost:       &cost,
		}},
		Rollup: catalog.Rollup{UnitPrice: valueobject.NewMoneyFromCents(5000), UnitCost: valueobject.NewMoneyFromCents(3200)},
	}, nil)
	bundles.On("Flatten", mock.Anything, tenantID, mock.Anything).
		Return(nil, shared.NewNotFoundError("BUNDLE_NOT_FOUND", "Bundle not found"))

	r := bundleRouter(bundles)

	w := doJSON(t, r, http.MethodGet, "/bundles/"+bundleID.String()+"/flatten", tenantID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Components []map[string]any `json:"components"`
		Rollup     map[string]any   `json:"rollup"`
	}
	envelope(t, w, &got)
	require.Len(t, got.Components, 1)
	assert.Equal(t, "4", got.Components[0]["quantity"])
	assert.Equal(t, "12.50", got.Components[0]["unit_price"])
	assert.Equal(t, "50.00", got.Rollup["unit_price"])
	assert.Equal(t, "32.00", got.Rollup["unit_cost"])

	w = doJSON(t, r, http.MethodGet, "/bundles/"+uuid.NewString()+"/flatten", tenantID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBundleHandler_RecalculateRollup(t *testing.T) {
	tenantID := uuid.New()
	bundleID := uuid.New()

	bundles := new(mockBundles)
	bundles.On("RecalculateRollup", mock.Anything, tenantID, bundleID).
		Return(&catalog.Rollup{UnitPrice: valueobject.NewMoneyFromCents(9900)}, nil)

	w := doJSON(t, bundleRouter(bundles), http.MethodPost, "/bundles/"+bundleID.String()+"/recalculate", tenantID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got catalog.Rollup
	envelope(t, w, &got)
	assert.Equal(t, int64(9900), got.UnitPrice.Cents())
}

func TestBundleHandler_ApplyToEstimate(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	estimateID := uuid.New()
	bundleID := uuid.New()
	groupID := uuid.New()

	bundles := new(mockBundles)
	bundles.On("ApplyBundleToEstimate", mock.Anything,
		mock.MatchedBy(func(a shared.Actor) bool { return a.UserID != nil && *a.UserID == userID }),
		appcatalog.ApplyBundleCommand{EstimateID: estimateID, BundleID: bundleID},
	).Return(&appcatalog.AppliedBundle{
		Group: &billing.DocumentLineGroup{
			TenantEntity:     shared.TenantEntity{BaseEntity: shared.BaseEntity{ID: groupID}, TenantID: tenantID},
			DocumentType:     billing.DocumentTypeEstimate,
			DocumentID:       estimateID,
			Name:             "Water heater install",
			SourceBundleID:   &bundleID,
			SourceBundleName: "Water heater install",
		},
		LineItems: []billing.LineItem{{ID: uuid.New(), GroupID: &groupID, Description: "Ball valve", Quantity: decimal.NewFromInt(4)}},
		Estimate: &billing.Estimate{
			TenantEntity:   shared.NewTenantEntity(tenantID),
			EstimateNumber: "EST-000007",
			Status:         billing.EstimateStatusDraft,
		},
	}, nil)

	r := bundleRouter(bundles)
	body := `{"bundle_id":"` + bundleID.String() + `"}`
	req := doJSONWithUser(t, r, "/estimates/"+estimateID.String()+"/bundles", tenantID, userID, body)

	require.Equal(t, http.StatusCreated, req.Code, req.Body.String())
	var got dto.AppliedBundleResponse
	envelope(t, req, &got)
	assert.Equal(t, groupID, got.Group.ID)
	assert.Equal(t, "ESTIMATE", got.Group.DocumentType)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, &groupID, got.LineItems[0].GroupID)
	assert.Equal(t, "EST-000007", got.Estimate.EstimateNumber)
	bundles.AssertExpectations(t)

	w := doJSON(t, r, http.MethodPost, "/estimates/"+estimateID.String()+"/bundles", tenantID, `{"bundle_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
