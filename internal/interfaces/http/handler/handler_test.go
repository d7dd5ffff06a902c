package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appbilling "github.com/fieldservice/backend/internal/application/billing"
	appcatalog "github.com/fieldservice/backend/internal/application/catalog"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/fieldservice/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) ConvertEstimate(ctx context.Context, actor shared.Actor, cmd appbilling.ConvertEstimateCommand) (*appbilling.ConversionResult, error) {
	args := m.Called(ctx, actor, cmd)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.ConversionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) HandlePaymentEvent(ctx context.Context, evt billing.PaymentEvent) (*appbilling.PaymentEventResult, error) {
	args := m.Called(ctx, evt)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.PaymentEventResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBundles struct {
	mock.Mock
}

func (m *mockBundles) CreateBundle(ctx context.Context, actor shared.Actor, cmd appcatalog.CreateBundleCommand) (*appcatalog.BundleResult, error) {
	args := m.Called(ctx, actor, cmd)
	if r := args.Get(0); r != nil {
		return r.(*appcatalog.BundleResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBundles) Flatten(ctx context.Context, tenantID, bundleID uuid.UUID) (*appcatalog.FlattenResult, error) {
	args := m.Called(ctx, tenantID, bundleID)
	if r := args.Get(0); r != nil {
		return r.(*appcatalog.FlattenResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBundles) RecalculateRollup(ctx context.Context, tenantID, bundleID uuid.UUID) (*catalog.Rollup, error) {
	args := m.Called(ctx, tenantID, bundleID)
	if r := args.Get(0); r != nil {
		return r.(*catalog.Rollup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBundles) ApplyBundleToEstimate(ctx context.Context, actor shared.Actor, cmd appcatalog.ApplyBundleCommand) (*appcatalog.AppliedBundle, error) {
	args := m.Called(ctx, actor, cmd)
	if r := args.Get(0); r != nil {
		return r.(*appcatalog.AppliedBundle), args.Error(1)
	}
	return nil, args.Error(1)
}

// tenantRouter mounts routes behind the same request id and actor
// middleware the server uses
func tenantRouter(register func(rg *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	register(r.Group("", middleware.Actor()))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, tenantID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != uuid.Nil {
		req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSONWithUser(t *testing.T, r http.Handler, path string, tenantID, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	req.Header.Set(middleware.UserHeaderKey, userID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope decodes the standard response and re-decodes its data into out
func envelope(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return dto.Response{Success: raw.Success, Error: raw.Error}
}

var errBoom = errors.New("connection reset by peer")
