package billing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	store    *memStore
	tenantID uuid.UUID
	userID   uuid.UUID
	client   *partner.Client
	estimate *billing.Estimate
}

func (f fixture) actor() shared.Actor {
	uid := f.userID
	return shared.NewActor(f.tenantID, &uid)
}

// newFixture seeds a client and a $1,000.00 estimate (tax 8%) with two lines:
// shingles 800.00 and labor 125.93
func newFixture(t *testing.T) fixture {
	t.Helper()
	store := newMemStore()
	tenantID := uuid.New()

	client, err := partner.NewClient(tenantID, "Dana Whitfield")
	require.NoError(t, err)
	client.Email = "dana@example.com"
	store.putClient(client)

	est := billing.NewEstimate(tenantID, "EST-000007", "Roof replacement", decimal.RequireFromString("0.08"))
	clientID := client.ID
	est.ClientID = &clientID
	est.Notes = "Bring ladders"
	est.JobSiteAddress = "12 Elm St, Springfield, IL 62704"

	shingles, err := billing.NewLineItem("Shingles", decimal.NewFromInt(1), valueobject.NewMoneyFromCents(80000), nil)
	require.NoError(t, err)
	labor, err := billing.NewLineItem("Labor", decimal.NewFromInt(1), valueobject.NewMoneyFromCents(12593), nil)
	require.NoError(t, err)
	require.NoError(t, est.AppendLineItems(shingles, labor))
	require.Equal(t, int64(100000), est.Total.Cents())
	store.putEstimate(est)

	return fixture{store: store, tenantID: tenantID, userID: uuid.New(), client: client, estimate: est}
}

func newConversionService(f fixture, provider billing.PaymentLinkProvider, metrics Metrics) *ConversionService {
	return NewConversionService(ConversionServiceConfig{
		TxScope:      f.store,
		Clients:      f.store,
		LinkProvider: provider,
		PublicURL:    "https://app.example.com/",
		Metrics:      metrics,
		Clock:        fixedClock,
	})
}

func TestConversionService_FullBilling(t *testing.T) {
	f := newFixture(t)
	provider := new(MockPaymentLinkProvider)
	provider.On("CreatePaymentLink", mock.Anything, mock.MatchedBy(func(req billing.PaymentLinkRequest) bool {
		return req.Amount.Cents() == 100000 &&
			req.PayerEmail == "dana@example.com" &&
			req.WebhookURL == "https://app.example.com/api/v1/webhooks/payments" &&
			strings.HasPrefix(req.ReturnURL, "https://app.example.com/portal/pay/"+req.InvoiceID.String()+"?token=")
	})).Return(&billing.PaymentLink{URL: "https://pay.example.com/p/1", ProviderTransactionID: "pref-1"}, nil)
	metrics := &recordingMetrics{}

	svc := newConversionService(f, provider, metrics)
	result, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{
		EstimateID: f.estimate.ID,
	})
	require.NoError(t, err)
	require.NoError(t, result.PaymentLinkErr)

	inv := result.Invoice
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, billing.BillingModeFull, inv.BillingMode)
	assert.Equal(t, "Roof replacement - Full Billing", inv.Title)
	assert.Equal(t, int64(100000), inv.Total.Cents())
	assert.Equal(t, int64(100000), inv.Balance.Cents())
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Len(t, inv.PaymentToken, 40)
	assert.Equal(t, &f.userID, inv.CreatedBy)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Shingles", inv.LineItems[0].Description)
	assert.Equal(t, 1, inv.LineItems[1].SortOrder)

	stored := f.store.invoice(inv.ID)
	assert.Equal(t, "https://pay.example.com/p/1", stored.PaymentURL)
	assert.Equal(t, "pref-1", stored.ProviderTransactionID)
	assert.Equal(t, []audit.ActivityType{audit.ActivityInvoiceCreated}, f.store.activityTypes())
	assert.Equal(t, []string{"FULL"}, metrics.converted)
	provider.AssertExpectations(t)
}

func TestConversionService_PercentageAndManual(t *testing.T) {
	f := newFixture(t)
	svc := newConversionService(f, nil, nil)

	pct := decimal.NewFromInt(25)
	result, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{
		EstimateID:  f.estimate.ID,
		BillingMode: "PERCENTAGE",
		Percentage:  &pct,
	})
	require.NoError(t, err)
	inv := result.Invoice
	assert.Equal(t, int64(25000), inv.Subtotal.Cents())
	assert.Equal(t, int64(2000), inv.TaxAmount.Cents())
	assert.Equal(t, int64(27000), inv.Total.Cents())
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "Progress Billing (25.00%) - Estimate EST-000007", inv.LineItems[0].Description)

	labor := f.estimate.LineItems[1].ID
	result, err = svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{
		EstimateID:          f.estimate.ID,
		BillingMode:         "MANUAL",
		SelectedLineItemIDs: []uuid.UUID{labor, uuid.New()},
	})
	require.NoError(t, err)
	inv = result.Invoice
	assert.Equal(t, "INV-000002", inv.InvoiceNumber)
	assert.Equal(t, "Roof replacement - Partial Billing", inv.Title)
	assert.Equal(t, int64(13600), inv.Total.Cents())

	invoices, _, _, _, activities := f.store.counts()
	assert.Equal(t, 2, invoices)
	assert.Equal(t, 2, activities)
}

func TestConversionService_Rejections(t *testing.T) {
	zero := decimal.Zero
	over := decimal.NewFromInt(101)

	tests := []struct {
		name   string
		mutate func(f *fixture)
		cmd    func(f fixture) ConvertEstimateCommand
		check  func(t *testing.T, err error)
	}{
		{
			name: "estimate not found",
			cmd: func(f fixture) ConvertEstimateCommand {
				return ConvertEstimateCommand{EstimateID: uuid.New()}
			},
			check: func(t *testing.T, err error) {
				assert.True(t, shared.IsNotFound(err))
				assert.Equal(t, "Estimate not found", err.Error())
			},
		},
		{
			name: "estimate without client",
			mutate: func(f *fixture) {
				f.estimate.ClientID = nil
				f.store.putEstimate(f.estimate)
			},
			cmd: func(f fixture) ConvertEstimateCommand {
				return ConvertEstimateCommand{EstimateID: f.estimate.ID}
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, billing.ErrEstimateWithoutClient)
			},
		},
		{
			name: "zero percentage",
			cmd: func(f fixture) ConvertEstimateCommand {
				return ConvertEstimateCommand{EstimateID: f.estimate.ID, BillingMode: "PERCENTAGE", Percentage: &zero}
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, billing.ErrPercentageOutOfRange)
			},
		},
		{
			name: "percentage above 100",
			cmd: func(f fixture) ConvertEstimateCommand {
				return ConvertEstimateCommand{EstimateID: f.estimate.ID, BillingMode: "PERCENTAGE", Percentage: &over}
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, billing.ErrPercentageOutOfRange)
			},
		},
		{
			name: "manual selection matches nothing",
			cmd: func(f fixture) ConvertEstimateCommand {
				return ConvertEstimateCommand{EstimateID: f.estimate.ID, BillingMode: "MANUAL", SelectedLineItemIDs: []uuid.UUID{uuid.New()}}
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, billing.ErrNoLineItemsSelected)
			},
		},
		{
			name: "unknown billing mode",
			cmd: func(f fixture) ConvertEstimateCommand {
				return ConvertEstimateCommand{EstimateID: f.estimate.ID, BillingMode: "HALF"}
			},
			check: func(t *testing.T, err error) {
				assert.True(t, shared.IsValidation(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.mutate != nil {
				tt.mutate(&f)
			}
			svc := newConversionService(f, nil, nil)

			result, err := svc.ConvertEstimate(context.Background(), f.actor(), tt.cmd(f))
			require.Error(t, err)
			assert.Nil(t, result)
			tt.check(t, err)

			invoices, _, _, _, activities := f.store.counts()
			assert.Zero(t, invoices)
			assert.Zero(t, activities)
		})
	}
}

func TestConversionService_StoreFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.failCreateInvoice = errors.New("disk full")
	svc := newConversionService(f, nil, nil)

	_, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{EstimateID: f.estimate.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	invoices, _, _, _, activities := f.store.counts()
	assert.Zero(t, invoices)
	assert.Zero(t, activities)
}

func TestConversionService_PaymentLinkFailureKeepsInvoice(t *testing.T) {
	f := newFixture(t)
	provider := new(MockPaymentLinkProvider)
	provider.On("CreatePaymentLink", mock.Anything, mock.Anything).Return(nil, errors.New("provider down"))
	metrics := &recordingMetrics{}

	svc := newConversionService(f, provider, metrics)
	result, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{EstimateID: f.estimate.ID})
	require.NoError(t, err)
	require.Error(t, result.PaymentLinkErr)

	stored := f.store.invoice(result.Invoice.ID)
	assert.Equal(t, result.Invoice.InvoiceNumber, stored.InvoiceNumber)
	assert.Empty(t, stored.PaymentURL)
	assert.Equal(t, 1, metrics.linkFailed)
}

func TestConversionService_LinkStoreFailureClearsLink(t *testing.T) {
	f := newFixture(t)
	f.store.failUpdatePaymentLink = errors.New("connection reset")
	provider := new(MockPaymentLinkProvider)
	provider.On("CreatePaymentLink", mock.Anything, mock.Anything).
		Return(&billing.PaymentLink{URL: "https://pay.example.com/p/2", ProviderTransactionID: "pref-2"}, nil)
	metrics := &recordingMetrics{}

	svc := newConversionService(f, provider, metrics)
	result, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{EstimateID: f.estimate.ID})
	require.NoError(t, err)
	require.Error(t, result.PaymentLinkErr)

	assert.Empty(t, result.Invoice.PaymentURL)
	assert.Empty(t, result.Invoice.ProviderTransactionID)
	stored := f.store.invoice(result.Invoice.ID)
	assert.Empty(t, stored.PaymentURL)
	assert.Equal(t, 1, metrics.linkFailed)
}

func TestConversionService_RetriesTakenInvoiceNumber(t *testing.T) {
	t.Run("a lost number is re-allocated", func(t *testing.T) {
		f := newFixture(t)
		f.store.invoiceNumberClashes = 1
		svc := newConversionService(f, nil, nil)

		result, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{EstimateID: f.estimate.ID})
		require.NoError(t, err)
		assert.Equal(t, "INV-000001", result.Invoice.InvoiceNumber)
		assert.Equal(t, 2, f.store.executions)

		invoices, _, _, _, activities := f.store.counts()
		assert.Equal(t, 1, invoices)
		assert.Equal(t, 1, activities)
	})

	t.Run("gives up after repeated clashes", func(t *testing.T) {
		f := newFixture(t)
		f.store.invoiceNumberClashes = numberingAttempts
		svc := newConversionService(f, nil, nil)

		_, err := svc.ConvertEstimate(context.Background(), f.actor(), ConvertEstimateCommand{EstimateID: f.estimate.ID})
		require.ErrorIs(t, err, billing.ErrInvoiceNumberTaken)
		assert.True(t, shared.IsConflict(err))
		assert.Equal(t, numberingAttempts, f.store.executions)

		invoices, _, _, _, _ := f.store.counts()
		assert.Zero(t, invoices)
	})
}
