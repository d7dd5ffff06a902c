package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEstimate(t *testing.T, tenantID uuid.UUID, prices ...int64) *billing.Estimate {
	t.Helper()
	est := billing.NewEstimate(tenantID, "EST-000001", "Deck repair", decimal.RequireFromString("0.0725"))
	clientID := uuid.New()
	est.ClientID = &clientID
	for i, cents := range prices {
		line, err := billing.NewLineItem("Line "+string(rune('A'+i)), decimal.NewFromInt(2), valueobject.NewMoneyFromCents(cents), nil)
		require.NoError(t, err)
		require.NoError(t, est.AppendLineItems(line))
	}
	return est
}

func TestGormEstimateRepository_SaveAndFind(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormEstimateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	est := newTestEstimate(t, tenantID, 1000, 2550)
	require.NoError(t, repo.SaveEstimate(ctx, est))

	t.Run("loads header, totals and ordered lines", func(t *testing.T) {
		found, err := repo.FindEstimate(ctx, tenantID, est.ID)
		require.NoError(t, err)
		assert.Equal(t, "EST-000001", found.EstimateNumber)
		assert.Equal(t, billing.EstimateStatusDraft, found.Status)
		assert.Equal(t, est.Subtotal.Cents(), found.Subtotal.Cents())
		assert.Equal(t, est.Total.Cents(), found.Total.Cents())
		assert.True(t, found.TaxRate.Equal(decimal.RequireFromString("0.0725")))
		require.Len(t, found.LineItems, 2)
		assert.Equal(t, "Line A", found.LineItems[0].Description)
		assert.Equal(t, int64(5100), found.LineItems[1].Total.Cents())
		assert.True(t, found.LineItems[1].Quantity.Equal(decimal.NewFromInt(2)))
	})

	t.Run("other tenant cannot see it", func(t *testing.T) {
		_, err := repo.FindEstimate(ctx, uuid.New(), est.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save removes dropped lines", func(t *testing.T) {
		found, err := repo.FindEstimate(ctx, tenantID, est.ID)
		require.NoError(t, err)
		found.LineItems = found.LineItems[1:]
		require.NoError(t, found.Recalculate())
		jobID := uuid.New()
		found.JobID = &jobID
		require.NoError(t, repo.SaveEstimate(ctx, found))

		again, err := repo.FindEstimateForUpdate(ctx, tenantID, est.ID)
		require.NoError(t, err)
		require.Len(t, again.LineItems, 1)
		assert.Equal(t, "Line B", again.LineItems[0].Description)
		assert.Equal(t, int64(5100), again.Subtotal.Cents())
		assert.Equal(t, &jobID, again.JobID)
	})
}

func TestGormEstimateRepository_LineGroups(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormEstimateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	est := newTestEstimate(t, tenantID)
	require.NoError(t, repo.SaveEstimate(ctx, est))

	def := &catalog.BundleDefinition{TenantEntity: shared.NewTenantEntity(tenantID), Name: "Gutter kit"}

	group := billing.NewBundleLineGroup(tenantID, billing.DocumentTypeEstimate, est.ID, def)
	require.NoError(t, repo.SaveLineGroup(ctx, group))

	groups, err := repo.FindLineGroups(ctx, tenantID, billing.DocumentTypeEstimate, est.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Gutter kit", groups[0].SourceBundleName)
	assert.Equal(t, def.ID, *groups[0].SourceBundleID)
}

func TestGormInvoiceRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

	est := newTestEstimate(t, tenantID, 40000, 10000)
	inv, err := billing.ConvertEstimate(est, billing.ConversionRequest{EstimateID: est.ID, Mode: billing.BillingModeFull}, billing.InvoiceDraft{
		Number: "INV-000001",
		Token:  "tok",
		Now:    now,
	})
	require.NoError(t, err)

	seq, err := repo.NextInvoiceSequence(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	require.NoError(t, repo.CreateInvoice(ctx, inv))

	seq, err = repo.NextInvoiceSequence(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	t.Run("find by id alone loads lines", func(t *testing.T) {
		found, err := repo.FindInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, tenantID, found.TenantID)
		assert.Equal(t, inv.Total.Cents(), found.Total.Cents())
		assert.Equal(t, inv.Total.Cents(), found.Balance.Cents())
		assert.Equal(t, billing.BillingModeFull, found.BillingMode)
		require.Len(t, found.LineItems, 2)
		assert.Equal(t, 0, found.LineItems[0].SortOrder)
	})

	t.Run("payment state is written", func(t *testing.T) {
		locked, err := repo.FindInvoiceForUpdate(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		_, err = locked.ApplyPayment(locked.Balance, "pay-9", now)
		require.NoError(t, err)
		require.NoError(t, repo.UpdatePaymentState(ctx, locked))

		found, err := repo.FindInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusPaid, found.Status)
		assert.True(t, found.Balance.IsZero())
		assert.Equal(t, inv.Total.Cents(), found.PaidAmount.Cents())
		assert.Equal(t, "pay-9", found.ProviderTransactionID)
		require.NotNil(t, found.PaidAt)
	})

	t.Run("payment link is written", func(t *testing.T) {
		inv.AttachPaymentLink("https://pay.example.com/x", "pref-7")
		require.NoError(t, repo.UpdatePaymentLink(ctx, inv))

		found, err := repo.FindInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/x", found.PaymentURL)
	})

	t.Run("invoice number is unique per tenant", func(t *testing.T) {
		other := newTestEstimate(t, tenantID, 5000)
		dup, err := billing.ConvertEstimate(other, billing.ConversionRequest{EstimateID: other.ID, Mode: billing.BillingModeFull}, billing.InvoiceDraft{
			Number: "INV-000001",
			Token:  "tok-2",
			Now:    now,
		})
		require.NoError(t, err)

		err = repo.CreateInvoice(ctx, dup)
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVOICE_NUMBER_TAKEN", de.Code)

		seq, err := repo.NextInvoiceSequence(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), seq)

		elsewhere := newTestEstimate(t, uuid.New(), 5000)
		same, err := billing.ConvertEstimate(elsewhere, billing.ConversionRequest{EstimateID: elsewhere.ID, Mode: billing.BillingModeFull}, billing.InvoiceDraft{
			Number: "INV-000001",
			Token:  "tok-3",
			Now:    now,
		})
		require.NoError(t, err)
		assert.NoError(t, repo.CreateInvoice(ctx, same))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := repo.FindInvoice(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		ghost := *inv
		ghost.ID = uuid.New()
		assert.ErrorIs(t, repo.UpdatePaymentState(ctx, &ghost), shared.ErrNotFound)
	})
}

func TestGormPaymentRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now()

	inv := &billing.Invoice{TenantEntity: shared.NewTenantEntity(tenantID)}
	payload := json.RawMessage(`{"transactionId":"tx-1"}`)

	first := billing.NewCompletedPayment(inv, valueobject.NewMoneyFromCents(5000), "tx-1", payload, now)
	require.NoError(t, repo.CreatePayment(ctx, first))

	t.Run("same transaction id is rejected", func(t *testing.T) {
		dup := billing.NewCompletedPayment(inv, valueobject.NewMoneyFromCents(5000), "tx-1", payload, now)
		assert.ErrorIs(t, repo.CreatePayment(ctx, dup), billing.ErrPaymentAlreadyApplied)
	})

	t.Run("same transaction id in another tenant is accepted", func(t *testing.T) {
		other := &billing.Invoice{TenantEntity: shared.NewTenantEntity(uuid.New())}
		p := billing.NewCompletedPayment(other, valueobject.NewMoneyFromCents(5000), "tx-1", payload, now)
		assert.NoError(t, repo.CreatePayment(ctx, p))
	})

	t.Run("payments without transaction id never collide", func(t *testing.T) {
		require.NoError(t, repo.CreatePayment(ctx, billing.NewCompletedPayment(inv, valueobject.NewMoneyFromCents(100), "", nil, now)))
		require.NoError(t, repo.CreatePayment(ctx, billing.NewCompletedPayment(inv, valueobject.NewMoneyFromCents(100), "", nil, now)))
	})

	exists, err := repo.ExistsByTransactionID(ctx, tenantID, "tx-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByTransactionID(ctx, tenantID, "tx-2")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.CountByInvoice(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	payments, err := repo.FindByInvoice(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	var withPayload int
	for _, p := range payments {
		if len(p.WebhookPayload) > 0 {
			assert.JSONEq(t, string(payload), string(p.WebhookPayload))
			withPayload++
		}
	}
	assert.Equal(t, 1, withPayload)
}
