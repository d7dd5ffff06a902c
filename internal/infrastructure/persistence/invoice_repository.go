package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindInvoice finds an invoice by id alone
func (r *GormInvoiceRepository) FindInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindInvoiceForUpdate finds an invoice within a tenant and locks its row.
// Line items are not needed to apply a payment and are not loaded.
func (r *GormInvoiceRepository) FindInvoiceForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// NextInvoiceSequence returns the tenant's invoice count plus one
func (r *GormInvoiceRepository) NextInvoiceSequence(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

// CreateInvoice inserts the invoice header and all of its line items
func (r *GormInvoiceRepository) CreateInvoice(ctx context.Context, inv *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return billing.ErrInvoiceNumberTaken
			}
			return err
		}
		if len(model.LineItems) == 0 {
			return nil
		}
		return tx.Create(&model.LineItems).Error
	})
}

// UpdatePaymentState writes the payment-related columns of an invoice
func (r *GormInvoiceRepository) UpdatePaymentState(ctx context.Context, inv *billing.Invoice) error {
	return r.update(ctx, inv, map[string]any{
		"paid_amount":             inv.PaidAmount,
		"balance":                 inv.Balance,
		"status":                  string(inv.Status),
		"paid_at":                 inv.PaidAt,
		"provider_transaction_id": inv.ProviderTransactionID,
	})
}

// UpdatePaymentLink stores the hosted payment URL and the provider's
// reference for it
func (r *GormInvoiceRepository) UpdatePaymentLink(ctx context.Context, inv *billing.Invoice) error {
	return r.update(ctx, inv, map[string]any{
		"payment_url":             inv.PaymentURL,
		"provider_transaction_id": inv.ProviderTransactionID,
	})
}

func (r *GormInvoiceRepository) update(ctx context.Context, inv *billing.Invoice, columns map[string]any) error {
	updatedAt := inv.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	columns["updated_at"] = updatedAt

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormInvoiceRepository implements billing.InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
