package persistence

import (
	"context"
	"errors"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM.
// The database must be opened with TranslateError so the unique index on
// (tenant_id, provider_transaction_id) surfaces as gorm.ErrDuplicatedKey.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// ExistsByTransactionID checks for a payment carrying the provider
// transaction id within the tenant
func (r *GormPaymentRepository) ExistsByTransactionID(ctx context.Context, tenantID uuid.UUID, providerTxID string) (bool, error) {
	if providerTxID == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND provider_transaction_id = ?", tenantID, providerTxID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreatePayment inserts a payment
func (r *GormPaymentRepository) CreatePayment(ctx context.Context, p *billing.Payment) error {
	if err := r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return billing.ErrPaymentAlreadyApplied
		}
		return err
	}
	return nil
}

// CountByInvoice counts the payments applied to an invoice
func (r *GormPaymentRepository) CountByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByInvoice lists an invoice's payments, oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("processed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, *rows[i].ToDomain())
	}
	return payments, nil
}

// Ensure GormPaymentRepository implements billing.PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
