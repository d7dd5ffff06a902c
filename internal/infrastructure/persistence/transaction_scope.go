package persistence

import (
	"context"

	appbilling "github.com/fieldservice/backend/internal/application/billing"
	appcatalog "github.com/fieldservice/backend/internal/application/catalog"
	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements the billing TransactionScope using
// GORM transactions. Row locks taken by the repositories it hands out are
// held until Execute returns.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBillingRepositories{tx: tx})
	})
}

// gormBillingRepositories provides the billing repositories within a transaction.
type gormBillingRepositories struct {
	tx *gorm.DB
}

func (r *gormBillingRepositories) EstimateRepo() billing.EstimateRepository {
	return NewGormEstimateRepository(r.tx)
}

func (r *gormBillingRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormBillingRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormBillingRepositories) ClientRepo() partner.ClientRepository {
	return NewGormClientRepository(r.tx)
}

func (r *gormBillingRepositories) LeadRepo() partner.LeadRepository {
	return NewGormLeadRepository(r.tx)
}

func (r *gormBillingRepositories) JobRepo() job.Repository {
	return NewGormJobRepository(r.tx)
}

func (r *gormBillingRepositories) ActivityRecorder() audit.ActivityRecorder {
	return NewGormActivityRecorder(r.tx)
}

// GormCatalogTransactionScope implements the catalog TransactionScope using
// GORM transactions.
type GormCatalogTransactionScope struct {
	db *gorm.DB
}

// NewGormCatalogTransactionScope creates a new GormCatalogTransactionScope.
func NewGormCatalogTransactionScope(db *gorm.DB) *GormCatalogTransactionScope {
	return &GormCatalogTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormCatalogTransactionScope) Execute(ctx context.Context, fn func(repos appcatalog.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCatalogRepositories{tx: tx})
	})
}

// gormCatalogRepositories provides the catalog repositories within a transaction.
type gormCatalogRepositories struct {
	tx *gorm.DB
}

func (r *gormCatalogRepositories) ItemRepo() catalog.ItemRepository {
	return NewGormItemRepository(r.tx)
}

func (r *gormCatalogRepositories) BundleRepo() catalog.BundleRepository {
	return NewGormBundleRepository(r.tx)
}

func (r *gormCatalogRepositories) EstimateRepo() billing.EstimateRepository {
	return NewGormEstimateRepository(r.tx)
}

var (
	_ appbilling.TransactionScope          = (*GormBillingTransactionScope)(nil)
	_ appbilling.TransactionalRepositories = (*gormBillingRepositories)(nil)
	_ appcatalog.TransactionScope          = (*GormCatalogTransactionScope)(nil)
	_ appcatalog.TransactionalRepositories = (*gormCatalogRepositories)(nil)
)
