package catalog

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
)

// TransactionScope runs a catalog unit of work atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an error
	// the transaction is rolled back, otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the catalog repositories, and the
// estimate repository bundles are applied to, bound to one transaction.
type TransactionalRepositories interface {
	ItemRepo() catalog.ItemRepository
	BundleRepo() catalog.BundleRepository
	EstimateRepo() billing.EstimateRepository
}
