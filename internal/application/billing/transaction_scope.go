package billing

import (
	"context"
	"errors"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/partner"
)

// TransactionScope runs a unit of work atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an error
	// the transaction is rolled back, otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the billing repositories bound to one
// transaction. Row locks taken through them are held until Execute returns.
type TransactionalRepositories interface {
	EstimateRepo() billing.EstimateRepository
	InvoiceRepo() billing.InvoiceRepository
	PaymentRepo() billing.PaymentRepository
	ClientRepo() partner.ClientRepository
	LeadRepo() partner.LeadRepository
	JobRepo() job.Repository
	ActivityRecorder() audit.ActivityRecorder
}

// numberingAttempts bounds how often a unit of work that allocates a
// document number is rerun after losing the number to a concurrent writer.
const numberingAttempts = 3

// executeNumbered runs fn like TransactionScope.Execute and reruns it while
// it fails with taken. The number is re-derived on every run.
func executeNumbered(ctx context.Context, scope TransactionScope, taken error, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 0; attempt < numberingAttempts; attempt++ {
		if err = scope.Execute(ctx, fn); !errors.Is(err, taken) {
			return err
		}
	}
	return err
}
