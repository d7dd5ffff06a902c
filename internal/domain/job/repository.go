package job

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrNumberTaken is returned when another job of the tenant already holds
// the number
var ErrNumberTaken = shared.NewConflictError("JOB_NUMBER_TAKEN", "Job number already exists")

// Repository persists jobs and their site addresses
type Repository interface {
	FindJob(ctx context.Context, tenantID, id uuid.UUID) (*Job, error)

	// NextJobSequence returns count+1 of the tenant's jobs
	NextJobSequence(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CreateJob inserts the job and, when present, its site address
	CreateJob(ctx context.Context, j *Job) error
}
