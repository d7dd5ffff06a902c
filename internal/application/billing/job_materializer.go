package billing

import (
	"context"
	"fmt"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/identity"
	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Materialization is the outcome of JobMaterializer.Ensure
type Materialization struct {
	JobID     *uuid.UUID
	JobNumber string
	ClientID  *uuid.UUID
	// Created is true only for the call that created the job
	Created bool
	// ClientCreated is true when a client was created from the estimate's lead
	ClientCreated bool
	// Skipped is set when no job exists and none could be created
	Skipped string
}

// Skip reasons
const (
	SkipEstimateMissing = "estimate_missing"
	SkipNoClient        = "no_client"
)

// JobMaterializer turns a paid estimate into a job exactly once. The
// estimate row is locked for the whole unit of work, so concurrent payments
// for the same estimate serialize and the second one finds the job link.
type JobMaterializer struct {
	txScope  TransactionScope
	notifier *financeNotifier
	metrics  Metrics
	logger   *zap.Logger
}

// JobMaterializerConfig holds the dependencies of JobMaterializer
type JobMaterializerConfig struct {
	TxScope  TransactionScope
	Users    identity.UserRepository
	Notifier audit.Notifier
	Metrics  Metrics
	Logger   *zap.Logger
}

// NewJobMaterializer creates a new JobMaterializer
func NewJobMaterializer(cfg JobMaterializerConfig) *JobMaterializer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &JobMaterializer{
		txScope:  cfg.TxScope,
		notifier: &financeNotifier{users: cfg.Users, notifier: cfg.Notifier, logger: logger},
		metrics:  metrics,
		logger:   logger,
	}
}

// Ensure links the estimate to a job, creating the job (and a client when
// the estimate only has a lead) if none exists yet. It is safe to call any
// number of times; everything it needs is re-derived from persisted state.
func (m *JobMaterializer) Ensure(ctx context.Context, tenantID, estimateID uuid.UUID) (*Materialization, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "job", "materialize")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrEstimateID, estimateID.String(),
	)

	var (
		result         Materialization
		estimateNumber string
	)
	err := executeNumbered(ctx, m.txScope, job.ErrNumberTaken, func(repos TransactionalRepositories) error {
		result = Materialization{}

		est, err := repos.EstimateRepo().FindEstimateForUpdate(ctx, tenantID, estimateID)
		if err != nil {
			if shared.IsNotFound(err) {
				result.Skipped = SkipEstimateMissing
				return nil
			}
			return fmt.Errorf("load estimate: %w", err)
		}
		estimateNumber = est.EstimateNumber

		if est.HasJob() {
			result.JobID = est.JobID
			result.ClientID = est.ClientID
			return nil
		}

		clientID, created, err := resolveClient(ctx, repos, est)
		if err != nil {
			return err
		}
		if clientID == nil {
			result.Skipped = SkipNoClient
			return nil
		}
		result.ClientID = clientID
		result.ClientCreated = created

		seq, err := repos.JobRepo().NextJobSequence(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("next job number: %w", err)
		}
		j := job.FromEstimate(tenantID, *clientID, seq, job.Source{
			EstimateID:     est.ID,
			EstimateNumber: est.EstimateNumber,
			Title:          est.Title,
			Notes:          est.Notes,
			Total:          est.Total,
			JobSiteAddress: est.JobSiteAddress,
		})
		if err := repos.JobRepo().CreateJob(ctx, j); err != nil {
			return fmt.Errorf("create job: %w", err)
		}

		if err := est.MarkConverted(j.ID, *clientID); err != nil {
			return err
		}
		if err := repos.EstimateRepo().SaveEstimate(ctx, est); err != nil {
			return fmt.Errorf("link estimate to job: %w", err)
		}

		activity := audit.NewActivity(shared.NewActor(tenantID, nil), audit.ActivityJobCreated,
			fmt.Sprintf("Payment received. Estimate %q converted to job %s", est.EstimateNumber, j.JobNumber)).
			WithClient(*clientID).
			WithEstimate(est.ID).
			WithJob(j.ID)
		if err := repos.ActivityRecorder().RecordActivity(ctx, activity); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}

		jobID := j.ID
		result.JobID = &jobID
		result.JobNumber = j.JobNumber
		result.Created = true
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		m.logger.Error("Job materialization failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("estimate_id", estimateID.String()),
			zap.Error(err))
		return nil, err
	}

	if !result.Created {
		return &result, nil
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrJobID, result.JobID.String())
	m.metrics.RecordJobMaterialized(ctx, tenantID)
	m.logger.Info("Job materialized from paid estimate",
		zap.String("tenant_id", tenantID.String()),
		zap.String("estimate_id", estimateID.String()),
		zap.String("job_id", result.JobID.String()),
		zap.String("job_number", result.JobNumber),
		zap.Bool("client_created", result.ClientCreated))

	m.notifier.notify(ctx, tenantID, audit.EstimateConvertedMessage(estimateNumber, *result.JobID, result.JobNumber))
	return &result, nil
}

// resolveClient picks the client a job is created for, in order: the
// estimate's client, the client the lead was converted to, an existing
// client matching the lead, or a new client built from the lead. A nil id
// means no client can be determined.
func resolveClient(ctx context.Context, repos TransactionalRepositories, est *billing.Estimate) (*uuid.UUID, bool, error) {
	if est.HasClient() {
		return est.ClientID, false, nil
	}
	if est.LeadID == nil {
		return nil, false, nil
	}

	lead, err := repos.LeadRepo().FindLead(ctx, est.TenantID, *est.LeadID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load lead: %w", err)
	}
	if lead.IsConverted() {
		return lead.ConvertedToClientID, false, nil
	}

	if criteria := lead.MatchCriteria(); !criteria.IsEmpty() {
		existing, err := repos.ClientRepo().FindMatchingClient(ctx, est.TenantID, criteria)
		switch {
		case err == nil:
			id := existing.ID
			return &id, false, nil
		case !shared.IsNotFound(err):
			return nil, false, fmt.Errorf("match client: %w", err)
		}
	}

	client, err := lead.ToClient()
	if err != nil {
		return nil, false, nil
	}
	if err := repos.ClientRepo().SaveClient(ctx, client); err != nil {
		return nil, false, fmt.Errorf("create client from lead: %w", err)
	}
	id := client.ID
	return &id, true, nil
}
