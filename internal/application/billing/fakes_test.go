package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/identity"
	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ==================== In-memory store ====================

// memStore is a transactional in-memory record store. Execute serializes
// units of work (standing in for row locks) and restores a snapshot when the
// unit of work fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	estimates  map[uuid.UUID]billing.Estimate
	invoices   map[uuid.UUID]billing.Invoice
	payments   map[uuid.UUID]billing.Payment
	clients    map[uuid.UUID]partner.Client
	leads      map[uuid.UUID]partner.Lead
	jobs       map[uuid.UUID]job.Job
	activities []audit.Activity
	groups     []billing.DocumentLineGroup

	failCreateInvoice     error
	failCreateJob         error
	failCreatePayment     error
	failUpdatePaymentLink error
	// numbers lost to a concurrent writer before the next create succeeds
	invoiceNumberClashes int
	jobNumberClashes     int
	executions           int
}

func newMemStore() *memStore {
	return &memStore{
		estimates: map[uuid.UUID]billing.Estimate{},
		invoices:  map[uuid.UUID]billing.Invoice{},
		payments:  map[uuid.UUID]billing.Payment{},
		clients:   map[uuid.UUID]partner.Client{},
		leads:     map[uuid.UUID]partner.Lead{},
		jobs:      map[uuid.UUID]job.Job{},
	}
}

type memSnapshot struct {
	estimates  map[uuid.UUID]billing.Estimate
	invoices   map[uuid.UUID]billing.Invoice
	payments   map[uuid.UUID]billing.Payment
	clients    map[uuid.UUID]partner.Client
	jobs       map[uuid.UUID]job.Job
	activities []audit.Activity
	groups     []billing.DocumentLineGroup
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		estimates:  copyMap(s.estimates),
		invoices:   copyMap(s.invoices),
		payments:   copyMap(s.payments),
		clients:    copyMap(s.clients),
		jobs:       copyMap(s.jobs),
		activities: append([]audit.Activity(nil), s.activities...),
		groups:     append([]billing.DocumentLineGroup(nil), s.groups...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates = snap.estimates
	s.invoices = snap.invoices
	s.payments = snap.payments
	s.clients = snap.clients
	s.jobs = snap.jobs
	s.activities = snap.activities
	s.groups = snap.groups
}

// Execute implements TransactionScope
func (s *memStore) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.executions++

	snap := s.snapshot()
	if err := fn(memRepos{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memRepos struct{ s *memStore }

func (r memRepos) EstimateRepo() billing.EstimateRepository { return r.s }
func (r memRepos) InvoiceRepo() billing.InvoiceRepository   { return r.s }
func (r memRepos) PaymentRepo() billing.PaymentRepository   { return r.s }
func (r memRepos) ClientRepo() partner.ClientRepository     { return r.s }
func (r memRepos) LeadRepo() partner.LeadRepository         { return r.s }
func (r memRepos) JobRepo() job.Repository                  { return r.s }
func (r memRepos) ActivityRecorder() audit.ActivityRecorder { return r.s }

func cloneEstimate(e billing.Estimate) *billing.Estimate {
	e.LineItems = append([]billing.LineItem(nil), e.LineItems...)
	return &e
}

func cloneInvoice(inv billing.Invoice) *billing.Invoice {
	inv.LineItems = append([]billing.LineItem(nil), inv.LineItems...)
	return &inv
}

// seeding helpers

func (s *memStore) putEstimate(e *billing.Estimate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates[e.ID] = *cloneEstimate(*e)
}

func (s *memStore) putInvoice(inv *billing.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = *cloneInvoice(*inv)
}

func (s *memStore) putClient(c *partner.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = *c
}

func (s *memStore) putLead(l *partner.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[l.ID] = *l
}

func (s *memStore) invoice(id uuid.UUID) *billing.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneInvoice(s.invoices[id])
}

func (s *memStore) estimate(id uuid.UUID) *billing.Estimate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEstimate(s.estimates[id])
}

func (s *memStore) counts() (invoices, payments, jobs, clients, activities int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices), len(s.payments), len(s.jobs), len(s.clients), len(s.activities)
}

func (s *memStore) activityTypes() []audit.ActivityType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.ActivityType, 0, len(s.activities))
	for _, a := range s.activities {
		out = append(out, a.Type)
	}
	return out
}

func (s *memStore) onlyJob() job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		return j
	}
	return job.Job{}
}

// EstimateRepository

func (s *memStore) FindEstimate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.estimates[id]
	if !ok || e.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return cloneEstimate(e), nil
}

func (s *memStore) FindEstimateForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Estimate, error) {
	return s.FindEstimate(ctx, tenantID, id)
}

func (s *memStore) SaveEstimate(ctx context.Context, est *billing.Estimate) error {
	s.putEstimate(est)
	return nil
}

func (s *memStore) SaveLineGroup(ctx context.Context, group *billing.DocumentLineGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, *group)
	return nil
}

// InvoiceRepository

func (s *memStore) FindInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (s *memStore) FindInvoiceForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	inv, err := s.FindInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (s *memStore) NextInvoiceSequence(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, inv := range s.invoices {
		if inv.TenantID == tenantID {
			n++
		}
	}
	return n + 1, nil
}

func (s *memStore) CreateInvoice(ctx context.Context, inv *billing.Invoice) error {
	if s.failCreateInvoice != nil {
		return s.failCreateInvoice
	}
	if s.invoiceNumberClashes > 0 {
		s.invoiceNumberClashes--
		return billing.ErrInvoiceNumberTaken
	}
	s.putInvoice(inv)
	return nil
}

func (s *memStore) UpdatePaymentState(ctx context.Context, inv *billing.Invoice) error {
	s.putInvoice(inv)
	return nil
}

func (s *memStore) UpdatePaymentLink(ctx context.Context, inv *billing.Invoice) error {
	if s.failUpdatePaymentLink != nil {
		return s.failUpdatePaymentLink
	}
	s.putInvoice(inv)
	return nil
}

// PaymentRepository

func (s *memStore) ExistsByTransactionID(ctx context.Context, tenantID uuid.UUID, providerTxID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.TenantID == tenantID && p.ProviderTransactionID != nil && *p.ProviderTransactionID == providerTxID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreatePayment(ctx context.Context, p *billing.Payment) error {
	if s.failCreatePayment != nil {
		return s.failCreatePayment
	}
	if p.ProviderTransactionID != nil {
		exists, _ := s.ExistsByTransactionID(ctx, p.TenantID, *p.ProviderTransactionID)
		if exists {
			return billing.ErrPaymentAlreadyApplied
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = *p
	return nil
}

func (s *memStore) CountByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.payments {
		if p.TenantID == tenantID && p.InvoiceID == invoiceID {
			n++
		}
	}
	return n, nil
}

// ClientRepository

func (s *memStore) FindClient(ctx context.Context, tenantID, id uuid.UUID) (*partner.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (s *memStore) FindMatchingClient(ctx context.Context, tenantID uuid.UUID, criteria partner.ClientMatchCriteria) (*partner.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []partner.Client
	for _, c := range s.clients {
		c := c
		if c.TenantID == tenantID && criteria.Matches(&c) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, shared.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	return &matches[0], nil
}

func (s *memStore) SaveClient(ctx context.Context, c *partner.Client) error {
	s.putClient(c)
	return nil
}

// LeadRepository

func (s *memStore) FindLead(ctx context.Context, tenantID, id uuid.UUID) (*partner.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok || l.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

// job.Repository

func (s *memStore) FindJob(ctx context.Context, tenantID, id uuid.UUID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &j, nil
}

func (s *memStore) NextJobSequence(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, j := range s.jobs {
		if j.TenantID == tenantID {
			n++
		}
	}
	return n + 1, nil
}

func (s *memStore) CreateJob(ctx context.Context, j *job.Job) error {
	if s.failCreateJob != nil {
		return s.failCreateJob
	}
	if s.jobNumberClashes > 0 {
		s.jobNumberClashes--
		return job.ErrNumberTaken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = *j
	return nil
}

// audit.ActivityRecorder

func (s *memStore) RecordActivity(ctx context.Context, a *audit.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, *a)
	return nil
}

// ==================== Mocks ====================

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindActiveUserIDsByRoles(ctx context.Context, tenantID uuid.UUID, roles []identity.Role) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, u *identity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

// MockNotifier is a mock implementation of audit.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, msg audit.Message) error {
	args := m.Called(ctx, tenantID, userIDs, msg)
	return args.Error(0)
}

// MockPaymentLinkProvider is a mock implementation of billing.PaymentLinkProvider
type MockPaymentLinkProvider struct {
	mock.Mock
}

func (m *MockPaymentLinkProvider) CreatePaymentLink(ctx context.Context, req billing.PaymentLinkRequest) (*billing.PaymentLink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PaymentLink), args.Error(1)
}

func (m *MockPaymentLinkProvider) Name() string {
	return "mock"
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}

// recordingMetrics captures metric calls for assertions
type recordingMetrics struct {
	mu         sync.Mutex
	converted  []string
	outcomes   []string
	jobs       int
	linkFailed int
}

func (r *recordingMetrics) RecordInvoiceConverted(_ context.Context, _ uuid.UUID, mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converted = append(r.converted, mode)
}

func (r *recordingMetrics) RecordPaymentEvent(_ context.Context, _ uuid.UUID, _, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingMetrics) RecordJobMaterialized(context.Context, uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs++
}

func (r *recordingMetrics) RecordPaymentLinkFailure(context.Context, uuid.UUID, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linkFailed++
}
