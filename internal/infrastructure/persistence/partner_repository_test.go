package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/identity"
	"github.com/fieldservice/backend/internal/domain/job"
	"github.com/fieldservice/backend/internal/domain/partner"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormClientRepository_FindMatchingClient(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	save := func(name, company, email, phone string, updated time.Time) *partner.Client {
		c, err := partner.NewClient(tenantID, name)
		require.NoError(t, err)
		c.CompanyName = company
		c.Email = email
		c.Phone = phone
		c.UpdatedAt = updated
		require.NoError(t, repo.SaveClient(ctx, c))
		return c
	}

	olderAnn := save("Ann Lee", "", "ann@old.example", "", base)
	newerAnn := save("ANN LEE", "", "ann@new.example", "", base.Add(time.Hour))
	phoneClient := save("Bob Stone", "", "", "+1 (555) 010-2000", base)
	acme := save("Carla Diaz", "Acme Roofing", "", "", base)

	tests := []struct {
		name     string
		criteria partner.ClientMatchCriteria
		want     *partner.Client
	}{
		{
			name:     "email ignores case",
			criteria: partner.NewClientMatchCriteria(" ANN@OLD.example ", "", "", ""),
			want:     olderAnn,
		},
		{
			name:     "phone digits suffix",
			criteria: partner.NewClientMatchCriteria("", "555-010-2000", "", ""),
			want:     phoneClient,
		},
		{
			name:     "name match prefers most recently updated",
			criteria: partner.NewClientMatchCriteria("", "", "ann lee", ""),
			want:     newerAnn,
		},
		{
			name:     "name with matching company",
			criteria: partner.NewClientMatchCriteria("", "", "carla diaz", "ACME ROOFING"),
			want:     acme,
		},
		{
			name:     "name with other company does not match",
			criteria: partner.NewClientMatchCriteria("", "", "carla diaz", "Other Co"),
		},
		{
			name:     "empty criteria",
			criteria: partner.ClientMatchCriteria{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindMatchingClient(ctx, tenantID, tt.criteria)
			if tt.want == nil {
				assert.ErrorIs(t, err, shared.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
		})
	}

	t.Run("other tenant is never matched", func(t *testing.T) {
		_, err := repo.FindMatchingClient(ctx, uuid.New(), partner.NewClientMatchCriteria("ann@old.example", "", "", ""))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("names compare under unicode case folding", func(t *testing.T) {
		zoe := save("Zoë Straße", "", "", "", base)
		got, err := repo.FindMatchingClient(ctx, tenantID, partner.NewClientMatchCriteria("", "", "ZOË STRASSE", ""))
		require.NoError(t, err)
		assert.Equal(t, zoe.ID, got.ID)
	})

	t.Run("renamed client is matched by its new keys", func(t *testing.T) {
		bob, err := repo.FindClient(ctx, tenantID, phoneClient.ID)
		require.NoError(t, err)
		bob.Phone = "(312) 555-0199"
		bob.UpdatedAt = base.Add(2 * time.Hour)
		require.NoError(t, repo.SaveClient(ctx, bob))

		_, err = repo.FindMatchingClient(ctx, tenantID, partner.NewClientMatchCriteria("", "555-010-2000", "", ""))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		got, err := repo.FindMatchingClient(ctx, tenantID, partner.NewClientMatchCriteria("", "+1 312 555 0199", "", ""))
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
	})
}

func TestGormClientRepository_FindMatchingClientSingleQuery(t *testing.T) {
	db, mock, _ := setupMockDB(t)
	repo := NewGormClientRepository(db)
	tenantID, clientID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND .*email_key = \$2 OR phone_digits LIKE \$3 OR .*name_key = \$4 AND company_key = \$5.* ORDER BY updated_at DESC, id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "name", "company_name", "email", "is_active", "created_at", "updated_at",
		}).AddRow(
			clientID.String(), tenantID.String(), "Dana Whitfield", "Whitfield Homes", "dana@example.com", true, now, now,
		))

	criteria := partner.NewClientMatchCriteria("Dana@Example.com", "555-010-2000", "dana whitfield", "whitfield homes")
	got, err := repo.FindMatchingClient(context.Background(), tenantID, criteria)
	require.NoError(t, err)
	assert.Equal(t, clientID, got.ID)
	assert.Equal(t, "Dana Whitfield", got.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLeadRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormLeadRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	clientID := uuid.New()

	lead := &partner.Lead{
		TenantEntity:        shared.NewTenantEntity(tenantID),
		FirstName:           "Marco",
		LastName:            "Ruiz",
		Status:              partner.LeadStatusConverted,
		ConvertedToClientID: &clientID,
	}
	require.NoError(t, repo.SaveLead(ctx, lead))

	found, err := repo.FindLead(ctx, tenantID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marco Ruiz", found.FullName())
	assert.True(t, found.IsConverted())

	_, err = repo.FindLead(ctx, uuid.New(), lead.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormJobRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	seq, err := repo.NextJobSequence(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	j := job.FromEstimate(tenantID, uuid.New(), seq, job.Source{
		EstimateID:     uuid.New(),
		EstimateNumber: "EST-000003",
		Title:          "Fence",
		Notes:          "Gate on the north side",
		Total:          valueobject.NewMoneyFromCents(125000),
		JobSiteAddress: "400 Oak Ave, Portland, OR 97201",
	})
	require.NoError(t, repo.CreateJob(ctx, j))

	found, err := repo.FindJob(ctx, tenantID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "JOB-000001", found.JobNumber)
	assert.Equal(t, job.StatusQuote, found.Status)
	assert.Equal(t, int64(125000), found.EstimateAmount.Cents())
	require.NotNil(t, found.SiteAddress)
	assert.Equal(t, "Portland", found.SiteAddress.Address.City())
	assert.Equal(t, "OR", found.SiteAddress.Address.State())
	assert.Equal(t, "97201", found.SiteAddress.Address.ZipCode())

	seq, err = repo.NextJobSequence(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	withoutAddress := job.FromEstimate(tenantID, uuid.New(), seq, job.Source{EstimateID: uuid.New(), Title: "Paint"})
	require.NoError(t, repo.CreateJob(ctx, withoutAddress))
	found, err = repo.FindJob(ctx, tenantID, withoutAddress.ID)
	require.NoError(t, err)
	assert.Nil(t, found.SiteAddress)

	// two estimates numbered from the same count collide on the unique index
	clash := job.FromEstimate(tenantID, uuid.New(), seq, job.Source{EstimateID: uuid.New(), Title: "Deck"})
	err = repo.CreateJob(ctx, clash)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "JOB_NUMBER_TAKEN", de.Code)
	assert.True(t, shared.IsConflict(err))

	otherTenant := job.FromEstimate(uuid.New(), uuid.New(), seq, job.Source{EstimateID: uuid.New(), Title: "Deck"})
	assert.NoError(t, repo.CreateJob(ctx, otherTenant))
}

func TestGormUserRepository_FindActiveUserIDsByRoles(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	save := func(email string, role identity.Role, status identity.UserStatus, tenant uuid.UUID) *identity.User {
		u, err := identity.NewUser(tenant, email, role)
		require.NoError(t, err)
		u.Status = status
		require.NoError(t, repo.SaveUser(ctx, u))
		return u
	}

	admin := save("admin@example.com", identity.RoleAdmin, identity.UserStatusActive, tenantID)
	accountant := save("books@example.com", identity.RoleAccounting, identity.UserStatusActive, tenantID)
	save("tech@example.com", identity.RoleTechnician, identity.UserStatusActive, tenantID)
	save("gone@example.com", identity.RoleAdmin, identity.UserStatusInactive, tenantID)
	save("elsewhere@example.com", identity.RoleAdmin, identity.UserStatusActive, uuid.New())

	ids, err := repo.FindActiveUserIDsByRoles(ctx, tenantID, identity.FinanceRoles)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{admin.ID, accountant.ID}, ids)

	ids, err = repo.FindActiveUserIDsByRoles(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGormNotifier(t *testing.T) {
	db := setupSQLiteDB(t)
	notifier := NewGormNotifier(db)
	ctx := context.Background()
	tenantID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	invoiceID := uuid.New()

	msg := audit.InvoicePaidMessage(invoiceID, "INV-000004", "Dana Whitfield", valueobject.NewMoneyFromCents(123450))
	require.NoError(t, notifier.Notify(ctx, tenantID, []uuid.UUID{alice, bob}, msg))
	require.NoError(t, notifier.Notify(ctx, tenantID, nil, msg))

	for _, uid := range []uuid.UUID{alice, bob} {
		unread, err := notifier.FindUnread(ctx, tenantID, uid)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, "Payment Received", unread[0].Title)
		assert.Equal(t, "Dana Whitfield paid $1,234.50 for invoice INV-000004", unread[0].Body)
		assert.Equal(t, audit.LinkInvoice, unread[0].LinkType)
		assert.Equal(t, invoiceID, unread[0].LinkID)
		assert.True(t, unread[0].RequiresAck)
	}
}

func TestGormActivityRecorder(t *testing.T) {
	db := setupSQLiteDB(t)
	recorder := NewGormActivityRecorder(db)
	ctx := context.Background()
	tenantID := uuid.New()
	estimateID, jobID := uuid.New(), uuid.New()

	a := audit.NewActivity(shared.NewActor(tenantID, nil), audit.ActivityJobCreated, "Job created").
		WithEstimate(estimateID).
		WithJob(jobID)
	require.NoError(t, recorder.RecordActivity(ctx, a))

	found, err := recorder.FindByEstimate(ctx, tenantID, estimateID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, audit.ActivityJobCreated, found[0].Type)
	assert.Equal(t, &jobID, found[0].JobID)
	assert.Nil(t, found[0].UserID)
}
