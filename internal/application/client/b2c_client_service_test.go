package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func companyPrincipal(tenantID uuid.UUID) identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, TenantID: &tenantID}
}

func adminPrincipal() identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func createB2CRequest() CreateB2CClientRequest {
	return CreateB2CClientRequest{
		Name:           "Ahmed Karim",
		Email:          "ahmed@example.com",
		PassportNumber: "ab123",
		Destination:    "Riyadh",
		ClientType:     string(client.ClientTypeSaudiKuwait),
		ContractAmount: decimalPtr(1000),
		InitialPayment: decimalPtr(200),
	}
}

func existingB2C(t *testing.T, tenantID uuid.UUID) *client.B2CClient {
	t.Helper()
	c, err := client.NewB2CClient(tenantID, client.B2CProfile{
		Name:           "Ahmed Karim",
		Email:          "ahmed@example.com",
		PassportNumber: "AB123",
		Destination:    "Riyadh",
	}, client.ClientTypeSaudiKuwait, "", decimal.NewFromInt(1000), decimal.NewFromInt(200))
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

type b2cFixture struct {
	repo      *MockB2CClientRepository
	txRepo    *MockTransactionRepository
	publisher *recordingPublisher
	service   *B2CClientService
}

func newB2CFixture(policy PassportUniqueness) *b2cFixture {
	f := &b2cFixture{
		repo:      new(MockB2CClientRepository),
		txRepo:    new(MockTransactionRepository),
		publisher: &recordingPublisher{},
	}
	f.service = NewB2CClientService(f.repo, f.txRepo, policy, nil)
	f.service.SetEventPublisher(f.publisher)
	f.service.now = func() time.Time { return time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestB2CClientService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates client with derived due amount", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("ExistsByPassportNumber", ctx, shared.AllTenantsScope(), "AB123", (*uuid.UUID)(nil)).Return(false, nil)
		f.repo.On("Save", ctx, mock.AnythingOfType("*client.B2CClient")).Return(nil)

		resp, err := f.service.Create(ctx, companyPrincipal(tenantID), createB2CRequest())

		require.NoError(t, err)
		assert.Equal(t, tenantID, resp.TenantID)
		assert.Equal(t, "AB123", resp.PassportNumber)
		assert.True(t, resp.DueAmount.Equal(decimal.NewFromInt(800)))
		assert.Equal(t, "file-ready", resp.Status)
		require.Len(t, resp.StatusHistory, 1)
		assert.Equal(t, []string{client.EventTypeClientCreated}, f.publisher.types())
		f.repo.AssertExpectations(t)
	})

	t.Run("ignores tenant_id from company callers", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("ExistsByPassportNumber", ctx, mock.Anything, "AB123", (*uuid.UUID)(nil)).Return(false, nil)
		f.repo.On("Save", ctx, mock.Anything).Return(nil)
		req := createB2CRequest()
		other := uuid.New()
		req.TenantID = &other

		resp, err := f.service.Create(ctx, companyPrincipal(tenantID), req)

		require.NoError(t, err)
		assert.Equal(t, tenantID, resp.TenantID)
	})

	t.Run("admin must name the tenant", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)

		_, err := f.service.Create(ctx, adminPrincipal(), createB2CRequest())

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate passport globally", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("ExistsByPassportNumber", ctx, shared.AllTenantsScope(), "AB123", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := f.service.Create(ctx, companyPrincipal(tenantID), createB2CRequest())

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("per-tenant policy checks only the caller's tenant", func(t *testing.T) {
		f := newB2CFixture(PassportUniquePerTenant)
		f.repo.On("ExistsByPassportNumber", ctx, shared.TenantScope(tenantID), "AB123", (*uuid.UUID)(nil)).Return(false, nil)
		f.repo.On("Save", ctx, mock.Anything).Return(nil)

		_, err := f.service.Create(ctx, companyPrincipal(tenantID), createB2CRequest())

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("stores association without checking it", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("ExistsByPassportNumber", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
		f.repo.On("Save", ctx, mock.Anything).Return(nil)
		b2bID := uuid.New()
		req := createB2CRequest()
		req.AssociatedB2BID = &b2bID

		resp, err := f.service.Create(ctx, companyPrincipal(tenantID), req)

		require.NoError(t, err)
		require.NotNil(t, resp.AssociatedB2BID)
		assert.Equal(t, b2bID, *resp.AssociatedB2BID)
	})

	t.Run("rejects status outside lifecycle", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("ExistsByPassportNumber", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
		req := createB2CRequest()
		req.ClientType = string(client.ClientTypeOtherCountries)
		req.Status = string(client.StatusMedical)

		_, err := f.service.Create(ctx, companyPrincipal(tenantID), req)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATUS", de.Code)
	})
}

func TestB2CClientService_GetByID(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("other tenant's client is not found", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		id := uuid.New()
		f.repo.On("FindByID", ctx, shared.TenantScope(tenantID), id).Return(nil, shared.ErrNotFound)

		_, err := f.service.GetByID(ctx, companyPrincipal(tenantID), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("admin reads across tenants", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, shared.AllTenantsScope(), c.ID).Return(c, nil)

		resp, err := f.service.GetByID(ctx, adminPrincipal(), c.ID)

		require.NoError(t, err)
		assert.Equal(t, c.ID, resp.ID)
	})
}

func TestB2CClientService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("builds filter and excludes archived by default", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		match := mock.MatchedBy(func(fl client.B2CListFilter) bool {
			return fl.Search == "ahmed" && fl.Page == 2 && fl.PageSize == 20 &&
				fl.OrderBy == "created_at" && fl.OrderDir == "desc" &&
				!fl.IncludeArchived && !fl.ArchivedOnly && fl.Status == client.StatusMedical
		})
		f.repo.On("FindAll", ctx, shared.TenantScope(tenantID), match).Return([]client.B2CClient{*c}, nil)
		f.repo.On("Count", ctx, shared.TenantScope(tenantID), match).Return(int64(21), nil)

		items, total, err := f.service.List(ctx, companyPrincipal(tenantID), B2CClientListFilter{Search: "ahmed", Status: "medical", Page: 2})

		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, int64(21), total)
	})

	t.Run("archived view sets archived-only", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		match := mock.MatchedBy(func(fl client.B2CListFilter) bool { return fl.ArchivedOnly })
		f.repo.On("FindAll", ctx, mock.Anything, match).Return([]client.B2CClient{}, nil)
		f.repo.On("Count", ctx, mock.Anything, match).Return(int64(0), nil)

		items, total, err := f.service.ListArchived(ctx, companyPrincipal(tenantID), B2CClientListFilter{})

		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Zero(t, total)
	})

	t.Run("admin tenant filter narrows scope", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("FindAll", ctx, shared.TenantScope(tenantID), mock.Anything).Return([]client.B2CClient{}, nil)
		f.repo.On("Count", ctx, shared.TenantScope(tenantID), mock.Anything).Return(int64(0), nil)

		_, _, err := f.service.List(ctx, adminPrincipal(), B2CClientListFilter{TenantID: &tenantID})

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})
}

func TestB2CClientService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("re-derives due and appends status history", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		c.ApplyNetPayment(uuid.New(), decimal.NewFromInt(300), client.BalanceChangeRecorded)
		c.ClearDomainEvents()
		f.repo.On("FindByID", ctx, shared.TenantScope(tenantID), c.ID).Return(c, nil)
		f.repo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := f.service.Update(ctx, companyPrincipal(tenantID), c.ID, UpdateB2CClientRequest{
			ContractAmount: decimalPtr(1200),
			Status:         strPtr("medical"),
		})

		require.NoError(t, err)
		// paid = 1000 - 500; due = 1200 - 500
		assert.True(t, resp.DueAmount.Equal(decimal.NewFromInt(700)))
		assert.Equal(t, "medical", resp.Status)
		require.Len(t, resp.StatusHistory, 2)
		assert.Equal(t, client.StatusEntry{Status: client.StatusMedical, Date: "2024-07-01", Notes: "Status updated to medical"}, resp.StatusHistory[1])
		assert.Contains(t, f.publisher.types(), client.EventTypeClientStatusChanged)
	})

	t.Run("same status adds no history", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)
		f.repo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := f.service.Update(ctx, companyPrincipal(tenantID), c.ID, UpdateB2CClientRequest{Status: strPtr("file-ready")})

		require.NoError(t, err)
		assert.Len(t, resp.StatusHistory, 1)
	})

	t.Run("passport change re-checks uniqueness", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)
		f.repo.On("ExistsByPassportNumber", ctx, shared.AllTenantsScope(), "ZZ999", &c.ID).Return(true, nil)

		_, err := f.service.Update(ctx, companyPrincipal(tenantID), c.ID, UpdateB2CClientRequest{PassportNumber: strPtr("zz999")})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("invalidates cached status for old and new passport", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		cache := new(MockStatusCache)
		f.service.SetStatusCache(cache)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)
		f.repo.On("ExistsByPassportNumber", ctx, mock.Anything, "NEW1", &c.ID).Return(false, nil)
		f.repo.On("SaveWithLock", ctx, c).Return(nil)
		cache.On("Delete", ctx, []string{"AB123", "NEW1"}).Return(nil)

		_, err := f.service.Update(ctx, companyPrincipal(tenantID), c.ID, UpdateB2CClientRequest{PassportNumber: strPtr("new1")})

		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("concurrency conflict is returned", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)
		f.repo.On("SaveWithLock", ctx, c).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.Update(ctx, companyPrincipal(tenantID), c.ID, UpdateB2CClientRequest{Notes: strPtr("x")})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestB2CClientService_ArchiveRestore(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("delete archives with default reason and snapshots transactions", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, shared.TenantScope(tenantID), c.ID).Return(c, nil)
		f.txRepo.On("CountByClient", ctx, c.ID).Return(int64(2), nil)
		f.repo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := f.service.Delete(ctx, companyPrincipal(tenantID), c.ID)

		require.NoError(t, err)
		assert.True(t, resp.IsArchived)
		assert.True(t, resp.HadTransactions)
		assert.Equal(t, "User requested archival", resp.ArchivedReason)
		require.NotNil(t, resp.ArchivedAt)
	})

	t.Run("archiving twice fails", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		require.NoError(t, c.Archive("", false, time.Now()))
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)
		f.txRepo.On("CountByClient", ctx, c.ID).Return(int64(0), nil)

		_, err := f.service.Archive(ctx, companyPrincipal(tenantID), c.ID, ArchiveB2CClientRequest{})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ALREADY_ARCHIVED", de.Code)
	})

	t.Run("restore clears archive fields", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		require.NoError(t, c.Archive("gone", true, time.Now()))
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)
		f.repo.On("SaveWithLock", ctx, c).Return(nil)

		resp, err := f.service.Restore(ctx, companyPrincipal(tenantID), c.ID)

		require.NoError(t, err)
		assert.False(t, resp.IsArchived)
		assert.Nil(t, resp.ArchivedAt)
		assert.Empty(t, resp.ArchivedReason)
		assert.False(t, resp.HadTransactions)
	})

	t.Run("restore of active client is not found", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		c := existingB2C(t, tenantID)
		f.repo.On("FindByID", ctx, mock.Anything, c.ID).Return(c, nil)

		_, err := f.service.Restore(ctx, companyPrincipal(tenantID), c.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestB2CClientService_CheckStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("requires passport", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)

		_, err := f.service.CheckStatus(ctx, "  ")

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("loads and caches on miss", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		cache := new(MockStatusCache)
		f.service.SetStatusCache(cache)
		c := existingB2C(t, uuid.New())
		cache.On("Get", ctx, "AB123").Return(nil, false, nil)
		f.repo.On("FindLatestByPassportNumber", ctx, "AB123").Return(c, nil)
		cache.On("Set", ctx, "AB123", mock.Anything).Return(nil)

		resp, err := f.service.CheckStatus(ctx, "ab123")

		require.NoError(t, err)
		assert.Equal(t, "Ahmed Karim", resp.Name)
		assert.Equal(t, "file-ready", resp.Status)
		cache.AssertExpectations(t)
	})

	t.Run("serves cache hit", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		cache := new(MockStatusCache)
		f.service.SetStatusCache(cache)
		payload, _ := json.Marshal(StatusCheckResponse{Name: "Cached", PassportNumber: "AB123", Status: "mofa"})
		cache.On("Get", ctx, "AB123").Return(payload, true, nil)

		resp, err := f.service.CheckStatus(ctx, "AB123")

		require.NoError(t, err)
		assert.Equal(t, "Cached", resp.Name)
		f.repo.AssertNotCalled(t, "FindLatestByPassportNumber", mock.Anything, mock.Anything)
	})

	t.Run("unknown passport is not found", func(t *testing.T) {
		f := newB2CFixture(PassportUniqueGlobal)
		f.repo.On("FindLatestByPassportNumber", ctx, "NOPE").Return(nil, shared.ErrNotFound)

		_, err := f.service.CheckStatus(ctx, "nope")

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestParsePassportUniqueness(t *testing.T) {
	p, err := ParsePassportUniqueness("")
	require.NoError(t, err)
	assert.Equal(t, PassportUniqueGlobal, p)

	p, err = ParsePassportUniqueness(" Tenant ")
	require.NoError(t, err)
	assert.Equal(t, PassportUniquePerTenant, p)

	_, err = ParsePassportUniqueness("planet")
	assert.Error(t, err)
}
