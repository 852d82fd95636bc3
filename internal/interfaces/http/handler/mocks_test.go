package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	clientapp "github.com/agency/backend/internal/application/client"
	identityapp "github.com/agency/backend/internal/application/identity"
	ledgerapp "github.com/agency/backend/internal/application/ledger"
	reportapp "github.com/agency/backend/internal/application/report"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/interfaces/http/dto"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func companyPrincipal(tenantID uuid.UUID) identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleCompany, TenantID: &tenantID}
}

func adminPrincipal() identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}
}

// newTestRouter returns an engine whose requests act as principal; nil means anonymous
func newTestRouter(principal *identity.Principal) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set(middleware.PrincipalKey, *principal)
		}
		c.Next()
	})
	return router
}

func performRequest(router *gin.Engine, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewBuffer(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// MockB2CClientService implements B2CClientService for testing
type MockB2CClientService struct {
	mock.Mock
}

func (m *MockB2CClientService) Create(ctx context.Context, p identity.Principal, req clientapp.CreateB2CClientRequest) (*clientapp.B2CClientResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2CClientResponse), args.Error(1)
}

func (m *MockB2CClientService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*clientapp.B2CClientResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2CClientResponse), args.Error(1)
}

func (m *MockB2CClientService) List(ctx context.Context, p identity.Principal, filter clientapp.B2CClientListFilter) ([]clientapp.B2CClientResponse, int64, error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).([]clientapp.B2CClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockB2CClientService) ListArchived(ctx context.Context, p identity.Principal, filter clientapp.B2CClientListFilter) ([]clientapp.B2CClientResponse, int64, error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).([]clientapp.B2CClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockB2CClientService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req clientapp.UpdateB2CClientRequest) (*clientapp.B2CClientResponse, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2CClientResponse), args.Error(1)
}

func (m *MockB2CClientService) Archive(ctx context.Context, p identity.Principal, id uuid.UUID, req clientapp.ArchiveB2CClientRequest) (*clientapp.B2CClientResponse, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2CClientResponse), args.Error(1)
}

func (m *MockB2CClientService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) (*clientapp.B2CClientResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2CClientResponse), args.Error(1)
}

func (m *MockB2CClientService) Restore(ctx context.Context, p identity.Principal, id uuid.UUID) (*clientapp.B2CClientResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2CClientResponse), args.Error(1)
}

// MockB2BClientService implements B2BClientService for testing
type MockB2BClientService struct {
	mock.Mock
}

func (m *MockB2BClientService) Create(ctx context.Context, p identity.Principal, req clientapp.CreateB2BClientRequest) (*clientapp.B2BClientResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2BClientResponse), args.Error(1)
}

func (m *MockB2BClientService) GetWithAssociated(ctx context.Context, p identity.Principal, id uuid.UUID) (*clientapp.B2BClientDetailResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2BClientDetailResponse), args.Error(1)
}

func (m *MockB2BClientService) List(ctx context.Context, p identity.Principal, filter clientapp.B2BClientListFilter) ([]clientapp.B2BClientResponse, int64, error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).([]clientapp.B2BClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockB2BClientService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req clientapp.UpdateB2BClientRequest) (*clientapp.B2BClientResponse, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.B2BClientResponse), args.Error(1)
}

func (m *MockB2BClientService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

// MockLedgerService implements LedgerService for testing
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) RecordTransaction(ctx context.Context, p identity.Principal, req ledgerapp.RecordTransactionRequest) (*ledgerapp.LedgerWriteResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.LedgerWriteResponse), args.Error(1)
}

func (m *MockLedgerService) AmendTransaction(ctx context.Context, p identity.Principal, id uuid.UUID, req ledgerapp.AmendTransactionRequest) (*ledgerapp.LedgerWriteResponse, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.LedgerWriteResponse), args.Error(1)
}

func (m *MockLedgerService) RemoveTransaction(ctx context.Context, p identity.Principal, id uuid.UUID) (*ledgerapp.LedgerWriteResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.LedgerWriteResponse), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, p identity.Principal, id uuid.UUID) (*ledgerapp.TransactionResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.TransactionResponse), args.Error(1)
}

func (m *MockLedgerService) ListForClient(ctx context.Context, p identity.Principal, filter ledgerapp.TransactionListFilter) ([]ledgerapp.TransactionResponse, int64, error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).([]ledgerapp.TransactionResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) GetClientBalance(ctx context.Context, p identity.Principal, clientID uuid.UUID, transactionType string) (*ledgerapp.ClientBalanceResponse, error) {
	args := m.Called(ctx, p, clientID, transactionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledgerapp.ClientBalanceResponse), args.Error(1)
}

// MockCompanyService implements CompanyService for testing
type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) Create(ctx context.Context, p identity.Principal, input identityapp.CreateCompanyInput) (*identityapp.CompanyDTO, error) {
	args := m.Called(ctx, p, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.CompanyDTO), args.Error(1)
}

func (m *MockCompanyService) GetProfile(ctx context.Context, p identity.Principal) (*identityapp.CompanyDTO, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.CompanyDTO), args.Error(1)
}

func (m *MockCompanyService) UpdateProfile(ctx context.Context, p identity.Principal, input identityapp.UpdateCompanyProfileInput) (*identityapp.CompanyDTO, error) {
	args := m.Called(ctx, p, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.CompanyDTO), args.Error(1)
}

func (m *MockCompanyService) GetSubscriptionStatus(ctx context.Context, p identity.Principal, companyID uuid.UUID) (*identityapp.SubscriptionStatusDTO, error) {
	args := m.Called(ctx, p, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.SubscriptionStatusDTO), args.Error(1)
}

func (m *MockCompanyService) UpdateSubscription(ctx context.Context, p identity.Principal, companyID uuid.UUID, input identityapp.UpdateSubscriptionInput) (*identityapp.CompanyDTO, error) {
	args := m.Called(ctx, p, companyID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.CompanyDTO), args.Error(1)
}

func (m *MockCompanyService) List(ctx context.Context, p identity.Principal, filter identityapp.CompanyFilter) ([]identityapp.CompanyDTO, int64, error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).([]identityapp.CompanyDTO), args.Get(1).(int64), args.Error(2)
}

// MockReportService implements ReportService for testing
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GetClientReport(ctx context.Context, p identity.Principal, filter reportapp.ReportFilter) (*reportapp.ClientReportResponse, error) {
	args := m.Called(ctx, p, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.ClientReportResponse), args.Error(1)
}

// MockStatusChecker implements StatusChecker for testing
type MockStatusChecker struct {
	mock.Mock
}

func (m *MockStatusChecker) CheckStatus(ctx context.Context, passport string) (*clientapp.StatusCheckResponse, error) {
	args := m.Called(ctx, passport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.StatusCheckResponse), args.Error(1)
}

// Compile-time interface checks against the real services
var (
	_ B2CClientService = (*clientapp.B2CClientService)(nil)
	_ B2BClientService = (*clientapp.B2BClientService)(nil)
	_ LedgerService    = (*ledgerapp.LedgerService)(nil)
	_ CompanyService   = (*identityapp.CompanyService)(nil)
	_ ReportService    = (*reportapp.ReportService)(nil)
	_ StatusChecker    = (*clientapp.B2CClientService)(nil)
)
