package handler

import (
	"net/http"
	"testing"

	reportapp "github.com/agency/backend/internal/application/report"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportHandler_ClientReport(t *testing.T) {
	tenantID := uuid.New()

	route := func(svc *MockReportService, principal identity.Principal) func(target string, headers ...string) (int, string) {
		h := NewReportHandler(svc)
		router := newTestRouter(&principal)
		router.GET("/api/v1/reports", h.ClientReport)
		return func(target string, headers ...string) (int, string) {
			w := performRequest(router, http.MethodGet, target, nil, headers...)
			return w.Code, w.Body.String()
		}
	}

	t.Run("company report", func(t *testing.T) {
		principal := companyPrincipal(tenantID)
		svc := new(MockReportService)
		svc.On("GetClientReport", mock.Anything, principal, reportapp.ReportFilter{ClientType: "b2c", Range: "last7days"}).
			Return(&reportapp.ClientReportResponse{
				Summary:   reportapp.SummaryResponse{TotalClients: 2, B2CClients: 2, ActiveClients: 2},
				Financial: reportapp.FinancialResponse{TotalPaid: decimal.NewFromInt(400), TotalDue: decimal.NewFromInt(1600)},
			}, nil)

		code, body := route(svc, principal)("/api/v1/reports?client_type=b2c&range=last7days")

		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, `"total_due":"1600"`)
		svc.AssertExpectations(t)
	})

	t.Run("admin scopes to one tenant", func(t *testing.T) {
		admin := adminPrincipal()
		svc := new(MockReportService)
		svc.On("GetClientReport", mock.Anything, admin, mock.MatchedBy(func(f reportapp.ReportFilter) bool {
			return f.TenantID != nil && *f.TenantID == tenantID
		})).Return(&reportapp.ClientReportResponse{}, nil)

		code, _ := route(svc, admin)("/api/v1/reports", middleware.TenantIDHeader, tenantID.String())

		assert.Equal(t, http.StatusOK, code)
		svc.AssertExpectations(t)
	})

	t.Run("plain users are forbidden", func(t *testing.T) {
		user := identity.Principal{UserID: uuid.New(), Role: identity.RoleUser, TenantID: &tenantID}
		svc := new(MockReportService)
		svc.On("GetClientReport", mock.Anything, user, mock.Anything).Return(nil, shared.ErrForbidden)

		code, _ := route(svc, user)("/api/v1/reports")

		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("unknown range", func(t *testing.T) {
		principal := companyPrincipal(tenantID)
		svc := new(MockReportService)
		svc.On("GetClientReport", mock.Anything, principal, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_RANGE", "Unknown report range"))

		code, _ := route(svc, principal)("/api/v1/reports?range=forever")

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown client type", func(t *testing.T) {
		principal := companyPrincipal(tenantID)
		svc := new(MockReportService)

		code, _ := route(svc, principal)("/api/v1/reports?client_type=vip")

		assert.Equal(t, http.StatusBadRequest, code)
	})
}
