package report

import (
	"context"
	"sort"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report ranges
const (
	RangeLast7Days  = "last7days"
	RangeLast30Days = "last30days"
	RangeThisMonth  = "this_month"
	RangeLastMonth  = "last_month"
)

// Client type selectors
const (
	ClientTypeAll = "all"
	ClientTypeB2C = "b2c"
	ClientTypeB2B = "b2b"
)

// ReportService builds client and financial reports over a tenant's clients
type ReportService struct {
	b2cRepo client.B2CClientRepository
	b2bRepo client.B2BClientRepository
	now     func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	b2cRepo client.B2CClientRepository,
	b2bRepo client.B2BClientRepository,
) *ReportService {
	return &ReportService{
		b2cRepo: b2cRepo,
		b2bRepo: b2bRepo,
		now:     time.Now,
	}
}

// ReportFilter defines the request filter for client reports
type ReportFilter struct {
	ClientType      string     `form:"client_type" binding:"omitempty,oneof=all b2c b2b"`
	Range           string     `form:"range"`
	IncludeArchived bool       `form:"include_archived"`
	TenantID        *uuid.UUID `form:"-"`
}

// SummaryResponse counts the clients in the report
type SummaryResponse struct {
	TotalClients    int `json:"total_clients"`
	ActiveClients   int `json:"active_clients"`
	ArchivedClients int `json:"archived_clients"`
	B2CClients      int `json:"b2c_clients"`
	B2BClients      int `json:"b2b_clients"`
}

// FinancialResponse totals the money in the report
type FinancialResponse struct {
	TotalPaid decimal.Decimal `json:"total_paid"`
	TotalDue  decimal.Decimal `json:"total_due"`
}

// ClientRowResponse is one client line of the report
type ClientRowResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Passport  string          `json:"passport,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Type      string          `json:"type"`
	Status    string          `json:"status,omitempty"`
	Created   time.Time       `json:"created"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	TotalDue  decimal.Decimal `json:"total_due"`
	Archived  bool            `json:"archived"`
}

// ClientReportResponse is the full client report
type ClientReportResponse struct {
	PeriodStart        time.Time           `json:"period_start"`
	PeriodEnd          time.Time           `json:"period_end"`
	Summary            SummaryResponse     `json:"summary"`
	Financial          FinancialResponse   `json:"financial"`
	StatusDistribution map[string]int      `json:"status_distribution"`
	Clients            []ClientRowResponse `json:"clients"`
}

// GetClientReport reports on clients created inside the selected range.
// Only administrators and company accounts may run reports.
func (s *ReportService) GetClientReport(ctx context.Context, principal identity.Principal, filter ReportFilter) (*ClientReportResponse, error) {
	if !principal.CanViewReports() {
		return nil, shared.NewDomainError("FORBIDDEN", "Insufficient permissions to view reports")
	}
	scope, err := principal.ResolveScope(filter.TenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start, err := RangeStart(filter.Range, now)
	if err != nil {
		return nil, err
	}
	clientType := filter.ClientType
	if clientType == "" {
		clientType = ClientTypeAll
	}

	var rows []ClientRowResponse
	distribution := make(map[string]int)
	for _, status := range client.AllStatuses() {
		distribution[string(status)] = 0
	}

	if clientType == ClientTypeAll || clientType == ClientTypeB2C {
		b2c, err := s.b2cRepo.FindAllUnpaged(ctx, scope, client.B2CListFilter{
			IncludeArchived: filter.IncludeArchived,
			CreatedFrom:     &start,
		})
		if err != nil {
			return nil, err
		}
		for i := range b2c {
			c := &b2c[i]
			distribution[string(c.Status)]++
			rows = append(rows, newClientRow(c.ID, c.Name, c.PassportNumber, c.Phone, client.CategoryB2C, string(c.Status), c.CreatedAt, c.Balance, c.IsArchived))
		}
	}

	if clientType == ClientTypeAll || clientType == ClientTypeB2B {
		b2b, err := s.b2bRepo.FindAllUnpaged(ctx, scope, client.B2BListFilter{CreatedFrom: &start})
		if err != nil {
			return nil, err
		}
		for i := range b2b {
			c := &b2b[i]
			rows = append(rows, newClientRow(c.ID, c.Name, "", c.Phone, client.CategoryB2B, "", c.CreatedAt, c.Balance, false))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Created.After(rows[j].Created) })

	report := &ClientReportResponse{
		PeriodStart:        start,
		PeriodEnd:          now,
		StatusDistribution: distribution,
		Clients:            rows,
		Financial:          FinancialResponse{TotalPaid: decimal.Zero, TotalDue: decimal.Zero},
	}
	if report.Clients == nil {
		report.Clients = []ClientRowResponse{}
	}
	for _, row := range rows {
		report.Summary.TotalClients++
		if row.Archived {
			report.Summary.ArchivedClients++
		} else {
			report.Summary.ActiveClients++
		}
		if row.Type == string(client.CategoryB2C) {
			report.Summary.B2CClients++
		} else {
			report.Summary.B2BClients++
		}
		report.Financial.TotalPaid = report.Financial.TotalPaid.Add(row.TotalPaid)
		report.Financial.TotalDue = report.Financial.TotalDue.Add(row.TotalDue)
	}
	return report, nil
}

// RangeStart returns the first instant covered by a report range. An empty range means the last 30 days.
func RangeStart(r string, now time.Time) (time.Time, error) {
	switch r {
	case RangeLast7Days:
		return now.AddDate(0, 0, -7), nil
	case "", RangeLast30Days:
		return now.AddDate(0, 0, -30), nil
	case RangeThisMonth, "thisMonth":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	case RangeLastMonth, "lastMonth":
		return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, shared.NewDomainError("INVALID_RANGE", "Range must be one of last7days, last30days, this_month, last_month")
}

// newClientRow derives paid as contract minus due; a negative due is reported as zero owed
func newClientRow(
	id uuid.UUID,
	name, passport, phone string,
	category client.Category,
	status string,
	created time.Time,
	balance client.Balance,
	archived bool,
) ClientRowResponse {
	due := balance.DueAmount
	if due.IsNegative() {
		due = decimal.Zero
	}
	return ClientRowResponse{
		ID:        id,
		Name:      name,
		Passport:  passport,
		Phone:     phone,
		Type:      string(category),
		Status:    status,
		Created:   created,
		TotalPaid: balance.ContractAmount.Sub(balance.DueAmount),
		TotalDue:  due,
		Archived:  archived,
	}
}
