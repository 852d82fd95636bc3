package handler

import (
	"context"

	reportapp "github.com/agency/backend/internal/application/report"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ReportService builds client reports
type ReportService interface {
	GetClientReport(ctx context.Context, principal identity.Principal, filter reportapp.ReportFilter) (*reportapp.ClientReportResponse, error)
}

// ReportHandler handles /reports
type ReportHandler struct {
	BaseHandler
	service ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// ClientReport summarises clients created in a range with their money totals.
// GET /reports?client_type=all&range=last30days
func (h *ReportHandler) ClientReport(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var filter reportapp.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	filter.TenantID = middleware.ExplicitTenant(c)

	resp, err := h.service.GetClientReport(c.Request.Context(), principal, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
