package handler

import (
	"context"

	identityapp "github.com/agency/backend/internal/application/identity"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyService is the tenant company registry as seen by the HTTP layer
type CompanyService interface {
	Create(ctx context.Context, principal identity.Principal, input identityapp.CreateCompanyInput) (*identityapp.CompanyDTO, error)
	GetProfile(ctx context.Context, principal identity.Principal) (*identityapp.CompanyDTO, error)
	UpdateProfile(ctx context.Context, principal identity.Principal, input identityapp.UpdateCompanyProfileInput) (*identityapp.CompanyDTO, error)
	GetSubscriptionStatus(ctx context.Context, principal identity.Principal, companyID uuid.UUID) (*identityapp.SubscriptionStatusDTO, error)
	UpdateSubscription(ctx context.Context, principal identity.Principal, companyID uuid.UUID, input identityapp.UpdateSubscriptionInput) (*identityapp.CompanyDTO, error)
	List(ctx context.Context, principal identity.Principal, filter identityapp.CompanyFilter) ([]identityapp.CompanyDTO, int64, error)
}

// CompanyHandler handles company profile and subscription endpoints
type CompanyHandler struct {
	BaseHandler
	service CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(service CompanyService) *CompanyHandler {
	return &CompanyHandler{service: service}
}

// GetProfile returns the caller's own company with its client counts.
// GET /companies/profile
func (h *CompanyHandler) GetProfile(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	resp, err := h.service.GetProfile(c.Request.Context(), principal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateProfile edits the caller's own company.
// PUT /companies/profile
func (h *CompanyHandler) UpdateProfile(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var input identityapp.UpdateCompanyProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.UpdateProfile(c.Request.Context(), principal, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SubscriptionStatus reports trial and subscription expiry for a company.
// GET /companies/:id/subscription-status
func (h *CompanyHandler) SubscriptionStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetSubscriptionStatus(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns every company. Admin only.
// GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var filter identityapp.CompanyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	items, total, err := h.service.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, items, total, page.Page, page.PageSize)
}

// Create registers a company on a trial subscription. Admin only.
// POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var input identityapp.CreateCompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateSubscription sets a company's subscription state. Admin only.
// PUT /companies/:id/subscription
func (h *CompanyHandler) UpdateSubscription(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var input identityapp.UpdateSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.UpdateSubscription(c.Request.Context(), principal, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
