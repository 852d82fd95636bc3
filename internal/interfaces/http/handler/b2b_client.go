package handler

import (
	"context"

	clientapp "github.com/agency/backend/internal/application/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// B2BClientService is the business partner registry as seen by the HTTP layer
type B2BClientService interface {
	Create(ctx context.Context, principal identity.Principal, req clientapp.CreateB2BClientRequest) (*clientapp.B2BClientResponse, error)
	GetWithAssociated(ctx context.Context, principal identity.Principal, id uuid.UUID) (*clientapp.B2BClientDetailResponse, error)
	List(ctx context.Context, principal identity.Principal, filter clientapp.B2BClientListFilter) ([]clientapp.B2BClientResponse, int64, error)
	Update(ctx context.Context, principal identity.Principal, id uuid.UUID, req clientapp.UpdateB2BClientRequest) (*clientapp.B2BClientResponse, error)
	Delete(ctx context.Context, principal identity.Principal, id uuid.UUID) error
}

// B2BClientHandler handles business partner endpoints under /clients/b2b
type B2BClientHandler struct {
	BaseHandler
	service B2BClientService
}

// NewB2BClientHandler creates a new B2BClientHandler
func NewB2BClientHandler(service B2BClientService) *B2BClientHandler {
	return &B2BClientHandler{service: service}
}

// Create registers a business partner.
// POST /clients/b2b
func (h *B2BClientHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req clientapp.CreateB2BClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.TenantID = explicitTenant(c, req.TenantID)

	resp, err := h.service.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID returns a partner together with the travellers it referred.
// GET /clients/b2b/:id
func (h *B2BClientHandler) GetByID(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetWithAssociated(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns partners newest first.
// GET /clients/b2b
func (h *B2BClientHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var filter clientapp.B2BClientListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	filter.TenantID = middleware.ExplicitTenant(c)

	items, total, err := h.service.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, items, total, page.Page, page.PageSize)
}

// Update applies a partial update.
// PUT /clients/b2b/:id
func (h *B2BClientHandler) Update(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req clientapp.UpdateB2BClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a partner that no traveller references.
// DELETE /clients/b2b/:id
func (h *B2BClientHandler) Delete(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "deleted": true})
}
