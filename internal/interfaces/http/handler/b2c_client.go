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

// B2CClientService is the traveller registry as seen by the HTTP layer
type B2CClientService interface {
	Create(ctx context.Context, principal identity.Principal, req clientapp.CreateB2CClientRequest) (*clientapp.B2CClientResponse, error)
	GetByID(ctx context.Context, principal identity.Principal, id uuid.UUID) (*clientapp.B2CClientResponse, error)
	List(ctx context.Context, principal identity.Principal, filter clientapp.B2CClientListFilter) ([]clientapp.B2CClientResponse, int64, error)
	ListArchived(ctx context.Context, principal identity.Principal, filter clientapp.B2CClientListFilter) ([]clientapp.B2CClientResponse, int64, error)
	Update(ctx context.Context, principal identity.Principal, id uuid.UUID, req clientapp.UpdateB2CClientRequest) (*clientapp.B2CClientResponse, error)
	Archive(ctx context.Context, principal identity.Principal, id uuid.UUID, req clientapp.ArchiveB2CClientRequest) (*clientapp.B2CClientResponse, error)
	Delete(ctx context.Context, principal identity.Principal, id uuid.UUID) (*clientapp.B2CClientResponse, error)
	Restore(ctx context.Context, principal identity.Principal, id uuid.UUID) (*clientapp.B2CClientResponse, error)
}

// B2CClientHandler handles traveller endpoints under /clients/b2c
type B2CClientHandler struct {
	BaseHandler
	service B2CClientService
}

// NewB2CClientHandler creates a new B2CClientHandler
func NewB2CClientHandler(service B2CClientService) *B2CClientHandler {
	return &B2CClientHandler{service: service}
}

// Create registers a traveller.
// POST /clients/b2c
func (h *B2CClientHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req clientapp.CreateB2CClientRequest
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

// GetByID returns one traveller, archived or not.
// GET /clients/b2c/:id
func (h *B2CClientHandler) GetByID(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns active travellers, optionally including archived ones.
// GET /clients/b2c
func (h *B2CClientHandler) List(c *gin.Context) {
	h.list(c, h.service.List)
}

// ListArchived returns archived travellers only.
// GET /clients/b2c/archived
func (h *B2CClientHandler) ListArchived(c *gin.Context) {
	h.list(c, h.service.ListArchived)
}

type b2cListFunc func(context.Context, identity.Principal, clientapp.B2CClientListFilter) ([]clientapp.B2CClientResponse, int64, error)

func (h *B2CClientHandler) list(c *gin.Context, fetch b2cListFunc) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var filter clientapp.B2CClientListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	associated, ok := h.queryUUID(c, "associated_b2b_id")
	if !ok {
		return
	}
	filter.AssociatedB2BID = associated
	filter.TenantID = middleware.ExplicitTenant(c)

	items, total, err := fetch(c.Request.Context(), principal, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, items, total, page.Page, page.PageSize)
}

// Update applies a partial update, including status transitions.
// PUT /clients/b2c/:id
func (h *B2CClientHandler) Update(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req clientapp.UpdateB2CClientRequest
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

// Delete archives the traveller; records are never physically removed.
// DELETE /clients/b2c/:id
func (h *B2CClientHandler) Delete(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	// The reason is optional and the body may be absent
	var req clientapp.ArchiveB2CClientRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	var (
		resp *clientapp.B2CClientResponse
		err  error
	)
	if req.Reason == "" {
		resp, err = h.service.Delete(c.Request.Context(), principal, id)
	} else {
		resp, err = h.service.Archive(c.Request.Context(), principal, id, req)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Restore brings an archived traveller back.
// POST /clients/b2c/:id/restore
func (h *B2CClientHandler) Restore(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	resp, err := h.service.Restore(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
