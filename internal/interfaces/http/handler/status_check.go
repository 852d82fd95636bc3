package handler

import (
	"context"
	"errors"

	clientapp "github.com/agency/backend/internal/application/client"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// StatusChecker answers the public passport lookup
type StatusChecker interface {
	CheckStatus(ctx context.Context, passportNumber string) (*clientapp.StatusCheckResponse, error)
}

// StatusCheckRecorder counts public lookups
type StatusCheckRecorder interface {
	RecordStatusCheck(ctx context.Context, found bool)
}

// StatusCheckHandler serves the unauthenticated status lookup
type StatusCheckHandler struct {
	BaseHandler
	service  StatusChecker
	recorder StatusCheckRecorder
}

// NewStatusCheckHandler creates a new StatusCheckHandler. recorder may be nil.
func NewStatusCheckHandler(service StatusChecker, recorder StatusCheckRecorder) *StatusCheckHandler {
	return &StatusCheckHandler{service: service, recorder: recorder}
}

// Check looks a traveller's case up by passport number.
// GET /status-check?passport_number=
func (h *StatusCheckHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := h.service.CheckStatus(ctx, c.Query("passport_number"))
	h.record(ctx, err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *StatusCheckHandler) record(ctx context.Context, err error) {
	if h.recorder == nil {
		return
	}
	switch {
	case err == nil:
		h.recorder.RecordStatusCheck(ctx, true)
	case errors.Is(err, shared.ErrNotFound):
		h.recorder.RecordStatusCheck(ctx, false)
	}
}
