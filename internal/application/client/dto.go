package client

import (
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// B2C Client DTOs
// =============================================================================

// CreateB2CClientRequest represents a request to register a traveller
type CreateB2CClientRequest struct {
	Name            string           `json:"name" binding:"required,min=1,max=200"`
	Email           string           `json:"email" binding:"required,email,max=200"`
	Phone           string           `json:"phone" binding:"max=50"`
	Address         string           `json:"address" binding:"max=500"`
	PassportNumber  string           `json:"passport_number" binding:"required,min=1,max=50"`
	Destination     string           `json:"destination" binding:"required,min=1,max=100"`
	VisaType        string           `json:"visa_type" binding:"max=100"`
	ClientType      string           `json:"client_type" binding:"required,oneof=saudi-kuwait other-countries omra-visa"`
	Status          string           `json:"status" binding:"max=50"`
	ContractAmount  *decimal.Decimal `json:"contract_amount" binding:"required"`
	InitialPayment  *decimal.Decimal `json:"initial_payment"`
	AssociatedB2BID *uuid.UUID       `json:"associated_b2b_id"`
	Notes           string           `json:"notes"`
	TenantID        *uuid.UUID       `json:"tenant_id"` // honoured for admin callers only
}

// UpdateB2CClientRequest is a partial update; tenant ownership cannot be changed
type UpdateB2CClientRequest struct {
	Name            *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email           *string          `json:"email" binding:"omitempty,email,max=200"`
	Phone           *string          `json:"phone" binding:"omitempty,max=50"`
	Address         *string          `json:"address" binding:"omitempty,max=500"`
	PassportNumber  *string          `json:"passport_number" binding:"omitempty,min=1,max=50"`
	Destination     *string          `json:"destination" binding:"omitempty,min=1,max=100"`
	VisaType        *string          `json:"visa_type" binding:"omitempty,max=100"`
	ClientType      *string          `json:"client_type" binding:"omitempty,oneof=saudi-kuwait other-countries omra-visa"`
	Status          *string          `json:"status" binding:"omitempty,max=50"`
	StatusNotes     *string          `json:"status_notes" binding:"omitempty,max=500"`
	ContractAmount  *decimal.Decimal `json:"contract_amount"`
	InitialPayment  *decimal.Decimal `json:"initial_payment"`
	AssociatedB2BID *uuid.UUID       `json:"associated_b2b_id"` // nil UUID clears the association
	Notes           *string          `json:"notes"`
}

// ArchiveB2CClientRequest represents an archive request
type ArchiveB2CClientRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// B2CClientResponse represents a B2C client in API responses
type B2CClientResponse struct {
	ID              uuid.UUID            `json:"id"`
	TenantID        uuid.UUID            `json:"tenant_id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Phone           string               `json:"phone"`
	Address         string               `json:"address"`
	PassportNumber  string               `json:"passport_number"`
	Destination     string               `json:"destination"`
	VisaType        string               `json:"visa_type"`
	ClientType      string               `json:"client_type"`
	Status          string               `json:"status"`
	StatusHistory   []client.StatusEntry `json:"status_history"`
	ContractAmount  decimal.Decimal      `json:"contract_amount"`
	InitialPayment  decimal.Decimal      `json:"initial_payment"`
	PaidAmount      decimal.Decimal      `json:"paid_amount"`
	DueAmount       decimal.Decimal      `json:"due_amount"`
	AssociatedB2BID *uuid.UUID           `json:"associated_b2b_id,omitempty"`
	Notes           string               `json:"notes"`
	IsArchived      bool                 `json:"is_archived"`
	ArchivedAt      *time.Time           `json:"archived_at,omitempty"`
	ArchivedReason  string               `json:"archived_reason,omitempty"`
	HadTransactions bool                 `json:"had_transactions"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Version         int                  `json:"version"`
}

// B2CClientListFilter represents filter options for B2C listings
type B2CClientListFilter struct {
	Search          string     `form:"search"`
	Status          string     `form:"status" binding:"omitempty,max=50"`
	ClientType      string     `form:"client_type" binding:"omitempty,oneof=saudi-kuwait other-countries omra-visa"`
	AssociatedB2BID *uuid.UUID `form:"-"`
	IncludeArchived bool       `form:"include_archived"`
	TenantID        *uuid.UUID `form:"-"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StatusCheckResponse is the public view of a traveller's case
type StatusCheckResponse struct {
	Name           string               `json:"name"`
	PassportNumber string               `json:"passport_number"`
	Destination    string               `json:"destination"`
	VisaType       string               `json:"visa_type"`
	Status         string               `json:"status"`
	StatusHistory  []client.StatusEntry `json:"status_history"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ToB2CClientResponse converts a domain B2CClient to a response
func ToB2CClientResponse(c *client.B2CClient) B2CClientResponse {
	history := make([]client.StatusEntry, len(c.StatusHistory))
	copy(history, c.StatusHistory)
	return B2CClientResponse{
		ID:              c.ID,
		TenantID:        c.TenantID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Address:         c.Address,
		PassportNumber:  c.PassportNumber,
		Destination:     c.Destination,
		VisaType:        c.VisaType,
		ClientType:      string(c.ClientType),
		Status:          string(c.Status),
		StatusHistory:   history,
		ContractAmount:  c.ContractAmount,
		InitialPayment:  c.InitialPayment,
		PaidAmount:      c.PaidAmount(),
		DueAmount:       c.DueAmount,
		AssociatedB2BID: c.AssociatedB2BID,
		Notes:           c.Notes,
		IsArchived:      c.IsArchived,
		ArchivedAt:      c.ArchivedAt,
		ArchivedReason:  c.ArchivedReason,
		HadTransactions: c.HadTransactions,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}

// ToB2CClientResponses converts a slice of domain clients to responses
func ToB2CClientResponses(clients []client.B2CClient) []B2CClientResponse {
	responses := make([]B2CClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToB2CClientResponse(&clients[i])
	}
	return responses
}

// ToStatusCheckResponse converts a domain B2CClient to its public view
func ToStatusCheckResponse(c *client.B2CClient) StatusCheckResponse {
	history := make([]client.StatusEntry, len(c.StatusHistory))
	copy(history, c.StatusHistory)
	return StatusCheckResponse{
		Name:           c.Name,
		PassportNumber: c.PassportNumber,
		Destination:    c.Destination,
		VisaType:       c.VisaType,
		Status:         string(c.Status),
		StatusHistory:  history,
		UpdatedAt:      c.UpdatedAt,
	}
}

// =============================================================================
// B2B Client DTOs
// =============================================================================

// CreateB2BClientRequest represents a request to register a business partner
type CreateB2BClientRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Email          string           `json:"email" binding:"required,email,max=200"`
	Phone          string           `json:"phone" binding:"max=50"`
	Address        string           `json:"address" binding:"max=500"`
	BusinessType   string           `json:"business_type" binding:"required,min=1,max=100"`
	ContractAmount *decimal.Decimal `json:"contract_amount" binding:"required"`
	InitialPayment *decimal.Decimal `json:"initial_payment"`
	Notes          string           `json:"notes"`
	TenantID       *uuid.UUID       `json:"tenant_id"` // honoured for admin callers only
}

// UpdateB2BClientRequest is a partial update; tenant ownership cannot be changed
type UpdateB2BClientRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email          *string          `json:"email" binding:"omitempty,email,max=200"`
	Phone          *string          `json:"phone" binding:"omitempty,max=50"`
	Address        *string          `json:"address" binding:"omitempty,max=500"`
	BusinessType   *string          `json:"business_type" binding:"omitempty,min=1,max=100"`
	ContractAmount *decimal.Decimal `json:"contract_amount"`
	InitialPayment *decimal.Decimal `json:"initial_payment"`
	Notes          *string          `json:"notes"`
}

// B2BClientResponse represents a B2B client in API responses
type B2BClientResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	BusinessType   string          `json:"business_type"`
	ContractAmount decimal.Decimal `json:"contract_amount"`
	InitialPayment decimal.Decimal `json:"initial_payment"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// B2BClientDetailResponse is a B2B client with the travellers it referred
type B2BClientDetailResponse struct {
	B2BClientResponse
	AssociatedB2CClients []B2CClientResponse `json:"associated_b2c_clients"`
}

// B2BClientListFilter represents filter options for B2B listings
type B2BClientListFilter struct {
	Search   string     `form:"search"`
	TenantID *uuid.UUID `form:"-"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToB2BClientResponse converts a domain B2BClient to a response
func ToB2BClientResponse(c *client.B2BClient) B2BClientResponse {
	return B2BClientResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		BusinessType:   c.BusinessType,
		ContractAmount: c.ContractAmount,
		InitialPayment: c.InitialPayment,
		PaidAmount:     c.PaidAmount(),
		DueAmount:      c.DueAmount,
		Notes:          c.Notes,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Version:        c.Version,
	}
}

// ToB2BClientResponses converts a slice of domain clients to responses
func ToB2BClientResponses(clients []client.B2BClient) []B2BClientResponse {
	responses := make([]B2BClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToB2BClientResponse(&clients[i])
	}
	return responses
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
