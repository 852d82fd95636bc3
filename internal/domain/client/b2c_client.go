package client

import (
	"strings"
	"time"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultArchiveReason is recorded when an archive request names no reason
const DefaultArchiveReason = "User requested archival"

// B2CProfile holds the descriptive fields of an individual traveller
type B2CProfile struct {
	Name           string
	Email          string
	Phone          string
	Address        string
	PassportNumber string
	Destination    string
	VisaType       string
	Notes          string
}

// B2CClient is an individual traveller whose visa case and payments are tracked
type B2CClient struct {
	shared.TenantAggregateRoot
	B2CProfile
	Balance
	ClientType      ClientType
	AssociatedB2BID *uuid.UUID
	Status          Status
	StatusHistory   []StatusEntry
	IsArchived      bool
	ArchivedAt      *time.Time
	ArchivedReason  string
	HadTransactions bool
}

// NewB2CClient registers a traveller. An empty initialStatus selects the first
// step of the client type's lifecycle.
func NewB2CClient(
	tenantID uuid.UUID,
	profile B2CProfile,
	clientType ClientType,
	initialStatus Status,
	contract, initialPayment decimal.Decimal,
) (*B2CClient, error) {
	profile = normalizeB2CProfile(profile)
	if err := validateB2CProfile(profile); err != nil {
		return nil, err
	}
	if !clientType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLIENT_TYPE", "Client type must be one of saudi-kuwait, other-countries, omra-visa")
	}
	if initialStatus == "" {
		initialStatus = clientType.InitialStatus()
	}
	if !clientType.Allows(initialStatus) {
		return nil, invalidStatusError(clientType, initialStatus)
	}
	balance, err := NewBalance(contract, initialPayment)
	if err != nil {
		return nil, err
	}

	c := &B2CClient{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		B2CProfile:          profile,
		Balance:             balance,
		ClientType:          clientType,
		Status:              initialStatus,
	}
	c.StatusHistory = []StatusEntry{NewStatusEntry(initialStatus, c.CreatedAt, initialRegistrationNote)}

	c.AddDomainEvent(NewClientCreatedEvent(c.ID, c.TenantID, CategoryB2C, c.Name))
	return c, nil
}

// UpdateProfile replaces the descriptive fields
func (c *B2CClient) UpdateProfile(profile B2CProfile) error {
	profile = normalizeB2CProfile(profile)
	if err := validateB2CProfile(profile); err != nil {
		return err
	}
	c.B2CProfile = profile
	c.markUpdated()
	c.AddDomainEvent(NewClientUpdatedEvent(c.ID, c.TenantID, CategoryB2C))
	return nil
}

// AssociateWith sets or clears the referring B2B client. The reference is not checked.
func (c *B2CClient) AssociateWith(b2bID *uuid.UUID) {
	if b2bID != nil && *b2bID == uuid.Nil {
		b2bID = nil
	}
	c.AssociatedB2BID = b2bID
	c.markUpdated()
}

// Revalue re-derives the due amount after a contract or upfront-payment edit
func (c *B2CClient) Revalue(contract, payment *decimal.Decimal) error {
	if err := c.Balance.Revalue(contract, payment); err != nil {
		return err
	}
	c.markUpdated()
	return nil
}

// ChangeStatus assigns a status legal for the current client type.
// A status equal to the current one is a no-op.
func (c *B2CClient) ChangeStatus(status Status, notes string, at time.Time) error {
	return c.ApplyLifecycle("", status, notes, at)
}

// ApplyLifecycle changes client type and/or status together so the final status
// is checked against the final type. Empty values keep the current ones.
func (c *B2CClient) ApplyLifecycle(clientType ClientType, status Status, notes string, at time.Time) error {
	newType := c.ClientType
	if clientType != "" {
		if !clientType.IsValid() {
			return shared.NewDomainError("INVALID_CLIENT_TYPE", "Client type must be one of saudi-kuwait, other-countries, omra-visa")
		}
		newType = clientType
	}
	newStatus := c.Status
	if status != "" {
		newStatus = status
	}
	if !newType.Allows(newStatus) {
		return invalidStatusError(newType, newStatus)
	}

	typeChanged := newType != c.ClientType
	statusChanged := newStatus != c.Status
	if !typeChanged && !statusChanged {
		return nil
	}

	c.ClientType = newType
	if statusChanged {
		if strings.TrimSpace(notes) == "" {
			notes = defaultStatusNote(newStatus)
		}
		oldStatus := c.Status
		c.Status = newStatus
		c.StatusHistory = append(c.StatusHistory, NewStatusEntry(newStatus, at, strings.TrimSpace(notes)))
		c.AddDomainEvent(NewClientStatusChangedEvent(c, oldStatus, newStatus))
	}
	c.markUpdated()
	return nil
}

// Archive hides the client from default views. hadTransactions is the ledger
// snapshot taken by the caller at archive time.
func (c *B2CClient) Archive(reason string, hadTransactions bool, at time.Time) error {
	if c.IsArchived {
		return shared.ErrAlreadyArchived
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultArchiveReason
	}
	c.IsArchived = true
	c.ArchivedAt = &at
	c.ArchivedReason = reason
	c.HadTransactions = hadTransactions
	c.markUpdated()
	c.AddDomainEvent(NewClientArchivedEvent(c))
	return nil
}

// Restore brings an archived client back and clears every archive field
func (c *B2CClient) Restore() error {
	if !c.IsArchived {
		return shared.NewDomainError("NOT_FOUND", "Archived client not found")
	}
	c.IsArchived = false
	c.ArchivedAt = nil
	c.ArchivedReason = ""
	c.HadTransactions = false
	c.markUpdated()
	c.AddDomainEvent(NewClientRestoredEvent(c.ID, c.TenantID))
	return nil
}

// OwnerTenantID implements LedgerAccount
func (c *B2CClient) OwnerTenantID() uuid.UUID {
	return c.TenantID
}

// Category implements LedgerAccount
func (c *B2CClient) Category() Category {
	return CategoryB2C
}

// DisplayName implements LedgerAccount
func (c *B2CClient) DisplayName() string {
	return c.Name
}

// CurrentBalance implements LedgerAccount
func (c *B2CClient) CurrentBalance() Balance {
	return c.Balance
}

// ApplyNetPayment implements LedgerAccount
func (c *B2CClient) ApplyNetPayment(transactionID uuid.UUID, net decimal.Decimal, reason BalanceChangeReason) {
	c.applyNet(net)
	c.markUpdated()
	c.AddDomainEvent(NewClientBalanceChangedEvent(c.ID, c.TenantID, CategoryB2C, transactionID, net, c.DueAmount, reason))
}

func (c *B2CClient) markUpdated() {
	c.Touch()
}

// NormalizePassportNumber is the canonical stored form of a passport number
func NormalizePassportNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Validation functions

func normalizeB2CProfile(p B2CProfile) B2CProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.PassportNumber = NormalizePassportNumber(p.PassportNumber)
	p.Destination = strings.TrimSpace(p.Destination)
	p.VisaType = strings.TrimSpace(p.VisaType)
	p.Notes = strings.TrimSpace(p.Notes)
	return p
}

func validateB2CProfile(p B2CProfile) error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	if err := validateEmail(p.Email); err != nil {
		return err
	}
	if p.PassportNumber == "" {
		return shared.NewDomainError("INVALID_PASSPORT_NUMBER", "Passport number cannot be empty")
	}
	if len(p.PassportNumber) > 50 {
		return shared.NewDomainError("INVALID_PASSPORT_NUMBER", "Passport number cannot exceed 50 characters")
	}
	if p.Destination == "" {
		return shared.NewDomainError("INVALID_DESTINATION", "Destination cannot be empty")
	}
	return nil
}

func invalidStatusError(t ClientType, s Status) error {
	return shared.NewDomainError("INVALID_STATUS", "Status '"+string(s)+"' is not valid for client type '"+string(t)+"'")
}
