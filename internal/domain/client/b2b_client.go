package client

import (
	"net/mail"
	"strings"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// B2BProfile holds the descriptive fields of a business partner
type B2BProfile struct {
	Name         string
	Email        string
	Phone        string
	Address      string
	BusinessType string
	Notes        string
}

// B2BClient is a business partner that refers travellers to the agency
type B2BClient struct {
	shared.TenantAggregateRoot
	B2BProfile
	Balance
}

// NewB2BClient registers a business partner
func NewB2BClient(tenantID uuid.UUID, profile B2BProfile, contract, initialPayment decimal.Decimal) (*B2BClient, error) {
	profile = normalizeB2BProfile(profile)
	if err := validateB2BProfile(profile); err != nil {
		return nil, err
	}
	balance, err := NewBalance(contract, initialPayment)
	if err != nil {
		return nil, err
	}

	c := &B2BClient{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		B2BProfile:          profile,
		Balance:             balance,
	}
	c.AddDomainEvent(NewClientCreatedEvent(c.ID, c.TenantID, CategoryB2B, c.Name))
	return c, nil
}

// NameKey returns the case-folded business name used for uniqueness checks
func (c *B2BClient) NameKey() string {
	return BusinessNameKey(c.Name)
}

// UpdateProfile replaces the descriptive fields
func (c *B2BClient) UpdateProfile(profile B2BProfile) error {
	profile = normalizeB2BProfile(profile)
	if err := validateB2BProfile(profile); err != nil {
		return err
	}
	c.B2BProfile = profile
	c.markUpdated()
	c.AddDomainEvent(NewClientUpdatedEvent(c.ID, c.TenantID, CategoryB2B))
	return nil
}

// Revalue re-derives the due amount after a contract or upfront-payment edit
func (c *B2BClient) Revalue(contract, payment *decimal.Decimal) error {
	if err := c.Balance.Revalue(contract, payment); err != nil {
		return err
	}
	c.markUpdated()
	return nil
}

// MarkDeleted records the deletion event before the row is removed
func (c *B2BClient) MarkDeleted() {
	c.AddDomainEvent(NewClientDeletedEvent(c.ID, c.TenantID, CategoryB2B))
}

// OwnerTenantID implements LedgerAccount
func (c *B2BClient) OwnerTenantID() uuid.UUID {
	return c.TenantID
}

// Category implements LedgerAccount
func (c *B2BClient) Category() Category {
	return CategoryB2B
}

// DisplayName implements LedgerAccount
func (c *B2BClient) DisplayName() string {
	return c.Name
}

// CurrentBalance implements LedgerAccount
func (c *B2BClient) CurrentBalance() Balance {
	return c.Balance
}

// ApplyNetPayment implements LedgerAccount
func (c *B2BClient) ApplyNetPayment(transactionID uuid.UUID, net decimal.Decimal, reason BalanceChangeReason) {
	c.applyNet(net)
	c.markUpdated()
	c.AddDomainEvent(NewClientBalanceChangedEvent(c.ID, c.TenantID, CategoryB2B, transactionID, net, c.DueAmount, reason))
}

func (c *B2BClient) markUpdated() {
	c.Touch()
}

// BusinessNameKey folds case so "Sky Tours" and "SKY TOURS" collide
func BusinessNameKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Validation functions

func normalizeB2BProfile(p B2BProfile) B2BProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.BusinessType = strings.TrimSpace(p.BusinessType)
	p.Notes = strings.TrimSpace(p.Notes)
	return p
}

func validateB2BProfile(p B2BProfile) error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	if err := validateEmail(p.Email); err != nil {
		return err
	}
	if p.BusinessType == "" {
		return shared.NewDomainError("INVALID_BUSINESS_TYPE", "Business type cannot be empty")
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.NewDomainError("INVALID_EMAIL", "Email is not a valid address")
	}
	return nil
}
