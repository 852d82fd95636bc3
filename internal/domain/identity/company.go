package identity

import (
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionStatus represents the billing state of a company
type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// IsValid reports whether the status is known
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionTrial, SubscriptionActive, SubscriptionExpired, SubscriptionCanceled:
		return true
	}
	return false
}

// DefaultTrialDays is the trial length given to new companies
const DefaultTrialDays = 14

// Subscription holds the plan dates of a company
type Subscription struct {
	Status             SubscriptionStatus
	TrialStartDate     time.Time
	TrialEndDate       time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// SubscriptionState is a point-in-time view of a subscription
type SubscriptionState struct {
	Status                SubscriptionStatus
	TrialStartDate        time.Time
	TrialEndDate          time.Time
	CurrentPeriodEnd      *time.Time
	IsTrialExpired        bool
	IsSubscriptionExpired bool
	DaysRemaining         int
}

// Company is a travel agency: the tenant that owns clients and transactions
type Company struct {
	shared.BaseAggregateRoot
	Name         string
	Email        string
	MobileNumber string
	Address      string
	LogoURL      string
	OwnerID      *uuid.UUID
	Subscription Subscription
}

// NewCompany creates a company on a trial subscription starting now
func NewCompany(name, email string, trialDays int) (*Company, error) {
	if err := validateCompanyName(name); err != nil {
		return nil, err
	}
	if err := validateCompanyEmail(email); err != nil {
		return nil, err
	}
	if trialDays <= 0 {
		trialDays = DefaultTrialDays
	}

	now := time.Now()
	company := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Subscription: Subscription{
			Status:         SubscriptionTrial,
			TrialStartDate: now,
			TrialEndDate:   now.AddDate(0, 0, trialDays),
		},
	}

	company.AddDomainEvent(NewCompanyCreatedEvent(company))
	return company, nil
}

// UpdateProfile updates the contact information of the company
func (c *Company) UpdateProfile(name, email, mobile, address, logoURL string) error {
	if err := validateCompanyName(name); err != nil {
		return err
	}
	if err := validateCompanyEmail(email); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.Email = strings.ToLower(strings.TrimSpace(email))
	c.MobileNumber = strings.TrimSpace(mobile)
	c.Address = strings.TrimSpace(address)
	c.LogoURL = strings.TrimSpace(logoURL)
	c.Touch()
	return nil
}

// SetOwner records the user that owns the company account
func (c *Company) SetOwner(ownerID uuid.UUID) {
	c.OwnerID = &ownerID
	c.Touch()
}

// UpdateSubscription sets the subscription status and, optionally, the billing period
func (c *Company) UpdateSubscription(status SubscriptionStatus, periodStart, periodEnd *time.Time) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_SUBSCRIPTION_STATUS", "Subscription status must be one of trial, active, expired, canceled")
	}
	if periodStart != nil && periodEnd != nil && periodEnd.Before(*periodStart) {
		return shared.NewDomainError("INVALID_SUBSCRIPTION_PERIOD", "Subscription period end must not be before its start")
	}

	oldStatus := c.Subscription.Status
	c.Subscription.Status = status
	if periodStart != nil {
		c.Subscription.CurrentPeriodStart = periodStart
	}
	if periodEnd != nil {
		c.Subscription.CurrentPeriodEnd = periodEnd
	}
	c.Touch()

	if oldStatus != status {
		c.AddDomainEvent(NewSubscriptionStatusChangedEvent(c, oldStatus, status))
	}
	return nil
}

// RefreshSubscription applies date-based expiry at now and reports the resulting state.
// The expiry flags describe the status held before the refresh.
func (c *Company) RefreshSubscription(now time.Time) (SubscriptionState, bool) {
	sub := c.Subscription
	trialExpired := sub.Status == SubscriptionTrial && sub.TrialEndDate.Before(now)
	periodExpired := sub.Status == SubscriptionActive && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now)

	state := SubscriptionState{
		Status:                sub.Status,
		TrialStartDate:        sub.TrialStartDate,
		TrialEndDate:          sub.TrialEndDate,
		CurrentPeriodEnd:      sub.CurrentPeriodEnd,
		IsTrialExpired:        trialExpired,
		IsSubscriptionExpired: periodExpired,
		DaysRemaining:         c.daysRemaining(now),
	}

	if !trialExpired && !periodExpired {
		return state, false
	}

	oldStatus := c.Subscription.Status
	c.Subscription.Status = SubscriptionExpired
	c.Touch()
	c.AddDomainEvent(NewSubscriptionStatusChangedEvent(c, oldStatus, SubscriptionExpired))

	state.Status = SubscriptionExpired
	return state, true
}

// IsSubscriptionUsable reports whether the company may keep operating
func (c *Company) IsSubscriptionUsable(now time.Time) bool {
	switch c.Subscription.Status {
	case SubscriptionTrial:
		return !c.Subscription.TrialEndDate.Before(now)
	case SubscriptionActive:
		return c.Subscription.CurrentPeriodEnd == nil || !c.Subscription.CurrentPeriodEnd.Before(now)
	}
	return false
}

func (c *Company) daysRemaining(now time.Time) int {
	var end *time.Time
	if c.Subscription.Status == SubscriptionTrial {
		end = &c.Subscription.TrialEndDate
	} else if c.Subscription.CurrentPeriodEnd != nil {
		end = c.Subscription.CurrentPeriodEnd
	}
	if end == nil {
		return 0
	}
	days := math.Ceil(end.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// Validation functions

func validateCompanyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	return nil
}

func validateCompanyEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Company email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.NewDomainError("INVALID_EMAIL", "Company email is not a valid address")
	}
	return nil
}
