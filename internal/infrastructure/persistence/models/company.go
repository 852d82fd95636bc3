package models

import (
	"time"

	"github.com/agency/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// CompanyModel is the persistence model for the Company aggregate.
// The subscription is flattened into subscription_* columns.
type CompanyModel struct {
	AggregateModel
	Name                          string                      `gorm:"type:varchar(200);not null"`
	Email                         string                      `gorm:"type:varchar(200);not null;uniqueIndex"`
	MobileNumber                  string                      `gorm:"type:varchar(50)"`
	Address                       string                      `gorm:"type:text"`
	LogoURL                       string                      `gorm:"type:varchar(500)"`
	OwnerID                       *uuid.UUID                  `gorm:"type:uuid"`
	SubscriptionStatus            identity.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'trial';index"`
	SubscriptionTrialStart        time.Time                   `gorm:"not null"`
	SubscriptionTrialEnd          time.Time                   `gorm:"not null"`
	SubscriptionPeriodStart       *time.Time                  `gorm:"column:subscription_period_start"`
	SubscriptionPeriodEnd         *time.Time                  `gorm:"column:subscription_period_end"`
	SubscriptionCancelAtPeriodEnd bool                        `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company
func (m *CompanyModel) ToDomain() *identity.Company {
	return &identity.Company{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		MobileNumber:      m.MobileNumber,
		Address:           m.Address,
		LogoURL:           m.LogoURL,
		OwnerID:           m.OwnerID,
		Subscription: identity.Subscription{
			Status:             m.SubscriptionStatus,
			TrialStartDate:     m.SubscriptionTrialStart,
			TrialEndDate:       m.SubscriptionTrialEnd,
			CurrentPeriodStart: m.SubscriptionPeriodStart,
			CurrentPeriodEnd:   m.SubscriptionPeriodEnd,
			CancelAtPeriodEnd:  m.SubscriptionCancelAtPeriodEnd,
		},
	}
}

// FromDomain populates the persistence model from a domain Company
func (m *CompanyModel) FromDomain(c *identity.Company) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.MobileNumber = c.MobileNumber
	m.Address = c.Address
	m.LogoURL = c.LogoURL
	m.OwnerID = c.OwnerID
	m.SubscriptionStatus = c.Subscription.Status
	m.SubscriptionTrialStart = c.Subscription.TrialStartDate
	m.SubscriptionTrialEnd = c.Subscription.TrialEndDate
	m.SubscriptionPeriodStart = c.Subscription.CurrentPeriodStart
	m.SubscriptionPeriodEnd = c.Subscription.CurrentPeriodEnd
	m.SubscriptionCancelAtPeriodEnd = c.Subscription.CancelAtPeriodEnd
}

// NewCompanyModelFromDomain creates a persistence model from a domain Company
func NewCompanyModelFromDomain(c *identity.Company) *CompanyModel {
	m := &CompanyModel{}
	m.FromDomain(c)
	return m
}
