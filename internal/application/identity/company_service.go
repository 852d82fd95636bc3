package identity

import (
	"context"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyService handles company (tenant) accounts and their subscriptions
type CompanyService struct {
	companyRepo    identity.CompanyRepository
	b2cRepo        client.B2CClientRepository
	b2bRepo        client.B2BClientRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	trialDays      int
	now            func() time.Time
}

// NewCompanyService creates a new company service
func NewCompanyService(
	companyRepo identity.CompanyRepository,
	b2cRepo client.B2CClientRepository,
	b2bRepo client.B2BClientRepository,
	logger *zap.Logger,
) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{
		companyRepo: companyRepo,
		b2cRepo:     b2cRepo,
		b2bRepo:     b2bRepo,
		logger:      logger,
		trialDays:   identity.DefaultTrialDays,
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for company events
func (s *CompanyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTrialDays overrides the trial length given to new companies
func (s *CompanyService) SetTrialDays(days int) {
	if days > 0 {
		s.trialDays = days
	}
}

// CreateCompanyInput contains input for registering a company
type CreateCompanyInput struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	Email        string `json:"email" binding:"required,email"`
	MobileNumber string `json:"mobile_number" binding:"omitempty,max=50"`
	Address      string `json:"address" binding:"omitempty,max=500"`
	LogoURL      string `json:"logo_url" binding:"omitempty,url"`
	TrialDays    int    `json:"trial_days" binding:"omitempty,min=1,max=365"`
}

// UpdateCompanyProfileInput contains the fields a company may change on itself
type UpdateCompanyProfileInput struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email        *string `json:"email" binding:"omitempty,email"`
	MobileNumber *string `json:"mobile_number" binding:"omitempty,max=50"`
	Address      *string `json:"address" binding:"omitempty,max=500"`
	LogoURL      *string `json:"logo_url" binding:"omitempty"`
}

// UpdateSubscriptionInput contains input for changing a company's subscription
type UpdateSubscriptionInput struct {
	Status             string     `json:"status" binding:"required,oneof=trial active expired canceled"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
}

// CompanyFilter represents filter for listing companies
type CompanyFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SubscriptionDTO represents the stored subscription of a company
type SubscriptionDTO struct {
	Status             string     `json:"status"`
	TrialStartDate     time.Time  `json:"trial_start_date"`
	TrialEndDate       time.Time  `json:"trial_end_date"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

// ClientCountsDTO counts the clients owned by a company
type ClientCountsDTO struct {
	B2B   int64 `json:"b2b"`
	B2C   int64 `json:"b2c"`
	Total int64 `json:"total"`
}

// CompanyDTO represents company data transfer object
type CompanyDTO struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	MobileNumber string           `json:"mobile_number,omitempty"`
	Address      string           `json:"address,omitempty"`
	LogoURL      string           `json:"logo_url,omitempty"`
	OwnerID      *uuid.UUID       `json:"owner_id,omitempty"`
	Subscription SubscriptionDTO  `json:"subscription"`
	ClientsCount *ClientCountsDTO `json:"clients_count,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SubscriptionStatusDTO is the point-in-time subscription view
type SubscriptionStatusDTO struct {
	Status                string     `json:"status"`
	TrialStartDate        time.Time  `json:"trial_start_date"`
	TrialEndDate          time.Time  `json:"trial_end_date"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`
	IsTrialExpired        bool       `json:"is_trial_expired"`
	IsSubscriptionExpired bool       `json:"is_subscription_expired"`
	DaysRemaining         int        `json:"days_remaining"`
}

// Create registers a company on a trial subscription. Admin only.
func (s *CompanyService) Create(ctx context.Context, principal identity.Principal, input CreateCompanyInput) (*CompanyDTO, error) {
	if !principal.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	exists, err := s.companyRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A company with this email already exists")
	}

	trialDays := s.trialDays
	if input.TrialDays > 0 {
		trialDays = input.TrialDays
	}
	company, err := identity.NewCompany(input.Name, input.Email, trialDays)
	if err != nil {
		return nil, err
	}
	if input.MobileNumber != "" || input.Address != "" || input.LogoURL != "" {
		if err := company.UpdateProfile(company.Name, company.Email, input.MobileNumber, input.Address, input.LogoURL); err != nil {
			return nil, err
		}
	}

	if err := s.companyRepo.Save(ctx, company); err != nil {
		s.logger.Error("failed to save company", zap.String("email", company.Email), zap.Error(err))
		return nil, err
	}
	s.publish(ctx, company)

	s.logger.Info("company registered",
		zap.String("company_id", company.ID.String()),
		zap.Time("trial_end", company.Subscription.TrialEndDate),
	)
	return toCompanyDTO(company, nil), nil
}

// GetProfile returns the caller's own company together with its client counts
func (s *CompanyService) GetProfile(ctx context.Context, principal identity.Principal) (*CompanyDTO, error) {
	companyID, err := ownCompanyID(principal)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	counts, err := s.clientCounts(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	return toCompanyDTO(company, counts), nil
}

// UpdateProfile changes the contact details of the caller's own company
func (s *CompanyService) UpdateProfile(ctx context.Context, principal identity.Principal, input UpdateCompanyProfileInput) (*CompanyDTO, error) {
	companyID, err := ownCompanyID(principal)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	name, email := company.Name, company.Email
	mobile, address, logo := company.MobileNumber, company.Address, company.LogoURL
	if input.Name != nil {
		name = *input.Name
	}
	if input.Email != nil {
		email = *input.Email
	}
	if input.MobileNumber != nil {
		mobile = *input.MobileNumber
	}
	if input.Address != nil {
		address = *input.Address
	}
	if input.LogoURL != nil {
		logo = *input.LogoURL
	}
	if err := company.UpdateProfile(name, email, mobile, address, logo); err != nil {
		return nil, err
	}

	if err := s.companyRepo.Save(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyDTO(company, nil), nil
}

// GetSubscriptionStatus refreshes date-based expiry and returns the subscription view.
// Company callers may only read their own company; other companies are reported as not found.
func (s *CompanyService) GetSubscriptionStatus(ctx context.Context, principal identity.Principal, companyID uuid.UUID) (*SubscriptionStatusDTO, error) {
	if !principal.CanViewCompany(companyID) {
		return nil, shared.ErrNotFound
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	state, changed := company.RefreshSubscription(s.now())
	if changed {
		if err := s.companyRepo.Save(ctx, company); err != nil {
			return nil, err
		}
		s.publish(ctx, company)
	}

	return &SubscriptionStatusDTO{
		Status:                string(state.Status),
		TrialStartDate:        state.TrialStartDate,
		TrialEndDate:          state.TrialEndDate,
		CurrentPeriodEnd:      state.CurrentPeriodEnd,
		IsTrialExpired:        state.IsTrialExpired,
		IsSubscriptionExpired: state.IsSubscriptionExpired,
		DaysRemaining:         state.DaysRemaining,
	}, nil
}

// UpdateSubscription sets a company's subscription status and billing period. Admin only.
func (s *CompanyService) UpdateSubscription(ctx context.Context, principal identity.Principal, companyID uuid.UUID, input UpdateSubscriptionInput) (*CompanyDTO, error) {
	if !principal.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if err := company.UpdateSubscription(identity.SubscriptionStatus(input.Status), input.CurrentPeriodStart, input.CurrentPeriodEnd); err != nil {
		return nil, err
	}
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return nil, err
	}
	s.publish(ctx, company)

	return toCompanyDTO(company, nil), nil
}

// List returns companies newest first with their client counts. Admin only.
func (s *CompanyService) List(ctx context.Context, principal identity.Principal, filter CompanyFilter) ([]CompanyDTO, int64, error) {
	if !principal.IsAdmin() {
		return nil, 0, shared.ErrForbidden
	}

	domainFilter := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, Search: filter.Search}.Normalize()
	companies, err := s.companyRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.companyRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]CompanyDTO, len(companies))
	for i := range companies {
		counts, err := s.clientCounts(ctx, companies[i].ID)
		if err != nil {
			return nil, 0, err
		}
		dtos[i] = *toCompanyDTO(&companies[i], counts)
	}
	return dtos, total, nil
}

// SweepSubscriptions expires every trial or active subscription whose end date has passed.
// It returns the number of companies that changed.
func (s *CompanyService) SweepSubscriptions(ctx context.Context) (int, error) {
	companies, err := s.companyRepo.FindBySubscriptionStatus(ctx, identity.SubscriptionTrial, identity.SubscriptionActive)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	for i := range companies {
		company := &companies[i]
		if _, changed := company.RefreshSubscription(now); !changed {
			continue
		}
		if err := s.companyRepo.Save(ctx, company); err != nil {
			s.logger.Error("failed to persist expired subscription",
				zap.String("company_id", company.ID.String()),
				zap.Error(err),
			)
			continue
		}
		s.publish(ctx, company)
		expired++
	}
	return expired, nil
}

func (s *CompanyService) clientCounts(ctx context.Context, companyID uuid.UUID) (*ClientCountsDTO, error) {
	scope := shared.TenantScope(companyID)
	b2c, err := s.b2cRepo.Count(ctx, scope, client.B2CListFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	b2b, err := s.b2bRepo.Count(ctx, scope, client.B2BListFilter{})
	if err != nil {
		return nil, err
	}
	return &ClientCountsDTO{B2B: b2b, B2C: b2c, Total: b2b + b2c}, nil
}

func (s *CompanyService) publish(ctx context.Context, company *identity.Company) {
	if err := shared.PublishPending(ctx, s.eventPublisher, company); err != nil {
		s.logger.Warn("failed to publish company events",
			zap.String("company_id", company.ID.String()),
			zap.Error(err),
		)
	}
}

func ownCompanyID(principal identity.Principal) (uuid.UUID, error) {
	if principal.IsAdmin() || principal.TenantID == nil || *principal.TenantID == uuid.Nil {
		return uuid.Nil, shared.NewDomainError("FORBIDDEN", "Only company accounts have a company profile")
	}
	return *principal.TenantID, nil
}

func toCompanyDTO(c *identity.Company, counts *ClientCountsDTO) *CompanyDTO {
	return &CompanyDTO{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		MobileNumber: c.MobileNumber,
		Address:      c.Address,
		LogoURL:      c.LogoURL,
		OwnerID:      c.OwnerID,
		Subscription: SubscriptionDTO{
			Status:             string(c.Subscription.Status),
			TrialStartDate:     c.Subscription.TrialStartDate,
			TrialEndDate:       c.Subscription.TrialEndDate,
			CurrentPeriodStart: c.Subscription.CurrentPeriodStart,
			CurrentPeriodEnd:   c.Subscription.CurrentPeriodEnd,
			CancelAtPeriodEnd:  c.Subscription.CancelAtPeriodEnd,
		},
		ClientsCount: counts,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
