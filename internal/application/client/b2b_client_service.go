package client

import (
	"context"
	"fmt"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// B2BClientService handles business-partner records and their referred travellers
type B2BClientService struct {
	clientRepo     client.B2BClientRepository
	b2cRepo        client.B2CClientRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewB2BClientService creates a new B2BClientService
func NewB2BClientService(clientRepo client.B2BClientRepository, b2cRepo client.B2CClientRepository, logger *zap.Logger) *B2BClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &B2BClientService{
		clientRepo: clientRepo,
		b2cRepo:    b2cRepo,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for client domain events
func (s *B2BClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a business partner. Business names are unique per company.
func (s *B2BClientService) Create(ctx context.Context, principal identity.Principal, req CreateB2BClientRequest) (*B2BClientResponse, error) {
	tenantID, err := principal.WriteTenant(req.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, tenantID, req.Name, nil); err != nil {
		return nil, err
	}

	c, err := client.NewB2BClient(
		tenantID,
		client.B2BProfile{
			Name:         req.Name,
			Email:        req.Email,
			Phone:        req.Phone,
			Address:      req.Address,
			BusinessType: req.BusinessType,
			Notes:        req.Notes,
		},
		decimalOrZero(req.ContractAmount),
		decimalOrZero(req.InitialPayment),
	)
	if err != nil {
		return nil, err
	}
	c.SetCreatedBy(principal.UserID)

	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)

	response := ToB2BClientResponse(c)
	return &response, nil
}

// GetWithAssociated retrieves a business partner together with the travellers it referred
func (s *B2BClientService) GetWithAssociated(ctx context.Context, principal identity.Principal, id uuid.UUID) (*B2BClientDetailResponse, error) {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	associated, err := s.b2cRepo.FindByAssociatedB2B(ctx, shared.TenantScope(c.TenantID), c.ID)
	if err != nil {
		return nil, err
	}

	return &B2BClientDetailResponse{
		B2BClientResponse:    ToB2BClientResponse(c),
		AssociatedB2CClients: ToB2CClientResponses(associated),
	}, nil
}

// List retrieves business partners newest first
func (s *B2BClientService) List(ctx context.Context, principal identity.Principal, filter B2BClientListFilter) ([]B2BClientResponse, int64, error) {
	scope, err := principal.ResolveScope(filter.TenantID)
	if err != nil {
		return nil, 0, err
	}

	domainFilter := client.B2BListFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		}.Normalize(),
	}

	clients, err := s.clientRepo.FindAll(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clientRepo.Count(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToB2BClientResponses(clients), total, nil
}

// Update applies a partial edit and re-derives the due amount on contract edits
func (s *B2BClientService) Update(ctx context.Context, principal identity.Principal, id uuid.UUID, req UpdateB2BClientRequest) (*B2BClientResponse, error) {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	profile, changed := applyB2BProfilePatch(c.B2BProfile, req)
	if changed {
		if client.BusinessNameKey(profile.Name) != c.NameKey() {
			if err := s.ensureNameAvailable(ctx, c.TenantID, profile.Name, &c.ID); err != nil {
				return nil, err
			}
		}
		if err := c.UpdateProfile(profile); err != nil {
			return nil, err
		}
	}

	if err := c.Revalue(req.ContractAmount, req.InitialPayment); err != nil {
		return nil, err
	}

	if err := s.clientRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, c)

	response := ToB2BClientResponse(c)
	return &response, nil
}

// Delete hard-deletes a business partner that no traveller references
func (s *B2BClientService) Delete(ctx context.Context, principal identity.Principal, id uuid.UUID) error {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return err
	}

	count, err := s.b2cRepo.CountByAssociatedB2B(ctx, shared.TenantScope(c.TenantID), c.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Cannot delete B2B client with %d associated B2C clients; remove or reassign them first", count))
	}

	c.MarkDeleted()
	if err := s.clientRepo.Delete(ctx, shared.TenantScope(c.TenantID), c.ID); err != nil {
		return err
	}
	s.publish(ctx, c)
	return nil
}

func (s *B2BClientService) load(ctx context.Context, principal identity.Principal, id uuid.UUID) (*client.B2BClient, error) {
	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}
	return s.clientRepo.FindByID(ctx, scope, id)
}

func (s *B2BClientService) ensureNameAvailable(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) error {
	exists, err := s.clientRepo.ExistsByName(ctx, tenantID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Client with this business name already exists")
	}
	return nil
}

func (s *B2BClientService) publish(ctx context.Context, c *client.B2BClient) {
	if err := shared.PublishPending(ctx, s.eventPublisher, c); err != nil {
		s.logger.Warn("failed to publish client events",
			zap.String("client_id", c.ID.String()),
			zap.Error(err),
		)
	}
}

func applyB2BProfilePatch(p client.B2BProfile, req UpdateB2BClientRequest) (client.B2BProfile, bool) {
	changed := false
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
			changed = true
		}
	}
	set(&p.Name, req.Name)
	set(&p.Email, req.Email)
	set(&p.Phone, req.Phone)
	set(&p.Address, req.Address)
	set(&p.BusinessType, req.BusinessType)
	set(&p.Notes, req.Notes)
	return p, changed
}
