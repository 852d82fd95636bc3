package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/ledger"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// B2CClientService handles traveller registration, lifecycle and archival
type B2CClientService struct {
	clientRepo      client.B2CClientRepository
	transactionRepo ledger.TransactionRepository
	passportPolicy  PassportUniqueness
	statusCache     StatusCache
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewB2CClientService creates a new B2CClientService
func NewB2CClientService(
	clientRepo client.B2CClientRepository,
	transactionRepo ledger.TransactionRepository,
	passportPolicy PassportUniqueness,
	logger *zap.Logger,
) *B2CClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &B2CClientService{
		clientRepo:      clientRepo,
		transactionRepo: transactionRepo,
		passportPolicy:  passportPolicy,
		logger:          logger,
		now:             time.Now,
	}
}

// SetEventPublisher sets the publisher for client domain events
func (s *B2CClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStatusCache enables caching of public status-check results
func (s *B2CClientService) SetStatusCache(cache StatusCache) {
	s.statusCache = cache
}

// Create registers a traveller for the caller's company
func (s *B2CClientService) Create(ctx context.Context, principal identity.Principal, req CreateB2CClientRequest) (*B2CClientResponse, error) {
	tenantID, err := principal.WriteTenant(req.TenantID)
	if err != nil {
		return nil, err
	}

	passport := client.NormalizePassportNumber(req.PassportNumber)
	if err := s.ensurePassportAvailable(ctx, tenantID, passport, nil); err != nil {
		return nil, err
	}

	c, err := client.NewB2CClient(
		tenantID,
		client.B2CProfile{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Address:        req.Address,
			PassportNumber: passport,
			Destination:    req.Destination,
			VisaType:       req.VisaType,
			Notes:          req.Notes,
		},
		client.ClientType(req.ClientType),
		client.Status(req.Status),
		decimalOrZero(req.ContractAmount),
		decimalOrZero(req.InitialPayment),
	)
	if err != nil {
		return nil, err
	}
	c.SetCreatedBy(principal.UserID)
	c.AssociateWith(req.AssociatedB2BID)

	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, c, passport)

	response := ToB2CClientResponse(c)
	return &response, nil
}

// GetByID retrieves a traveller visible to the caller
func (s *B2CClientService) GetByID(ctx context.Context, principal identity.Principal, id uuid.UUID) (*B2CClientResponse, error) {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	response := ToB2CClientResponse(c)
	return &response, nil
}

// List retrieves travellers newest first. Archived clients are excluded unless requested.
func (s *B2CClientService) List(ctx context.Context, principal identity.Principal, filter B2CClientListFilter) ([]B2CClientResponse, int64, error) {
	return s.list(ctx, principal, filter, false)
}

// ListArchived retrieves archived travellers only
func (s *B2CClientService) ListArchived(ctx context.Context, principal identity.Principal, filter B2CClientListFilter) ([]B2CClientResponse, int64, error) {
	return s.list(ctx, principal, filter, true)
}

func (s *B2CClientService) list(ctx context.Context, principal identity.Principal, filter B2CClientListFilter, archivedOnly bool) ([]B2CClientResponse, int64, error) {
	scope, err := principal.ResolveScope(filter.TenantID)
	if err != nil {
		return nil, 0, err
	}

	domainFilter := client.B2CListFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		Status:          client.Status(filter.Status),
		ClientType:      client.ClientType(filter.ClientType),
		AssociatedB2BID: filter.AssociatedB2BID,
		IncludeArchived: filter.IncludeArchived,
		ArchivedOnly:    archivedOnly,
	}
	domainFilter.Filter = domainFilter.Filter.Normalize()

	clients, err := s.clientRepo.FindAll(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clientRepo.Count(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToB2CClientResponses(clients), total, nil
}

// Update applies a partial edit. Contract edits re-derive the due amount and
// status edits append to the status history.
func (s *B2CClientService) Update(ctx context.Context, principal identity.Principal, id uuid.UUID, req UpdateB2CClientRequest) (*B2CClientResponse, error) {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	oldPassport := c.PassportNumber

	profile, changed := applyB2CProfilePatch(c.B2CProfile, req)
	if changed {
		profile.PassportNumber = client.NormalizePassportNumber(profile.PassportNumber)
		if profile.PassportNumber != oldPassport {
			if err := s.ensurePassportAvailable(ctx, c.TenantID, profile.PassportNumber, &c.ID); err != nil {
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

	if req.ClientType != nil || req.Status != nil {
		var clientType client.ClientType
		if req.ClientType != nil {
			clientType = client.ClientType(*req.ClientType)
		}
		var status client.Status
		if req.Status != nil {
			status = client.Status(*req.Status)
		}
		notes := ""
		if req.StatusNotes != nil {
			notes = *req.StatusNotes
		}
		if err := c.ApplyLifecycle(clientType, status, notes, s.now()); err != nil {
			return nil, err
		}
	}

	if req.AssociatedB2BID != nil {
		c.AssociateWith(req.AssociatedB2BID)
	}

	if err := s.clientRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, c, oldPassport, c.PassportNumber)

	response := ToB2CClientResponse(c)
	return &response, nil
}

// Archive soft-deletes a traveller. Its transactions stay attached and queryable.
func (s *B2CClientService) Archive(ctx context.Context, principal identity.Principal, id uuid.UUID, req ArchiveB2CClientRequest) (*B2CClientResponse, error) {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	count, err := s.transactionRepo.CountByClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if err := c.Archive(req.Reason, count > 0, s.now()); err != nil {
		return nil, err
	}

	if err := s.clientRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, c, c.PassportNumber)

	response := ToB2CClientResponse(c)
	return &response, nil
}

// Delete archives the traveller with the default reason; travellers are never hard-deleted
func (s *B2CClientService) Delete(ctx context.Context, principal identity.Principal, id uuid.UUID) (*B2CClientResponse, error) {
	return s.Archive(ctx, principal, id, ArchiveB2CClientRequest{Reason: client.DefaultArchiveReason})
}

// Restore brings back an archived traveller. Non-archived targets are reported as not found.
func (s *B2CClientService) Restore(ctx context.Context, principal identity.Principal, id uuid.UUID) (*B2CClientResponse, error) {
	c, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := c.Restore(); err != nil {
		return nil, err
	}

	if err := s.clientRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, c, c.PassportNumber)

	response := ToB2CClientResponse(c)
	return &response, nil
}

// CheckStatus is the unauthenticated lookup of a case by passport number.
// With per-tenant passport uniqueness the most recently registered case wins.
func (s *B2CClientService) CheckStatus(ctx context.Context, passportNumber string) (*StatusCheckResponse, error) {
	passport := client.NormalizePassportNumber(passportNumber)
	if passport == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Passport number is required")
	}

	if s.statusCache != nil {
		payload, found, err := s.statusCache.Get(ctx, passport)
		if err != nil {
			s.logger.Warn("status cache read failed", zap.Error(err))
		} else if found {
			var cached StatusCheckResponse
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	c, err := s.clientRepo.FindLatestByPassportNumber(ctx, passport)
	if err != nil {
		return nil, err
	}
	response := ToStatusCheckResponse(c)

	if s.statusCache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.statusCache.Set(ctx, passport, payload); err != nil {
				s.logger.Warn("status cache write failed", zap.Error(err))
			}
		}
	}
	return &response, nil
}

func (s *B2CClientService) load(ctx context.Context, principal identity.Principal, id uuid.UUID) (*client.B2CClient, error) {
	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}
	return s.clientRepo.FindByID(ctx, scope, id)
}

func (s *B2CClientService) ensurePassportAvailable(ctx context.Context, tenantID uuid.UUID, passport string, excludeID *uuid.UUID) error {
	exists, err := s.clientRepo.ExistsByPassportNumber(ctx, s.passportPolicy.scope(tenantID), passport, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Client with this passport number already exists")
	}
	return nil
}

// afterWrite publishes pending events and drops cached status views
func (s *B2CClientService) afterWrite(ctx context.Context, c *client.B2CClient, passports ...string) {
	if err := shared.PublishPending(ctx, s.eventPublisher, c); err != nil {
		s.logger.Warn("failed to publish client events",
			zap.String("client_id", c.ID.String()),
			zap.Error(err),
		)
	}
	if s.statusCache != nil {
		if err := s.statusCache.Delete(ctx, passports...); err != nil {
			s.logger.Warn("status cache invalidation failed", zap.Error(err))
		}
	}
}

func applyB2CProfilePatch(p client.B2CProfile, req UpdateB2CClientRequest) (client.B2CProfile, bool) {
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
	set(&p.PassportNumber, req.PassportNumber)
	set(&p.Destination, req.Destination)
	set(&p.VisaType, req.VisaType)
	set(&p.Notes, req.Notes)
	return p, changed
}
