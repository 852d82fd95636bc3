package identity

import (
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is the coarse role carried in the session token
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
	RoleUser    Role = "user"
)

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCompany, RoleUser:
		return true
	}
	return false
}

// Principal is the acting identity of a request, as supplied by the auth layer.
// It is trusted verbatim.
type Principal struct {
	UserID   uuid.UUID
	Role     Role
	TenantID *uuid.UUID
}

// NewPrincipal builds a principal. Non-admin roles must carry a tenant.
func NewPrincipal(userID uuid.UUID, role Role, tenantID *uuid.UUID) (Principal, error) {
	if !role.IsValid() {
		return Principal{}, shared.NewDomainError("UNAUTHORIZED", "Unknown role")
	}
	if role != RoleAdmin && (tenantID == nil || *tenantID == uuid.Nil) {
		return Principal{}, shared.NewDomainError("UNAUTHORIZED", "Tenant context is required")
	}
	return Principal{UserID: userID, Role: role, TenantID: tenantID}, nil
}

// IsAdmin reports whether the principal is a platform administrator
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ResolveScope returns the read scope for this principal.
// Tenant-bound callers are always pinned to their own tenant and explicit is ignored.
// Admin callers see all tenants unless explicit narrows the view.
func (p Principal) ResolveScope(explicit *uuid.UUID) (shared.Scope, error) {
	if p.IsAdmin() {
		if explicit != nil && *explicit != uuid.Nil {
			return shared.TenantScope(*explicit), nil
		}
		return shared.AllTenantsScope(), nil
	}
	if p.TenantID == nil || *p.TenantID == uuid.Nil {
		return shared.Scope{}, shared.NewDomainError("UNAUTHORIZED", "Tenant context is required")
	}
	return shared.TenantScope(*p.TenantID), nil
}

// WriteTenant returns the tenant that newly created records are stamped with.
// Admins must name the tenant explicitly.
func (p Principal) WriteTenant(explicit *uuid.UUID) (uuid.UUID, error) {
	if p.IsAdmin() {
		if explicit == nil || *explicit == uuid.Nil {
			return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "tenant_id is required for admin requests")
		}
		return *explicit, nil
	}
	if p.TenantID == nil || *p.TenantID == uuid.Nil {
		return uuid.Nil, shared.NewDomainError("UNAUTHORIZED", "Tenant context is required")
	}
	return *p.TenantID, nil
}

// CanViewCompany reports whether the principal may read the given company
func (p Principal) CanViewCompany(companyID uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.TenantID != nil && *p.TenantID == companyID
}

// CanViewReports reports whether the principal may run tenant reports
func (p Principal) CanViewReports() bool {
	return p.Role == RoleAdmin || p.Role == RoleCompany
}
