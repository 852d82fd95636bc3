package shared

import "github.com/google/uuid"

// Scope limits repository reads and writes to one tenant, or to all tenants
// for platform administrators.
type Scope struct {
	TenantID   uuid.UUID
	AllTenants bool
}

// TenantScope returns a scope restricted to tenantID
func TenantScope(tenantID uuid.UUID) Scope {
	return Scope{TenantID: tenantID}
}

// AllTenantsScope returns an unrestricted scope
func AllTenantsScope() Scope {
	return Scope{AllTenants: true}
}

// IsRestricted reports whether the scope filters by tenant
func (s Scope) IsRestricted() bool {
	return !s.AllTenants
}
