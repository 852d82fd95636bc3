// Package tenant turns a shared.Scope into GORM query scopes:
//
//	db.WithContext(ctx).Scopes(tenant.Scoped(scope)).Find(&clients)
package tenant

import (
	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column is the tenant column of every tenant-owned table
const Column = "tenant_id"

// Scoped filters on the statement's own tenant_id, qualified with its table
// so joins stay unambiguous. An all-tenants scope adds nothing; a restricted
// scope without a tenant matches no rows.
func Scoped(scope shared.Scope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case scope.AllTenants:
			return db
		case scope.TenantID == uuid.Nil:
			return db.Where("1 = 0")
		}
		return db.Where(clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: Column},
			Value:  scope.TenantID,
		})
	}
}

// ForTenant is Scoped for a single known tenant
func ForTenant(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return Scoped(shared.TenantScope(tenantID))
}
