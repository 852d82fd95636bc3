package identity

import (
	"testing"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrincipal(t *testing.T) {
	tenantID := uuid.New()

	t.Run("company principal requires tenant", func(t *testing.T) {
		_, err := NewPrincipal(uuid.New(), RoleCompany, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("admin principal without tenant", func(t *testing.T) {
		p, err := NewPrincipal(uuid.New(), RoleAdmin, nil)
		require.NoError(t, err)
		assert.True(t, p.IsAdmin())
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewPrincipal(uuid.New(), Role("root"), &tenantID)
		assert.Error(t, err)
	})
}

func TestPrincipal_ResolveScope(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	tests := []struct {
		name     string
		p        Principal
		explicit *uuid.UUID
		want     shared.Scope
	}{
		{
			name: "company pinned to own tenant",
			p:    Principal{Role: RoleCompany, TenantID: &tenantA},
			want: shared.TenantScope(tenantA),
		},
		{
			name:     "company cannot widen to another tenant",
			p:        Principal{Role: RoleCompany, TenantID: &tenantA},
			explicit: &tenantB,
			want:     shared.TenantScope(tenantA),
		},
		{
			name: "admin sees all tenants",
			p:    Principal{Role: RoleAdmin},
			want: shared.AllTenantsScope(),
		},
		{
			name:     "admin narrows with explicit tenant",
			p:        Principal{Role: RoleAdmin},
			explicit: &tenantB,
			want:     shared.TenantScope(tenantB),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.ResolveScope(tt.explicit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("user without tenant is rejected", func(t *testing.T) {
		_, err := Principal{Role: RoleUser}.ResolveScope(nil)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestPrincipal_WriteTenant(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	t.Run("company writes into own tenant", func(t *testing.T) {
		p := Principal{Role: RoleCompany, TenantID: &tenantA}
		got, err := p.WriteTenant(&tenantB)
		require.NoError(t, err)
		assert.Equal(t, tenantA, got)
	})

	t.Run("admin must name a tenant", func(t *testing.T) {
		p := Principal{Role: RoleAdmin}
		_, err := p.WriteTenant(nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		got, err := p.WriteTenant(&tenantB)
		require.NoError(t, err)
		assert.Equal(t, tenantB, got)
	})
}

func TestPrincipal_Permissions(t *testing.T) {
	tenantA := uuid.New()

	assert.True(t, Principal{Role: RoleAdmin}.CanViewCompany(uuid.New()))
	assert.True(t, Principal{Role: RoleCompany, TenantID: &tenantA}.CanViewCompany(tenantA))
	assert.False(t, Principal{Role: RoleCompany, TenantID: &tenantA}.CanViewCompany(uuid.New()))

	assert.True(t, Principal{Role: RoleCompany, TenantID: &tenantA}.CanViewReports())
	assert.False(t, Principal{Role: RoleUser, TenantID: &tenantA}.CanViewReports())
}
