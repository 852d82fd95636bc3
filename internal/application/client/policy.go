package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PassportUniqueness selects how widely a B2C passport number must be unique
type PassportUniqueness string

const (
	// PassportUniqueGlobal rejects a passport already registered by any company
	PassportUniqueGlobal PassportUniqueness = "global"
	// PassportUniquePerTenant rejects a passport already registered by the same company
	PassportUniquePerTenant PassportUniqueness = "tenant"
)

// ParsePassportUniqueness parses a configured policy name; empty selects global
func ParsePassportUniqueness(s string) (PassportUniqueness, error) {
	switch PassportUniqueness(strings.ToLower(strings.TrimSpace(s))) {
	case "", PassportUniqueGlobal:
		return PassportUniqueGlobal, nil
	case PassportUniquePerTenant:
		return PassportUniquePerTenant, nil
	}
	return "", fmt.Errorf("unknown passport uniqueness policy %q", s)
}

// scope returns the lookup scope for a passport check on behalf of tenantID
func (p PassportUniqueness) scope(tenantID uuid.UUID) shared.Scope {
	if p == PassportUniquePerTenant {
		return shared.TenantScope(tenantID)
	}
	return shared.AllTenantsScope()
}

// StatusCache stores serialized public status-check results keyed by passport number
type StatusCache interface {
	Get(ctx context.Context, passportNumber string) ([]byte, bool, error)
	Set(ctx context.Context, passportNumber string, payload []byte) error
	Delete(ctx context.Context, passportNumbers ...string) error
}
