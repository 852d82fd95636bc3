package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/infrastructure/auth"
	"github.com/agency/backend/internal/infrastructure/logger"
	"github.com/agency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gin context keys set by PrincipalMiddleware
const (
	JWTClaimsKey  = "jwt_claims"
	PrincipalKey  = "principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// PrincipalConfig holds configuration for PrincipalMiddleware
type PrincipalConfig struct {
	// JWTService verifies the bearer token; required
	JWTService *auth.JWTService
	// Revocations is consulted when set
	Revocations auth.RevocationStore
	// SkipPaths are full paths that need no authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// PrincipalMiddleware verifies the bearer token and attaches the acting
// principal to the gin context and the request context. Claims are trusted
// verbatim once the signature checks out.
func PrincipalMiddleware(cfg PrincipalConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if c.Request.URL.Path == skip {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, log, nil, "Missing authorization header")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, BearerPrefix)
		if !ok || tokenString == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}

		ctx := c.Request.Context()
		if err := auth.CheckRevoked(ctx, cfg.Revocations, claims); err != nil {
			if !errors.Is(err, auth.ErrTokenRevoked) {
				// Revocation store outage: fail open so the API stays available
				log.Error("Failed to check token revocation",
					zap.String("jti", claims.ID),
					zap.Error(err))
			} else {
				abortUnauthorized(c, log, err, "Token has been revoked")
				return
			}
		}

		principal, err := claims.Principal()
		if err != nil {
			abortUnauthorized(c, log, err, "Token claims do not describe a principal")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(PrincipalKey, principal)
		c.Set(logger.GinUserIDKey, claims.UserID)
		c.Set(logger.GinRoleKey, claims.Role)
		if claims.TenantID != "" {
			c.Set(logger.GinTenantIDKey, claims.TenantID)
		}

		reqLog := logger.FromContext(ctx)
		ctx, reqLog = logger.WithUserID(ctx, reqLog, claims.UserID)
		if claims.TenantID != "" {
			ctx, _ = logger.WithTenantID(ctx, reqLog, claims.TenantID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("Authentication failed",
		zap.Error(err),
		zap.String("reason", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, msg = dto.ErrCodeTokenInvalid, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidClaims):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	abortWithError(c, http.StatusUnauthorized, code, msg)
}

// GetPrincipal returns the principal attached by PrincipalMiddleware
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return identity.Principal{}, false
	}
	principal, ok := value.(identity.Principal)
	return principal, ok
}

// GetJWTClaims returns the verified token claims
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// RequireRole lets only principals holding one of roles through
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Insufficient permissions")
	}
}

// ExplicitTenant returns the tenant an admin request names through the
// X-Tenant-ID header or the tenant_id query parameter. Malformed values are
// treated as absent; the service ignores the value for tenant-bound callers.
func ExplicitTenant(c *gin.Context) *uuid.UUID {
	for _, raw := range []string{c.GetHeader(TenantIDHeader), c.Query("tenant_id")} {
		if raw == "" {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil && id != uuid.Nil {
			return &id
		}
	}
	return nil
}
