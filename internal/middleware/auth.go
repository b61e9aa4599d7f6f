package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/pkg/auth"
	"github.com/salonkit/salon-api/pkg/errors"
	"github.com/salonkit/salon-api/pkg/httputil"
)

const (
	ContextUserID         = "user_id"
	ContextOrganizationID = "organization_id"
	ContextBranchID       = "branch_id"
	ContextRole           = "role"
)

type AuthMiddleware struct {
	jwtService auth.JWTService
	// claims cache keyed by raw token, bounded by token expiry
	cache *gocache.Cache
}

func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		cache:      gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Authenticate verifies the bearer token and places the tenant scope in
// the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Unauthorized("missing authorization header", nil))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, errors.Unauthorized("invalid authorization format", nil))
			c.Abort()
			return
		}
		token := parts[1]

		var claims *auth.Claims
		if cached, ok := m.cache.Get(token); ok {
			claims = cached.(*auth.Claims)
		} else {
			validated, err := m.jwtService.ValidateToken(token)
			if err != nil {
				httputil.RespondWithError(c, errors.Unauthorized("invalid token", err))
				c.Abort()
				return
			}
			claims = validated
			m.cache.Set(token, claims, gocache.DefaultExpiration)
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextOrganizationID, claims.OrganizationID)
		if claims.BranchID != nil {
			c.Set(ContextBranchID, *claims.BranchID)
		}
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRoles restricts a route to the listed roles.
func (m *AuthMiddleware) RequireRoles(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized("missing authentication", nil))
			c.Abort()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.Forbidden("insufficient role", nil))
		c.Abort()
	}
}

// UserID reads the authenticated user from the gin context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// OrganizationID reads the tenant scope from the gin context.
func OrganizationID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextOrganizationID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// BranchID reads the branch scope from the gin context. Returns
// uuid.Nil when the token carries no branch.
func BranchID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(ContextBranchID)
	if !ok {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
