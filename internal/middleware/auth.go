package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/pkg/auth"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

const ContextPrincipal = "principal"

type AuthMiddleware struct {
	jwt      auth.JWTService
	required bool
}

// NewAuthMiddleware builds the bearer token checks. When required is false,
// requests without an Authorization header pass as anonymous.
func NewAuthMiddleware(jwt auth.JWTService, required bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:      jwt,
		required: required,
	}
}

// Authenticate verifies the JWT and stores the caller in the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if m.required {
				httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("missing authorization header")))
				return
			}
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("invalid authorization format")))
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized(err))
			return
		}

		principal := claims.Principal
		c.Set(ContextPrincipal, &principal)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not listed.
// Anonymous callers only get through when authentication is optional.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := lo.Map(roles, func(r model.Role, _ int) string { return string(r) })

	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			if m.required {
				httputil.RespondWithError(c, apperrors.Unauthorized(nil))
				return
			}
			c.Next()
			return
		}

		if !lo.Contains(allowed, principal.Role) {
			httputil.RespondWithError(c, apperrors.Forbidden("role "+principal.Role+" may not access this resource"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}
