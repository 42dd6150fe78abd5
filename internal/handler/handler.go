// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/middleware"
	"github.com/mediconnect/clinical-api/pkg/auth"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

// Registrar is implemented by every route group handler.
type Registrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// ParseID reads a UUID path parameter. On failure it responds 400 and
// returns false.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID reads an optional UUID query parameter.
func QueryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidation(name, name+" must be a UUID")
	}
	return &id, nil
}

// Caller returns the authenticated principal, if any.
func Caller(c *gin.Context) (*auth.Principal, bool) {
	return middleware.PrincipalFrom(c)
}

// DefaultUser fills id with the caller's user ID when unset.
func DefaultUser(c *gin.Context, id *uuid.UUID) {
	if p, ok := Caller(c); ok && *id == uuid.Nil {
		*id = p.UserID
	}
}

// DefaultOrganization fills id with the caller's organization when unset.
func DefaultOrganization(c *gin.Context, id *uuid.UUID) {
	if p, ok := Caller(c); ok && *id == uuid.Nil {
		*id = p.OrganizationID
	}
}
