package organization

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediconnect/clinical-api/internal/handler"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/service/organization"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

type Handler struct {
	service organization.OrganizationServicer
	// adminOnly guards the mutating routes.
	adminOnly gin.HandlerFunc
}

func NewHandler(service organization.OrganizationServicer, adminOnly gin.HandlerFunc) *Handler {
	if adminOnly == nil {
		adminOnly = func(c *gin.Context) { c.Next() }
	}
	return &Handler{service: service, adminOnly: adminOnly}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/admin/organizations")
	{
		orgs.GET("", h.ListOrganizations)
		orgs.GET("/:id", h.GetOrganization)
		orgs.POST("", h.adminOnly, h.CreateOrganization)
	}

	staff := r.Group("/staff")
	{
		staff.GET("", h.ListStaff)
		staff.POST("", h.adminOnly, h.CreateStaff)
	}
}

// CreateOrganization onboards an organization together with its default admin.
func (h *Handler) CreateOrganization(c *gin.Context) {
	var req model.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	result, err := h.service.Onboard(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, result)
}

func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.service.ListOrganizations(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, orgs)
}

func (h *Handler) GetOrganization(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	org, err := h.service.GetOrganization(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, org)
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	user, err := h.service.CreateStaff(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, user)
}

// ListStaff returns staff ordered by role, optionally for one organization.
func (h *Handler) ListStaff(c *gin.Context) {
	orgID, err := handler.QueryUUID(c, "organizationId")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	users, err := h.service.ListStaff(c.Request.Context(), orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, users)
}
