package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediconnect/clinical-api/internal/handler"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/service/visit"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

type Handler struct {
	service visit.VisitServicer
}

func NewHandler(service visit.VisitServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.CreateVisit)
		visits.GET("/active-emergencies", h.GetActiveEmergencies)
		visits.PATCH("/:id", h.UpdateVisit)
	}
}

func (h *Handler) CreateVisit(c *gin.Context) {
	var req model.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	handler.DefaultOrganization(c, &req.OrganizationID)

	created, err := h.service.CreateVisit(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	updated, err := h.service.UpdateVisit(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) GetActiveEmergencies(c *gin.Context) {
	visits, err := h.service.GetActiveEmergencies(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, visits)
}
