package action

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/handler"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/service/action"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

type Handler struct {
	service action.ActionServicer
}

func NewHandler(service action.ActionServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	actions := r.Group("/actions")
	{
		actions.POST("", h.CreateAction)
		actions.GET("/:id", h.GetAction)
		actions.PATCH("/:id", h.TransitionAction)
	}
	r.POST("/transfers", h.CreateTransfer)
}

// CreateAction records a new pending action. Author and origin organization
// default to the caller.
func (h *Handler) CreateAction(c *gin.Context) {
	var req model.CreateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	handler.DefaultUser(c, &req.AuthorID)
	handler.DefaultOrganization(c, &req.FromOrganizationID)

	created, err := h.service.CreateAction(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

func (h *Handler) GetAction(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	found, err := h.service.GetAction(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, found)
}

// TransitionAction moves an action to a new status. Completing without an
// explicit completer attributes the work to the caller.
func (h *Handler) TransitionAction(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.TransitionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	if req.Status == model.ActionStatusCompleted {
		if p, ok := handler.Caller(c); ok {
			if req.CompletedBy == nil {
				req.CompletedBy = uuidPtr(p.UserID)
			}
			if req.CompletedByOrganizationID == nil {
				req.CompletedByOrganizationID = uuidPtr(p.OrganizationID)
			}
		}
	}

	updated, err := h.service.TransitionAction(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) CreateTransfer(c *gin.Context) {
	var req model.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}
	handler.DefaultUser(c, &req.AuthorID)
	handler.DefaultOrganization(c, &req.FromOrganizationID)

	created, err := h.service.CreateTransfer(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
