package queue

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediconnect/clinical-api/internal/handler"
	"github.com/mediconnect/clinical-api/internal/service/queue"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

type Handler struct {
	service queue.QueueServicer
}

func NewHandler(service queue.QueueServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/departments/:role/queue", h.GetQueue)
	r.GET("/transfers/incoming", h.GetIncomingTransfers)
}

// GetQueue lists a department's actions. Unknown departments get an empty list.
func (h *Handler) GetQueue(c *gin.Context) {
	items, err := h.service.GetQueue(c.Request.Context(), c.Param("role"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

// GetIncomingTransfers lists open transfers into ?organizationId=, defaulting
// to the caller's organization.
func (h *Handler) GetIncomingTransfers(c *gin.Context) {
	orgID, err := handler.QueryUUID(c, "organizationId")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if orgID == nil {
		p, ok := handler.Caller(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.NewValidation("organizationId", "organizationId is required"))
			return
		}
		orgID = &p.OrganizationID
	}

	items, err := h.service.GetIncomingTransfers(c.Request.Context(), *orgID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, items)
}
