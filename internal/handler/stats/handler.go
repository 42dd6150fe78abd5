package stats

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

type StatsReader interface {
	GetStats(ctx context.Context) (*model.Stats, error)
}

type Handler struct {
	service StatsReader
}

func NewHandler(service StatsReader) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, stats)
}
