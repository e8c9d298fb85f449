package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/services"
)

type InsightHandler struct {
	log *logger.Logger
	svc services.InsightService
}

func NewInsightHandler(log *logger.Logger, svc services.InsightService) *InsightHandler {
	return &InsightHandler{
		log: log.With("handler", "InsightHandler"),
		svc: svc,
	}
}

// GET /api/insights?acknowledged=true|false&limit=N
func (h *InsightHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var acknowledged *bool
	if raw := c.Query("acknowledged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "BAD_REQUEST", fmt.Errorf("acknowledged must be a boolean"))
			return
		}
		acknowledged = &v
	}
	limit := parseLimit(c, 20)
	rows, err := h.svc.ListRecent(c.Request.Context(), rd.UserID, acknowledged, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}
	RespondOK(c, gin.H{"insights": rows})
}

// POST /api/insights/:id/acknowledge
func (h *InsightHandler) Acknowledge(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	insightID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", fmt.Errorf("invalid insight id"))
		return
	}
	if err := h.svc.Acknowledge(c.Request.Context(), rd.UserID, insightID); err != nil {
		RespondError(c, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	RespondOK(c, gin.H{"acknowledged": true})
}
