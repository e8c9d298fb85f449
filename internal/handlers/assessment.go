package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/services"
)

type AssessmentHandler struct {
	log *logger.Logger
	svc services.AssessmentService
}

func NewAssessmentHandler(log *logger.Logger, svc services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		log: log.With("handler", "AssessmentHandler"),
		svc: svc,
	}
}

type submitAssessmentRequest struct {
	AssessmentType string         `json:"assessment_type"`
	Responses      map[string]int `json:"responses"`
}

// POST /api/assessments
func (h *AssessmentHandler) Submit(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var req submitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	assessment, err := h.svc.Submit(c.Request.Context(), rd.UserID, req.AssessmentType, req.Responses)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ASSESSMENT", err)
		return
	}
	RespondCreated(c, assessment)
}

// GET /api/assessments?limit=N
func (h *AssessmentHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	limit := parseLimit(c, 20)
	rows, err := h.svc.ListRecent(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}
	RespondOK(c, gin.H{"assessments": rows})
}

func parseLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 100 {
		return def
	}
	return n
}
