package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/services"
)

type ProgressHandler struct {
	log *logger.Logger
	svc services.ProgressService
}

func NewProgressHandler(log *logger.Logger, svc services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log: log.With("handler", "ProgressHandler"),
		svc: svc,
	}
}

type recordProgressRequest struct {
	ChapterID int             `json:"chapter_id"`
	SectionID string          `json:"section_id"`
	Completed bool            `json:"completed"`
	Responses json.RawMessage `json:"responses,omitempty"`
}

// POST /api/progress
func (h *ProgressHandler) Record(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var req recordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	entry, err := h.svc.Record(c.Request.Context(), rd.UserID, req.ChapterID, req.SectionID, req.Completed, req.Responses)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PROGRESS", err)
		return
	}
	RespondOK(c, entry)
}

// GET /api/progress?chapter_id=N&limit=N
func (h *ProgressHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var chapterID *int
	if raw := c.Query("chapter_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "BAD_REQUEST", fmt.Errorf("chapter_id must be an integer"))
			return
		}
		chapterID = &n
	}
	limit := parseLimit(c, 50)
	rows, err := h.svc.ListRecent(c.Request.Context(), rd.UserID, chapterID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}
	RespondOK(c, gin.H{"progress": rows})
}
