package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
	"github.com/cedarwell/actbridge-backend/internal/services"
)

type ConversationHandler struct {
	log      *logger.Logger
	svc      services.AIService
	messages repos.ConversationMessageRepo
}

func NewConversationHandler(log *logger.Logger, svc services.AIService, messageRepo repos.ConversationMessageRepo) *ConversationHandler {
	return &ConversationHandler{
		log:      log.With("handler", "ConversationHandler"),
		svc:      svc,
		messages: messageRepo,
	}
}

type converseRequest struct {
	Message          string       `json:"message"`
	ConversationType string       `json:"conversation_type,omitempty"`
	History          []ai.Message `json:"history,omitempty"`
}

// POST /api/conversation
func (h *ConversationHandler) Converse(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var req converseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	if req.Message == "" {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", fmt.Errorf("message required"))
		return
	}
	convType := ai.ConversationType(req.ConversationType)
	if req.ConversationType == "" {
		convType = ai.ConversationTherapeuticGuidance
	}
	if !convType.Valid() {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", fmt.Errorf("unknown conversation_type %q", req.ConversationType))
		return
	}

	result, err := h.svc.Converse(c.Request.Context(), rd.UserID, req.Message, convType, req.History)
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/conversation/history?limit=N
func (h *ConversationHandler) History(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	limit := parseLimit(c, 50)
	rows, err := h.messages.ListRecentByUser(c.Request.Context(), nil, rd.UserID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}
	RespondOK(c, gin.H{"messages": rows})
}
