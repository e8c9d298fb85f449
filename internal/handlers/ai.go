package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/services"
)

type AIHandler struct {
	log *logger.Logger
	svc services.AIService
}

func NewAIHandler(log *logger.Logger, svc services.AIService) *AIHandler {
	return &AIHandler{
		log: log.With("handler", "AIHandler"),
		svc: svc,
	}
}

type aiRequest struct {
	ChapterID     *int            `json:"chapter_id,omitempty"`
	SectionID     *string         `json:"section_id,omitempty"`
	UserResponses json.RawMessage `json:"user_responses,omitempty"`
}

// POST /api/ai/guidance
func (h *AIHandler) Guidance(c *gin.Context) {
	h.runStructured(c, "guidance", h.svc.Guidance)
}

// POST /api/ai/reflection-prompts
func (h *AIHandler) ReflectionPrompts(c *gin.Context) {
	h.runStructured(c, "prompts", h.svc.ReflectionPrompts)
}

// POST /api/ai/recommendations
func (h *AIHandler) Recommendations(c *gin.Context) {
	h.runStructured(c, "recommendations", h.svc.Recommendations)
}

// POST /api/ai/insights
// Unlike the other structured modes this one persists its output.
func (h *AIHandler) GenerateInsights(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var req aiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	rows, err := h.svc.GenerateInsights(c.Request.Context(), services.AIRequest{
		UserID:        rd.UserID,
		ChapterID:     req.ChapterID,
		SectionID:     req.SectionID,
		UserResponses: req.UserResponses,
	})
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{"insights": rows})
}

func (h *AIHandler) runStructured(
	c *gin.Context,
	key string,
	fn func(ctx context.Context, req services.AIRequest) ([]ai.ProjectedRecord, error),
) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", fmt.Errorf("missing identity"))
		return
	}
	var req aiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	records, err := fn(c.Request.Context(), services.AIRequest{
		UserID:        rd.UserID,
		ChapterID:     req.ChapterID,
		SectionID:     req.SectionID,
		UserResponses: req.UserResponses,
	})
	if err != nil {
		respondGenerationError(c, err)
		return
	}
	RespondOK(c, gin.H{key: records})
}

// respondGenerationError maps pipeline failures to transport status codes:
// upstream rejections are 502, exhausted transient retries 503, and contract
// violations that survived their retry budget 502.
func respondGenerationError(c *gin.Context, err error) {
	switch {
	case ai.IsFatalGeneration(err):
		RespondError(c, http.StatusBadGateway, "UPSTREAM_REJECTED", err)
	case ai.IsTransientGeneration(err):
		RespondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", err)
	default:
		if _, ok := ai.AsContractError(err); ok {
			RespondError(c, http.StatusBadGateway, "MALFORMED_OUTPUT", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "GENERATION_FAILED", err)
	}
}
