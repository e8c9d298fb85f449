package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/clients/redis"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

// ConversationPlaceholder substitutes a failed conversation turn. It is a UX
// fallback at this boundary only; structured modes surface their errors.
const ConversationPlaceholder = "I understand. Tell me more about what's on your mind — I'm listening."

// ConversationResult is the caller-facing reply. Placeholder distinguishes
// the substituted fallback from a genuine model reply for observability and
// tests.
type ConversationResult struct {
	Response          string `json:"response"`
	Placeholder       bool   `json:"placeholder,omitempty"`
	CrisisIntercepted bool   `json:"crisis_intercepted,omitempty"`
}

type AIRequest struct {
	UserID        uuid.UUID
	ChapterID     *int
	SectionID     *string
	UserResponses json.RawMessage
}

type AIService interface {
	Guidance(ctx context.Context, req AIRequest) ([]ai.ProjectedRecord, error)
	ReflectionPrompts(ctx context.Context, req AIRequest) ([]ai.ProjectedRecord, error)
	Recommendations(ctx context.Context, req AIRequest) ([]ai.ProjectedRecord, error)
	// GenerateInsights runs the insights pipeline and persists the projected
	// records as AIInsight rows.
	GenerateInsights(ctx context.Context, req AIRequest) ([]*types.AIInsight, error)
	Converse(ctx context.Context, userID uuid.UUID, message string, convType ai.ConversationType, history []ai.Message) (*ConversationResult, error)
}

type aiService struct {
	db       *gorm.DB
	log      *logger.Logger
	pipeline *ai.Pipeline
	insights repos.AIInsightRepo
	messages repos.ConversationMessageRepo
	window   redis.ConversationWindow // optional; nil disables the cache
}

func NewAIService(
	db *gorm.DB,
	baseLog *logger.Logger,
	pipeline *ai.Pipeline,
	insightRepo repos.AIInsightRepo,
	messageRepo repos.ConversationMessageRepo,
	window redis.ConversationWindow,
) AIService {
	return &aiService{
		db:       db,
		log:      baseLog.With("service", "AIService"),
		pipeline: pipeline,
		insights: insightRepo,
		messages: messageRepo,
		window:   window,
	}
}

func (s *aiService) Guidance(ctx context.Context, req AIRequest) ([]ai.ProjectedRecord, error) {
	return s.pipeline.Guidance(ctx, contextInput(req))
}

func (s *aiService) ReflectionPrompts(ctx context.Context, req AIRequest) ([]ai.ProjectedRecord, error) {
	return s.pipeline.ReflectionPrompts(ctx, contextInput(req))
}

func (s *aiService) Recommendations(ctx context.Context, req AIRequest) ([]ai.ProjectedRecord, error) {
	return s.pipeline.Recommendations(ctx, contextInput(req))
}

func (s *aiService) GenerateInsights(ctx context.Context, req AIRequest) ([]*types.AIInsight, error) {
	records, err := s.pipeline.Insights(ctx, contextInput(req))
	if err != nil {
		return nil, err
	}

	rows := make([]*types.AIInsight, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &types.AIInsight{
			UserID:      req.UserID,
			ChapterID:   req.ChapterID,
			SectionID:   req.SectionID,
			InsightType: recString(rec, "insight_type"),
			Title:       recString(rec, "title"),
			Description: recString(rec, "description"),
			Confidence:  recFloat(rec, "confidence"),
		})
	}
	return s.insights.CreateBatch(ctx, nil, rows)
}

func (s *aiService) Converse(ctx context.Context, userID uuid.UUID, message string, convType ai.ConversationType, history []ai.Message) (*ConversationResult, error) {
	// Clients that do not track their own history get the cached recent
	// window; a cache miss just means an unprimed conversation.
	if len(history) == 0 && s.window != nil {
		cached, err := s.window.Recent(ctx, userID, 0)
		if err != nil {
			s.log.Warn("Conversation window read failed, continuing without history", "error", err)
		} else {
			history = cached
		}
	}

	s.persistTurn(ctx, userID, ai.RoleUser, message, false)

	reply, err := s.pipeline.Converse(ctx, ai.ConverseInput{
		UserID:  userID,
		Message: message,
		Type:    convType,
		History: history,
	})

	if err != nil {
		if ai.IsFatalGeneration(err) {
			return nil, err
		}
		// Transient exhaustion or a persistently empty reply degrades to the
		// placeholder instead of failing the whole turn.
		if _, isContract := ai.AsContractError(err); isContract || ai.IsTransientGeneration(err) {
			s.log.Warn("Conversation generation failed, substituting placeholder", "error", err)
			s.persistTurn(ctx, userID, ai.RoleAssistant, ConversationPlaceholder, true)
			return &ConversationResult{Response: ConversationPlaceholder, Placeholder: true}, nil
		}
		return nil, err
	}

	s.persistTurn(ctx, userID, ai.RoleAssistant, reply.Response, false)
	return &ConversationResult{
		Response:          reply.Response,
		CrisisIntercepted: reply.CrisisIntercepted,
	}, nil
}

// persistTurn appends to the durable log and the redis window. Both writes
// are best-effort: losing a cache or log write must not fail the turn.
func (s *aiService) persistTurn(ctx context.Context, userID uuid.UUID, role, content string, placeholder bool) {
	if s.messages != nil {
		_, err := s.messages.Append(ctx, nil, &types.ConversationMessage{
			UserID:      userID,
			Role:        role,
			Content:     content,
			Placeholder: placeholder,
		})
		if err != nil {
			s.log.Warn("Conversation message persist failed", "error", err)
		}
	}
	if s.window != nil {
		if err := s.window.Append(ctx, userID, ai.Message{Role: role, Content: content}); err != nil {
			s.log.Warn("Conversation window append failed", "error", err)
		}
	}
}

func contextInput(req AIRequest) ai.ContextInput {
	return ai.ContextInput{
		UserID:        req.UserID,
		ChapterID:     req.ChapterID,
		SectionID:     req.SectionID,
		UserResponses: req.UserResponses,
	}
}

func recString(rec ai.ProjectedRecord, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func recFloat(rec ai.ProjectedRecord, key string) float64 {
	if v, ok := rec[key].(float64); ok {
		return v
	}
	return 0
}

// callLogRecorder persists pipeline run outcomes via the AICallLog repo.
type callLogRecorder struct {
	log   *logger.Logger
	model string
	repo  repos.AICallLogRepo
}

func NewCallLogRecorder(baseLog *logger.Logger, model string, repo repos.AICallLogRepo) ai.CallRecorder {
	return &callLogRecorder{
		log:   baseLog.With("service", "CallLogRecorder"),
		model: model,
		repo:  repo,
	}
}

func (r *callLogRecorder) Record(ctx context.Context, rec ai.CallRecord) {
	entry := &types.AICallLog{
		Mode:            string(rec.Mode),
		Model:           r.model,
		Success:         rec.Success,
		Attempts:        rec.ProviderCalls,
		ContractRetries: rec.ContractRetries,
		LatencyMS:       rec.Latency.Milliseconds(),
	}
	if rec.UserID != uuid.Nil {
		id := rec.UserID
		entry.UserID = &id
	}
	if rec.Err != nil {
		entry.Error = rec.Err.Error()
	}
	if rec.CrisisIntercepted {
		detail, _ := json.Marshal(map[string]bool{"crisis_intercepted": true})
		entry.Detail = detail
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := r.repo.Create(writeCtx, nil, entry); err != nil {
		r.log.Warn("AI call log write failed", "error", err)
	}
}
