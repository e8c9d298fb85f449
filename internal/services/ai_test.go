package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type fakeProvider struct {
	calls int
	reply string
	err   error
}

func (p *fakeProvider) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	p.calls++
	return p.reply, p.err
}

type fakeMessageRepo struct {
	appended []*types.ConversationMessage
}

func (r *fakeMessageRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.ConversationMessage) (*types.ConversationMessage, error) {
	r.appended = append(r.appended, msg)
	return msg, nil
}

func (r *fakeMessageRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ConversationMessage, error) {
	return r.appended, nil
}

type fakeInsightRepo struct {
	created []*types.AIInsight
	listed  []*types.AIInsight
}

func (r *fakeInsightRepo) CreateBatch(ctx context.Context, tx *gorm.DB, insights []*types.AIInsight) ([]*types.AIInsight, error) {
	r.created = append(r.created, insights...)
	return insights, nil
}

func (r *fakeInsightRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, acknowledged *bool, limit int) ([]*types.AIInsight, error) {
	return r.listed, nil
}

func (r *fakeInsightRepo) Acknowledge(ctx context.Context, tx *gorm.DB, userID, insightID uuid.UUID) error {
	return nil
}

type emptyHistoryStore struct{}

func (emptyHistoryStore) RecentAssessments(ctx context.Context, userID uuid.UUID, limit int) ([]ai.AssessmentSummary, error) {
	return nil, nil
}
func (emptyHistoryStore) RecentProgress(ctx context.Context, userID uuid.UUID, chapterID *int, limit int) ([]ai.ProgressSummary, error) {
	return nil, nil
}
func (emptyHistoryStore) RecentInsights(ctx context.Context, userID uuid.UUID, limit int) ([]ai.InsightSummary, error) {
	return nil, nil
}

func newServiceWithProvider(p ai.CompletionProvider, msgRepo *fakeMessageRepo, insightRepo *fakeInsightRepo) AIService {
	log := logger.NewNop()
	client := ai.NewClient(p, ai.RetryPolicy{Budget: 0, BackoffBase: time.Millisecond, BackoffCap: time.Millisecond}, log)
	agg := ai.NewContextAggregator(emptyHistoryStore{}, ai.DefaultHistoryCaps(), log)
	detector := ai.NewCrisisDetector(ai.DefaultCrisisPhrases())
	pipeline := ai.NewPipeline(agg, detector, client, nil, ai.DefaultConfig(), log)
	return NewAIService(nil, log, pipeline, insightRepo, msgRepo, nil)
}

func TestConverseSubstitutesPlaceholderOnTransientFailure(t *testing.T) {
	p := &fakeProvider{err: context.DeadlineExceeded}
	msgRepo := &fakeMessageRepo{}
	svc := newServiceWithProvider(p, msgRepo, &fakeInsightRepo{})

	result, err := svc.Converse(context.Background(), uuid.New(), "I feel stuck with chapter two", ai.ConversationTherapeuticGuidance, nil)
	if err != nil {
		t.Fatalf("transient failure must not surface an error: %v", err)
	}
	if !result.Placeholder {
		t.Fatal("expected placeholder reply")
	}
	if result.Response != ConversationPlaceholder {
		t.Fatalf("unexpected placeholder text %q", result.Response)
	}

	// Both the user turn and the placeholder turn must be persisted, and the
	// placeholder flagged as such.
	if len(msgRepo.appended) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(msgRepo.appended))
	}
	assistant := msgRepo.appended[1]
	if assistant.Role != ai.RoleAssistant || !assistant.Placeholder {
		t.Fatalf("placeholder turn not flagged: %+v", assistant)
	}
}

func TestConversePropagatesFatalFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("invalid api key")}
	svc := newServiceWithProvider(p, &fakeMessageRepo{}, &fakeInsightRepo{})

	_, err := svc.Converse(context.Background(), uuid.New(), "hello", ai.ConversationTherapeuticGuidance, nil)
	if !ai.IsFatalGeneration(err) {
		t.Fatalf("fatal upstream failure must propagate, got %v", err)
	}
}

func TestConverseCrisisPathSkipsProvider(t *testing.T) {
	p := &fakeProvider{reply: "never used"}
	msgRepo := &fakeMessageRepo{}
	svc := newServiceWithProvider(p, msgRepo, &fakeInsightRepo{})

	result, err := svc.Converse(context.Background(), uuid.New(), "I want to hurt myself", ai.ConversationTherapeuticGuidance, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CrisisIntercepted {
		t.Fatal("expected crisis interception")
	}
	if result.Response != ai.CrisisReferralMessage {
		t.Fatal("referral text must reach the caller verbatim")
	}
	if p.calls != 0 {
		t.Fatalf("provider must not be called on interception, got %d calls", p.calls)
	}
	// The referral turn is still part of the durable conversation log.
	if len(msgRepo.appended) != 2 {
		t.Fatalf("expected user + referral turns persisted, got %d", len(msgRepo.appended))
	}
}

func TestConverseSuccessPersistsBothTurns(t *testing.T) {
	p := &fakeProvider{reply: "It makes sense that this feels heavy."}
	msgRepo := &fakeMessageRepo{}
	svc := newServiceWithProvider(p, msgRepo, &fakeInsightRepo{})

	result, err := svc.Converse(context.Background(), uuid.New(), "rough week", ai.ConversationReflection, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Placeholder || result.CrisisIntercepted {
		t.Fatalf("clean reply misflagged: %+v", result)
	}
	if len(msgRepo.appended) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(msgRepo.appended))
	}
	if msgRepo.appended[0].Role != ai.RoleUser || msgRepo.appended[1].Role != ai.RoleAssistant {
		t.Fatal("turns persisted in wrong order")
	}
	if msgRepo.appended[1].Placeholder {
		t.Fatal("genuine reply must not be flagged as placeholder")
	}
}

func TestGenerateInsightsPersistsRows(t *testing.T) {
	p := &fakeProvider{
		reply: `{"insights": [{"insight_type": "pattern", "title": "Momentum building", "description": "Three sections finished this week", "confidence": 0.85}]}`,
	}
	insightRepo := &fakeInsightRepo{}
	svc := newServiceWithProvider(p, &fakeMessageRepo{}, insightRepo)

	userID := uuid.New()
	chapter := 3
	rows, err := svc.GenerateInsights(context.Background(), AIRequest{UserID: userID, ChapterID: &chapter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 insight row, got %d", len(rows))
	}
	row := rows[0]
	if row.UserID != userID {
		t.Fatal("insight row must carry the user id")
	}
	if row.InsightType != "pattern" || row.Title != "Momentum building" || row.Confidence != 0.85 {
		t.Fatalf("insight fields not mapped: %+v", row)
	}
	if len(insightRepo.created) != 1 {
		t.Fatal("insight must be written through the repo")
	}
}
