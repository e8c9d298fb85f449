package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

func TestHistoryStoreMinimizesAssessments(t *testing.T) {
	userID := uuid.New()
	repo := &fakeAssessmentRepo{
		created: []*types.Assessment{
			{
				UserID:         userID,
				AssessmentType: "pre",
				Responses:      datatypes.JSON(`{"q1": 1, "q2": 5}`),
				AverageScore:   3.0,
				ResponseCount:  2,
				CompletedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			},
		},
	}
	store := NewHistoryStore(nil, logger.NewNop(), repo, &fakeProgressRepo{}, &fakeInsightRepo{})

	summaries, err := store.RecentAssessments(context.Background(), userID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.AssessmentType != "pre" || s.AverageScore != 3.0 || s.ResponseCount != 2 {
		t.Fatalf("summary fields not mapped: %+v", s)
	}
	// AssessmentSummary has no responses field; the raw answers stop here.
}

func TestHistoryStoreMapsProgressAndInsights(t *testing.T) {
	userID := uuid.New()
	progressRepo := &fakeProgressRepo{
		upserted: []*types.ChapterProgress{
			{UserID: userID, ChapterID: 2, SectionID: "defusion", Completed: true},
		},
	}
	insightRepo := &fakeInsightRepo{
		listed: []*types.AIInsight{
			{UserID: userID, InsightType: "pattern", Title: "Steady practice", Description: "d", Confidence: 0.9},
		},
	}
	store := NewHistoryStore(nil, logger.NewNop(), &fakeAssessmentRepo{}, progressRepo, insightRepo)

	progress, err := store.RecentProgress(context.Background(), userID, nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(progress) != 1 || progress[0].ChapterID != 2 || !progress[0].Completed {
		t.Fatalf("progress summary not mapped: %+v", progress)
	}

	insights, err := store.RecentInsights(context.Background(), userID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insights) != 1 || insights[0].Title != "Steady practice" {
		t.Fatalf("insight summary not mapped: %+v", insights)
	}
}
