package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
)

// historyStore adapts the gorm repos to ai.HistoryStore. Minimization happens
// here: each row is reduced to its summary shape before it crosses into the
// AI layer, so raw assessment responses and exercise payloads never do.
type historyStore struct {
	db          *gorm.DB
	log         *logger.Logger
	assessments repos.AssessmentRepo
	progress    repos.ChapterProgressRepo
	insights    repos.AIInsightRepo
}

func NewHistoryStore(
	db *gorm.DB,
	baseLog *logger.Logger,
	assessmentRepo repos.AssessmentRepo,
	progressRepo repos.ChapterProgressRepo,
	insightRepo repos.AIInsightRepo,
) ai.HistoryStore {
	return &historyStore{
		db:          db,
		log:         baseLog.With("service", "HistoryStore"),
		assessments: assessmentRepo,
		progress:    progressRepo,
		insights:    insightRepo,
	}
}

func (s *historyStore) RecentAssessments(ctx context.Context, userID uuid.UUID, limit int) ([]ai.AssessmentSummary, error) {
	rows, err := s.assessments.ListRecentByUser(ctx, nil, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ai.AssessmentSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ai.AssessmentSummary{
			AssessmentType: r.AssessmentType,
			AverageScore:   r.AverageScore,
			ResponseCount:  r.ResponseCount,
			CompletedAt:    r.CompletedAt,
		})
	}
	return out, nil
}

func (s *historyStore) RecentProgress(ctx context.Context, userID uuid.UUID, chapterID *int, limit int) ([]ai.ProgressSummary, error) {
	rows, err := s.progress.ListRecentByUser(ctx, nil, userID, chapterID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ai.ProgressSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ai.ProgressSummary{
			ChapterID: r.ChapterID,
			SectionID: r.SectionID,
			Completed: r.Completed,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *historyStore) RecentInsights(ctx context.Context, userID uuid.UUID, limit int) ([]ai.InsightSummary, error) {
	rows, err := s.insights.ListRecentByUser(ctx, nil, userID, nil, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ai.InsightSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ai.InsightSummary{
			InsightType: r.InsightType,
			Title:       r.Title,
			Description: r.Description,
			Confidence:  r.Confidence,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}
