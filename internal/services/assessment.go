package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type AssessmentService interface {
	// Submit stores a completed questionnaire. Scores run 1..5 per question;
	// the summary fields are computed here so downstream consumers never need
	// the raw answers.
	Submit(ctx context.Context, userID uuid.UUID, assessmentType string, responses map[string]int) (*types.Assessment, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Assessment, error)
}

type assessmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	assessments repos.AssessmentRepo
}

func NewAssessmentService(db *gorm.DB, baseLog *logger.Logger, assessmentRepo repos.AssessmentRepo) AssessmentService {
	return &assessmentService{
		db:          db,
		log:         baseLog.With("service", "AssessmentService"),
		assessments: assessmentRepo,
	}
}

func (s *assessmentService) Submit(ctx context.Context, userID uuid.UUID, assessmentType string, responses map[string]int) (*types.Assessment, error) {
	if assessmentType != "pre" && assessmentType != "post" {
		return nil, fmt.Errorf("assessment_type must be pre or post")
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("responses required")
	}

	total := 0
	for q, score := range responses {
		if score < 1 || score > 5 {
			return nil, fmt.Errorf("response %q out of range 1..5", q)
		}
		total += score
	}
	avg := float64(total) / float64(len(responses))

	raw, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("encode responses: %w", err)
	}

	assessment := &types.Assessment{
		UserID:         userID,
		AssessmentType: assessmentType,
		Responses:      datatypes.JSON(raw),
		AverageScore:   avg,
		ResponseCount:  len(responses),
		CompletedAt:    time.Now().UTC(),
	}
	return s.assessments.Create(ctx, nil, assessment)
}

func (s *assessmentService) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Assessment, error) {
	return s.assessments.ListRecentByUser(ctx, nil, userID, limit)
}
