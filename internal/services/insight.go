package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type InsightService interface {
	ListRecent(ctx context.Context, userID uuid.UUID, acknowledged *bool, limit int) ([]*types.AIInsight, error)
	Acknowledge(ctx context.Context, userID, insightID uuid.UUID) error
}

type insightService struct {
	db       *gorm.DB
	log      *logger.Logger
	insights repos.AIInsightRepo
}

func NewInsightService(db *gorm.DB, baseLog *logger.Logger, insightRepo repos.AIInsightRepo) InsightService {
	return &insightService{
		db:       db,
		log:      baseLog.With("service", "InsightService"),
		insights: insightRepo,
	}
}

func (s *insightService) ListRecent(ctx context.Context, userID uuid.UUID, acknowledged *bool, limit int) ([]*types.AIInsight, error) {
	return s.insights.ListRecentByUser(ctx, nil, userID, acknowledged, limit)
}

func (s *insightService) Acknowledge(ctx context.Context, userID, insightID uuid.UUID) error {
	return s.insights.Acknowledge(ctx, nil, userID, insightID)
}
