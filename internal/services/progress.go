package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type ProgressService interface {
	// Record upserts one (chapter, section) unit for the user.
	Record(ctx context.Context, userID uuid.UUID, chapterID int, sectionID string, completed bool, responses json.RawMessage) (*types.ChapterProgress, error)
	ListRecent(ctx context.Context, userID uuid.UUID, chapterID *int, limit int) ([]*types.ChapterProgress, error)
}

type progressService struct {
	db       *gorm.DB
	log      *logger.Logger
	progress repos.ChapterProgressRepo
}

func NewProgressService(db *gorm.DB, baseLog *logger.Logger, progressRepo repos.ChapterProgressRepo) ProgressService {
	return &progressService{
		db:       db,
		log:      baseLog.With("service", "ProgressService"),
		progress: progressRepo,
	}
}

func (s *progressService) Record(ctx context.Context, userID uuid.UUID, chapterID int, sectionID string, completed bool, responses json.RawMessage) (*types.ChapterProgress, error) {
	if chapterID < 1 || chapterID > 7 {
		return nil, fmt.Errorf("chapter_id must be between 1 and 7")
	}
	if sectionID == "" {
		return nil, fmt.Errorf("section_id required")
	}
	entry := &types.ChapterProgress{
		UserID:    userID,
		ChapterID: chapterID,
		SectionID: sectionID,
		Completed: completed,
	}
	if len(responses) > 0 {
		entry.Responses = datatypes.JSON(responses)
	}
	return s.progress.Upsert(ctx, nil, entry)
}

func (s *progressService) ListRecent(ctx context.Context, userID uuid.UUID, chapterID *int, limit int) ([]*types.ChapterProgress, error) {
	return s.progress.ListRecentByUser(ctx, nil, userID, chapterID, limit)
}
