package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type ChapterProgressRepo interface {
	// Upsert writes a (user, chapter, section) row, replacing completion state
	// and responses if it already exists.
	Upsert(ctx context.Context, tx *gorm.DB, entry *types.ChapterProgress) (*types.ChapterProgress, error)
	// ListRecentByUser returns the most recently updated entries first,
	// optionally scoped to one chapter.
	ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, chapterID *int, limit int) ([]*types.ChapterProgress, error)
}

type chapterProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterProgressRepo(db *gorm.DB, baseLog *logger.Logger) ChapterProgressRepo {
	return &chapterProgressRepo{db: db, log: baseLog.With("repo", "ChapterProgressRepo")}
}

func (r *chapterProgressRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chapterProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *types.ChapterProgress) (*types.ChapterProgress, error) {
	err := r.conn(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "chapter_id"}, {Name: "section_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "responses", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *chapterProgressRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, chapterID *int, limit int) ([]*types.ChapterProgress, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID)
	if chapterID != nil {
		q = q.Where("chapter_id = ?", *chapterID)
	}
	var rows []*types.ChapterProgress
	if err := q.Order("updated_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
