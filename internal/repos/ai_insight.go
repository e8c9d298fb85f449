package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type AIInsightRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, insights []*types.AIInsight) ([]*types.AIInsight, error)
	// ListRecentByUser returns newest insights first, optionally filtered by
	// acknowledged state.
	ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, acknowledged *bool, limit int) ([]*types.AIInsight, error)
	Acknowledge(ctx context.Context, tx *gorm.DB, userID, insightID uuid.UUID) error
}

type aiInsightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAIInsightRepo(db *gorm.DB, baseLog *logger.Logger) AIInsightRepo {
	return &aiInsightRepo{db: db, log: baseLog.With("repo", "AIInsightRepo")}
}

func (r *aiInsightRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *aiInsightRepo) CreateBatch(ctx context.Context, tx *gorm.DB, insights []*types.AIInsight) ([]*types.AIInsight, error) {
	if len(insights) == 0 {
		return []*types.AIInsight{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(&insights).Error; err != nil {
		return nil, err
	}
	return insights, nil
}

func (r *aiInsightRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, acknowledged *bool, limit int) ([]*types.AIInsight, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID)
	if acknowledged != nil {
		q = q.Where("acknowledged = ?", *acknowledged)
	}
	var rows []*types.AIInsight
	if err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *aiInsightRepo) Acknowledge(ctx context.Context, tx *gorm.DB, userID, insightID uuid.UUID) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&types.AIInsight{}).
		Where("id = ? AND user_id = ?", insightID, userID).
		Update("acknowledged", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
