package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

// ConversationMessageRepo is append-only by design: messages are never updated
// or deleted once written.
type ConversationMessageRepo interface {
	Append(ctx context.Context, tx *gorm.DB, msg *types.ConversationMessage) (*types.ConversationMessage, error)
	// ListRecentByUser returns the newest messages first.
	ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ConversationMessage, error)
}

type conversationMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationMessageRepo(db *gorm.DB, baseLog *logger.Logger) ConversationMessageRepo {
	return &conversationMessageRepo{db: db, log: baseLog.With("repo", "ConversationMessageRepo")}
}

func (r *conversationMessageRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *conversationMessageRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.ConversationMessage) (*types.ConversationMessage, error) {
	if err := r.conn(tx).WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *conversationMessageRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ConversationMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []*types.ConversationMessage
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
