package app

import (
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
)

type Repos struct {
	User                repos.UserRepo
	Assessment          repos.AssessmentRepo
	ChapterProgress     repos.ChapterProgressRepo
	AIInsight           repos.AIInsightRepo
	ConversationMessage repos.ConversationMessageRepo
	AICallLog           repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:                repos.NewUserRepo(db, log),
		Assessment:          repos.NewAssessmentRepo(db, log),
		ChapterProgress:     repos.NewChapterProgressRepo(db, log),
		AIInsight:           repos.NewAIInsightRepo(db, log),
		ConversationMessage: repos.NewConversationMessageRepo(db, log),
		AICallLog:           repos.NewAICallLogRepo(db, log),
	}
}
