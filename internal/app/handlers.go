package app

import (
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/handlers"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

type Handlers struct {
	Healthcheck  *handlers.HealthcheckHandler
	Assessment   *handlers.AssessmentHandler
	Progress     *handlers.ProgressHandler
	Insight      *handlers.InsightHandler
	AI           *handlers.AIHandler
	Conversation *handlers.ConversationHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Healthcheck:  handlers.NewHealthcheckHandler(log, db),
		Assessment:   handlers.NewAssessmentHandler(log, serviceset.Assessment),
		Progress:     handlers.NewProgressHandler(log, serviceset.Progress),
		Insight:      handlers.NewInsightHandler(log, serviceset.Insight),
		AI:           handlers.NewAIHandler(log, serviceset.AI),
		Conversation: handlers.NewConversationHandler(log, serviceset.AI, reposet.ConversationMessage),
	}
}
