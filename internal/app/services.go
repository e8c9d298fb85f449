package app

import (
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/clients/openai"
	"github.com/cedarwell/actbridge-backend/internal/clients/redis"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Assessment services.AssessmentService
	Progress   services.ProgressService
	Insight    services.InsightService
	AI         services.AIService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	authService, err := services.NewAuthService(db, log, reposet.User, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, err
	}

	provider, err := openai.New(log)
	if err != nil {
		return Services{}, err
	}
	client := ai.NewClient(provider, cfg.Retry, log)

	historyStore := services.NewHistoryStore(db, log, reposet.Assessment, reposet.ChapterProgress, reposet.AIInsight)
	aggregator := ai.NewContextAggregator(historyStore, cfg.HistoryCaps, log)

	phrases, err := ai.LoadCrisisPhrases(cfg.CrisisConfig)
	if err != nil {
		log.Warn("Crisis denylist config unavailable, using built-in phrase list",
			"path", cfg.CrisisConfig, "error", err)
		phrases = ai.DefaultCrisisPhrases()
	}
	detector := ai.NewCrisisDetector(phrases)

	recorder := services.NewCallLogRecorder(log, cfg.Model, reposet.AICallLog)
	pipeline := ai.NewPipeline(aggregator, detector, client, recorder, cfg.Pipeline, log)

	// Redis is optional: without it conversations still work, just without
	// the cached recent-history window.
	var window redis.ConversationWindow
	if w, err := redis.NewConversationWindow(log); err != nil {
		log.Warn("Conversation window cache unavailable", "error", err)
	} else {
		window = w
	}

	return Services{
		Auth:       authService,
		Assessment: services.NewAssessmentService(db, log, reposet.Assessment),
		Progress:   services.NewProgressService(db, log, reposet.ChapterProgress),
		Insight:    services.NewInsightService(db, log, reposet.AIInsight),
		AI:         services.NewAIService(db, log, pipeline, reposet.AIInsight, reposet.ConversationMessage, window),
	}, nil
}
