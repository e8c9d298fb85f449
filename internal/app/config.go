package app

import (
	"time"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/envutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

type Config struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	Port           string
	AllowedOrigins string
	CrisisConfig   string
	Model          string
	Pipeline       ai.Config
	Retry          ai.RetryPolicy
	HistoryCaps    ai.HistoryCaps
}

func LoadConfig(log *logger.Logger) Config {
	structuredTimeout := envutil.GetEnvAsInt("AI_STRUCTURED_TIMEOUT_SECONDS", 10, log)
	conversationTimeout := envutil.GetEnvAsInt("AI_CONVERSATION_TIMEOUT_SECONDS", 15, log)
	retryBudget := envutil.GetEnvAsInt("AI_RETRY_BUDGET", 2, log)
	contractBudget := envutil.GetEnvAsInt("AI_CONTRACT_RETRY_BUDGET", 2, log)
	backoffBaseMS := envutil.GetEnvAsInt("AI_BACKOFF_BASE_MS", 500, log)
	backoffCapMS := envutil.GetEnvAsInt("AI_BACKOFF_CAP_MS", 8000, log)

	pipeline := ai.DefaultConfig()
	pipeline.StructuredTimeout = time.Duration(structuredTimeout) * time.Second
	pipeline.ConversationTimeout = time.Duration(conversationTimeout) * time.Second
	pipeline.ContractRetryBudget = contractBudget
	pipeline.ConversationWindow = envutil.GetEnvAsInt("AI_CONVERSATION_WINDOW", 10, log)

	return Config{
		JWTSecretKey:   envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL: time.Duration(envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		Port:           envutil.GetEnv("PORT", "8080", log),
		AllowedOrigins: envutil.GetEnv("ALLOWED_ORIGINS", "http://localhost:3000", log),
		CrisisConfig:   envutil.GetEnv("CRISIS_CONFIG_PATH", "config/crisis_keywords.yaml", log),
		Model:          envutil.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log),
		Pipeline:       pipeline,
		Retry: ai.RetryPolicy{
			Budget:      retryBudget,
			BackoffBase: time.Duration(backoffBaseMS) * time.Millisecond,
			BackoffCap:  time.Duration(backoffCapMS) * time.Millisecond,
		},
		HistoryCaps: ai.HistoryCaps{
			Assessments: envutil.GetEnvAsInt("HISTORY_CAP_ASSESSMENTS", 5, log),
			Progress:    envutil.GetEnvAsInt("HISTORY_CAP_PROGRESS", 10, log),
			Insights:    envutil.GetEnvAsInt("HISTORY_CAP_INSIGHTS", 5, log),
		},
	}
}
