package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cedarwell/actbridge-backend/internal/middleware"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", handlerset.Healthcheck.Healthcheck)

	api := router.Group("/api")
	api.Use(mw.Auth.RequireAuth())
	{
		api.POST("/assessments", handlerset.Assessment.Submit)
		api.GET("/assessments", handlerset.Assessment.List)

		api.POST("/progress", handlerset.Progress.Record)
		api.GET("/progress", handlerset.Progress.List)

		api.GET("/insights", handlerset.Insight.List)
		api.POST("/insights/:id/acknowledge", handlerset.Insight.Acknowledge)

		aiGroup := api.Group("/ai")
		{
			aiGroup.POST("/guidance", handlerset.AI.Guidance)
			aiGroup.POST("/reflection-prompts", handlerset.AI.ReflectionPrompts)
			aiGroup.POST("/insights", handlerset.AI.GenerateInsights)
			aiGroup.POST("/recommendations", handlerset.AI.Recommendations)
		}

		api.POST("/conversation", handlerset.Conversation.Converse)
		api.GET("/conversation/history", handlerset.Conversation.History)
	}

	return router
}
