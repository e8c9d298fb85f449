package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

type HealthcheckHandler struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewHealthcheckHandler(log *logger.Logger, db *gorm.DB) *HealthcheckHandler {
	return &HealthcheckHandler{
		log: log.With("handler", "HealthcheckHandler"),
		db:  db,
	}
}

// GET /healthz
func (h *HealthcheckHandler) Healthcheck(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			h.log.Warn("Healthcheck database ping failed", "error", err)
			status["status"] = "degraded"
			status["database"] = "unreachable"
			c.JSON(503, status)
			return
		}
		status["database"] = "ok"
	}
	RespondOK(c, status)
}
