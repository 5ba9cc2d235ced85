package controllers

import (
	"net/http"

	"pem-system/pkg/utils"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HealthController struct {
	db     *pgxpool.Pool
	redis  *redis.Client
	logger *zap.Logger
}

func NewHealthController(db *pgxpool.Pool, redisClient *redis.Client, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, redis: redisClient, logger: logger}
}

// Health пингует Postgres и Redis; любой сбой даёт 503.
func (ctrl *HealthController) Health(c echo.Context) error {
	ctx, cancel := utils.ContextWithTimeout(c, 2)
	defer cancel()

	checks := map[string]string{"postgres": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := ctrl.db.Ping(ctx); err != nil {
		ctrl.logger.Error("Health: Postgres недоступен", zap.Error(err))
		checks["postgres"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if err := ctrl.redis.Ping(ctx).Err(); err != nil {
		ctrl.logger.Error("Health: Redis недоступен", zap.Error(err))
		checks["redis"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]interface{}{
		"status": code == http.StatusOK,
		"checks": checks,
	})
}
