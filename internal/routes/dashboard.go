package routes

import (
	"pem-system/internal/authz"
	"pem-system/internal/controllers"
	"pem-system/internal/services"
	"pem-system/pkg/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runDashboardRouter(secureGroup *echo.Group, dashboardService services.DashboardServiceInterface, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	ctrl := controllers.NewDashboardController(dashboardService, logger)
	secureGroup.GET("/dashboard/stats", ctrl.GetDashboardStats, authMW.RequirePermission(authz.ActionView))
}

func runAuditRouter(secureGroup *echo.Group, auditService services.AuditServiceInterface, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	ctrl := controllers.NewAuditLogController(auditService, logger)
	secureGroup.GET("/audit-logs", ctrl.GetAuditLogs, authMW.RequirePermission(authz.ActionManageUsers))
}

// runSeedRouter: маршрут публичный, доступность определяет SEED_ENABLED.
func runSeedRouter(api *echo.Group, seedService services.SeedServiceInterface, enabled bool, logger *zap.Logger) {
	ctrl := controllers.NewSeedController(seedService, enabled, logger)
	api.POST("/seed", ctrl.Seed)
}
