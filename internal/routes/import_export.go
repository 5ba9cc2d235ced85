package routes

import (
	"pem-system/internal/authz"
	"pem-system/internal/controllers"
	"pem-system/internal/services"
	"pem-system/pkg/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runImportExportRouter(
	secureGroup *echo.Group,
	importService services.ImportServiceInterface,
	exportService services.ExportServiceInterface,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
) {
	ctrl := controllers.NewImportExportController(importService, exportService, logger)

	secureGroup.GET("/export", ctrl.ExportEquipments, authMW.RequirePermission(authz.ActionExport))
	secureGroup.POST("/import", ctrl.ImportEquipments, authMW.RequirePermission(authz.ActionImport))
	secureGroup.GET("/import/logs", ctrl.GetImportLogs, authMW.RequirePermission(authz.ActionImport))
}
