package controllers

import (
	"net/http"

	"pem-system/internal/services"
	"pem-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuditLogController struct {
	auditService services.AuditServiceInterface
	logger       *zap.Logger
}

func NewAuditLogController(auditService services.AuditServiceInterface, logger *zap.Logger) *AuditLogController {
	return &AuditLogController{auditService: auditService, logger: logger}
}

func (ctrl *AuditLogController) GetAuditLogs(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())
	res, total, err := ctrl.auditService.GetAuditLogs(c.Request().Context(), filter)
	if err != nil {
		ctrl.logger.Error("GetAuditLogs: ошибка получения журнала", zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Logs de auditoria carregados", http.StatusOK, total)
}
