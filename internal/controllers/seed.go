package controllers

import (
	"net/http"

	"pem-system/internal/services"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type SeedController struct {
	seedService services.SeedServiceInterface
	enabled     bool
	logger      *zap.Logger
}

func NewSeedController(seedService services.SeedServiceInterface, enabled bool, logger *zap.Logger) *SeedController {
	return &SeedController{seedService: seedService, enabled: enabled, logger: logger}
}

// Seed доступен только при SEED_ENABLED=true, иначе 404.
func (ctrl *SeedController) Seed(c echo.Context) error {
	if !ctrl.enabled {
		return utils.ErrorResponse(c, apperrors.ErrNotFound, ctrl.logger)
	}
	res, err := ctrl.seedService.Seed(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Banco de dados populado com sucesso", http.StatusOK)
}
