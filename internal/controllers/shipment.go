package controllers

import (
	"net/http"

	"pem-system/internal/dto"
	"pem-system/internal/services"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ShipmentController struct {
	shipmentService services.ShipmentServiceInterface
	logger          *zap.Logger
}

func NewShipmentController(shipmentService services.ShipmentServiceInterface, logger *zap.Logger) *ShipmentController {
	return &ShipmentController{shipmentService: shipmentService, logger: logger}
}

func (c *ShipmentController) GetShipments(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.shipmentService.GetShipments(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("GetShipments: ошибка получения списка", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Remessas carregadas", http.StatusOK, total)
}

func (c *ShipmentController) FindShipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.shipmentService.FindShipment(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Remessa encontrada", http.StatusOK)
}

func (c *ShipmentController) CreateShipment(ctx echo.Context) error {
	var payload dto.CreateShipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateShipment: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Formato de dados inválido"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.shipmentService.CreateShipment(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("CreateShipment: ошибка создания", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Remessa criada com sucesso", http.StatusCreated)
}

func (c *ShipmentController) UpdateShipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateShipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("UpdateShipment: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Formato de dados inválido"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.shipmentService.UpdateShipment(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Error("UpdateShipment: ошибка обновления", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Remessa atualizada com sucesso", http.StatusOK)
}

func (c *ShipmentController) DeleteShipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.shipmentService.DeleteShipment(ctx.Request().Context(), id); err != nil {
		c.logger.Error("DeleteShipment: ошибка удаления", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Remessa excluída com sucesso", http.StatusOK)
}

// ReceiveShipment - приёмка: отправка и всё её оборудование меняются атомарно.
// Тело запроса необязательно.
func (c *ShipmentController) ReceiveShipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.ReceiveShipmentDTO
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&payload); err != nil {
			c.logger.Error("ReceiveShipment: ошибка привязки данных", zap.Error(err))
			return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Formato de dados inválido"), c.logger)
		}
		if err := ctx.Validate(&payload); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
	}

	res, err := c.shipmentService.ReceiveShipment(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Error("ReceiveShipment: ошибка приёмки", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Remessa recebida com sucesso", http.StatusOK)
}
