package controllers

import (
	"io"
	"net/http"
	"strings"

	"pem-system/internal/dto"
	"pem-system/internal/entities"
	"pem-system/internal/services"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/utils"
	"pem-system/pkg/validation"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const importUploadContext = "equipment_import"

type ImportExportController struct {
	importService services.ImportServiceInterface
	exportService services.ExportServiceInterface
	logger        *zap.Logger
}

func NewImportExportController(
	importService services.ImportServiceInterface,
	exportService services.ExportServiceInterface,
	logger *zap.Logger,
) *ImportExportController {
	return &ImportExportController{importService: importService, exportService: exportService, logger: logger}
}

// ImportEquipments принимает multipart-поля file и mode (по умолчанию merge).
func (ctrl *ImportExportController) ImportEquipments(c echo.Context) error {
	var payload dto.ImportRequestDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Formato de dados inválido"), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewValidationError("Modo de importação inválido: %s", payload.Mode), ctrl.logger)
	}
	mode := entities.ImportMode(strings.ToLower(strings.TrimSpace(payload.Mode)))
	if mode == "" {
		mode = entities.ImportMerge
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusBadRequest, "Nenhum arquivo enviado", apperrors.ErrBadRequest, nil),
			ctrl.logger,
		)
	}

	src, err := fileHeader.Open()
	if err != nil {
		ctrl.logger.Error("ImportEquipments: ошибка открытия файла", zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	defer src.Close()

	if err := validation.ValidateFile(fileHeader, src, importUploadContext); err != nil {
		ctrl.logger.Warn("ImportEquipments: файл отклонён", zap.String("file", fileHeader.Filename), zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	content, err := io.ReadAll(src)
	if err != nil {
		ctrl.logger.Error("ImportEquipments: ошибка чтения файла", zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	res, err := ctrl.importService.ImportEquipments(c.Request().Context(), fileHeader.Filename, content, mode)
	if err != nil {
		ctrl.logger.Error("ImportEquipments: ошибка импорта",
			zap.String("file", fileHeader.Filename),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Importação concluída", http.StatusOK)
}

func (ctrl *ImportExportController) GetImportLogs(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.Request().URL.Query())
	res, total, err := ctrl.importService.GetImportLogs(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Histórico de importações carregado", http.StatusOK, total)
}

// ExportEquipments отдаёт файл как вложение: ?format=csv|excel|json.
func (ctrl *ImportExportController) ExportEquipments(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = services.ExportFormatCSV
	}

	file, err := ctrl.exportService.ExportEquipments(c.Request().Context(), format)
	if err != nil {
		ctrl.logger.Error("ExportEquipments: ошибка выгрузки", zap.String("format", format), zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+file.FileName+`"`)
	return c.Blob(http.StatusOK, file.ContentType, file.Content)
}
