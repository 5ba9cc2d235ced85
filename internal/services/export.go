package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pem-system/internal/dto"
	"pem-system/internal/entities"
	"pem-system/internal/repositories"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/metrics"
	"pem-system/pkg/types"
	"pem-system/pkg/utils"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	ExportFormatCSV   = "csv"
	ExportFormatExcel = "excel"
	ExportFormatJSON  = "json"

	exportSheetName  = "Equipamentos"
	exportDateLayout = "02/01/2006"
)

var exportHeaders = []string{
	"Código", "Número de Série", "Tipo", "Marca", "Modelo", "Localização", "Situação",
	"Data de Aquisição", "Observações", "Data de Criação", "Data de Atualização",
}

type ExportServiceInterface interface {
	ExportEquipments(ctx context.Context, format string) (*dto.ExportFileDTO, error)
}

type ExportService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	audit         AuditServiceInterface
	logger        *zap.Logger
	clock         func() time.Time
}

func NewExportService(equipmentRepo repositories.EquipmentRepositoryInterface, audit AuditServiceInterface, logger *zap.Logger) ExportServiceInterface {
	return &ExportService{equipmentRepo: equipmentRepo, audit: audit, logger: logger, clock: time.Now}
}

func (s *ExportService) ExportEquipments(ctx context.Context, format string) (*dto.ExportFileDTO, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}

	filter := types.Filter{
		Sort:           map[string]string{"created_at": "desc"},
		Filter:         map[string]interface{}{},
		WithPagination: false,
	}
	equipments, _, err := s.equipmentRepo.GetEquipments(ctx, filter)
	if err != nil {
		return nil, err
	}

	baseName := "equipamentos_" + s.clock().Format("2006-01-02")
	var file *dto.ExportFileDTO
	switch format {
	case ExportFormatCSV:
		content, err := equipmentsToCSV(equipments)
		if err != nil {
			return nil, err
		}
		file = &dto.ExportFileDTO{FileName: baseName + ".csv", ContentType: "text/csv; charset=utf-8", Content: content}
	case ExportFormatExcel, "xlsx":
		format = ExportFormatExcel
		content, err := equipmentsToXLSX(equipments)
		if err != nil {
			return nil, err
		}
		file = &dto.ExportFileDTO{
			FileName:    baseName + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}
	case ExportFormatJSON:
		content, err := json.MarshalIndent(equipments, "", "  ")
		if err != nil {
			return nil, err
		}
		file = &dto.ExportFileDTO{FileName: baseName + ".json", ContentType: "application/json", Content: content}
	default:
		return nil, apperrors.NewFieldValidationError("Formato de exportação inválido", map[string]string{"format": format})
	}

	metrics.EquipmentExported.WithLabelValues(format).Inc()
	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditExportEquipment,
		Entity:   "equipment",
		NewValue: map[string]interface{}{"format": format, "count": len(equipments), "file": file.FileName},
	})
	s.logger.Info("ExportEquipments: выгрузка сформирована", zap.String("format", format), zap.Int("count", len(equipments)))
	return file, nil
}

func exportRow(e entities.Equipment) []string {
	acquisition := ""
	if e.AcquisitionDate != nil {
		acquisition = e.AcquisitionDate.Format(exportDateLayout)
	}
	return []string{
		e.Code,
		utils.StringValue(e.SerialNumber),
		e.Type,
		e.Brand,
		e.Model,
		e.Location,
		e.Status.Label(),
		acquisition,
		utils.StringValue(e.Observations),
		e.CreatedAt.Format(exportDateLayout),
		e.UpdatedAt.Format(exportDateLayout),
	}
}

func equipmentsToCSV(equipments []entities.Equipment) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, e := range equipments {
		if err := w.Write(exportRow(e)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func equipmentsToXLSX(equipments []entities.Equipment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}
	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetCellStyle(exportSheetName, "A1", lastCol+"1", style); err != nil {
		return nil, err
	}

	for i, e := range equipments {
		values := exportRow(e)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(exportSheetName, "A", lastCol, 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
