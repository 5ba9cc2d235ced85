package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pem-system/internal/authz"
	"pem-system/internal/dto"
	"pem-system/internal/entities"
	"pem-system/internal/repositories"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/metrics"
	"pem-system/pkg/types"
	"pem-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ImportServiceInterface interface {
	ImportEquipments(ctx context.Context, fileName string, content []byte, mode entities.ImportMode) (*dto.ImportResultDTO, error)
	GetImportLogs(ctx context.Context, filter types.Filter) ([]entities.ImportLog, uint64, error)
}

type ImportService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	historyRepo   repositories.HistoryRepositoryInterface
	importLogRepo repositories.ImportLogRepositoryInterface
	audit         AuditServiceInterface
	logger        *zap.Logger
}

func NewImportService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	importLogRepo repositories.ImportLogRepositoryInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) ImportServiceInterface {
	return &ImportService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		historyRepo:   historyRepo,
		importLogRepo: importLogRepo,
		audit:         audit,
		logger:        logger,
	}
}

func (s *ImportService) GetImportLogs(ctx context.Context, filter types.Filter) ([]entities.ImportLog, uint64, error) {
	return s.importLogRepo.GetImportLogs(ctx, filter)
}

// ImportEquipments обрабатывает файл в одной транзакции; каждая запись
// выполняется в своей точке сохранения, поэтому ошибка одной записи
// не откатывает остальные.
func (s *ImportService) ImportEquipments(ctx context.Context, fileName string, content []byte, mode entities.ImportMode) (*dto.ImportResultDTO, error) {
	if !mode.Valid() {
		return nil, apperrors.NewFieldValidationError("Modo de importação inválido", map[string]string{"mode": string(mode)})
	}

	fileType, records, err := parseImportFile(fileName, content)
	if err != nil {
		return nil, err
	}

	identity, _ := utils.GetIdentityFromCtx(ctx)
	canOverride := authz.CanOverrideStatus(identity)
	responsible := actorName(ctx)
	logger := s.logger.With(zap.String("file", fileName), zap.String("mode", string(mode)))

	result := &dto.ImportResultDTO{RecordsCount: len(records), Errors: []string{}}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if mode == entities.ImportReplace {
			open, err := s.equipmentRepo.CountInOpenShipments(ctx, tx)
			if err != nil {
				return err
			}
			if open > 0 {
				return apperrors.NewConflictError("Substituição bloqueada: %d equipamento(s) em remessas ativas", open)
			}
			removed, err := s.equipmentRepo.DeleteAllEquipments(ctx, tx)
			if err != nil {
				return err
			}
			logger.Info("ImportEquipments: существующее оборудование удалено", zap.Int64("removed", removed))
		}

		for _, record := range records {
			recErr := repositories.RunInSavepoint(ctx, tx, func(sp pgx.Tx) error {
				return s.importRecord(ctx, sp, record, mode, canOverride, responsible, fileName)
			})
			if recErr != nil {
				result.ErrorCount++
				result.Errors = append(result.Errors, importErrorMessage(record, recErr))
				metrics.EquipmentImported.WithLabelValues(string(mode), "error").Inc()
				continue
			}
			result.SuccessCount++
			metrics.EquipmentImported.WithLabelValues(string(mode), "success").Inc()
		}

		importLog := &entities.ImportLog{
			FileName:     fileName,
			FileType:     fileType,
			Mode:         mode,
			RecordsCount: result.RecordsCount,
			SuccessCount: result.SuccessCount,
			ErrorCount:   result.ErrorCount,
			CreatedBy:    actorID(ctx),
		}
		if len(result.Errors) > 0 {
			joined := strings.Join(result.Errors, "\n")
			importLog.Errors = &joined
		}
		if err := s.importLogRepo.CreateImportLog(ctx, tx, importLog); err != nil {
			return err
		}
		result.Log = importLog
		return nil
	})
	if err != nil {
		logger.Error("ImportEquipments: импорт прерван", zap.Error(err))
		return nil, err
	}

	result.Success = result.SuccessCount > 0 || result.ErrorCount == 0
	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditImportEquipment,
		Entity:   "import_log",
		EntityID: idPtr(result.Log.ID),
		NewValue: result.Log,
	})
	logger.Info("ImportEquipments: импорт завершён",
		zap.Int("records", result.RecordsCount),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

func (s *ImportService) importRecord(
	ctx context.Context,
	tx pgx.Tx,
	record importRecord,
	mode entities.ImportMode,
	canOverride bool,
	responsible string,
	fileName string,
) error {
	code, _ := record.value(fieldCode)
	if code == "" {
		return apperrors.NewValidationError("código ausente")
	}

	existing, err := s.equipmentRepo.FindEquipmentByCode(ctx, tx, code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if existing == nil || mode == entities.ImportReplace {
		return s.createFromRecord(ctx, tx, record, responsible, fileName)
	}

	before := *existing
	if err := mergeRecord(existing, record, mode == entities.ImportUpdate); err != nil {
		return err
	}
	if before.Status != existing.Status && !canOverride && !before.Status.CanTransitionTo(existing.Status) {
		return apperrors.NewInvalidStateError("transição de status inválida: %s → %s", before.Status.Label(), existing.Status.Label())
	}

	updated, err := s.equipmentRepo.UpdateEquipment(ctx, tx, existing)
	if err != nil {
		return err
	}
	description := "Equipamento atualizado por importação"
	if changes := describeEquipmentChanges(&before, updated); changes != "" {
		description += ": " + changes
	}
	location := updated.Location
	return s.historyRepo.CreateEquipmentHistory(ctx, tx, &entities.EquipmentHistory{
		EquipmentID: updated.ID,
		Action:      entities.HistoryImport,
		Description: description,
		Location:    &location,
		Responsible: responsible,
	})
}

func (s *ImportService) createFromRecord(ctx context.Context, tx pgx.Tx, record importRecord, responsible, fileName string) error {
	equipment := &entities.Equipment{Status: entities.EquipmentInStock, CreatedBy: actorID(ctx)}
	if err := mergeRecord(equipment, record, true); err != nil {
		return err
	}
	if err := requireEquipmentFields(equipment); err != nil {
		return apperrors.NewValidationError("campos obrigatórios ausentes (código, tipo, marca, modelo, localização)")
	}

	created, err := s.equipmentRepo.CreateEquipment(ctx, tx, equipment)
	if err != nil {
		return err
	}
	location := created.Location
	return s.historyRepo.CreateEquipmentHistory(ctx, tx, &entities.EquipmentHistory{
		EquipmentID: created.ID,
		Action:      entities.HistoryImport,
		Description: fmt.Sprintf("Equipamento importado do arquivo %s", fileName),
		Location:    &location,
		Responsible: responsible,
	})
}

// mergeRecord переносит поля записи в оборудование. overwrite=true
// (режим update и новые записи) - присутствующая колонка перезаписывает
// значение даже пустой строкой; иначе (merge) - только непустые значения.
func mergeRecord(e *entities.Equipment, record importRecord, overwrite bool) error {
	apply := func(field string) (string, bool) {
		value, present := record.value(field)
		if !present || (!overwrite && value == "") {
			return "", false
		}
		return value, true
	}

	if v, ok := apply(fieldCode); ok && e.Code == "" {
		e.Code = v
	}
	for field, target := range map[string]*string{
		fieldType: &e.Type, fieldBrand: &e.Brand, fieldModel: &e.Model, fieldLocation: &e.Location,
	} {
		if v, ok := apply(field); ok {
			if v == "" {
				return apperrors.NewValidationError("campo obrigatório vazio: %s", field)
			}
			*target = v
		}
	}
	for field, target := range map[string]**string{
		fieldSerialNumber: &e.SerialNumber, fieldObservations: &e.Observations,
	} {
		if v, ok := apply(field); ok {
			if v == "" {
				*target = nil
			} else {
				value := v
				*target = &value
			}
		}
	}
	if v, ok := apply(fieldAcquisitionDate); ok {
		if v == "" {
			e.AcquisitionDate = nil
		} else {
			date, err := utils.ParseFlexibleDate(v)
			if err != nil {
				return apperrors.NewValidationError("data de aquisição inválida: %s", v)
			}
			e.AcquisitionDate = &date
		}
	}
	// пустой статус не сбрасывает текущий; неизвестный даёт in_stock
	if v, ok := apply(fieldStatus); ok && v != "" {
		status, _ := parseImportStatus(v)
		e.Status = status
	}
	return nil
}

func importErrorMessage(record importRecord, err error) string {
	code, _ := record.value(fieldCode)
	message := err.Error()
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		message = validationErr.Message
	}
	if code != "" {
		return fmt.Sprintf("Linha %d (%s): %s", record.Line, code, message)
	}
	return fmt.Sprintf("Linha %d: %s", record.Line, message)
}
