package services

import (
	"context"
	"fmt"
	"strings"

	"pem-system/internal/authz"
	"pem-system/internal/dto"
	"pem-system/internal/entities"
	"pem-system/internal/repositories"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/types"
	"pem-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const equipmentNotFoundMessage = "Equipamento não encontrado"

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDetailDTO, error)
	GetEquipmentHistory(ctx context.Context, id uint64) ([]entities.EquipmentHistory, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
}

type EquipmentService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	historyRepo   repositories.HistoryRepositoryInterface
	audit         AuditServiceInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		historyRepo:   historyRepo,
		audit:         audit,
		logger:        logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	return s.equipmentRepo.GetEquipments(ctx, filter)
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDetailDTO, error) {
	equipment, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, orNotFound(err, equipmentNotFoundMessage)
	}
	history, err := s.historyRepo.GetEquipmentHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.EquipmentDetailDTO{Equipment: *equipment, History: history}, nil
}

func (s *EquipmentService) GetEquipmentHistory(ctx context.Context, id uint64) ([]entities.EquipmentHistory, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, id); err != nil {
		return nil, orNotFound(err, equipmentNotFoundMessage)
	}
	return s.historyRepo.GetEquipmentHistory(ctx, id)
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	equipment, err := equipmentFromCreateDTO(payload)
	if err != nil {
		return nil, err
	}
	equipment.CreatedBy = actorID(ctx)

	var created *entities.Equipment
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var txErr error
		created, txErr = s.equipmentRepo.CreateEquipment(ctx, tx, equipment)
		if txErr != nil {
			return txErr
		}
		location := created.Location
		return s.historyRepo.CreateEquipmentHistory(ctx, tx, &entities.EquipmentHistory{
			EquipmentID: created.ID,
			Action:      entities.HistoryCreation,
			Description: "Equipamento cadastrado no sistema",
			Location:    &location,
			Responsible: actorName(ctx),
		})
	})
	if err != nil {
		s.logger.Error("CreateEquipment: ошибка при создании оборудования", zap.String("code", equipment.Code), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditCreateEquipment,
		Entity:   "equipment",
		EntityID: idPtr(created.ID),
		NewValue: created,
	})
	s.logger.Info("CreateEquipment: оборудование создано", zap.Uint64("id", created.ID), zap.String("code", created.Code))
	return created, nil
}

// UpdateEquipment читает строку под FOR UPDATE в той же транзакции,
// поэтому описание изменений всегда соответствует записанному состоянию.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	identity, _ := utils.GetIdentityFromCtx(ctx)
	override := payload.OverrideStatus && authz.CanOverrideStatus(identity)

	var before, updated *entities.Equipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.equipmentRepo.FindEquipmentForUpdate(ctx, tx, id)
		if err != nil {
			return orNotFound(err, equipmentNotFoundMessage)
		}
		snapshot := *current
		before = &snapshot

		if err := applyEquipmentUpdate(current, payload, override); err != nil {
			return err
		}

		updated, err = s.equipmentRepo.UpdateEquipment(ctx, tx, current)
		if err != nil {
			return err
		}

		changes := describeEquipmentChanges(before, updated)
		if changes == "" {
			return nil
		}
		location := updated.Location
		return s.historyRepo.CreateEquipmentHistory(ctx, tx, &entities.EquipmentHistory{
			EquipmentID: id,
			Action:      entities.HistoryUpdate,
			Description: "Equipamento atualizado: " + changes,
			Location:    &location,
			Responsible: actorName(ctx),
		})
	})
	if err != nil {
		return nil, err
	}

	if override && before.Status != updated.Status && !before.Status.CanTransitionTo(updated.Status) {
		s.logger.Warn("UpdateEquipment: статус изменён в обход таблицы переходов",
			zap.Uint64("id", id),
			zap.String("from", string(before.Status)),
			zap.String("to", string(updated.Status)),
		)
	}
	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditUpdateEquipment,
		Entity:   "equipment",
		EntityID: idPtr(id),
		OldValue: before,
		NewValue: updated,
	})
	return updated, nil
}

func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	var deleted *entities.Equipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.equipmentRepo.FindEquipmentForUpdate(ctx, tx, id)
		if err != nil {
			return orNotFound(err, equipmentNotFoundMessage)
		}
		linked, err := s.equipmentRepo.IsInOpenShipment(ctx, tx, id)
		if err != nil {
			return err
		}
		if linked {
			return apperrors.NewConflictError("Equipamento %s está vinculado a uma remessa ativa", current.Code)
		}
		deleted = current
		return s.equipmentRepo.DeleteEquipment(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditDeleteEquipment,
		Entity:   "equipment",
		EntityID: idPtr(id),
		OldValue: deleted,
	})
	s.logger.Info("DeleteEquipment: оборудование удалено", zap.Uint64("id", id), zap.String("code", deleted.Code))
	return nil
}

func equipmentFromCreateDTO(payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	status := entities.EquipmentInStock
	if payload.Status.Valid && strings.TrimSpace(payload.Status.String) != "" {
		status = entities.EquipmentStatus(payload.Status.String)
		if !status.Valid() {
			return nil, apperrors.NewFieldValidationError("Status inválido", map[string]string{"status": payload.Status.String})
		}
	}

	acquisitionDate, err := utils.OptionalDate(payload.AcquisitionDate)
	if err != nil {
		return nil, apperrors.NewFieldValidationError("Data de aquisição inválida", map[string]string{"acquisition_date": payload.AcquisitionDate.String})
	}

	equipment := &entities.Equipment{
		Code:            strings.TrimSpace(payload.Code),
		SerialNumber:    utils.OptionalString(payload.SerialNumber),
		Type:            strings.TrimSpace(payload.Type),
		Brand:           strings.TrimSpace(payload.Brand),
		Model:           strings.TrimSpace(payload.Model),
		Location:        strings.TrimSpace(payload.Location),
		Status:          status,
		AcquisitionDate: acquisitionDate,
		Observations:    utils.OptionalString(payload.Observations),
	}
	if err := requireEquipmentFields(equipment); err != nil {
		return nil, err
	}
	return equipment, nil
}

// requireEquipmentFields - code, type, brand, model и location обязательны.
func requireEquipmentFields(e *entities.Equipment) error {
	missing := map[string]string{}
	for field, value := range map[string]string{
		"code": e.Code, "type": e.Type, "brand": e.Brand, "model": e.Model, "location": e.Location,
	} {
		if strings.TrimSpace(value) == "" {
			missing[field] = "required"
		}
	}
	if len(missing) > 0 {
		return apperrors.NewFieldValidationError("Campos obrigatórios: código, tipo, marca, modelo e localização", missing)
	}
	return nil
}

func applyEquipmentUpdate(e *entities.Equipment, payload dto.UpdateEquipmentDTO, override bool) error {
	if payload.Code.Valid && strings.TrimSpace(payload.Code.String) != e.Code {
		return apperrors.NewFieldValidationError("O código do equipamento não pode ser alterado", map[string]string{"code": "immutable"})
	}
	if payload.SerialNumber.Valid {
		e.SerialNumber = utils.OptionalString(payload.SerialNumber)
	}
	if payload.Type.Valid {
		e.Type = strings.TrimSpace(payload.Type.String)
	}
	if payload.Brand.Valid {
		e.Brand = strings.TrimSpace(payload.Brand.String)
	}
	if payload.Model.Valid {
		e.Model = strings.TrimSpace(payload.Model.String)
	}
	if payload.Location.Valid {
		e.Location = strings.TrimSpace(payload.Location.String)
	}
	if payload.AcquisitionDate.Valid {
		date, err := utils.OptionalDate(payload.AcquisitionDate)
		if err != nil {
			return apperrors.NewFieldValidationError("Data de aquisição inválida", map[string]string{"acquisition_date": payload.AcquisitionDate.String})
		}
		e.AcquisitionDate = date
	}
	if payload.Observations.Valid {
		e.Observations = utils.OptionalString(payload.Observations)
	}
	if payload.Status.Valid && payload.Status.String != "" {
		next := entities.EquipmentStatus(payload.Status.String)
		if !next.Valid() {
			return apperrors.NewFieldValidationError("Status inválido", map[string]string{"status": payload.Status.String})
		}
		if !override && !e.Status.CanTransitionTo(next) {
			return apperrors.NewInvalidStateError("Transição de status inválida: %s → %s", e.Status.Label(), next.Label())
		}
		e.Status = next
	}
	return requireEquipmentFields(e)
}

// describeEquipmentChanges описывает изменения статуса и местоположения.
func describeEquipmentChanges(before, after *entities.Equipment) string {
	parts := make([]string, 0, 2)
	if before.Status != after.Status {
		parts = append(parts, fmt.Sprintf("Status: %s → %s", before.Status.Label(), after.Status.Label()))
	}
	if before.Location != after.Location {
		parts = append(parts, fmt.Sprintf("Localização: %s → %s", before.Location, after.Location))
	}
	return strings.Join(parts, "; ")
}
