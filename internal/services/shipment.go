package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

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

const shipmentNotFoundMessage = "Remessa não encontrada"

type ShipmentServiceInterface interface {
	GetShipments(ctx context.Context, filter types.Filter) ([]entities.Shipment, uint64, error)
	FindShipment(ctx context.Context, id uint64) (*dto.ShipmentDetailDTO, error)
	CreateShipment(ctx context.Context, payload dto.CreateShipmentDTO) (*entities.Shipment, error)
	UpdateShipment(ctx context.Context, id uint64, payload dto.UpdateShipmentDTO) (*entities.Shipment, error)
	DeleteShipment(ctx context.Context, id uint64) error
	ReceiveShipment(ctx context.Context, id uint64, payload dto.ReceiveShipmentDTO) (*entities.Shipment, error)
}

type ShipmentService struct {
	txManager     repositories.TxManagerInterface
	shipmentRepo  repositories.ShipmentRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	historyRepo   repositories.HistoryRepositoryInterface
	audit         AuditServiceInterface
	logger        *zap.Logger
	now           func() time.Time
}

func NewShipmentService(
	txManager repositories.TxManagerInterface,
	shipmentRepo repositories.ShipmentRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) ShipmentServiceInterface {
	return &ShipmentService{
		txManager:     txManager,
		shipmentRepo:  shipmentRepo,
		equipmentRepo: equipmentRepo,
		historyRepo:   historyRepo,
		audit:         audit,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ShipmentService) GetShipments(ctx context.Context, filter types.Filter) ([]entities.Shipment, uint64, error) {
	return s.shipmentRepo.GetShipments(ctx, filter)
}

func (s *ShipmentService) FindShipment(ctx context.Context, id uint64) (*dto.ShipmentDetailDTO, error) {
	shipment, err := s.shipmentRepo.FindShipment(ctx, id)
	if err != nil {
		return nil, orNotFound(err, shipmentNotFoundMessage)
	}
	equipments, err := s.shipmentRepo.GetShipmentEquipments(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.GetShipmentHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	shipment.EquipmentCount = len(equipments)
	return &dto.ShipmentDetailDTO{Shipment: *shipment, Equipments: equipments, History: history}, nil
}

// CreateShipment: номер берётся из последовательности БД, статус всегда preparing.
func (s *ShipmentService) CreateShipment(ctx context.Context, payload dto.CreateShipmentDTO) (*entities.Shipment, error) {
	shipment := &entities.Shipment{
		Origin:       strings.TrimSpace(payload.Origin),
		Destination:  strings.TrimSpace(payload.Destination),
		Responsible:  strings.TrimSpace(payload.Responsible),
		Carrier:      utils.OptionalString(payload.Carrier),
		TrackingCode: utils.OptionalString(payload.TrackingCode),
		Status:       entities.ShipmentPreparing,
		Observations: utils.OptionalString(payload.Observations),
		CreatedBy:    actorID(ctx),
	}
	if err := requireShipmentFields(shipment); err != nil {
		return nil, err
	}

	shipmentDate, err := utils.OptionalDate(payload.ShipmentDate)
	if err != nil {
		return nil, apperrors.NewFieldValidationError("Data de envio inválida", map[string]string{"shipment_date": payload.ShipmentDate.String})
	}
	if shipmentDate == nil {
		now := s.now()
		shipmentDate = &now
	}
	shipment.ShipmentDate = *shipmentDate

	if shipment.ExpectedDate, err = utils.OptionalDate(payload.ExpectedDate); err != nil {
		return nil, apperrors.NewFieldValidationError("Data prevista inválida", map[string]string{"expected_date": payload.ExpectedDate.String})
	}

	var created *entities.Shipment
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		number, err := s.shipmentRepo.NextShipmentNumber(ctx, tx)
		if err != nil {
			return err
		}
		shipment.ShipmentNumber = number

		created, err = s.shipmentRepo.CreateShipment(ctx, tx, shipment)
		if err != nil {
			return err
		}

		if len(payload.EquipmentIDs) > 0 {
			count, err := s.linkEquipments(ctx, tx, created, payload.EquipmentIDs)
			if err != nil {
				return err
			}
			created.EquipmentCount = count
		}

		return s.historyRepo.CreateShipmentHistory(ctx, tx, &entities.ShipmentHistory{
			ShipmentID:  created.ID,
			Action:      entities.HistoryCreation,
			Description: "Remessa criada no sistema",
			Responsible: actorName(ctx),
		})
	})
	if err != nil {
		s.logger.Error("CreateShipment: ошибка при создании отправки", zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditCreateShipment,
		Entity:   "shipment",
		EntityID: idPtr(created.ID),
		NewValue: created,
	})
	s.logger.Info("CreateShipment: отправка создана", zap.Uint64("id", created.ID), zap.String("number", created.ShipmentNumber))
	return created, nil
}

// UpdateShipment выполняет чтение, смену статуса, замену состава
// и запись истории в одной транзакции.
func (s *ShipmentService) UpdateShipment(ctx context.Context, id uint64, payload dto.UpdateShipmentDTO) (*entities.Shipment, error) {
	var before, updated *entities.Shipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.shipmentRepo.FindShipmentForUpdate(ctx, tx, id)
		if err != nil {
			return orNotFound(err, shipmentNotFoundMessage)
		}
		snapshot := *current
		before = &snapshot

		if err := s.applyShipmentUpdate(current, payload); err != nil {
			return err
		}

		updated, err = s.shipmentRepo.UpdateShipment(ctx, tx, current)
		if err != nil {
			return err
		}

		if payload.EquipmentIDs != nil {
			count, err := s.linkEquipments(ctx, tx, updated, *payload.EquipmentIDs)
			if err != nil {
				return err
			}
			updated.EquipmentCount = count
		}

		if before.Status == updated.Status {
			return nil
		}
		return s.historyRepo.CreateShipmentHistory(ctx, tx, &entities.ShipmentHistory{
			ShipmentID:  id,
			Action:      entities.HistoryUpdate,
			Description: fmt.Sprintf("Status atualizado: %s → %s", before.Status.Label(), updated.Status.Label()),
			Responsible: actorName(ctx),
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditUpdateShipment,
		Entity:   "shipment",
		EntityID: idPtr(id),
		OldValue: before,
		NewValue: updated,
	})
	return updated, nil
}

func (s *ShipmentService) DeleteShipment(ctx context.Context, id uint64) error {
	var deleted *entities.Shipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.shipmentRepo.FindShipmentForUpdate(ctx, tx, id)
		if err != nil {
			return orNotFound(err, shipmentNotFoundMessage)
		}
		if current.Status == entities.ShipmentShipped {
			return apperrors.NewConflictError("Não é possível excluir uma remessa já enviada")
		}
		deleted = current
		return s.shipmentRepo.DeleteShipment(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditDeleteShipment,
		Entity:   "shipment",
		EntityID: idPtr(id),
		OldValue: deleted,
	})
	s.logger.Info("DeleteShipment: отправка удалена", zap.Uint64("id", id), zap.String("number", deleted.ShipmentNumber))
	return nil
}

// ReceiveShipment - приёмка отправки. Статус отправки, статусы и
// местоположение оборудования и все записи истории фиксируются вместе
// или не фиксируются вовсе.
func (s *ShipmentService) ReceiveShipment(ctx context.Context, id uint64, payload dto.ReceiveShipmentDTO) (*entities.Shipment, error) {
	deliveryDate, err := utils.OptionalDate(payload.DeliveryDate)
	if err != nil {
		return nil, apperrors.NewFieldValidationError("Data de entrega inválida", map[string]string{"delivery_date": payload.DeliveryDate.String})
	}
	if deliveryDate == nil {
		now := s.now()
		deliveryDate = &now
	}

	responsible := actorName(ctx)
	if r := utils.OptionalString(payload.Responsible); r != nil {
		responsible = *r
	}
	observations := utils.OptionalString(payload.Observations)

	var received *entities.Shipment
	var equipmentCount int
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.shipmentRepo.FindShipmentForUpdate(ctx, tx, id)
		if err != nil {
			return orNotFound(err, shipmentNotFoundMessage)
		}
		if current.Status != entities.ShipmentShipped {
			return apperrors.NewInvalidStateError("Apenas remessas com status Enviado podem ser recebidas (status atual: %s)", current.Status.Label())
		}

		equipmentIDs, err := s.shipmentRepo.GetEquipmentIDs(ctx, tx, id)
		if err != nil {
			return err
		}

		current.Status = entities.ShipmentDelivered
		current.DeliveryDate = deliveryDate
		current.Observations = appendReceiptObservations(current.Observations, observations)

		received, err = s.shipmentRepo.UpdateShipment(ctx, tx, current)
		if err != nil {
			return err
		}

		if err := s.equipmentRepo.SetStatusAndLocation(ctx, tx, equipmentIDs, entities.EquipmentReturned, received.Destination); err != nil {
			return err
		}
		destination := received.Destination
		for _, equipmentID := range equipmentIDs {
			if err := s.historyRepo.CreateEquipmentHistory(ctx, tx, &entities.EquipmentHistory{
				EquipmentID: equipmentID,
				Action:      entities.HistoryReceipt,
				Description: "Equipamento recebido em " + destination,
				Location:    &destination,
				Responsible: responsible,
			}); err != nil {
				return err
			}
		}

		description := "Remessa recebida com sucesso"
		if observations != nil {
			description = *observations
		}
		equipmentCount = len(equipmentIDs)
		received.EquipmentCount = equipmentCount
		return s.historyRepo.CreateShipmentHistory(ctx, tx, &entities.ShipmentHistory{
			ShipmentID:  id,
			Action:      entities.HistoryReceipt,
			Description: description,
			Responsible: responsible,
		})
	})
	if err != nil {
		s.logger.Warn("ReceiveShipment: приёмка отклонена", zap.Uint64("id", id), zap.Error(err))
		return nil, err
	}

	metrics.ShipmentsReceived.Inc()
	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditReceiveShipment,
		Entity:   "shipment",
		EntityID: idPtr(id),
		NewValue: received,
	})
	s.logger.Info("ReceiveShipment: отправка принята",
		zap.Uint64("id", id),
		zap.String("destination", received.Destination),
		zap.Int("equipments", equipmentCount),
	)
	return received, nil
}

// linkEquipments заменяет состав отправки и выставляет оборудованию
// статус, соответствующий статусу отправки. Возвращает число связей.
func (s *ShipmentService) linkEquipments(ctx context.Context, tx pgx.Tx, shipment *entities.Shipment, ids []uint64) (int, error) {
	ids = uniqueIDs(ids)
	if slices.Contains(ids, 0) {
		return 0, apperrors.NewFieldValidationError("ID de equipamento inválido", map[string]string{"equipment_ids": "gt=0"})
	}

	found, err := s.equipmentRepo.FindEquipmentsByIDs(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	if len(found) != len(ids) {
		return 0, apperrors.NewNotFoundError("Equipamento não encontrado: %s", missingIDs(ids, found))
	}

	conflicts, err := s.shipmentRepo.FindEquipmentInOtherOpenShipments(ctx, tx, shipment.ID, ids)
	if err != nil {
		return 0, err
	}
	if len(conflicts) > 0 {
		return 0, apperrors.NewConflictError("Equipamento já vinculado a outra remessa ativa: %s", strings.Join(conflicts, ", "))
	}

	if err := s.shipmentRepo.ReplaceEquipments(ctx, tx, shipment.ID, ids); err != nil {
		return 0, err
	}

	target := shipment.Status.LinkedEquipmentStatus()
	if err := s.equipmentRepo.SetStatus(ctx, tx, ids, target); err != nil {
		return 0, err
	}

	responsible := actorName(ctx)
	for _, e := range found {
		if e.Status == target {
			continue
		}
		location := e.Location
		if err := s.historyRepo.CreateEquipmentHistory(ctx, tx, &entities.EquipmentHistory{
			EquipmentID: e.ID,
			Action:      entities.HistoryShipment,
			Description: fmt.Sprintf("Remessa %s: Status: %s → %s", shipment.ShipmentNumber, e.Status.Label(), target.Label()),
			Location:    &location,
			Responsible: responsible,
		}); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (s *ShipmentService) applyShipmentUpdate(sh *entities.Shipment, payload dto.UpdateShipmentDTO) error {
	if payload.Origin.Valid {
		sh.Origin = strings.TrimSpace(payload.Origin.String)
	}
	if payload.Destination.Valid {
		sh.Destination = strings.TrimSpace(payload.Destination.String)
	}
	if payload.Responsible.Valid {
		sh.Responsible = strings.TrimSpace(payload.Responsible.String)
	}
	if payload.Carrier.Valid {
		sh.Carrier = utils.OptionalString(payload.Carrier)
	}
	if payload.TrackingCode.Valid {
		sh.TrackingCode = utils.OptionalString(payload.TrackingCode)
	}
	if payload.Observations.Valid {
		sh.Observations = utils.OptionalString(payload.Observations)
	}

	if payload.ExpectedDate.Valid {
		parsed, err := utils.OptionalDate(payload.ExpectedDate)
		if err != nil {
			return apperrors.NewFieldValidationError("Data prevista inválida", map[string]string{"expected_date": payload.ExpectedDate.String})
		}
		sh.ExpectedDate = parsed
	}
	if payload.DeliveryDate.Valid {
		parsed, err := utils.OptionalDate(payload.DeliveryDate)
		if err != nil {
			return apperrors.NewFieldValidationError("Data de entrega inválida", map[string]string{"delivery_date": payload.DeliveryDate.String})
		}
		sh.DeliveryDate = parsed
	}
	if payload.ShipmentDate.Valid {
		parsed, err := utils.OptionalDate(payload.ShipmentDate)
		if err != nil || parsed == nil {
			return apperrors.NewFieldValidationError("Data de envio inválida", map[string]string{"shipment_date": payload.ShipmentDate.String})
		}
		sh.ShipmentDate = *parsed
	}

	if payload.Status.Valid && payload.Status.String != "" {
		next := entities.ShipmentStatus(payload.Status.String)
		if !next.Valid() {
			return apperrors.NewFieldValidationError("Status inválido", map[string]string{"status": payload.Status.String})
		}
		if !sh.Status.CanTransitionTo(next) {
			return apperrors.NewInvalidStateError("Transição de status inválida: %s → %s", sh.Status.Label(), next.Label())
		}
		if next == entities.ShipmentDelivered && sh.DeliveryDate == nil {
			now := s.now()
			sh.DeliveryDate = &now
		}
		sh.Status = next
	}
	return requireShipmentFields(sh)
}

func requireShipmentFields(sh *entities.Shipment) error {
	missing := map[string]string{}
	for field, value := range map[string]string{
		"origin": sh.Origin, "destination": sh.Destination, "responsible": sh.Responsible,
	} {
		if strings.TrimSpace(value) == "" {
			missing[field] = "required"
		}
	}
	if len(missing) > 0 {
		return apperrors.NewFieldValidationError("Campos obrigatórios: origem, destino e responsável", missing)
	}
	return nil
}

// appendReceiptObservations: "<существующие>\n\nRecebimento: <новые>".
func appendReceiptObservations(existing, added *string) *string {
	if added == nil {
		return existing
	}
	note := "Recebimento: " + *added
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return &note
	}
	combined := strings.TrimSpace(*existing + "\n\n" + note)
	return &combined
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	result := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func missingIDs(requested []uint64, found []entities.Equipment) string {
	present := make(map[uint64]bool, len(found))
	for _, e := range found {
		present[e.ID] = true
	}
	missing := make([]string, 0)
	for _, id := range requested {
		if !present[id] {
			missing = append(missing, fmt.Sprint(id))
		}
	}
	return strings.Join(missing, ", ")
}
