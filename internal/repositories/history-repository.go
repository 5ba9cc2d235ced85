package repositories

import (
	"context"
	"fmt"

	"pem-system/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type HistoryRepositoryInterface interface {
	CreateEquipmentHistory(ctx context.Context, tx pgx.Tx, entry *entities.EquipmentHistory) error
	CreateShipmentHistory(ctx context.Context, tx pgx.Tx, entry *entities.ShipmentHistory) error
	GetEquipmentHistory(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error)
	GetShipmentHistory(ctx context.Context, shipmentID uint64) ([]entities.ShipmentHistory, error)
}

type HistoryRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewHistoryRepository(storage *pgxpool.Pool, logger *zap.Logger) HistoryRepositoryInterface {
	return &HistoryRepository{storage: storage, logger: logger}
}

func (r *HistoryRepository) CreateEquipmentHistory(ctx context.Context, tx pgx.Tx, entry *entities.EquipmentHistory) error {
	query := `
		INSERT INTO equipment_history (equipment_id, action, description, location, responsible)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		entry.EquipmentID, entry.Action, entry.Description, entry.Location, entry.Responsible,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи истории оборудования: %w", err)
	}
	return nil
}

func (r *HistoryRepository) CreateShipmentHistory(ctx context.Context, tx pgx.Tx, entry *entities.ShipmentHistory) error {
	query := `
		INSERT INTO shipment_history (shipment_id, action, description, responsible)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := pick(r.storage, tx).QueryRow(ctx, query,
		entry.ShipmentID, entry.Action, entry.Description, entry.Responsible,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи истории отправки: %w", err)
	}
	return nil
}

func (r *HistoryRepository) GetEquipmentHistory(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT id, equipment_id, action, description, location, responsible, created_at
		FROM equipment_history WHERE equipment_id = $1
		ORDER BY created_at DESC, id DESC`, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]entities.EquipmentHistory, 0)
	for rows.Next() {
		var h entities.EquipmentHistory
		if err := rows.Scan(&h.ID, &h.EquipmentID, &h.Action, &h.Description, &h.Location, &h.Responsible, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *HistoryRepository) GetShipmentHistory(ctx context.Context, shipmentID uint64) ([]entities.ShipmentHistory, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT id, shipment_id, action, description, responsible, created_at
		FROM shipment_history WHERE shipment_id = $1
		ORDER BY created_at DESC, id DESC`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]entities.ShipmentHistory, 0)
	for rows.Next() {
		var h entities.ShipmentHistory
		if err := rows.Scan(&h.ID, &h.ShipmentID, &h.Action, &h.Description, &h.Responsible, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
