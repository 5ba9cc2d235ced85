package repositories

import (
	"context"
	"fmt"
	"strings"

	"pem-system/internal/entities"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shipmentTable = "shipments"

var shipmentColumns = []string{
	"id", "shipment_number", "origin", "destination", "responsible", "carrier", "tracking_code", "status",
	"shipment_date", "expected_date", "delivery_date", "observations", "created_by", "created_at", "updated_at",
}

var shipmentAllowedFilterFields = map[string]string{"status": "s.status", "origin": "s.origin", "destination": "s.destination"}
var shipmentAllowedSortFields = map[string]string{
	"id": "s.id", "shipment_number": "s.shipment_number", "status": "s.status",
	"shipment_date": "s.shipment_date", "created_at": "s.created_at",
}

type ShipmentRepositoryInterface interface {
	GetShipments(ctx context.Context, filter types.Filter) ([]entities.Shipment, uint64, error)
	FindShipment(ctx context.Context, id uint64) (*entities.Shipment, error)
	FindShipmentForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Shipment, error)
	NextShipmentNumber(ctx context.Context, tx pgx.Tx) (string, error)
	CreateShipment(ctx context.Context, tx pgx.Tx, shipment *entities.Shipment) (*entities.Shipment, error)
	UpdateShipment(ctx context.Context, tx pgx.Tx, shipment *entities.Shipment) (*entities.Shipment, error)
	DeleteShipment(ctx context.Context, tx pgx.Tx, id uint64) error
	GetEquipmentIDs(ctx context.Context, tx pgx.Tx, shipmentID uint64) ([]uint64, error)
	GetShipmentEquipments(ctx context.Context, shipmentID uint64) ([]entities.Equipment, error)
	ReplaceEquipments(ctx context.Context, tx pgx.Tx, shipmentID uint64, equipmentIDs []uint64) error
	FindEquipmentInOtherOpenShipments(ctx context.Context, tx pgx.Tx, shipmentID uint64, equipmentIDs []uint64) ([]string, error)
}

type ShipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewShipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) ShipmentRepositoryInterface {
	return &ShipmentRepository{storage: storage, logger: logger}
}

func shipmentScanTargets(s *entities.Shipment) []interface{} {
	return []interface{}{
		&s.ID, &s.ShipmentNumber, &s.Origin, &s.Destination, &s.Responsible, &s.Carrier, &s.TrackingCode, &s.Status,
		&s.ShipmentDate, &s.ExpectedDate, &s.DeliveryDate, &s.Observations, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	}
}

func scanShipment(row pgx.Row) (*entities.Shipment, error) {
	var s entities.Shipment
	if err := row.Scan(shipmentScanTargets(&s)...); err != nil {
		return nil, notFoundOr(err)
	}
	return &s, nil
}

func prefixed(alias string, columns []string) []string {
	result := make([]string, len(columns))
	for i, c := range columns {
		result[i] = alias + "." + c
	}
	return result
}

func (r *ShipmentRepository) GetShipments(ctx context.Context, filter types.Filter) ([]entities.Shipment, uint64, error) {
	where := sq.And{}
	for key, value := range filter.Filter {
		column, ok := shipmentAllowedFilterFields[key]
		if !ok {
			continue
		}
		if s, isString := value.(string); isString && strings.Contains(s, ",") {
			where = append(where, sq.Eq{column: strings.Split(s, ",")})
		} else {
			where = append(where, sq.Eq{column: value})
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"s.shipment_number": pattern},
			sq.ILike{"s.origin": pattern},
			sq.ILike{"s.destination": pattern},
			sq.ILike{"s.responsible": pattern},
			sq.ILike{"s.tracking_code": pattern},
		})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(shipmentTable + " s").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета отправок: %w", err)
	}
	if total == 0 {
		return []entities.Shipment{}, 0, nil
	}

	columns := append(prefixed("s", shipmentColumns),
		"(SELECT COUNT(*) FROM shipment_equipments se WHERE se.shipment_id = s.id) AS equipment_count")
	builder := psql.Select(columns...).From(shipmentTable + " s").Where(where).
		OrderBy(sortClause(filter.Sort, shipmentAllowedSortFields, "s.created_at DESC")...)
	if filter.WithPagination {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("GetShipments: SQL", zap.String("query", query), zap.Any("args", args))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения отправок: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Shipment, 0)
	for rows.Next() {
		var s entities.Shipment
		if err := rows.Scan(append(shipmentScanTargets(&s), &s.EquipmentCount)...); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

func (r *ShipmentRepository) FindShipment(ctx context.Context, id uint64) (*entities.Shipment, error) {
	query, args, err := psql.Select(shipmentColumns...).From(shipmentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanShipment(r.storage.QueryRow(ctx, query, args...))
}

func (r *ShipmentRepository) FindShipmentForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Shipment, error) {
	query, args, err := psql.Select(shipmentColumns...).From(shipmentTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, err
	}
	return scanShipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

// NextShipmentNumber берёт значение из последовательности: два параллельных
// создания никогда не получат одинаковый номер.
func (r *ShipmentRepository) NextShipmentNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	var seq int64
	if err := pick(r.storage, tx).QueryRow(ctx, "SELECT nextval('shipment_number_seq')").Scan(&seq); err != nil {
		return "", fmt.Errorf("ошибка генерации номера отправки: %w", err)
	}
	return entities.FormatShipmentNumber(seq), nil
}

func (r *ShipmentRepository) CreateShipment(ctx context.Context, tx pgx.Tx, s *entities.Shipment) (*entities.Shipment, error) {
	query, args, err := psql.Insert(shipmentTable).
		Columns("shipment_number", "origin", "destination", "responsible", "carrier", "tracking_code", "status",
			"shipment_date", "expected_date", "delivery_date", "observations", "created_by").
		Values(s.ShipmentNumber, s.Origin, s.Destination, s.Responsible, s.Carrier, s.TrackingCode, s.Status,
			s.ShipmentDate, s.ExpectedDate, s.DeliveryDate, s.Observations, s.CreatedBy).
		Suffix("RETURNING " + strings.Join(shipmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	created, err := scanShipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
	if err != nil {
		if _, dup := uniqueViolation(err); dup {
			return nil, apperrors.NewConflictError("Número de remessa já existe: %s", s.ShipmentNumber)
		}
		return nil, err
	}
	return created, nil
}

func (r *ShipmentRepository) UpdateShipment(ctx context.Context, tx pgx.Tx, s *entities.Shipment) (*entities.Shipment, error) {
	query, args, err := psql.Update(shipmentTable).
		Set("origin", s.Origin).
		Set("destination", s.Destination).
		Set("responsible", s.Responsible).
		Set("carrier", s.Carrier).
		Set("tracking_code", s.TrackingCode).
		Set("status", s.Status).
		Set("shipment_date", s.ShipmentDate).
		Set("expected_date", s.ExpectedDate).
		Set("delivery_date", s.DeliveryDate).
		Set("observations", s.Observations).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": s.ID}).
		Suffix("RETURNING " + strings.Join(shipmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanShipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *ShipmentRepository) DeleteShipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	q := pick(r.storage, tx)
	if _, err := q.Exec(ctx, "DELETE FROM shipment_equipments WHERE shipment_id = $1", id); err != nil {
		return err
	}
	result, err := q.Exec(ctx, "DELETE FROM shipments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ShipmentRepository) GetEquipmentIDs(ctx context.Context, tx pgx.Tx, shipmentID uint64) ([]uint64, error) {
	rows, err := pick(r.storage, tx).Query(ctx,
		"SELECT equipment_id FROM shipment_equipments WHERE shipment_id = $1 ORDER BY equipment_id", shipmentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uint64])
}

func (r *ShipmentRepository) GetShipmentEquipments(ctx context.Context, shipmentID uint64) ([]entities.Equipment, error) {
	query, args, err := psql.Select(prefixed("e", equipmentColumns)...).
		From(equipmentTable + " e").
		Join("shipment_equipments se ON se.equipment_id = e.id").
		Where(sq.Eq{"se.shipment_id": shipmentID}).
		OrderBy("e.code ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEquipments(rows)
}

// ReplaceEquipments - удалить все связи и вставить новые.
func (r *ShipmentRepository) ReplaceEquipments(ctx context.Context, tx pgx.Tx, shipmentID uint64, equipmentIDs []uint64) error {
	q := pick(r.storage, tx)
	if _, err := q.Exec(ctx, "DELETE FROM shipment_equipments WHERE shipment_id = $1", shipmentID); err != nil {
		return err
	}
	if len(equipmentIDs) == 0 {
		return nil
	}
	builder := psql.Insert("shipment_equipments").Columns("shipment_id", "equipment_id")
	for _, id := range equipmentIDs {
		builder = builder.Values(shipmentID, id)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, query, args...)
	return err
}

// FindEquipmentInOtherOpenShipments возвращает коды оборудования, уже
// закреплённого за другой открытой отправкой.
func (r *ShipmentRepository) FindEquipmentInOtherOpenShipments(ctx context.Context, tx pgx.Tx, shipmentID uint64, equipmentIDs []uint64) ([]string, error) {
	if len(equipmentIDs) == 0 {
		return nil, nil
	}
	query, args, err := psql.Select("DISTINCT e.code").
		From("shipment_equipments se").
		Join("shipments s ON s.id = se.shipment_id").
		Join("equipments e ON e.id = se.equipment_id").
		Where(sq.Eq{"se.equipment_id": equipmentIDs}).
		Where(sq.NotEq{"se.shipment_id": shipmentID}).
		Where(sq.Eq{"s.status": []string{string(entities.ShipmentPreparing), string(entities.ShipmentShipped)}}).
		OrderBy("e.code").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := pick(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
