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

const equipmentTable = "equipments"

var equipmentColumns = []string{
	"id", "code", "serial_number", "type", "brand", "model", "location", "status",
	"acquisition_date", "observations", "created_by", "created_at", "updated_at",
}

var equipmentAllowedFilterFields = map[string]string{"status": "status", "type": "type", "brand": "brand", "location": "location"}
var equipmentAllowedSortFields = map[string]string{
	"id": "id", "code": "code", "type": "type", "brand": "brand", "location": "location",
	"status": "status", "created_at": "created_at", "updated_at": "updated_at",
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	FindEquipmentForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	FindEquipmentByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Equipment, error)
	FindEquipmentsByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Equipment, error)
	CreateEquipment(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error
	DeleteAllEquipments(ctx context.Context, tx pgx.Tx) (int64, error)
	SetStatus(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.EquipmentStatus) error
	SetStatusAndLocation(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.EquipmentStatus, location string) error
	IsInOpenShipment(ctx context.Context, tx pgx.Tx, id uint64) (bool, error)
	CountInOpenShipments(ctx context.Context, tx pgx.Tx) (int, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	err := row.Scan(
		&e.ID, &e.Code, &e.SerialNumber, &e.Type, &e.Brand, &e.Model, &e.Location, &e.Status,
		&e.AcquisitionDate, &e.Observations, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &e, nil
}

func collectEquipments(rows pgx.Rows) ([]entities.Equipment, error) {
	defer rows.Close()
	result := make([]entities.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func mapEquipmentConflict(err error, code string) error {
	if _, ok := uniqueViolation(err); ok {
		return apperrors.NewConflictError("Código de equipamento já existe: %s", code)
	}
	return err
}

func (r *EquipmentRepository) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	where := sq.And{}
	for key, value := range filter.Filter {
		column, ok := equipmentAllowedFilterFields[key]
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
			sq.ILike{"code": pattern},
			sq.ILike{"serial_number": pattern},
			sq.ILike{"type": pattern},
			sq.ILike{"brand": pattern},
			sq.ILike{"model": pattern},
			sq.ILike{"location": pattern},
		})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(equipmentTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета оборудования: %w", err)
	}
	if total == 0 {
		return []entities.Equipment{}, 0, nil
	}

	builder := psql.Select(equipmentColumns...).From(equipmentTable).Where(where).
		OrderBy(sortClause(filter.Sort, equipmentAllowedSortFields, "created_at DESC")...)
	if filter.WithPagination {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("GetEquipments: SQL", zap.String("query", query), zap.Any("args", args))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения оборудования: %w", err)
	}
	list, err := collectEquipments(rows)
	return list, total, err
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	query, args, err := psql.Select(equipmentColumns...).From(equipmentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(r.storage.QueryRow(ctx, query, args...))
}

// FindEquipmentForUpdate блокирует строку до конца транзакции.
func (r *EquipmentRepository) FindEquipmentForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	query, args, err := psql.Select(equipmentColumns...).From(equipmentTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *EquipmentRepository) FindEquipmentByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Equipment, error) {
	query, args, err := psql.Select(equipmentColumns...).From(equipmentTable).Where(sq.Eq{"code": code}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *EquipmentRepository) FindEquipmentsByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Equipment, error) {
	if len(ids) == 0 {
		return []entities.Equipment{}, nil
	}
	query, args, err := psql.Select(equipmentColumns...).From(equipmentTable).
		Where(sq.Eq{"id": ids}).OrderBy("id ASC").Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := pick(r.storage, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEquipments(rows)
}

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, tx pgx.Tx, e *entities.Equipment) (*entities.Equipment, error) {
	query, args, err := psql.Insert(equipmentTable).
		Columns("code", "serial_number", "type", "brand", "model", "location", "status", "acquisition_date", "observations", "created_by").
		Values(e.Code, e.SerialNumber, e.Type, e.Brand, e.Model, e.Location, e.Status, e.AcquisitionDate, e.Observations, e.CreatedBy).
		Suffix("RETURNING " + strings.Join(equipmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	created, err := scanEquipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapEquipmentConflict(err, e.Code)
	}
	return created, nil
}

// UpdateEquipment не меняет code: код неизменяем после создания.
func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, tx pgx.Tx, e *entities.Equipment) (*entities.Equipment, error) {
	query, args, err := psql.Update(equipmentTable).
		Set("serial_number", e.SerialNumber).
		Set("type", e.Type).
		Set("brand", e.Brand).
		Set("model", e.Model).
		Set("location", e.Location).
		Set("status", e.Status).
		Set("acquisition_date", e.AcquisitionDate).
		Set("observations", e.Observations).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": e.ID}).
		Suffix("RETURNING " + strings.Join(equipmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

// DeleteEquipment снимает связи с закрытыми отправками вместе с записью.
func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	q := pick(r.storage, tx)
	if _, err := q.Exec(ctx, "DELETE FROM shipment_equipments WHERE equipment_id = $1", id); err != nil {
		return err
	}
	result, err := q.Exec(ctx, "DELETE FROM equipments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteAllEquipments снимает связи с закрытыми отправками и очищает таблицу.
func (r *EquipmentRepository) DeleteAllEquipments(ctx context.Context, tx pgx.Tx) (int64, error) {
	q := pick(r.storage, tx)
	if _, err := q.Exec(ctx, "DELETE FROM shipment_equipments"); err != nil {
		return 0, err
	}
	result, err := q.Exec(ctx, "DELETE FROM equipments")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *EquipmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.EquipmentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Update(equipmentTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = pick(r.storage, tx).Exec(ctx, query, args...)
	return err
}

func (r *EquipmentRepository) SetStatusAndLocation(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.EquipmentStatus, location string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Update(equipmentTable).
		Set("status", status).
		Set("location", location).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("ожидалось обновление %d единиц оборудования, обновлено %d", len(ids), result.RowsAffected())
	}
	return nil
}

func (r *EquipmentRepository) IsInOpenShipment(ctx context.Context, tx pgx.Tx, id uint64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM shipment_equipments se
				JOIN shipments s ON s.id = se.shipment_id
			WHERE se.equipment_id = $1 AND s.status IN ('preparing', 'shipped')
		)`
	var exists bool
	err := pick(r.storage, tx).QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *EquipmentRepository) CountInOpenShipments(ctx context.Context, tx pgx.Tx) (int, error) {
	query := `
		SELECT COUNT(DISTINCT se.equipment_id)
		FROM shipment_equipments se
			JOIN shipments s ON s.id = se.shipment_id
		WHERE s.status IN ('preparing', 'shipped')`
	var count int
	err := pick(r.storage, tx).QueryRow(ctx, query).Scan(&count)
	return count, err
}
