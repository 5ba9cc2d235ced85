package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pem-system/pkg/types"
)

type DashboardRepositoryInterface interface {
	GetStats(ctx context.Context, monthStart, monthEnd time.Time) (*types.DashboardStats, error)
	GetEquipmentByLocation(ctx context.Context, limit uint64) ([]types.DashboardCountByGroup, error)
	GetLastActivity(ctx context.Context, limit uint64) ([]types.DashboardActivityItem, error)
}

type DashboardRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDashboardRepository(storage *pgxpool.Pool, logger *zap.Logger) DashboardRepositoryInterface {
	return &DashboardRepository{storage: storage, logger: logger}
}

// GetStats - счётчики оборудования по статусам и отправок по состояниям.
func (r *DashboardRepository) GetStats(ctx context.Context, monthStart, monthEnd time.Time) (*types.DashboardStats, error) {
	stats := &types.DashboardStats{}

	equipmentQuery, args, err := psql.Select(
		"COUNT(*)",
		"COUNT(CASE WHEN status = 'in_stock' THEN 1 END)",
		"COUNT(CASE WHEN status = 'shipped' THEN 1 END)",
		"COUNT(CASE WHEN status = 'in_maintenance' THEN 1 END)",
		"COUNT(CASE WHEN status = 'returned' THEN 1 END)",
	).From(equipmentTable).ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.storage.QueryRow(ctx, equipmentQuery, args...).Scan(
		&stats.TotalEquipments, &stats.InStock, &stats.Shipped, &stats.InMaintenance, &stats.Returned,
	); err != nil {
		return nil, fmt.Errorf("ошибка подсчета оборудования: %w", err)
	}

	shipmentQuery, args, err := psql.Select(
		"COUNT(*)",
		"COUNT(CASE WHEN status IN ('preparing', 'shipped') THEN 1 END)",
		"COUNT(CASE WHEN status = 'delivered' THEN 1 END)",
	).
		Column(sq.Expr("COUNT(CASE WHEN status = 'delivered' AND delivery_date >= ? AND delivery_date <= ? THEN 1 END)", monthStart, monthEnd)).
		Column(sq.Expr("COUNT(CASE WHEN created_at >= ? AND created_at <= ? THEN 1 END)", monthStart, monthEnd)).
		From(shipmentTable).ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.storage.QueryRow(ctx, shipmentQuery, args...).Scan(
		&stats.TotalShipments, &stats.ActiveShipments, &stats.DeliveredShipments,
		&stats.DeliveredThisMonth, &stats.CreatedThisMonth,
	); err != nil {
		return nil, fmt.Errorf("ошибка подсчета отправок: %w", err)
	}
	return stats, nil
}

func (r *DashboardRepository) GetEquipmentByLocation(ctx context.Context, limit uint64) ([]types.DashboardCountByGroup, error) {
	query, args, err := psql.Select("location AS group_name", "COUNT(*) AS count").
		From(equipmentTable).
		GroupBy("location").
		OrderBy("count DESC", "location ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]types.DashboardCountByGroup, 0)
	for rows.Next() {
		var item types.DashboardCountByGroup
		if err := rows.Scan(&item.GroupName, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *DashboardRepository) GetLastActivity(ctx context.Context, limit uint64) ([]types.DashboardActivityItem, error) {
	query, args, err := psql.Select("s.id", "s.shipment_number", "h.description", "h.responsible", "h.created_at").
		From("shipment_history h").
		Join("shipments s ON s.id = h.shipment_id").
		OrderBy("h.created_at DESC", "h.id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]types.DashboardActivityItem, 0)
	for rows.Next() {
		var item types.DashboardActivityItem
		var createdAt time.Time
		if err := rows.Scan(&item.ShipmentID, &item.ShipmentNumber, &item.Text, &item.Responsible, &createdAt); err != nil {
			return nil, err
		}
		item.Date = createdAt.Format("2006-01-02 15:04")
		result = append(result, item)
	}
	return result, rows.Err()
}
