package repositories

import (
	"context"
	"fmt"

	"pem-system/internal/entities"
	"pem-system/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var auditLogColumns = []string{"id", "user_id", "action", "entity", "entity_id", "old_values", "new_values", "ip_address", "user_agent", "created_at"}

var auditAllowedFilterFields = map[string]string{"user_id": "user_id", "action": "action", "entity": "entity", "entity_id": "entity_id"}

type AuditLogRepositoryInterface interface {
	CreateAuditLog(ctx context.Context, entry *entities.AuditLog) error
	GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error)
}

type AuditLogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAuditLogRepository(storage *pgxpool.Pool, logger *zap.Logger) AuditLogRepositoryInterface {
	return &AuditLogRepository{storage: storage, logger: logger}
}

// CreateAuditLog - только вставка, время ставит база.
func (r *AuditLogRepository) CreateAuditLog(ctx context.Context, e *entities.AuditLog) error {
	query, args, err := psql.Insert("audit_logs").
		Columns("user_id", "action", "entity", "entity_id", "old_values", "new_values", "ip_address", "user_agent").
		Values(e.UserID, e.Action, e.Entity, e.EntityID, e.OldValues, e.NewValues, e.IPAddress, e.UserAgent).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	return r.storage.QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt)
}

func (r *AuditLogRepository) GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error) {
	where := sq.And{}
	for key, value := range filter.Filter {
		if column, ok := auditAllowedFilterFields[key]; ok {
			where = append(where, sq.Eq{column: value})
		}
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("audit_logs").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета журнала аудита: %w", err)
	}

	builder := psql.Select(auditLogColumns...).From("audit_logs").Where(where).OrderBy("created_at DESC", "id DESC")
	if filter.WithPagination {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]entities.AuditLog, 0)
	for rows.Next() {
		var e entities.AuditLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &e.OldValues, &e.NewValues, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}
