package repositories

import (
	"context"
	"fmt"

	"pem-system/internal/entities"
	"pem-system/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var importLogColumns = []string{"id", "file_name", "file_type", "mode", "records_count", "success_count", "error_count", "errors", "created_by", "created_at"}

type ImportLogRepositoryInterface interface {
	CreateImportLog(ctx context.Context, tx pgx.Tx, entry *entities.ImportLog) error
	GetImportLogs(ctx context.Context, filter types.Filter) ([]entities.ImportLog, uint64, error)
}

type ImportLogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewImportLogRepository(storage *pgxpool.Pool, logger *zap.Logger) ImportLogRepositoryInterface {
	return &ImportLogRepository{storage: storage, logger: logger}
}

func (r *ImportLogRepository) CreateImportLog(ctx context.Context, tx pgx.Tx, e *entities.ImportLog) error {
	query, args, err := psql.Insert("import_logs").
		Columns("file_name", "file_type", "mode", "records_count", "success_count", "error_count", "errors", "created_by").
		Values(e.FileName, e.FileType, e.Mode, e.RecordsCount, e.SuccessCount, e.ErrorCount, e.Errors, e.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("ошибка записи журнала импорта: %w", err)
	}
	return nil
}

func (r *ImportLogRepository) GetImportLogs(ctx context.Context, filter types.Filter) ([]entities.ImportLog, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM import_logs").Scan(&total); err != nil {
		return nil, 0, err
	}

	builder := psql.Select(importLogColumns...).From("import_logs").OrderBy("created_at DESC", "id DESC")
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

	result := make([]entities.ImportLog, 0)
	for rows.Next() {
		var e entities.ImportLog
		if err := rows.Scan(&e.ID, &e.FileName, &e.FileType, &e.Mode, &e.RecordsCount, &e.SuccessCount, &e.ErrorCount, &e.Errors, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}
