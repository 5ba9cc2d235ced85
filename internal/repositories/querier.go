package repositories

import (
	"context"
	"errors"

	apperrors "pem-system/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// pick возвращает транзакцию, если она передана, иначе пул.
func pick(pool *pgxpool.Pool, tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return pool
}

const uniqueViolationCode = "23505"

// uniqueViolation возвращает имя нарушенного ограничения уникальности.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return err
}

// sortClause разрешает сортировку только по полям из белого списка.
func sortClause(sort map[string]string, allowed map[string]string, fallback string) []string {
	clauses := make([]string, 0, len(sort))
	for field, direction := range sort {
		column, ok := allowed[field]
		if !ok {
			continue
		}
		if direction != "asc" {
			direction = "desc"
		}
		clauses = append(clauses, column+" "+direction)
	}
	if len(clauses) == 0 {
		clauses = append(clauses, fallback)
	}
	return clauses
}
