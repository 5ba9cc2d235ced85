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

const userTable = "users"

var userColumns = []string{"id", "name", "username", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

var userAllowedFilterFields = map[string]string{"role": "role", "is_active": "is_active"}
var userAllowedSortFields = map[string]string{"id": "id", "name": "name", "username": "username", "created_at": "created_at"}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByLogin(ctx context.Context, login string) (*entities.User, error)
	CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error)
	UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error)
	DeactivateUser(ctx context.Context, tx pgx.Tx, id uint64) error
	CountOpenShipmentsForCreator(ctx context.Context, userID uint64) (int, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.Password,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

func mapUserConflict(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(constraint, "email") {
		return apperrors.NewConflictError("Email já cadastrado")
	}
	return apperrors.NewConflictError("Nome de usuário já existe")
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	where := sq.And{}
	for key, value := range filter.Filter {
		column, ok := userAllowedFilterFields[key]
		if !ok {
			continue
		}
		where = append(where, sq.Eq{column: value})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"username": pattern},
			sq.ILike{"email": pattern},
		})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(userTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета пользователей: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	builder := psql.Select(userColumns...).From(userTable).Where(where).
		OrderBy(sortClause(filter.Sort, userAllowedSortFields, "id ASC")...)
	if filter.WithPagination {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	r.logger.Debug("GetUsers: SQL", zap.String("query", query), zap.Any("args", args))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	query, args, err := psql.Select(userColumns...).From(userTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

// FindUserByLogin ищет по username или email без учёта регистра.
func (r *UserRepository) FindUserByLogin(ctx context.Context, login string) (*entities.User, error) {
	login = strings.TrimSpace(login)
	query, args, err := psql.Select(userColumns...).From(userTable).
		Where(sq.Or{
			sq.Expr("LOWER(username) = LOWER(?)", login),
			sq.Expr("LOWER(email) = LOWER(?)", login),
		}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error) {
	query, args, err := psql.Insert(userTable).
		Columns("name", "username", "email", "password_hash", "role", "is_active").
		Values(user.Name, user.Username, user.Email, user.Password, user.Role, user.IsActive).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	created, err := scanUser(pick(r.storage, tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapUserConflict(err)
	}
	return created, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error) {
	query, args, err := psql.Update(userTable).
		Set("name", user.Name).
		Set("username", user.Username).
		Set("email", user.Email).
		Set("password_hash", user.Password).
		Set("role", user.Role).
		Set("is_active", user.IsActive).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": user.ID}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	updated, err := scanUser(pick(r.storage, tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapUserConflict(err)
	}
	return updated, nil
}

func (r *UserRepository) DeactivateUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		"UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountOpenShipmentsForCreator - открытые отправки с оборудованием, созданным пользователем.
func (r *UserRepository) CountOpenShipmentsForCreator(ctx context.Context, userID uint64) (int, error) {
	query := `
		SELECT COUNT(DISTINCT s.id)
		FROM shipments s
			JOIN shipment_equipments se ON se.shipment_id = s.id
			JOIN equipments e ON e.id = se.equipment_id
		WHERE e.created_by = $1 AND s.status IN ('preparing', 'shipped')`
	var count int
	if err := r.storage.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
