package services

import (
	"context"
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

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error)
	DeactivateUser(ctx context.Context, id uint64) error
}

type UserService struct {
	txManager repositories.TxManagerInterface
	userRepo  repositories.UserRepositoryInterface
	audit     AuditServiceInterface
	logger    *zap.Logger
}

func NewUserService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{txManager: txManager, userRepo: userRepo, audit: audit, logger: logger}
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	return s.userRepo.GetUsers(ctx, filter)
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Usuário não encontrado")
	}
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error) {
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Name:     strings.TrimSpace(payload.Name),
		Username: normalizedUsername(payload.Username),
		Email:    normalizedEmail(payload.Email.String, payload.Email.Valid),
		Password: hash,
		Role:     authz.Role(payload.Role),
		IsActive: true,
	}

	var created *entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var txErr error
		created, txErr = s.userRepo.CreateUser(ctx, tx, user)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditCreateUser,
		Entity:   "user",
		EntityID: idPtr(created.ID),
		NewValue: created,
	})
	s.logger.Info("CreateUser: пользователь создан", zap.Uint64("userID", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error) {
	actor, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var before, updated *entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.userRepo.FindUserByID(ctx, id)
		if err != nil {
			return orNotFound(err, "Usuário não encontrado")
		}
		snapshot := *current
		before = &snapshot

		if payload.Name.Valid {
			current.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.Username.Valid {
			current.Username = normalizedUsername(payload.Username.String)
		}
		if payload.Email.Valid {
			current.Email = normalizedEmail(payload.Email.String, true)
		}
		if payload.Role.Valid {
			current.Role = authz.Role(payload.Role.String)
		}
		if payload.IsActive.Valid {
			if !payload.IsActive.Bool && current.IsActive {
				if current.ID == actor.UserID {
					return apperrors.NewValidationError("Não é possível desativar o próprio usuário")
				}
				if err := s.ensureNoOpenShipments(ctx, current.ID); err != nil {
					return err
				}
			}
			current.IsActive = payload.IsActive.Bool
		}
		if err := requireUserFields(current); err != nil {
			return err
		}
		if payload.Password.Valid && payload.Password.String != "" {
			hash, err := utils.HashPassword(payload.Password.String)
			if err != nil {
				return err
			}
			current.Password = hash
		}

		updated, err = s.userRepo.UpdateUser(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditUpdateUser,
		Entity:   "user",
		EntityID: idPtr(id),
		OldValue: before,
		NewValue: updated,
	})
	return updated, nil
}

// DeactivateUser: пользователи никогда не удаляются физически.
func (s *UserService) DeactivateUser(ctx context.Context, id uint64) error {
	actor, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return err
	}
	if actor.UserID == id {
		return apperrors.NewValidationError("Não é possível excluir o próprio usuário")
	}

	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return orNotFound(err, "Usuário não encontrado")
	}

	if err := s.ensureNoOpenShipments(ctx, id); err != nil {
		return err
	}

	if err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.userRepo.DeactivateUser(ctx, tx, id)
	}); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditDeactivateUser,
		Entity:   "user",
		EntityID: idPtr(id),
		OldValue: user,
	})
	s.logger.Info("DeactivateUser: пользователь деактивирован", zap.Uint64("userID", id), zap.Uint64("actorID", actor.UserID))
	return nil
}

// ensureNoOpenShipments: пользователь, чьё оборудование в активной отправке, не деактивируется.
func (s *UserService) ensureNoOpenShipments(ctx context.Context, id uint64) error {
	open, err := s.userRepo.CountOpenShipmentsForCreator(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return apperrors.NewConflictError("Usuário possui equipamentos em %d remessa(s) ativa(s)", open)
	}
	return nil
}

func requireUserFields(u *entities.User) error {
	missing := map[string]string{}
	if strings.TrimSpace(u.Name) == "" {
		missing["name"] = "required"
	}
	if strings.TrimSpace(u.Username) == "" {
		missing["username"] = "required"
	}
	if len(missing) > 0 {
		return apperrors.NewFieldValidationError("Campos obrigatórios: nome e usuário", missing)
	}
	return nil
}

// normalizedUsername: логин уникален без учёта регистра и хранится в нижнем регистре.
func normalizedUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizedEmail(email string, valid bool) *string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !valid || email == "" {
		return nil
	}
	return &email
}
