package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pem-system/internal/authz"
	"pem-system/internal/dto"
	"pem-system/internal/entities"
	"pem-system/internal/repositories"
	"pem-system/pkg/config"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/metrics"
	"pem-system/pkg/service"
	"pem-system/pkg/utils"

	"go.uber.org/zap"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error)
	Logout(ctx context.Context)
	Me(ctx context.Context) (*dto.MeResponseDTO, error)
}

type AuthService struct {
	userRepo        repositories.UserRepositoryInterface
	cacheRepo       repositories.CacheRepositoryInterface
	jwtSvc          service.JWTService
	audit           AuditServiceInterface
	logger          *zap.Logger
	cfg             *config.AuthConfig
	comparePassword func(hash, plain string) error
}

// dummyPasswordHash сравнивается при неизвестном логине, чтобы время ответа
// не выдавало существование пользователя.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := utils.HashPassword("pem-login-placeholder")
	if err != nil {
		return ""
	}
	return hash
})

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtSvc service.JWTService,
	audit AuditServiceInterface,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:        userRepo,
		cacheRepo:       cacheRepo,
		jwtSvc:          jwtSvc,
		audit:           audit,
		logger:          logger,
		cfg:             cfg,
		comparePassword: utils.ComparePasswords,
	}
}

// Login: неизвестный логин и неверный пароль дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error) {
	login := strings.ToLower(strings.TrimSpace(payload.Username))
	logger := s.logger.With(zap.String("login", login))

	if err := s.checkLockout(ctx, login); err != nil {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		logger.Warn("Login: учётная запись временно заблокирована")
		return nil, err
	}

	user, err := s.userRepo.FindUserByLogin(ctx, login)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		_ = s.comparePassword(dummyPasswordHash(), payload.Password)
		s.handleFailedLoginAttempt(ctx, login)
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.comparePassword(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, login)
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		logger.Warn("Login: неверный пароль", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		logger.Warn("Login: попытка входа неактивного пользователя", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrUserInactive
	}

	s.resetLoginAttempts(ctx, login)

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать токен: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.audit.Record(ctx, AuditEntry{
		UserID:   idPtr(user.ID),
		Action:   entities.AuditLogin,
		Entity:   "user",
		EntityID: idPtr(user.ID),
	})
	logger.Info("Login: пользователь вошёл в систему", zap.Uint64("userID", user.ID))

	return &dto.LoginResponseDTO{
		User:      sessionUser(user),
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtSvc.GetAccessTokenTTL()),
	}, nil
}

// Logout не требует действительной сессии: аудит пишется только при её наличии.
func (s *AuthService) Logout(ctx context.Context) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		UserID:   idPtr(identity.UserID),
		Action:   entities.AuditLogout,
		Entity:   "user",
		EntityID: idPtr(identity.UserID),
	})
}

func (s *AuthService) Me(ctx context.Context) (*dto.MeResponseDTO, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	return &dto.MeResponseDTO{User: sessionUser(user)}, nil
}

func sessionUser(user *entities.User) dto.SessionUserDTO {
	return dto.SessionUserDTO{
		ID:          user.ID,
		Name:        user.Name,
		Username:    user.Username,
		Role:        user.Role,
		Permissions: authz.Permissions(user.Role),
	}
}

func (s *AuthService) checkLockout(ctx context.Context, login string) error {
	lockoutKey := fmt.Sprintf("lockout:%s", login)

	// Если ключ существует - вход заблокирован
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, login string) {
	attemptsKey := fmt.Sprintf("login_attempts:%s", login)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("handleFailedLoginAttempt: счётчик попыток недоступен", zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf("lockout:%s", login)
		_, _ = s.cacheRepo.SetNX(ctx, lockoutKey, "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, login string) {
	attemptsKey := fmt.Sprintf("login_attempts:%s", login)
	lockoutKey := fmt.Sprintf("lockout:%s", login)
	_ = s.cacheRepo.Del(ctx, attemptsKey, lockoutKey)
}
