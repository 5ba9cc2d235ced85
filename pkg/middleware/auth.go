package middleware

import (
	"strings"

	"pem-system/internal/authz"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/service"
	"pem-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	cookieName string
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, cookieName string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		cookieName: cookieName,
		logger:     logger,
	}
}

// extractToken: сначала заголовок Authorization, затем HTTP-only cookie.
func (m *AuthMiddleware) extractToken(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.ErrInvalidAuthHeader
		}
		return strings.TrimSpace(parts[1]), nil
	}

	cookie, err := c.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrEmptyAuthHeader
	}
	return cookie.Value, nil
}

// Resolve превращает токен запроса в Identity.
func (m *AuthMiddleware) Resolve(c echo.Context) (*authz.Identity, error) {
	tokenString, err := m.extractToken(c)
	if err != nil {
		return nil, err
	}

	claims, err := m.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	role, ok := authz.ParseRole(claims.Role)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	return &authz.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     role,
	}, nil
}

// Auth - это основная функция middleware.
// Отсутствующий и невалидный токен дают одинаковый ответ 401.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := m.Resolve(c)
		if err != nil {
			m.logger.Warn("AuthMiddleware: запрос без действительной сессии",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
			return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
		}

		c.SetRequest(c.Request().WithContext(utils.WithIdentity(c.Request().Context(), identity)))
		c.Set("identity", identity)

		m.logger.Debug("AuthMiddleware: пользователь аутентифицирован",
			zap.Uint64("userID", identity.UserID),
			zap.String("role", string(identity.Role)),
		)
		return next(c)
	}
}

// Optional кладёт Identity в контекст, если токен валиден, и не отклоняет запрос.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if identity, err := m.Resolve(c); err == nil {
			c.SetRequest(c.Request().WithContext(utils.WithIdentity(c.Request().Context(), identity)))
			c.Set("identity", identity)
		}
		return next(c)
	}
}

// RequirePermission проверяет право роли до вызова обработчика.
func (m *AuthMiddleware) RequirePermission(action authz.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, _ := utils.GetIdentityFromCtx(c.Request().Context())
			if err := authz.Authorize(identity, action); err != nil {
				fields := []zap.Field{zap.String("action", string(action)), zap.String("uri", c.Request().RequestURI)}
				if identity != nil {
					fields = append(fields, zap.Uint64("userID", identity.UserID), zap.String("role", string(identity.Role)))
				}
				m.logger.Warn("RequirePermission: доступ отклонён", fields...)
				return utils.ErrorResponse(c, err, m.logger)
			}
			return next(c)
		}
	}
}
