package controllers

import (
	"net/http"
	"time"

	"pem-system/internal/dto"
	"pem-system/internal/services"
	"pem-system/pkg/config"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthController struct {
	authService services.AuthServiceInterface
	jwtCfg      config.JWTConfig
	logger      *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, jwtCfg config.JWTConfig, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, jwtCfg: jwtCfg, logger: logger}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

// Login выдаёт токен в теле ответа и в HTTP-only cookie.
func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Error("Login: ошибка привязки данных", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Formato de dados inválido"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	res, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.String("login", payload.Username), zap.Error(err))
		return ctrl.errorResponse(c, err)
	}

	c.SetCookie(ctrl.sessionCookie(res.Token, res.ExpiresAt))
	return utils.SuccessResponse(c, res, "Login realizado com sucesso", http.StatusOK)
}

// Logout работает и без действующей сессии.
func (ctrl *AuthController) Logout(c echo.Context) error {
	ctrl.authService.Logout(c.Request().Context())
	c.SetCookie(ctrl.sessionCookie("", time.Unix(0, 0)))
	return utils.SuccessResponse(c, nil, "Logout realizado com sucesso", http.StatusOK)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	res, err := ctrl.authService.Me(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return utils.SuccessResponse(c, res, "Sessão ativa", http.StatusOK)
}

func (ctrl *AuthController) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     ctrl.jwtCfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   ctrl.jwtCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(time.Until(expires).Seconds())
	}
	return cookie
}
