package routes

import (
	"pem-system/internal/controllers"
	"pem-system/internal/services"
	"pem-system/pkg/config"
	"pem-system/pkg/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runAuthRouter(api *echo.Group, authService services.AuthServiceInterface, jwtCfg config.JWTConfig, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	authCtrl := controllers.NewAuthController(authService, jwtCfg, logger)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/logout", authCtrl.Logout, authMW.Optional)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}
}
