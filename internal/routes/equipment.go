package routes

import (
	"pem-system/internal/authz"
	"pem-system/internal/controllers"
	"pem-system/internal/services"
	"pem-system/pkg/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runEquipmentRouter(secureGroup *echo.Group, equipmentService services.EquipmentServiceInterface, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)

	equipments := secureGroup.Group("/equipments")
	equipments.GET("", equipmentCtrl.GetEquipments, authMW.RequirePermission(authz.ActionView))
	equipments.GET("/:id", equipmentCtrl.FindEquipment, authMW.RequirePermission(authz.ActionView))
	equipments.GET("/:id/history", equipmentCtrl.GetEquipmentHistory, authMW.RequirePermission(authz.ActionView))
	equipments.POST("", equipmentCtrl.CreateEquipment, authMW.RequirePermission(authz.ActionCreate))
	equipments.PUT("/:id", equipmentCtrl.UpdateEquipment, authMW.RequirePermission(authz.ActionEdit))
	equipments.DELETE("/:id", equipmentCtrl.DeleteEquipment, authMW.RequirePermission(authz.ActionDelete))
}
