package routes

import (
	"pem-system/internal/authz"
	"pem-system/internal/controllers"
	"pem-system/internal/services"
	"pem-system/pkg/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runShipmentRouter(secureGroup *echo.Group, shipmentService services.ShipmentServiceInterface, logger *zap.Logger, authMW *middleware.AuthMiddleware) {
	shipmentCtrl := controllers.NewShipmentController(shipmentService, logger)

	shipments := secureGroup.Group("/shipments")
	shipments.GET("", shipmentCtrl.GetShipments, authMW.RequirePermission(authz.ActionView))
	shipments.GET("/:id", shipmentCtrl.FindShipment, authMW.RequirePermission(authz.ActionView))
	shipments.POST("", shipmentCtrl.CreateShipment, authMW.RequirePermission(authz.ActionCreate))
	shipments.PUT("/:id", shipmentCtrl.UpdateShipment, authMW.RequirePermission(authz.ActionEdit))
	shipments.POST("/:id/receive", shipmentCtrl.ReceiveShipment, authMW.RequirePermission(authz.ActionEdit))
	shipments.DELETE("/:id", shipmentCtrl.DeleteShipment, authMW.RequirePermission(authz.ActionDelete))
}
