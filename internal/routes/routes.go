package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pem-system/internal/controllers"
	"pem-system/internal/repositories"
	"pem-system/internal/services"
	"pem-system/pkg/config"
	"pem-system/pkg/middleware"
	"pem-system/pkg/service"
	"pem-system/seeders"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	User      *zap.Logger
	Equipment *zap.Logger
	Shipment  *zap.Logger
	Import    *zap.Logger
	Audit     *zap.Logger
}

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, cfg.JWT.CookieName, loggers.Auth)
	txManager := repositories.NewTxManager(dbConn)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.User)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, loggers.Equipment)
	shipmentRepo := repositories.NewShipmentRepository(dbConn, loggers.Shipment)
	historyRepo := repositories.NewHistoryRepository(dbConn, loggers.Main)
	importLogRepo := repositories.NewImportLogRepository(dbConn, loggers.Import)
	auditRepo := repositories.NewAuditLogRepository(dbConn, loggers.Audit)
	dashboardRepo := repositories.NewDashboardRepository(dbConn, loggers.Main)

	// --- 2. СЕРВИСЫ ---
	auditService := services.NewAuditService(auditRepo, loggers.Audit)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, auditService, loggers.Auth, &cfg.Auth)
	userService := services.NewUserService(txManager, userRepo, auditService, loggers.User)
	equipmentService := services.NewEquipmentService(txManager, equipmentRepo, historyRepo, auditService, loggers.Equipment)
	shipmentService := services.NewShipmentService(txManager, shipmentRepo, equipmentRepo, historyRepo, auditService, loggers.Shipment)
	importService := services.NewImportService(txManager, equipmentRepo, historyRepo, importLogRepo, auditService, loggers.Import)
	exportService := services.NewExportService(equipmentRepo, auditService, loggers.Import)
	dashboardService := services.NewDashboardService(dashboardRepo, loggers.Main)
	seedService := services.NewSeedService(seeders.NewSeeder(dbConn, loggers.Main), auditService, loggers.Main)

	// --- 3. РОУТЕРЫ ---
	e.GET("/health", controllers.NewHealthController(dbConn, redisClient, loggers.Main).Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	runAuthRouter(api, authService, cfg.JWT, loggers.Auth, authMW)
	runSeedRouter(api, seedService, cfg.Seed.Enabled, loggers.Main)

	secureGroup := api.Group("", authMW.Auth)

	runEquipmentRouter(secureGroup, equipmentService, loggers.Equipment, authMW)
	runShipmentRouter(secureGroup, shipmentService, loggers.Shipment, authMW)
	runUserRouter(secureGroup, userService, loggers.User, authMW)
	runImportExportRouter(secureGroup, importService, exportService, loggers.Import, authMW)
	runDashboardRouter(secureGroup, dashboardService, loggers.Main, authMW)
	runAuditRouter(secureGroup, auditService, loggers.Audit, authMW)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
