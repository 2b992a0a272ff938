package main

import (
	"context"
	"log"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Lab Inventory API
// @version         1.0
// @description     Lab inventory management with per-lab access control and an append-only audit log.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.NewConnection(buildDSN())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.SeedReservedRoles(context.Background(), db); err != nil {
		logger.Fatal("reserved role seeding failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	labRepo := repository.NewLabRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	itemRepo := repository.NewItemRepository(db)
	labItemRepo := repository.NewLabInventoryRepository(db)
	logRepo := repository.NewInventoryLogRepository(db)

	auditLogger := service.NewAuditLogger(logRepo, logger)
	permissionService := service.NewPermissionService(userRepo, memberRepo, logger)
	authService := service.NewAuthService(userRepo, middleware.GetJWTSecret())
	memberService := service.NewMemberService(labRepo, userRepo, roleRepo, memberRepo, txManager, logger)
	inventoryService := service.NewInventoryService(labRepo, itemRepo, labItemRepo, logRepo, auditLogger, txManager, wsHub, logger)
	logService := service.NewLogService(logRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, permissionService)
	logHandler := handler.NewLogHandler(logService, permissionService)
	memberHandler := handler.NewMemberHandler(memberService, permissionService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint (per-lab event stream)
	router.GET("/ws/:labId", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Public auth routes
	authHandler.RegisterRoutes(router.Group(""))

	// The lab interface and the admin panel expose the same operations on
	// separate route groups; the surface tag is what ends up in the audit
	// trail's source column.
	labGroup := router.Group("/lab", middleware.RequireAuth(), middleware.Surface(service.SurfaceLab))
	adminGroup := router.Group("/admin/labs", middleware.RequireAuth(), middleware.Surface(service.SurfaceAdmin))
	for _, group := range []*gin.RouterGroup{labGroup, adminGroup} {
		inventoryHandler.RegisterRoutes(group)
		logHandler.RegisterRoutes(group)
		memberHandler.RegisterRoutes(group)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("GIN_MODE") == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func buildDSN() string {
	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	return "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
