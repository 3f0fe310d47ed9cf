package main

import (
	"log"
	"os"

	"fs25hub/internal/database"
	"fs25hub/internal/discord"
	"fs25hub/internal/handler"
	"fs25hub/internal/middleware"
	"fs25hub/internal/repository"
	"fs25hub/internal/service"
	"fs25hub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           FS25 Hub API
// @version         1.0
// @description     Companion site API: accounts, marketplace, bank ledger and the DOT ticketing subsystem.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Outbound Discord integration; both are optional and disable themselves
	// when unconfigured.
	notifier := discord.NewNotifier(os.Getenv("DISCORD_WEBHOOK_URL"), os.Getenv("DISCORD_WEBHOOK_USERNAME"))
	oauthClient := discord.NewOAuthClient(
		os.Getenv("DISCORD_CLIENT_ID"),
		os.Getenv("DISCORD_CLIENT_SECRET"),
		os.Getenv("DISCORD_REDIRECT_URL"),
	)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	inspectionRepo := repository.NewInspectionRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	permitRepo := repository.NewPermitRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	ledgerService := service.NewLedgerService(userRepo, transactionRepo)
	authService := service.NewAuthService(userRepo, txManager, oauthClient, middleware.GetJWTSecret())
	marketService := service.NewMarketService(productRepo, orderRepo, userRepo, auditRepo, ledgerService, txManager, notifier, wsHub)
	ticketService := service.NewTicketService(ticketRepo, userRepo, vehicleRepo, auditRepo, ledgerService, txManager, wsHub)
	vehicleService := service.NewVehicleService(vehicleRepo, inspectionRepo, auditRepo, txManager)
	permitService := service.NewPermitService(permitRepo, vehicleRepo, auditRepo, txManager, wsHub)
	adminService := service.NewAdminService(userRepo, companyRepo, auditRepo, txManager)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	marketHandler := handler.NewMarketHandler(marketService, ledgerService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	permitHandler := handler.NewPermitHandler(permitService)
	adminHandler := handler.NewAdminHandler(adminService)

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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	marketHandler.RegisterRoutes(router.Group(""))
	ticketHandler.RegisterRoutes(router.Group(""))
	vehicleHandler.RegisterRoutes(router.Group(""))
	permitHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
