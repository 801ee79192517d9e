package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"monedero/internal/config"
	"monedero/internal/database"
	"monedero/internal/events"
	"monedero/internal/handlers"
	"monedero/internal/logger"
	"monedero/internal/middleware"
	"monedero/internal/services"
	"monedero/internal/validator"
)

// @title           Monedero API
// @version         1.0
// @description     Monedero is a personal and shared finance application: pockets with balances, income and expense tracking, pocket transfers and group contributions.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Change-notification bus; optional, sessions fall back to polling
	var bus events.Bus = events.Nop()
	if appConfig.AMQPURL != "" {
		amqpBus, err := events.NewAMQPBus(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			log.Warnf("Change notifications disabled: %v", err)
		} else {
			bus = amqpBus
			defer bus.Close()
		}
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	pocketService := services.NewPocketService(db, bus)
	categoryService := services.NewCategoryService(db, bus)
	transactionService := services.NewTransactionService(db, pocketService, bus)
	contributionService := services.NewContributionService(db, pocketService, bus)
	groupService := services.NewGroupService(db, bus)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	pocketHandler := handlers.NewPocketHandler(pocketService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	contributionHandler := handlers.NewContributionHandler(contributionService)
	groupHandler := handlers.NewGroupHandler(groupService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/currency", authHandler.UpdateCurrency)

	// Pocket routes
	pockets := protected.Group("/pockets")
	pockets.POST("", pocketHandler.CreatePocket)
	pockets.GET("", pocketHandler.GetPockets)
	pockets.GET("/:id", pocketHandler.GetPocket)
	pockets.PUT("/:id", pocketHandler.UpdatePocket)
	pockets.DELETE("/:id", pocketHandler.DeletePocket)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Transfers between pockets of the same context
	protected.POST("/transfers", transactionHandler.CreateTransfer)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Group routes
	groups := protected.Group("/groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.GetGroups)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.POST("/:id/members", groupHandler.AddMember)
	groups.GET("/:id/members", groupHandler.GetMembers)
	groups.PUT("/:id/members/:user_id/role", groupHandler.ChangeMemberRole)

	// Contribution routes
	contributions := protected.Group("/contributions")
	contributions.POST("", contributionHandler.CreateContribution)
	contributions.GET("", contributionHandler.GetContributions)

	log.Infof("Starting Monedero backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
