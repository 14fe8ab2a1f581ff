package main

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/greenridge/farmops/internal/handler"
	mid "github.com/greenridge/farmops/internal/middleware"
	"github.com/greenridge/farmops/internal/model"
	"github.com/greenridge/farmops/internal/store"
	"github.com/greenridge/farmops/pkg/config"
	"github.com/greenridge/farmops/pkg/database"
	"github.com/greenridge/farmops/pkg/jwtutil"
	"github.com/greenridge/farmops/pkg/logger"
	"github.com/greenridge/farmops/prometheus"
)

func main() {
	// Load configuration (reads .env if present)
	appConfig, err := config.Load("farmops")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting farmops",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port),
		zap.String("store_backend", appConfig.Store.Backend))

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database. Postgres always backs users, tenants, accounts
	// and batches; the inventory ledger backend is selected below.
	db, err := database.Connect(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	health := handler.NewHealthHandler(appConfig.ServiceName)
	health.AddCheck("postgres", func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})

	// Inventory ledger backend
	var transactions store.TransactionStore
	switch appConfig.Store.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     appConfig.Redis.Addr,
			Password: appConfig.Redis.Password,
			DB:       appConfig.Redis.DB,
		})
		transactions = store.NewRedisStore(client)
		health.AddCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(ctx).Err()
		})
		log.Info("Inventory ledger backed by key-value store",
			zap.String("addr", appConfig.Redis.Addr))
	default:
		transactions = store.NewPGInventoryStore(db)
		log.Info("Inventory ledger backed by relational store")
	}

	accounts := store.NewPGAccountsStore(db)
	batches := store.NewPGBatchStore(db)

	inventoryHandler := handler.NewInventoryHandler(transactions)
	deploymentHandler := handler.NewDeploymentHandler(accounts)
	reportHandler := handler.NewReportHandler(accounts)
	exportHandler := handler.NewExportHandler(accounts)
	batchHandler := handler.NewBatchHandler(batches)
	authHandler := handler.NewAuthHandler(db, jwt)
	tenantHandler := handler.NewTenantHandler(db)

	// Suspended tenants are rejected at the middleware before any handler runs.
	tenantStatus := func(ctx context.Context, tenantID uint) (string, error) {
		var tenant model.Tenant
		if err := db.WithContext(ctx).Select("status").First(&tenant, tenantID).Error; err != nil {
			return "", err
		}
		return tenant.Status, nil
	}

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", health.Health)

	// Public auth routes
	e.POST("/api/auth/signup", authHandler.Signup)
	e.POST("/api/auth/login", authHandler.Login)

	auth := mid.Auth(jwt, tenantStatus)

	authAPI := e.Group("/api/auth", auth)
	authAPI.GET("/me", authHandler.Me)

	tenantAPI := e.Group("/api/tenants", auth)
	tenantAPI.GET("/current", tenantHandler.GetTenant)
	tenantAPI.GET("/mine", tenantHandler.ListMyTenants)
	tenantAPI.PUT("/current", tenantHandler.UpdateTenant)
	tenantAPI.POST("/current/activate", tenantHandler.Activate)
	tenantAPI.POST("/current/suspend", tenantHandler.Suspend)

	inventoryAPI := e.Group("/api/inventory", auth)
	inventoryAPI.GET("/items", inventoryHandler.ListItems)
	inventoryAPI.GET("/transactions", inventoryHandler.ListTransactions)
	inventoryAPI.POST("/transactions", inventoryHandler.CreateTransaction)
	inventoryAPI.PUT("/transactions/:id", inventoryHandler.UpdateTransaction)
	inventoryAPI.DELETE("/transactions/:id", inventoryHandler.DeleteTransaction)
	inventoryAPI.POST("/import", inventoryHandler.ImportTransactions)

	deploymentAPI := e.Group("/api/deployments", auth)
	deploymentAPI.GET("/labor", deploymentHandler.ListLabor)
	deploymentAPI.GET("/labor/:id", deploymentHandler.GetLabor)
	deploymentAPI.POST("/labor", deploymentHandler.CreateLabor)
	deploymentAPI.PUT("/labor/:id", deploymentHandler.UpdateLabor)
	deploymentAPI.DELETE("/labor/:id", deploymentHandler.DeleteLabor)
	deploymentAPI.GET("/consumables", deploymentHandler.ListConsumables)
	deploymentAPI.GET("/consumables/:id", deploymentHandler.GetConsumable)
	deploymentAPI.POST("/consumables", deploymentHandler.CreateConsumable)
	deploymentAPI.PUT("/consumables/:id", deploymentHandler.UpdateConsumable)
	deploymentAPI.DELETE("/consumables/:id", deploymentHandler.DeleteConsumable)

	accountAPI := e.Group("/api/accounts", auth)
	accountAPI.GET("/activities", deploymentHandler.ListActivities)
	accountAPI.POST("/activities", deploymentHandler.SaveActivity)
	accountAPI.DELETE("/activities/:code", deploymentHandler.DeleteActivity)

	reportAPI := e.Group("/api/reports", auth)
	reportAPI.GET("/accounting", reportHandler.AccountingSummary)

	exportAPI := e.Group("/api/exports", auth)
	exportAPI.GET("/accounting.csv", exportHandler.ExportCSV)
	exportAPI.GET("/deployments.qif", exportHandler.ExportQIF)
	exportAPI.POST("/deployments.qif", exportHandler.ImportQIF)

	batchAPI := e.Group("/api/batches", auth)
	batchAPI.GET("", batchHandler.ListBatches)
	batchAPI.GET("/:id", batchHandler.GetBatch)
	batchAPI.POST("", batchHandler.CreateBatch)
	batchAPI.PUT("/:id", batchHandler.UpdateBatch)
	batchAPI.DELETE("/:id", batchHandler.DeleteBatch)
	batchAPI.POST("/:id/checkpoints", batchHandler.AddCheckpoint)
	batchAPI.GET("/:id/checkpoints", batchHandler.ListCheckpoints)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
