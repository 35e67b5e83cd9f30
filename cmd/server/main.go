package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"fraud-screening/internal/client"
	"fraud-screening/internal/config"
	"fraud-screening/internal/consumer"
	"fraud-screening/internal/handler"
	"fraud-screening/internal/repository"
	"fraud-screening/internal/service"
	"fraud-screening/pkg/database"
	"fraud-screening/pkg/logger"
	"fraud-screening/pkg/middleware"
	"fraud-screening/pkg/redis"
)

func main() {
	log := logger.NewLogger("fraud-screening")
	defer log.Sync()

	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewRedisClient(cfg.RedisAddr)
	defer redisClient.Close()

	mongoCtx, cancelMongo := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoURI))
	cancelMongo()
	if err != nil {
		log.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db.DB)
	customerRepo := repository.NewCustomerRepository(db.DB)
	addressRepo := repository.NewAddressRepository(db.DB)
	attributeRepo := repository.NewAttributeRepository(db.DB)
	settingsRepo := repository.NewSettingsRepository(db.DB, redisClient, log)
	archiveRepo := repository.NewArchiveRepository(mongoClient.Database("fraud_screening"))

	// Initialize clients
	fraudClient := client.NewFraudClient(cfg.FraudAPIBaseURL, log)
	hostClient := client.NewHostClient(cfg.HostAPIBaseURL, log)

	// Initialize services
	cardCipher := service.NewCardCipher(cfg.EncryptionKey)
	screeningService := service.NewScreeningService(
		fraudClient,
		orderRepo,
		customerRepo,
		addressRepo,
		attributeRepo,
		settingsRepo,
		archiveRepo,
		hostClient,
		cardCipher,
		cfg.StoreName,
		log,
	)
	modelFactory := service.NewOrderModelFactory(attributeRepo, customerRepo, log)

	// Initialize handlers
	orderHandler := handler.NewOrderHandler(screeningService, modelFactory, orderRepo, log)
	settingsHandler := handler.NewSettingsHandler(settingsRepo, log)

	// Setup router
	router := setupRouter(orderHandler, settingsHandler, hostClient, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Order-placed events trigger screening automatically
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	orderConsumer := consumer.NewOrderPlacedConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, screeningService, orderRepo, log)
	orderConsumer.Start(consumerCtx)

	go func() {
		log.Info("starting fraud screening service", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancelConsumer()
	orderConsumer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func setupRouter(orderHandler *handler.OrderHandler, settingsHandler *handler.SettingsHandler, permissions middleware.PermissionChecker, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		orders.Use(middleware.RequirePermission(permissions, "manage_orders", log))
		{
			orders.POST("/:order_id/screen", orderHandler.ScreenOrder)
			orders.POST("/:order_id/approve", orderHandler.ApproveOrder)
			orders.POST("/:order_id/reject", orderHandler.RejectOrder)
			orders.POST("/:order_id/blacklist", orderHandler.BlacklistOrder)
			orders.GET("/:order_id/fraud", orderHandler.GetFraudPanel)
		}

		panel := v1.Group("/panel")
		panel.Use(middleware.RequirePermission(permissions, "manage_orders", log))
		{
			panel.POST("/hide", orderHandler.HidePanel)
		}

		settings := v1.Group("/settings")
		settings.Use(middleware.RequirePermission(permissions, "manage_plugins", log))
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
		}
	}

	return router
}
