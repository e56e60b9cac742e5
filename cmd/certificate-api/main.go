package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"event-system/feedback-portal/feedback-portal-backend/internal/certificates"
	"event-system/feedback-portal/feedback-portal-backend/internal/certificates/scheduler"
	"event-system/feedback-portal/feedback-portal-backend/internal/config"
	wsevents "event-system/feedback-portal/feedback-portal-backend/internal/events/websocket"
	"event-system/feedback-portal/feedback-portal-backend/internal/forms"
	"event-system/feedback-portal/feedback-portal-backend/internal/mail"
	pdfkit "event-system/feedback-portal/feedback-portal-backend/pkg/pdf"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load .env if present, then config file and environment overrides
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	logger.Info("Connecting to MongoDB", zap.String("database", cfg.Mongo.Database))
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	db := client.Database(cfg.Mongo.Database)
	if err := certificates.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("Failed to ensure indexes", zap.Error(err))
	}

	// SES mail transport
	awsOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Mail.AWSRegion != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.Mail.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		logger.Fatal("Failed to load AWS configuration", zap.Error(err))
	}
	transport := mail.NewSESTransport(sesv2.NewFromConfig(awsCfg), logger)

	// PDF composition
	metrics := pdfkit.LoadFontMetrics()
	compositor := certificates.NewCompositor(metrics)

	// Repositories and event fan-out
	certRepo := certificates.NewRepository(db)
	formsRepo := forms.NewRepository(db)
	wsManager := wsevents.NewManager(logger)
	defer wsManager.Close()

	service := certificates.NewService(certRepo, formsRepo, compositor, transport, wsManager, logger, certificates.Options{
		MaxConcurrentSends: cfg.AutoSend.MaxConcurrentSends,
		SendTimeout:        cfg.Mail.SendTimeout.Std(),
		DefaultFromName:    cfg.Mail.FromName,
		DefaultFromEmail:   cfg.Mail.FromEmail,
	})
	handler := certificates.NewHandler(service, logger)

	// Auto-send sweep scheduler
	sweeper := scheduler.NewManager(service, logger, cfg.AutoSend.Schedule, cfg.AutoSend.SweepTimeout.Std())
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start sweep manager", zap.Error(err))
	}
	defer sweeper.Stop()

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		handler.RegisterRoutes(api)
	}

	// WebSocket event stream
	router.GET("/ws", func(c *gin.Context) {
		if err := wsManager.HandleConnection(c.Writer, c.Request); err != nil {
			logger.Warn("WebSocket upgrade failed", zap.Error(err))
		}
	})

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
