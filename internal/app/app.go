package app

import (
	"context"
	"errors"
	"fmt"

	"medimind_backend/database"
	"medimind_backend/internal/auth"
	"medimind_backend/internal/config"
	"medimind_backend/internal/email"
	"medimind_backend/internal/handlers"
	"medimind_backend/internal/llm"
	"medimind_backend/internal/logger"
	"medimind_backend/internal/middleware"
	"medimind_backend/internal/models"
	"medimind_backend/internal/routes"
	"medimind_backend/internal/services"
	"medimind_backend/internal/validator"
	"medimind_backend/internal/workers"
	"medimind_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79/client"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	apperrors.SetDebug(cfg.Server.Env == "development")

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin", "error", err)
	}

	if err := seedDefaultPlan(gormDB); err != nil {
		logger.Fatal("Failed to seed default plan", "error", err)
	}

	ginRouter, err := SetupRouter(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workers.NewSubscriptionWorker(gormDB).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, error) {
	stripeClient := &client.API{}
	stripeClient.Init(cfg.Stripe.SecretKey, nil)

	llmClient := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	mailSender := email.NewProvider(cfg)

	serviceContainer, err := services.NewServiceContainer(stripeClient, llmClient, mailSender)
	if err != nil {
		return nil, err
	}

	appHandlers := initializeHandlers(serviceContainer)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter, nil
}

func initializeHandlers(sc *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, sc.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, sc.UserService, sc.LedgerService),
		ConsultationHandler: handlers.NewConsultationHandler(baseHandler, sc.ConsultationService, sc.DoctorService),
		BillingHandler:      handlers.NewBillingHandler(baseHandler, sc.BillingService, sc.PlanService),
		WebhookHandler:      handlers.NewWebhookHandler(baseHandler, sc.WebhookService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, sc.AuthService, sc.AdminService, sc.PlanService, sc.SettingsService, sc.AnalyticsService),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstAdmin creates the bootstrap admin account when the
// configured email does not exist yet.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("First admin credentials not configured. Skipping admin seeding.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.Admin
		err := tx.Where("email = ?", cfg.FirstAdminEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for admin: %w", err)
		}

		hash, err := auth.HashPassword(cfg.FirstAdminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		logger.Warn("No admin found. Creating first admin.", "email", cfg.FirstAdminEmail)
		return tx.Create(&models.Admin{
			Name:         "Administrator",
			Email:        cfg.FirstAdminEmail,
			PasswordHash: hash,
			Role:         "admin",
			Active:       true,
		}).Error
	})
}

// seedDefaultPlan inserts a starter plan when the table is empty so a
// fresh deployment has something to sell. The admin panel edits it
// afterwards, including the Stripe price binding.
func seedDefaultPlan(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Plan{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("No plans found. Creating default plan.")
	return db.Create(&models.Plan{
		Name:          "Pro",
		Description:   "Monthly subscription with full specialist access",
		Price:         19.99,
		Currency:      "USD",
		Interval:      "month",
		IntervalCount: 1,
		Credits:       100,
	}).Error
}
