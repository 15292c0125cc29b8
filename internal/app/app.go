package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatsaas_backend/internal/access"
	"chatsaas_backend/internal/auth"
	"chatsaas_backend/internal/config"
	"chatsaas_backend/internal/database"
	"chatsaas_backend/internal/email"
	"chatsaas_backend/internal/handlers"
	"chatsaas_backend/internal/logger"
	"chatsaas_backend/internal/middleware"
	"chatsaas_backend/internal/models"
	"chatsaas_backend/internal/relay"
	"chatsaas_backend/internal/repositories"
	"chatsaas_backend/internal/routes"
	"chatsaas_backend/internal/services"
	"chatsaas_backend/internal/storage"
	"chatsaas_backend/internal/validator"
	"chatsaas_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// Deps - внешние зависимости роутера. В тестах подменяются.
type Deps struct {
	Storage storage.Storage
	Relayer relay.Relayer
	Mailer  services.MailDispatcher
	Limiter *middleware.RateLimiter
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg.Database.DSN, !cfg.IsProduction())
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// Если не удалось создать админа (проблемы с БД и т.д.) - не запускаем сервер
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storageInstance, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	dispatcher := email.NewDispatcher(newEmailProvider(cfg), cfg.Email.QueueSize)
	dispatcher.Start(ctx)

	deps := Deps{
		Storage: storageInstance,
		Relayer: relay.NewClient(cfg.RelayTimeout()),
		Mailer:  dispatcher,
		Limiter: middleware.NewRateLimiter(cfg.Chat.RatePerMinute, cfg.Chat.RateBurst),
	}
	ginRouter := SetupRouter(cfg, gormDB, deps)

	workers.NewSubscriptionWorker(gormDB, repositories.NewUserRepository(), time.Hour).Start(ctx)
	workers.NewSessionWorker(gormDB, repositories.NewSessionRepository(), time.Hour, deps.Limiter).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// диспетчер досылает очередь после отмены ctx
	dispatcher.Wait()

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}

func newEmailProvider(cfg *config.Config) email.Provider {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP host is not configured, emails will only be logged")
		return &email.LogProvider{}
	}

	smtpCfg := email.DefaultConfig()
	smtpCfg.Host = cfg.Email.SMTPHost
	smtpCfg.Port = cfg.Email.SMTPPort
	smtpCfg.Username = cfg.Email.SMTPUsername
	smtpCfg.Password = cfg.Email.SMTPPassword
	smtpCfg.FromEmail = cfg.Email.FromEmail
	smtpCfg.FromName = cfg.Email.FromName

	provider := email.NewSMTPProvider(smtpCfg)
	if err := provider.Validate(); err != nil {
		logger.Warn("SMTP config is invalid, falling back to log provider", "error", err)
		return &email.LogProvider{}
	}
	return provider
}

// SetupRouter собирает сервисы, хэндлеры и маршруты. Без побочных эффектов (без горутин).
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, deps Deps) *gin.Engine {
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewRateLimiter(cfg.Chat.RatePerMinute, cfg.Chat.RateBurst)
	}

	// Чат открыт для анонимов всегда, загрузки - по флагу деплоя
	chatPolicy := access.NewPolicy(true)
	downloadPolicy := access.NewPolicy(cfg.Downloads.AllowPublic)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())
	userRepo := repositories.NewUserRepository()
	sessionRepo := repositories.NewSessionRepository()
	resolver := auth.NewResolver(tokens, userRepo, sessionRepo, cfg.Session.CookieName, cfg.JWT.CookieName)

	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(cfg, deps, tokens, chatPolicy, downloadPolicy)

	// 2. Инициализируем хэндлеры
	appHandlers := initializeHandlers(cfg, serviceContainer, resolver, deps.Limiter)

	// 3. Инициализируем Gin
	ginRouter := initializeGinRouter(cfg, gormDB, resolver)

	// 4. Делегируем регистрацию маршрутов пакету 'routes'
	routes.RegisterRoutes(ginRouter, appHandlers, routes.Guards{
		RequireAuth:   middleware.RequireAuth(),
		Admin:         middleware.AdminGate(chatPolicy),
		ChatRateLimit: middleware.RateLimit(deps.Limiter),
	})

	return ginRouter
}

func initializeServices(
	cfg *config.Config,
	deps Deps,
	tokens *auth.TokenManager,
	chatPolicy, downloadPolicy access.Evaluator,
) *services.ServiceContainer {
	// --- Инициализация репозиториев ---
	userRepo := repositories.NewUserRepository()
	sessionRepo := repositories.NewSessionRepository()
	chatbotRepo := repositories.NewChatbotRepository()
	conversationRepo := repositories.NewConversationRepository()
	downloadRepo := repositories.NewDownloadRepository()
	promotionRepo := repositories.NewPromotionRepository()
	templateRepo := repositories.NewEmailTemplateRepository()
	siteConfigRepo := repositories.NewSiteConfigRepository()
	blogRepo := repositories.NewBlogRepository()
	paymentEventRepo := repositories.NewPaymentEventRepository()

	// --- Инициализация сервисов ---
	emailTemplateService := services.NewEmailTemplateService(templateRepo, deps.Mailer, cfg.Email.FromEmail, email.TemplateData{
		"siteUrl":  cfg.Server.SiteURL,
		"siteName": cfg.Email.FromName,
	})
	authService := services.NewAuthService(userRepo, sessionRepo, tokens, emailTemplateService, cfg.Server.SiteURL)
	oauthService := services.NewOAuthService(services.OAuthConfig{
		ClientID:     cfg.OAuth.Google.ClientID,
		ClientSecret: cfg.OAuth.Google.ClientSecret,
		RedirectURL:  cfg.OAuth.Google.RedirectURL,
		SessionTTL:   cfg.SessionTTL(),
	}, userRepo, sessionRepo, tokens)
	chatbotService := services.NewChatbotService(chatbotRepo, cfg.Chat.DefaultWebhookURL)
	chatService := services.NewChatService(chatbotRepo, conversationRepo, chatPolicy, deps.Relayer, services.ChatConfig{
		DefaultWebhookURL: cfg.Chat.DefaultWebhookURL,
		ApologyMessage:    cfg.Chat.ApologyMessage,
		HistoryLimit:      cfg.Chat.HistoryLimit,
	})
	downloadService := services.NewDownloadService(downloadRepo, deps.Storage, downloadPolicy, cfg.Downloads.MaxSize)
	promotionService := services.NewPromotionService(promotionRepo)
	siteService := services.NewSiteService(siteConfigRepo, blogRepo)
	adminService := services.NewAdminService(userRepo, chatbotRepo, conversationRepo, downloadRepo, deps.Relayer, cfg.Chat.DefaultWebhookURL)
	paymentService := services.NewPaymentService(cfg.Payment.WebhookSecret, userRepo, paymentEventRepo, emailTemplateService)

	return &services.ServiceContainer{
		AuthService:          authService,
		OAuthService:         oauthService,
		ChatbotService:       chatbotService,
		ChatService:          chatService,
		DownloadService:      downloadService,
		PromotionService:     promotionService,
		EmailTemplateService: emailTemplateService,
		SiteService:          siteService,
		AdminService:         adminService,
		PaymentService:       paymentService,
	}
}

func initializeHandlers(cfg *config.Config, services *services.ServiceContainer, resolver *auth.Resolver, limiter *middleware.RateLimiter) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	cookies := handlers.CookieConfig{
		TokenName:   cfg.JWT.CookieName,
		SessionName: cfg.Session.CookieName,
		StateName:   "oauth-state",
		TokenTTL:    cfg.TokenTTL(),
		SessionTTL:  cfg.SessionTTL(),
		Secure:      cfg.IsProduction(),
	}

	return &handlers.AppHandlers{
		AuthHandler:          handlers.NewAuthHandler(baseHandler, services.AuthService, services.OAuthService, cookies, cfg.Server.SiteURL),
		ChatHandler:          handlers.NewChatHandler(baseHandler, services.ChatService, services.ChatbotService, cookies),
		WSHandler:            handlers.NewWSHandler(baseHandler, services.ChatService, resolver, limiter, cookies, cfg.Server.CORSOrigins),
		DownloadHandler:      handlers.NewDownloadHandler(baseHandler, services.DownloadService),
		PromotionHandler:     handlers.NewPromotionHandler(baseHandler, services.PromotionService),
		EmailTemplateHandler: handlers.NewEmailTemplateHandler(baseHandler, services.EmailTemplateService),
		SiteHandler:          handlers.NewSiteHandler(baseHandler, services.SiteService),
		AdminHandler:         handlers.NewAdminHandler(baseHandler, services.AdminService),
		PaymentHandler:       handlers.NewPaymentHandler(baseHandler, services.PaymentService),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB, resolver *auth.Resolver) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))
	// identity читает БД, поэтому после DBMiddleware
	router.Use(middleware.IdentityMiddleware(resolver))
	router.MaxMultipartMemory = 32 << 20
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := strings.ToLower(strings.TrimSpace(cfg.Admin.Email))
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	userRepo := repositories.NewUserRepository()

	return db.Transaction(func(tx *gorm.DB) error {
		_, err := userRepo.FindByEmail(tx, adminEmail)
		if err == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", err)
		}

		logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

		hashedPassword, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		now := time.Now().UTC()
		newAdmin := &models.User{
			Email:         adminEmail,
			PasswordHash:  &hashedPassword,
			Name:          cfg.Admin.Name,
			Role:          models.UserRoleAdmin,
			Subscription:  models.SubscriptionFree,
			EmailVerified: &now,
		}
		if err := userRepo.Create(tx, newAdmin); err != nil {
			return fmt.Errorf("failed to create admin user in database: %w", err)
		}

		logger.Info("✅ Successfully created first admin user", "email", adminEmail)
		return nil
	})
}
