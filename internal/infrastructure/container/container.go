package container

import (
	"context"
	"fmt"

	"github.com/gdugdh24/roomshare-backend/internal/config"
	"github.com/gdugdh24/roomshare-backend/internal/delivery/http"
	"github.com/gdugdh24/roomshare-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/roomshare-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/clients"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/database"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/events"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/server"
	"github.com/gdugdh24/roomshare-backend/internal/repository/cache"
	"github.com/gdugdh24/roomshare-backend/internal/repository/postgres"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/auth"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/matching"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/sharing"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/views"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *server.Server
	Gemini *gemini.Client
	logger *zap.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	// Initialize database
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	// Initialize Redis
	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Gemini is optional; requests are created without explanations when it is off.
	var geminiClient *gemini.Client
	var explainer matching.Explainer
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini client unavailable, match explanations disabled", zap.Error(err))
		} else {
			explainer = geminiClient
		}
	}

	// Initialize repositories
	roomRepo := postgres.NewRoomRepository(db)
	requirementsRepo := postgres.NewRequirementsRepository(db)
	requestRepo := cache.NewMatchingRequestCache(
		postgres.NewMatchingRequestRepository(db),
		redisClient,
		cfg.Redis.CacheTTL,
		logger,
	)

	// External services
	clientOpts := func(baseURL string) clients.Options {
		return clients.Options{
			BaseURL:    baseURL,
			Timeout:    cfg.Services.Timeout,
			RetryCount: cfg.Services.RetryCount,
		}
	}
	verificationClient := clients.NewVerificationClient(clientOpts(cfg.Services.VerificationURL), logger)
	matchingClient := clients.NewMatchingClient(clientOpts(cfg.Services.MatchingURL), logger)
	contractsClient := clients.NewContractsClient(clientOpts(cfg.Services.ContractsURL), logger)
	var directory views.RoomDirectory
	if cfg.Services.ListingURL != "" {
		directory = clients.NewListingClient(clientOpts(cfg.Services.ListingURL), logger)
	}

	publisher := events.NewPublisher(redisClient, logger)

	// Initialize use cases
	tokenUseCase := auth.NewTokenUseCase(cfg.JWT.AccessSecret)

	sharingUseCase := sharing.NewSharingUseCase(
		roomRepo,
		requirementsRepo,
		verificationClient,
		publisher,
		logger,
	)

	matchingUseCase := matching.NewMatchingUseCase(
		requestRepo,
		roomRepo,
		requirementsRepo,
		matchingClient,
		contractsClient,
		explainer,
		publisher,
		logger,
		matching.Options{
			DecisionTimeout: cfg.Matching.DecisionTimeout,
			ExplainTimeout:  cfg.Matching.ExplainTimeout,
		},
	)

	viewsUseCase := views.NewViewsUseCase(
		requestRepo,
		roomRepo,
		directory,
		cfg.Matching.RecommendThreshold,
		logger,
	)

	// Initialize handlers
	sharingHandler := handler.NewSharingHandler(sharingUseCase, logger)
	matchingHandler := handler.NewMatchingHandler(matchingUseCase, viewsUseCase, logger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenUseCase)

	// Initialize router
	router := http.NewRouter(
		sharingHandler,
		matchingHandler,
		authMiddleware,
		logger,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter, logger)

	return &Container{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Server: srv,
		Gemini: geminiClient,
		logger: logger,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			c.logger.Warn("error closing gemini client", zap.Error(err))
		}
	}

	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Warn("error closing redis", zap.Error(err))
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
