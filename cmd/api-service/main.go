package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/fairchancejobs/jobboard-be/internal/agent"
	"github.com/fairchancejobs/jobboard-be/internal/api/handler"
	"github.com/fairchancejobs/jobboard-be/internal/api/router"
	apistorage "github.com/fairchancejobs/jobboard-be/internal/api/storage"
	"github.com/fairchancejobs/jobboard-be/internal/cleanup"
	"github.com/fairchancejobs/jobboard-be/internal/config"
	"github.com/fairchancejobs/jobboard-be/internal/pipelineclient"
	"github.com/fairchancejobs/jobboard-be/internal/search"
	"github.com/fairchancejobs/jobboard-be/internal/token"
	"github.com/fairchancejobs/jobboard-be/shared/logger"
	"github.com/fairchancejobs/jobboard-be/shared/postgresql"
	"github.com/fairchancejobs/jobboard-be/shared/rabbitmq"
	sharedredis "github.com/fairchancejobs/jobboard-be/shared/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	// Initialize Redis client for the ingest dedup cache
	redisClient, err := sharedredis.NewClient(&sharedredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}

	appLogger.Info("Redis connection established")

	// Initialize the search engine client
	searchClient, err := search.NewClient(&search.Config{
		URL:        cfg.Typesense.URL,
		APIKey:     cfg.Typesense.APIKey,
		Collection: cfg.Typesense.Collection,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize search client: %w", err)
	}

	// Initialize the scrape-pipeline admin client
	pipelineClient, err := pipelineclient.NewClient(cfg.Pipeline.URL, cfg.Pipeline.Secret)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline client: %w", err)
	}

	// Initialize the magic-link signer for employer access
	magicLink, err := token.NewMagicLink(cfg.Auth.MagicLinkSecret, cfg.Auth.MagicLinkTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize magic link signer: %w", err)
	}

	// The chat agent is optional: without an API key the /chat endpoint
	// returns 503 instead of failing startup.
	var chatAgent *agent.Agent
	if cfg.Agent.GroqAPIKey != "" {
		chatAgent, err = agent.New(&agent.Config{
			APIKey:   cfg.Agent.GroqAPIKey,
			Model:    cfg.Agent.Model,
			MaxTurns: cfg.Agent.MaxTurns,
		}, appLogger.Logger, searchClient)
		if err != nil {
			return fmt.Errorf("failed to initialize chat agent: %w", err)
		}
		appLogger.Info("Chat agent enabled", slog.String("model", cfg.Agent.Model))
	} else {
		appLogger.Warn("GROQ_API_KEY not set, chat agent disabled")
	}

	cleanupOrchestrator := cleanup.NewOrchestrator(
		appLogger.Logger,
		apistorage.NewStorage(dbClient),
		pipelineClient,
		redisClient.GetRDB(),
	)

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, &routerClients{
		db:        dbClient,
		rabbit:    rabbitClient,
		redis:     redisClient,
		search:    searchClient,
		pipeline:  pipelineClient,
		cleanup:   cleanupOrchestrator,
		magicLink: magicLink,
		agent:     chatAgent,
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	// Cleanup function to close all resources
	closeAll := func() {
		cancel()
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
		if redisClient != nil {
			redisClient.Close()
		}
	}
	defer closeAll()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// routerClients bundles the initialized clients handed to the router.
type routerClients struct {
	db        *postgresql.Client
	rabbit    *rabbitmq.Client
	redis     *sharedredis.Client
	search    *search.Client
	pipeline  *pipelineclient.Client
	cleanup   *cleanup.Orchestrator
	magicLink *token.MagicLink
	agent     *agent.Agent
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, clients *routerClients) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:       logger,
		Config:       cfg,
		DBClient:     clients.db,
		RabbitClient: clients.rabbit,
		RedisClient:  clients.redis,
		SearchClient: clients.search,
		Pipeline:     clients.pipeline,
		Cleanup:      clients.cleanup,
		MagicLink:    clients.magicLink,
		Agent:        clients.agent,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}
