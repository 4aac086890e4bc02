package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"listing-service/internal/adapters/local_events"
	logger_adapter "listing-service/internal/adapters/logger"
	"listing-service/internal/adapters/notifier"
	postgres_adapter "listing-service/internal/adapters/postgres"
	rabbitmq_adapter "listing-service/internal/adapters/rabbitmq"
	"listing-service/internal/adapters/redis_cache"
	"listing-service/internal/adapters/rest"
	"listing-service/internal/adapters/supabase"
	"listing-service/internal/configs"
	"listing-service/internal/constants"
	"listing-service/internal/core/browse"
	"listing-service/internal/core/port"
	"listing-service/internal/core/usecase"
	fluentlogger "listing-service/pkg/fluent_logger"
	"listing-service/pkg/postgres"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_consumer"
	"listing-service/pkg/rabbitmq/rabbitmq_producer"
	"listing-service/pkg/redis"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 10 * time.Second

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	dbPool        *pgxpool.Pool
	redisClient   *redis.Client
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	logger        port.LoggerPort

	apiServer     *rest.Server
	sseNotifier   *notifier.SSENotifier
	browseManager *browse.Manager

	// nil, если RabbitMQ выключен
	cacheInvalidationListener port.EventListenerPort
}

// NewApp создает новый экземпляр приложения.
// Здесь все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.IsJSON,
		UseColor: !appConfig.StdoutLogger.IsJSON,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	app := &App{
		config:       appConfig,
		fluentClient: fluentClient,
		logger:       appLogger,
	}

	if err := app.wire(baseLogger); err != nil {
		app.closeResources()
		return nil, err
	}
	return app, nil
}

// wire создает хранилища, адаптеры, use cases и HTTP-сервер
func (a *App) wire(baseLogger port.LoggerPort) error {
	cfg := a.config
	appLogger := a.logger

	// --- 3. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: cfg.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	a.dbPool = dbPool
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	listingRepo, err := postgres_adapter.NewPostgresListingAdapter(dbPool)
	if err != nil {
		return fmt.Errorf("failed to create listing repository: %w", err)
	}

	// Источник объявлений: Postgres, опционально через кэш в Redis
	var listingFetcher port.ListingFetcherPort = listingRepo
	var listingCache port.ListingCachePort = redis_cache.NoopListingCache{}
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(context.Background(), redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Error("Failed to connect to Redis", err, port.Fields{"addr": cfg.Redis.Addr})
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.redisClient = redisClient

		cached, err := redis_cache.NewCachedListingFetcher(listingRepo, redisClient, cfg.Redis.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to create listing cache: %w", err)
		}
		listingFetcher = cached
		listingCache = cached
		appLogger.Info("Redis listing cache enabled", port.Fields{"ttl": cfg.Redis.CacheTTL.String()})
	}

	// --- 4. SUPABASE: АУТЕНТИФИКАЦИЯ И ХРАНИЛИЩЕ ---
	supabaseCfg := supabase.Config{
		BaseURL: cfg.Supabase.URL,
		AnonKey: cfg.Supabase.AnonKey,
		Timeout: cfg.Supabase.RequestTimeout,
	}
	authClient, err := supabase.NewAuthClient(supabaseCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth client: %w", err)
	}
	storageClient, err := supabase.NewStorageClient(supabaseCfg, cfg.Supabase.RoomImagesBucket)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	tokenVerifier, err := supabase.NewTokenVerifier(cfg.Supabase.JWTSecret, authClient)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}
	appLogger.Info("Supabase clients initialized", port.Fields{"local_jwt_verification": cfg.Supabase.JWTSecret != ""})

	// --- 5. СОБЫТИЯ ОБ ИЗМЕНЕНИИ ОБЪЯВЛЕНИЙ ---
	invalidateCacheUC := usecase.NewInvalidateListingCacheUseCase(listingCache)

	var listingEvents port.ListingEventsPort
	if cfg.RabbitMQ.Enabled {
		listingEvents, err = a.wireRabbitMQ(baseLogger, invalidateCacheUC)
		if err != nil {
			return err
		}
	} else {
		listingEvents, err = local_events.NewListingEventsDispatcher(invalidateCacheUC)
		if err != nil {
			return err
		}
		appLogger.Info("RabbitMQ disabled, listing events are dispatched in-process", nil)
	}

	// --- 6. СЕССИИ ПРОСМОТРА И УВЕДОМЛЕНИЯ ---
	a.sseNotifier = notifier.NewSSENotifier(baseLogger)
	a.browseManager = browse.NewManager(browse.ManagerConfig{
		PageSize:        cfg.Listings.PageSize,
		IdleTTL:         cfg.Listings.SessionTTL,
		JanitorInterval: cfg.Listings.SessionJanitorTTL,
	}, listingFetcher, a.sseNotifier, baseLogger)

	// --- 7. USE CASES ---
	findListingsUC := usecase.NewFindListingsUseCase(listingFetcher, cfg.Listings.PageSize)
	browseUC := usecase.NewBrowseSessionUseCase(a.browseManager)
	createApartmentUC := usecase.NewCreateApartmentUseCase(listingRepo, listingEvents)
	listApartmentsUC := usecase.NewListApartmentsUseCase(listingRepo)
	addRoomUC := usecase.NewAddRoomUseCase(listingRepo, storageClient, listingEvents, cfg.Supabase.RoomImageMaxBytes)
	getRoomUC := usecase.NewGetRoomUseCase(listingRepo)
	signUpUC := usecase.NewSignUpUseCase(authClient)
	signInUC := usecase.NewSignInUseCase(authClient)
	signOutUC := usecase.NewSignOutUseCase(authClient)
	currentUserUC := usecase.NewGetCurrentUserUseCase(authClient)
	appLogger.Info("All use cases initialized.", nil)

	// --- 8. REST API ---
	handlers := rest.Handlers{
		Auth:      rest.NewAuthHandler(signUpUC, signInUC, signOutUC, currentUserUC),
		Listings:  rest.NewListingHandler(findListingsUC, getRoomUC),
		Apartment: rest.NewApartmentHandler(createApartmentUC, listApartmentsUC, addRoomUC, cfg.Supabase.RoomImageMaxBytes),
		Browse:    rest.NewBrowseHandler(browseUC, a.sseNotifier),
	}
	a.apiServer = rest.NewServer(
		rest.ServerConfig{Port: cfg.Rest.Port, CORSAllowedOrigins: cfg.Rest.CORSAllowedOrigins},
		handlers,
		rest.NewAuthMiddleware(tokenVerifier),
		dbPool,
		baseLogger,
	)
	appLogger.Info("REST API initialized.", nil)

	return nil
}

// wireRabbitMQ создает производителя событий и потребителя, который сбрасывает кэш
func (a *App) wireRabbitMQ(baseLogger port.LoggerPort, invalidateCacheUC *usecase.InvalidateListingCacheUseCase) (port.ListingEventsPort, error) {
	cfg := a.config
	rabbitCfg := rabbitmq_common.Config{URL: cfg.RabbitMQ.URL}

	connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
	connManager, err := rabbitmq_common.NewConnectionManager(rabbitCfg, connManagerBridge)
	if err != nil {
		a.logger.Error("Failed to create connection manager", err, nil)
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	a.connManager = connManager
	a.logger.Info("RabbitMQ Connection Manager initialized.", nil)

	eventProducer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   rabbitCfg,
		ExchangeName:             constants.ListingEventsExchange,
		ExchangeType:             "direct",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
	}, connManager)
	if err != nil {
		a.logger.Error("Failed to create event producer", err, nil)
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	a.eventProducer = eventProducer

	listingEvents, err := rabbitmq_adapter.NewListingEventsPublisher(eventProducer)
	if err != nil {
		return nil, err
	}

	consumerCfg := rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitCfg,
		QueueName:              constants.QueueListingCacheInvalidation,
		DeclareQueue:           true,
		DurableQueue:           true,
		ExchangeNameForBind:    constants.ListingEventsExchange,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		DurableExchangeForBind: true,
		RoutingKeysForBind: []string{
			constants.RoutingKeyApartmentCreated,
			constants.RoutingKeyRoomCreated,
		},
		PrefetchCount: 5,
		ConsumerTag:   "listing-cache-invalidation-adapter",

		EnableRetryMechanism: true,
		RetryExchange:        constants.QueueListingCacheInvalidation + "_retry_ex",
		RetryQueue:           constants.QueueListingCacheInvalidation + "_retry_wait_10s",
		RetryTTL:             10000, // 10 секунд в миллисекундах
		FinalDLXExchange:     constants.FinalDLXExchange,
		FinalDLQ:             constants.FinalDLQ,
		FinalDLQRoutingKey:   constants.FinalDLQRoutingKey,
		MaxRetries:           3,
	}
	listener, err := rabbitmq_adapter.NewCacheInvalidationConsumerAdapter(consumerCfg, invalidateCacheUC, baseLogger, connManager)
	if err != nil {
		a.logger.Error("Failed to initialize cache invalidation listener", err, nil)
		return nil, err
	}
	a.cacheInvalidationListener = listener
	a.logger.Info("Cache invalidation listener initialized.", nil)

	return listingEvents, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		// сначала перестаём принимать запросы, SSE-потоки завершатся по контексту запроса
		if a.apiServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := a.apiServer.Stop(shutdownCtx); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
			cancel()
		}

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		a.closeResources()
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 2)

	// Функция-хелпер для запуска слушателей
	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			errorsCh <- fmt.Errorf("%s error: %w", name, err)
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	if a.cacheInvalidationListener != nil {
		wg.Add(1)
		go startListener("Listing Cache Invalidation Listener", a.cacheInvalidationListener)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.browseManager.Start(appCtx)
		a.logger.Info("Browse session janitor stopped.", nil)
	}()

	go func() {
		if err := a.apiServer.Start(); err != nil {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	}

	// graceful shutdown через отмену главного контекста
	cancelApp()

	return nil
}

// closeResources закрывает всё, что успели создать. Безопасен для частично собранного App.
func (a *App) closeResources() {
	if a.browseManager != nil {
		a.browseManager.Shutdown()
	}
	if a.sseNotifier != nil {
		a.sseNotifier.Close()
	}

	if a.cacheInvalidationListener != nil {
		if err := a.cacheInvalidationListener.Close(); err != nil {
			a.logger.Error("Error closing cache invalidation listener", err, nil)
		}
	}
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing Redis client", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}

	a.logger.Info("Application shut down gracefully.", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// fluent может быть уже недоступен, поэтому в stdout
			log.Printf("App: Error closing fluent client: %v\n", err)
		}
	}
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
