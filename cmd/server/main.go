package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/api"
	"quillpost-backend-go/internal/cache"
	"quillpost-backend-go/internal/config"
	"quillpost-backend-go/internal/connectivity"
	"quillpost-backend-go/internal/content"
	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/crypto"
	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/events"
	"quillpost-backend-go/internal/identity"
	"quillpost-backend-go/internal/jobs"
	"quillpost-backend-go/internal/middleware"
	"quillpost-backend-go/internal/session"
	"quillpost-backend-go/internal/web"
)

const sweepInterval = 5 * time.Minute

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.GinMode) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("storeDriver", appConfig.StoreDriver))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 3. Store and identity provider ---
	repos, provider, closeStore, err := initBackends(rootCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize store", zap.Error(err))
	}
	defer closeStore()

	// --- 4. Session cache and event publisher ---
	sessionCache, closeCache := initCache(rootCtx, appConfig, zapLogger)
	defer closeCache()

	publisher := initPublisher(appConfig, zapLogger)
	defer publisher.Close()

	sealer, err := newSealer(appConfig)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid encryption key", zap.Error(err))
	}

	// --- 5. Connectivity monitor and session registry ---
	monitor := connectivity.NewMonitor(backendProbe(provider, repos), appConfig.ConnectivityProbeInterval, zapLogger)
	go monitor.Run(rootCtx)

	registry := session.NewRegistry(session.Config{
		Repositories: repos,
		Identity:     provider,
		Cache:        sessionCache,
		Monitor:      monitor,
		Audit:        core.NewAuditService(repos.AuditRepository()),
		TTL:          appConfig.SessionTTL,
		IdleTimeout:  appConfig.SessionIdleTimeout,
		Logger:       zapLogger,
	})
	go registry.RunSweeper(rootCtx, sweepInterval)

	// --- 6. Maintenance scheduler ---
	if appConfig.JobsEnabled {
		maintenance := jobs.NewMaintenanceJobs(repos.UserRepository(nil), publisher, zapLogger.Named("jobs"))
		scheduler, err := jobs.NewScheduler(maintenance, []jobs.Schedule{
			{Job: jobs.JobMonthlyReset, Spec: appConfig.MonthlyResetSchedule},
			{Job: jobs.JobSubscriptionRenewals, Spec: appConfig.RenewalSchedule},
		}, zapLogger.Named("jobs"))
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to schedule maintenance jobs", zap.Error(err))
		}
		go scheduler.Start(rootCtx)
	} else {
		zapLogger.Info("Maintenance jobs disabled; run cmd/jobs from an external scheduler")
	}

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if origins := appConfig.AllowedOrigins(); len(origins) > 0 {
		router.Use(middleware.CORSMiddleware(origins, zapLogger))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured")
	}
	router.Use(middleware.SessionLoader(registry, sealer, middleware.CookieOptions{
		MaxAge: appConfig.SessionTTL,
		Secure: gin.Mode() == gin.ReleaseMode,
	}, zapLogger))
	router.Use(middleware.RequestLogger(zapLogger))

	api.SetupRoutes(router, zapLogger, content.NewGenerator(nil), publisher, monitor)

	pages, err := web.NewPages(zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load page templates", zap.Error(err))
	}
	pages.RegisterRoutes(router)

	// --- 8. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 9. Graceful Shutdown Handling ---
	<-rootCtx.Done()
	zapLogger.Info("Received shutdown signal")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}

// initBackends selects the store driver and the matching identity provider.
func initBackends(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (db.RepositoryFactory, identity.Provider, func(), error) {
	if appConfig.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using the in-memory store and identity provider; data is lost on restart")
		return db.NewMemoryFactory(db.NewMemoryStore()), identity.NewMemoryProvider(), func() {}, nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	clients, err := db.InitFirestore(initCtx, appConfig, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := identity.NewFirebaseProvider(ctx, clients.Auth, appConfig.FirebaseAPIKey, logger)
	if err != nil {
		clients.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	logger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully")

	closeFn := func() {
		if err := clients.Close(); err != nil {
			logger.Warn("Error closing Firestore client", zap.Error(err))
		}
	}
	return db.NewFirestoreFactory(clients.Firestore, logger), provider, closeFn, nil
}

// backendProbe reports offline when either the identity provider or the store is unreachable.
func backendProbe(provider identity.Provider, repos db.RepositoryFactory) connectivity.ProbeFunc {
	storeProbe := repos.Probe()
	return func(ctx context.Context) error {
		if err := provider.Ready(ctx); err != nil {
			return err
		}
		if storeProbe != nil {
			return storeProbe(ctx)
		}
		return nil
	}
}

// initCache uses Redis when configured so session bindings survive restarts.
func initCache(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	if appConfig.RedisAddress == "" {
		logger.Info("REDIS_ADDRESS not set; session bindings are kept in memory")
		return cache.NewMemoryCache(), func() {}
	}
	redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Address:  appConfig.RedisAddress,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("Falling back to in-memory session cache", zap.Error(err))
		return cache.NewMemoryCache(), func() {}
	}
	return redisCache, func() { redisCache.Close() }
}

func initPublisher(appConfig *config.Config, logger *zap.Logger) events.Publisher {
	if appConfig.RabbitMQURL == "" {
		return events.NewLogPublisher(logger)
	}
	publisher, err := events.NewRabbitMQPublisher(events.RabbitMQConfig{
		URL:   appConfig.RabbitMQURL,
		Queue: appConfig.RabbitMQQueue,
	}, logger)
	if err != nil {
		logger.Warn("Falling back to log publisher", zap.Error(err))
		return events.NewLogPublisher(logger)
	}
	return publisher
}

func newSealer(appConfig *config.Config) (*crypto.Sealer, error) {
	key, err := appConfig.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	return crypto.NewSealer(key)
}
