package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/halo-extras/backend/docs"
	aiapp "github.com/halo-extras/backend/internal/application/ai"
	footprintapp "github.com/halo-extras/backend/internal/application/footprint"
	postapp "github.com/halo-extras/backend/internal/application/post"
	steamapp "github.com/halo-extras/backend/internal/application/steam"
	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/infrastructure/auth"
	"github.com/halo-extras/backend/internal/infrastructure/cache"
	"github.com/halo-extras/backend/internal/infrastructure/config"
	"github.com/halo-extras/backend/internal/infrastructure/event"
	"github.com/halo-extras/backend/internal/infrastructure/geocode"
	"github.com/halo-extras/backend/internal/infrastructure/llm"
	"github.com/halo-extras/backend/internal/infrastructure/logger"
	"github.com/halo-extras/backend/internal/infrastructure/persistence"
	"github.com/halo-extras/backend/internal/infrastructure/scheduler"
	"github.com/halo-extras/backend/internal/infrastructure/steamapi"
	"github.com/halo-extras/backend/internal/infrastructure/storage"
	"github.com/halo-extras/backend/internal/infrastructure/telemetry"
	"github.com/halo-extras/backend/internal/interfaces/http/handler"
	"github.com/halo-extras/backend/internal/interfaces/http/middleware"
	"github.com/halo-extras/backend/internal/interfaces/http/router"
)

//	@title			Halo Extras Backend API
//	@version		1.0
//	@description	Footprint map, AI writing assistant, Steam library and post summaries for a Halo blog

//	@contact.name	API Support

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(baseLog)

	// Telemetry providers; disabled signals fall back to no-ops
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log := providers.Logs.Bridge(baseLog, zapcore.InfoLevel)

	log.Info("Starting Halo Extras Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	// Database with a zap backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver,
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema migrated from models")
	}

	// Cache backends
	caches := cache.NewFactory(cfg.Cache, cfg.Redis, db.DB, cache.WithLogger(log))
	defer func() {
		if err := caches.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()
	libraryCache, err := caches.LibraryCache()
	if err != nil {
		log.Fatal("Failed to initialize Steam library cache", zap.Error(err))
	}
	idempotencyStore, err := caches.IdempotencyStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	revocations := caches.Revocations()

	// Repositories
	footprintRepo := persistence.NewGormFootprintRepository(db.DB)
	postRepo := persistence.NewGormPostRepository(db.DB)
	tagRepo := persistence.NewGormTagRepository(db.DB)
	summaryRepo := persistence.NewGormSummaryRepository(db.DB)

	// Outbound clients
	llmFactory := llm.NewDefaultFactory(cfg.AI.RequestTimeout, llm.WithFactoryLogger(log))
	steamClient := steamapi.New(cfg.Steam.RequestTimeout,
		steamapi.WithLanguage(cfg.Steam.Language),
		steamapi.WithLogger(log),
	)
	geocoder := geocode.NewAmapGeocoder(cfg.Footprint.GaoDeWebKey, cfg.Footprint.GeocodeURL, log)

	// Application services
	resolver := aiapp.NewConfigResolver(cfg.AI)
	generationService := aiapp.NewGenerationService(llmFactory, resolver, cfg.AI.PolishMaxLength, log)
	summaryService := aiapp.NewSummaryService(llmFactory, resolver, postRepo, summaryRepo, cfg.AI.SyncConcurrency, log)
	conversationService := aiapp.NewConversationService(llmFactory, resolver, cfg.AI, log)
	tagService := aiapp.NewTagService(llmFactory, resolver, postRepo, tagRepo, cfg.AI.TagMaxCount, log)
	steamService := steamapp.NewSteamService(steamClient, libraryCache, cfg.Steam, cfg.App.Location(), log)
	postService := postapp.NewPostService(postRepo, tagRepo, log)
	footprintService := footprintapp.NewFootprintService(footprintRepo, geocoder, footprint.BaseConfig{
		Title:    cfg.Footprint.Title,
		GaoDeKey: cfg.Footprint.GaoDeKey,
		Describe: cfg.Footprint.Describe,
		HSLA:     cfg.Footprint.HSLA,
		LogoName: cfg.Footprint.LogoName,
		MapStyle: cfg.Footprint.MapStyle,
	}, log)
	footprintService.SetImageStorage(newImageStorage(cfg, log), cfg.Storage.MaxUploadSize)

	// Event bus: published posts are summarized in the background
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	postPublishedHandler := aiapp.NewPostPublishedHandler(summaryService, cfg.AI.SummaryAutoGenerate, log)
	eventBus.Subscribe(event.NewIdempotentHandler(postPublishedHandler, idempotencyStore, log))
	log.Info("Event handlers registered",
		zap.Strings("post_published_events", postPublishedHandler.EventTypes()),
	)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	postService.SetEventPublisher(eventBus)
	footprintService.SetEventPublisher(eventBus)

	// Background jobs
	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
			QueueSize:         scheduler.DefaultSchedulerConfig().QueueSize,
		}, log)
		if err := jobs.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := jobs.Stop(ctx); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewTrigger(scheduler.DefaultTriggerConfig(), jobs, log)
		if cfg.Scheduler.SteamRefreshEnabled {
			trigger.Every(cfg.Steam.RefreshInterval(), scheduler.NewSteamRefreshTask(steamService))
		}
		trigger.Every(cfg.Scheduler.SummarySyncInterval, scheduler.NewSummarySyncTask(summaryService, log))
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler trigger", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.Strings("tasks", trigger.Tasks()),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	adminAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:  jwtService,
		Revocations: revocations,
		Logger:      log,
	})

	// HTTP handlers
	handlers := router.Handlers{
		Footprint: handler.NewFootprintHandler(footprintService, cfg.Storage.MaxUploadSize),
		AI:        handler.NewAIHandler(generationService, summaryService, conversationService, tagService),
		Steam:     handler.NewSteamHandler(steamService),
		Post:      handler.NewPostHandler(postService),
		Auth:      handler.NewAuthHandler(auth.NewAdminAuthenticator(cfg.Admin), jwtService, revocations),
		System:    handler.NewSystemHandler(db, cfg.App.Name),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id first so every later layer can tag it,
	// tracing before logging so log lines carry the trace id.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: providers.Meter,
		Logger:        log,
	}))
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = providers.Profiler.IsEnabled()
	engine.Use(middleware.ProfilingWithConfig(profiling))
	engine.Use(logger.GinMiddleware(log, "/health", cfg.Metrics.Path))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Outside API versioning
	engine.GET("/health", handlers.System.Health)
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, adminAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	guards := router.Guards{Admin: adminAuth}
	if cfg.HTTP.RateLimitEnabled {
		limiter := newLimiter(caches, cfg.Cache.KeyPrefix+"ratelimit:ai:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		guards.AIRate = middleware.RateLimit(limiter, log)
		log.Info("AI rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		limiter := newLimiter(caches, cfg.Cache.KeyPrefix+"ratelimit:login:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		guards.LoginRate = middleware.RateLimit(limiter, log)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).RegisterAll(handlers, guards)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("api", r.BasePath()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newImageStorage returns S3 storage when configured, otherwise an
// in-memory stand-in that serves links under the public URL.
func newImageStorage(cfg *config.Config, log *zap.Logger) footprintapp.ImageStorage {
	if !cfg.Storage.Enabled {
		return storage.NewStubObjectStorage(cfg.Storage.PublicURL)
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Object storage bucket check failed", zap.Error(err))
	}
	return s3
}

// newLimiter shares the Redis connection with the cache when one is available
func newLimiter(caches *cache.Factory, prefix string, limit int, window time.Duration) middleware.Limiter {
	if client := caches.RedisClient(); client != nil {
		return middleware.NewRedisRateLimiter(client, prefix, limit, window)
	}
	return middleware.NewRateLimiter(limit, window)
}
