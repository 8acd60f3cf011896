package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otcheredev/dicom-standalone-viewer/internal/cache"
	"github.com/otcheredev/dicom-standalone-viewer/internal/config"
	"github.com/otcheredev/dicom-standalone-viewer/internal/database"
	"github.com/otcheredev/dicom-standalone-viewer/internal/dicomfile"
	"github.com/otcheredev/dicom-standalone-viewer/internal/extensions"
	"github.com/otcheredev/dicom-standalone-viewer/internal/handlers"
	"github.com/otcheredev/dicom-standalone-viewer/internal/imageloader"
	"github.com/otcheredev/dicom-standalone-viewer/internal/metadata"
	"github.com/otcheredev/dicom-standalone-viewer/internal/middleware"
	"github.com/otcheredev/dicom-standalone-viewer/internal/repository"
	"github.com/otcheredev/dicom-standalone-viewer/internal/services"
	"github.com/otcheredev/dicom-standalone-viewer/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting standalone DICOM viewer")

	// Connect to database
	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	}

	if err := database.Connect(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	healthChecks := map[string]handlers.PingFunc{
		"database": database.Ping,
	}

	// Initialize image cache
	var cacheImpl cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisCache, err := cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB, "standalone-viewer:")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		healthChecks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisCache.Ping(ctx)
		}
		cacheImpl = redisCache
		log.Info().Msg("Redis cache initialized")
	} else {
		cacheImpl = cache.NewMemoryCache(time.Minute, cfg.Cache.MaxBytes)
		log.Info().Bool("enabled", cfg.Cache.Enabled).Msg("Memory cache initialized")
	}
	defer cacheImpl.Close()

	// Image loaders, keyed by image ID scheme
	httpLoader := imageloader.NewDICOMWebLoader(imageloader.DICOMWebConfig{
		Timeout:       cfg.Loader.Timeout,
		MaxImageBytes: cfg.Loader.MaxImageBytes,
		BearerToken:   cfg.Loader.BearerToken,
		Username:      cfg.Loader.Username,
		Password:      cfg.Loader.Password,
	})
	loaders := imageloader.NewRegistry()
	loaders.Register(imageloader.SchemeDICOMWeb, httpLoader)
	loaders.Register(imageloader.SchemeWADOURI, httpLoader)

	var payloadCache cache.Cache
	if cfg.Cache.Enabled {
		payloadCache = cacheImpl
	}
	imageLoader := imageloader.NewCachedLoader(loaders, payloadCache, cfg.Cache.TTL)
	defer imageLoader.Close()

	// Metadata registries and extensions
	provider := metadata.NewProvider()
	studies := metadata.NewStudyManager()

	extensionManager := extensions.NewManager()
	if err := extensionManager.Register(extensions.DICOMSRExtension{}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register extension")
	}
	log.Info().
		Int("sop_class_handlers", extensionManager.ModuleCount(extensions.ModuleTypeSOPClassHandler)).
		Msg("Extensions registered")

	// Initialize repositories
	serverRepo := repository.NewServerRepository()
	auditRepo := repository.NewAuditRepository()

	// Initialize services
	serverService := services.NewServerService(serverRepo)
	standaloneService := services.NewStandaloneService(imageLoader, dicomfile.NewParser(), provider, serverService)
	normalizer := services.NewNormalizer(studies, extensionManager)
	viewService := services.NewViewService(standaloneService, normalizer, auditRepo, services.ViewConfig{
		MountTimeout: cfg.View.MountTimeout,
		SessionTTL:   cfg.View.SessionTTL,
	})
	defer viewService.Shutdown()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(healthChecks)
	viewerHandler := handlers.NewViewerHandler(viewService)
	auditHandler := handlers.NewAuditHandler(auditRepo)
	metadataHandler := handlers.NewMetadataHandler(studies, provider)
	serverHandler := handlers.NewServerHandler(serverService)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics)
	}
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Standalone viewer
	r.Get("/viewer", viewerHandler.Viewer)

	r.Route("/api/v1", func(r chi.Router) {
		// View sessions
		r.Post("/views", viewerHandler.OpenView)
		r.Get("/views/{id}", viewerHandler.GetView)
		r.Delete("/views/{id}", viewerHandler.CloseView)
		r.Get("/views/{id}/audit", auditHandler.GetViewAudit)

		// Registries
		r.Get("/studies", metadataHandler.ListStudies)
		r.Get("/studies/{studyUID}", metadataHandler.GetStudy)
		r.Get("/images/uids", metadataHandler.GetImageUIDs)

		// Retrieval servers
		r.Post("/servers", serverHandler.CreateServer)
		r.Get("/servers", serverHandler.GetServers)
		r.Get("/servers/{id}", serverHandler.GetServer)
		r.Put("/servers/{id}/default", serverHandler.SetDefault)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
