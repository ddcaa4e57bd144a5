package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wanderlist/backend/internal/config"
	"github.com/wanderlist/backend/internal/handlers"
	appMiddleware "github.com/wanderlist/backend/internal/middleware"
	"github.com/wanderlist/backend/internal/routes"
	"github.com/wanderlist/backend/internal/services"
	"github.com/wanderlist/backend/internal/storage"
)

func main() {
	cfg := config.Load()

	zlog, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store: MongoDB when configured, JSON-backed memory store otherwise.
	var collectionService services.CollectionService
	if cfg.MongoURI != "" {
		initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		svc, err := services.NewMongoCollectionService(initCtx, cfg.MongoURI, cfg.MongoDB, logger)
		cancel()
		if err != nil {
			logger.Fatalw("failed to connect to mongodb", "error", err)
		}
		collectionService = svc
	} else {
		store, err := storage.NewJSONStore(filepath.Join(cfg.DataDir, "collections.json"))
		if err != nil {
			logger.Fatalw("failed to open data dir", "error", err)
		}
		svc, err := services.NewMemoryCollectionService(store, logger)
		if err != nil {
			logger.Fatalw("failed to load collections snapshot", "error", err)
		}
		logger.Infow("using json-backed memory store", "dataDir", cfg.DataDir)
		collectionService = svc
	}

	// Places proxy is optional; without a key its endpoints answer with a
	// deterministic error.
	var placesService services.PlacesService
	if cfg.GoogleMapsAPIKey != "" {
		svc, err := services.NewGooglePlacesService(cfg.GoogleMapsAPIKey, logger)
		if err != nil {
			logger.Fatalw("failed to build places client", "error", err)
		}
		placesService = svc
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, places endpoints disabled")
	}

	authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
	})
	if err != nil {
		logger.Fatalw("failed to initialize firebase auth client", "error", err)
	}
	if authClient == nil && cfg.JWTSecret == "" {
		logger.Warn("identity checking disabled, userId path segment is trusted")
	}

	router := routes.New(routes.Options{
		Collections:    handlers.NewCollectionHandler(collectionService, logger),
		Places:         handlers.NewPlacesHandler(placesService, logger),
		Identity:       appMiddleware.Identity(authClient, cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}

	go func() {
		logger.Infow("server starting", "addr", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("server shutdown failed", "error", err)
	}
	if err := collectionService.Close(shutdownCtx); err != nil {
		logger.Errorw("store shutdown failed", "error", err)
	}
}
