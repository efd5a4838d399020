package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tipwave/cache"
	"tipwave/config"
	"tipwave/db"
	"tipwave/logger"
	"tipwave/model"
	"tipwave/notify"
	"tipwave/repository"
	"tipwave/storage"
	"tipwave/tips"
	"tipwave/track"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Start initializes all collaborators and runs the HTTP server until a
// termination signal arrives.
func Start() {
	cfg := config.Load()

	zlog, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	// GORM layer for the tips module
	if err := db.ConnectGormDB(cfg); err != nil {
		zlog.Fatal("failed to connect GORM database", zap.Error(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Tip{}); err != nil {
		zlog.Fatal("failed to migrate tip model", zap.Error(err))
	}

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		zlog.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer db.CloseRedis()
	zlog.Info("successfully connected to Redis")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	var store storage.FileStore
	switch cfg.StorageBackend {
	case "local":
		localStore, err := storage.NewLocalStore(cfg.LocalStoreDir, cfg.PublicBaseURL)
		if err != nil {
			zlog.Fatal("failed to initialize local store", zap.Error(err))
		}
		store = localStore

		watcher, err := storage.NewWatcher(localStore, zlog)
		if err != nil {
			zlog.Warn("failed to start store watcher", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	default:
		minioStore, err := storage.NewMinioStore(cfg)
		if err != nil {
			zlog.Fatal("failed to initialize MinIO store", zap.Error(err))
		}
		store = minioStore
	}
	zlog.Info("storage backend ready", zap.String("backend", cfg.StorageBackend))

	trackRepo := repository.NewMySQLTrackRepository()
	tipRepo := repository.NewGormTipRepository(db.GormDB)
	trackCache := cache.NewTrackCache()
	presence := cache.NewPresenceCache()

	hub := notify.NewHub(presence, zlog)
	go hub.Run()
	defer hub.Stop()

	trackService := track.NewService(trackRepo, store, trackCache, zlog)
	notifyService := notify.NewService(hub, zlog)
	tipService := tips.NewService(tipRepo, notifyService, zlog)

	trackHandler := NewTrackHandler(trackService, zlog)
	tipHandler := NewTipHandler(tipService, zlog)
	wsHandler := NewWSHandler(hub, presence, zlog)
	fileHandler := NewFileHandler(store, zlog)

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Track endpoints. The fixed paths are registered before the {id}
	// routes so "public", "search" and the filter paths never match as ids.
	router.HandleFunc("/api/tracks", trackHandler.CreateTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks", trackHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/public", trackHandler.GetPublicTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/search", trackHandler.SearchTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/artist/{artist}", trackHandler.GetTracksByArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/genre/{genre}", trackHandler.GetTracksByGenreHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", trackHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", trackHandler.UpdateTrackHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/tracks/{id}/play", trackHandler.IncrementPlayCountHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/tracks/{id}", trackHandler.DeleteTrackHandler).Methods(http.MethodDelete)

	// Tip endpoints
	router.HandleFunc("/api/tips", tipHandler.CreateTipHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tips/artist/{artistId}", tipHandler.GetTipsByArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tips/sender/{senderId}", tipHandler.GetTipsBySenderHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tips/{id}", tipHandler.GetTipHandler).Methods(http.MethodGet)

	// Real-time notifications
	router.HandleFunc("/ws/notifications", wsHandler.NotificationsHandler).Methods(http.MethodGet)

	// Stored blob serving
	router.HandleFunc("/files/{filename}", fileHandler.ServeFileHandler).Methods(http.MethodGet)
	router.HandleFunc("/stream/{filename}", fileHandler.StreamHandler).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		zlog.Info("server starting", zap.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-stop
	zlog.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server stopped")
}
