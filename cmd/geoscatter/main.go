package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geoscatter/internal/api"
	routes "geoscatter/internal/api/handlers"
	"geoscatter/internal/config"
	"geoscatter/internal/logging"
	"geoscatter/internal/postgres"
	"geoscatter/internal/redis"
	"geoscatter/internal/service/dataset"
	"geoscatter/internal/service/source"
	"geoscatter/internal/service/storage"
	"geoscatter/internal/viewer"
	"geoscatter/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
)

const (
	shutdownTimeout      = 10 * time.Second
	memoryReportInterval = 30 * time.Second
	sourceCachePrefix    = "geoscatter:source:"
)

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg, "geoscatter")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runs, cache := initializeDatabaseAndCache(cfg, log)
	defer closeConnections(log)

	datasets := dataset.NewService(configuredDatasets(cfg, cache, log), runs, log)
	go func() {
		if err := datasets.LoadAll(ctx); err != nil {
			log.Warn("dataset preload incomplete", "error", err)
		}
	}()

	scheduler := worker.NewScheduler(log)
	worker.StartDatasetRefresh(ctx, scheduler, datasets, cfg.DatasetRefreshInterval)
	worker.StartMemoryReport(ctx, scheduler, memoryReportInterval)

	if cfg.MapAccessToken == "" {
		log.Warn("MAP_ACCESS_TOKEN is not set, client maps will render without tiles")
	}

	viewers := storage.NewRegistry(log)
	handlers := &routes.Handlers{
		Datasets: datasets,
		Viewers:  viewers,
		Viewer: routes.ViewerSettings{
			Viewport: viewer.ViewportConfig{
				InitialCenter: orb.Point{cfg.InitialLon, cfg.InitialLat},
				InitialZoom:   cfg.InitialZoom,
			},
			Style:       cfg.MapStyle,
			AccessToken: cfg.MapAccessToken,
			QueueSize:   cfg.ViewerQueueSize,
		},
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     routes.OriginChecker(cfg.Origins(), cfg.IsDevelopment()),
		},
		Log:     log,
		Context: ctx,
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           api.NewEngine(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := viewers.CloseAll(shutdownCtx); err != nil {
		log.Warn("failed to close viewers", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", "error", err)
	}
	scheduler.Wait()
	log.Info("stopped")
}

// initializeDatabaseAndCache connects the optional run log and source cache.
// Either is skipped when its URL is empty or the connection fails.
func initializeDatabaseAndCache(cfg config.Config, log *slog.Logger) (dataset.RunRecorder, source.Cache) {
	var (
		runs  dataset.RunRecorder
		cache source.Cache
	)

	if cfg.DBUrl != "" {
		db, err := postgres.Init(cfg.DBUrl, log)
		if err != nil {
			log.Warn("ingest run log disabled", "error", err)
		} else {
			runs = postgres.NewRunStore(db)
		}
	}

	if cfg.RedisUrl != "" {
		client, err := redis.Init(cfg.RedisUrl)
		if err != nil {
			log.Warn("source cache disabled", "error", err)
		} else {
			cache = redis.NewCache(client, sourceCachePrefix)
		}
	}

	return runs, cache
}

func configuredDatasets(cfg config.Config, cache source.Cache, log *slog.Logger) []dataset.Dataset {
	client := &http.Client{Timeout: time.Minute}

	var out []dataset.Dataset
	for _, d := range cfg.Datasets() {
		src := source.For(d.Source, client)
		if cache != nil && cfg.SourceCacheTTL > 0 {
			src = source.Cached(src, cache, d.Name, cfg.SourceCacheTTL, log)
		}
		out = append(out, dataset.Dataset{
			Name:        d.Name,
			Schema:      d.Schema,
			Coordinates: d.Coordinates,
			Source:      src,
		})
	}
	return out
}

func closeConnections(log *slog.Logger) {
	if err := postgres.Close(); err != nil {
		log.Warn("error closing PostgreSQL connection", "error", err)
	}
	if err := redis.Close(); err != nil {
		log.Warn("error closing Redis connection", "error", err)
	}
}
