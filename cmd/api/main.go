// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/lisperz/Test1-frazo-sub001/internal/config"
	"github.com/lisperz/Test1-frazo-sub001/internal/event"
	"github.com/lisperz/Test1-frazo-sub001/internal/handler"
	"github.com/lisperz/Test1-frazo-sub001/internal/logging"
	"github.com/lisperz/Test1-frazo-sub001/internal/metrics"
	"github.com/lisperz/Test1-frazo-sub001/internal/service"
	"github.com/lisperz/Test1-frazo-sub001/internal/storage"
	"github.com/lisperz/Test1-frazo-sub001/internal/telemetry"
	"github.com/lisperz/Test1-frazo-sub001/internal/thumbnail"
	"github.com/lisperz/Test1-frazo-sub001/internal/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	serviceName = "timeline-editor"
	version     = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.Init("", false)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.Init(cfg.Env, cfg.Verbose)

	if _, err := telemetry.InitTracer(serviceName, version, cfg.Verbose); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}

	// ── Database ──────────────────────────────────────────────────────────────
	var (
		sessions service.Repository
		db       *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = openDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database unavailable")
		}
		defer db.Close()
		sessions = &service.SessionService{DB: db}
		log.Info().Msg("using postgres session store")
	} else {
		sessions = service.NewMemoryRepository()
		log.Warn().Msg("DATABASE_URL not set, sessions are kept in memory")
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	var fileStorage storage.Storage
	if cfg.StorageType == "s3" {
		s3, err := storage.NewS3Storage(context.Background(), cfg.AWSBucket, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure S3 storage")
		}
		fileStorage = s3
		log.Info().Str("bucket", cfg.AWSBucket).Msg("using S3 storage")
	} else {
		local, err := storage.NewLocalStorage(cfg.UploadDir, cfg.BaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare upload directory")
		}
		fileStorage = local
		log.Info().Str("dir", cfg.UploadDir).Msg("using local storage")
	}

	// ── Events, metrics, workspaces ───────────────────────────────────────────
	events := event.NewPublisher(cfg.NATSURL, log)
	m := metrics.New(prometheus.DefaultRegisterer)

	workspaces := workspace.NewManager(workspace.Settings{
		Timeline:       cfg.Timeline,
		Zoom:           cfg.Zoom,
		ContainerWidth: cfg.DefaultContainerPx,
		IdleTTL:        cfg.WorkspaceIdleTTL,
	}, log)
	workspaces.OnChange = func(open int) { m.OpenWorkspaces.Set(float64(open)) }
	if err := workspaces.StartEviction(cfg.EvictionSchedule); err != nil {
		log.Fatal().Err(err).Msg("invalid eviction schedule")
	}

	editorHandler := &handler.EditorHandler{
		Sessions:   sessions,
		Workspaces: workspaces,
		Storage:    fileStorage,
		Events:     events,
		Metrics:    m,
		Log:        logging.WithComponent("http"),
		Thumbnails: cfg.Thumbnails,
		Frames:     func(src string) thumbnail.FrameSource { return thumbnail.FFmpegSource{Path: src} },
	}

	// ── Router ────────────────────────────────────────────────────────────────
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/health", healthHandler(db, log)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	editorHandler.Register(r)

	if cfg.StorageType != "s3" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))),
		)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", handler.UserHeader, "Authorization"}),
	)

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      cors(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // thumbnail strips run ffmpeg per frame
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("timeline editor listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutdown signal received, draining requests")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	workspaces.Stop()
	if err := events.Close(); err != nil {
		log.Warn().Err(err).Msg("closing event publisher")
	}
	telemetry.ShutdownTracer(shutdownCtx, log)
	log.Info().Msg("server stopped cleanly")
}

func openDB(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func healthHandler(db *sql.DB, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				log.Warn().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}
