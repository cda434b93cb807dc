package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/lawagent/internal/application/spotter"
	"github.com/bryanwahyu/lawagent/internal/config"
	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/infra/ai/openai"
	"github.com/bryanwahyu/lawagent/internal/infra/ai/prompt"
	mysqlp "github.com/bryanwahyu/lawagent/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/lawagent/internal/infra/db/postgres"
	"github.com/bryanwahyu/lawagent/internal/infra/httpserver"
	"github.com/bryanwahyu/lawagent/internal/infra/storage"
	"github.com/bryanwahyu/lawagent/internal/middleware"
	"github.com/bryanwahyu/lawagent/internal/observability"
)

func main() {
	// load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	logger := observability.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	// audit database, optional
	db, repo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Error("database init failed", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// uploaded documents, optional
	var docs analysis.DocumentStore
	if cfg.MinioEnabled() {
		store, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			logger.Error("minio init failed", "endpoint", cfg.Minio.Endpoint, "error", err)
			os.Exit(1)
		}
		docs = store
		checkers["storage"] = middleware.CheckFunc(store.Ping)
	}

	var client ai.Client = prompt.Heuristic{}
	if cfg.OpenAI.APIKey != "" {
		oc := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
		logger.Info("using openai", "model", oc.Model)
		client = oc
	} else {
		logger.Warn("OPENAI_API_KEY not set, using the offline heuristic analyzer")
	}

	svc := spotter.NewService(client, repo, docs)

	// init router
	done := make(chan struct{})
	defer close(done)

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, httpserver.Options{
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		Checkers:       checkers,
		Done:           done,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func openRepository(ctx context.Context, cfg *config.Config) (*sql.DB, analysis.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, mysqlp.NewAnalysisRepository(db), nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := pgp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, pgp.NewAnalysisRepository(db), nil
	}
	return nil, nil, nil
}
