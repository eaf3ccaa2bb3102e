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

	"github.com/bryanwahyu/simtrack/internal/application"
	appscans "github.com/bryanwahyu/simtrack/internal/application/scans"
	"github.com/bryanwahyu/simtrack/internal/config"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	mysqlp "github.com/bryanwahyu/simtrack/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/simtrack/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/simtrack/internal/infra/db/sqlite"
	"github.com/bryanwahyu/simtrack/internal/infra/httpserver"
	"github.com/bryanwahyu/simtrack/internal/infra/memory"
	minioStore "github.com/bryanwahyu/simtrack/internal/infra/storage"
	"github.com/bryanwahyu/simtrack/internal/logger"
	"github.com/bryanwahyu/simtrack/internal/middleware"
)

type schemaRepo interface {
	domain.Repository
	EnsureSchema(ctx context.Context) error
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "simtrack-api"})
	log := logger.Get()

	ctx := context.Background()

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage init error")
	}
	if db != nil {
		defer db.Close()
	}

	svc := &appscans.Service{
		Repo:              repo,
		Validator:         domain.Validator{StrictLength: cfg.StrictLength()},
		Clock:             application.SystemClock{},
		EnforceValidation: cfg.Validator.EnforceOnSubmit,
		TimeFormat:        cfg.History.TimeFormat,
		Location:          cfg.Location(),
	}

	// minio opsional, tanpa minio POST /scans/export = 503
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("minio init error")
		}
		svc.Artifacts = store
	}

	checkers := map[string]middleware.HealthChecker{
		"history": &middleware.HistoryHealthChecker{Store: repo},
	}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{Driver: cfg.Storage.Driver, DB: db}
	}

	stopLimiter := make(chan struct{})
	opts := httpserver.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		APIKeys:     cfg.Server.APIKeys,
		Driver:      cfg.Storage.Driver,
		Cap:         cfg.History.Cap,
		Checkers:    checkers,
		SlowRequest: time.Second,
		Stop:        stopLimiter,
	}
	opts.RateLimit.Capacity = cfg.Server.RateLimit.Capacity
	opts.RateLimit.RefillRate = cfg.Server.RateLimit.RefillRate

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpserver.NewRouter(svc, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.Storage.Driver).Int("cap", cfg.History.Cap).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server...")
	close(stopLimiter)

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

// openRepository pilih store sesuai storage.driver
func openRepository(ctx context.Context, cfg *config.Config) (domain.Repository, *sql.DB, error) {
	var (
		db   *sql.DB
		repo schemaRepo
		err  error
	)
	switch cfg.Storage.Driver {
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo = mysqlp.NewHistoryRepository(db, cfg.History.Cap)
	case "postgres":
		if db, err = postgresp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo = postgresp.NewHistoryRepository(db, cfg.History.Cap)
	case "sqlite":
		if db, err = sqlitep.Connect(ctx, cfg.Storage.SQLitePath); err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		repo = sqlitep.NewHistoryRepository(db, cfg.History.Cap)
	default:
		return memory.NewHistoryStore(cfg.History.Cap), nil, nil
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}
