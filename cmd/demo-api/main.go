package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopdesk/api/routes"
	"github.com/angelmondragon/shopdesk/internal/demostore"
	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/db"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/migrate"
	pkgredis "github.com/angelmondragon/shopdesk/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "demo-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "demo-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "demo api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	store := demostore.New(dbClient, time.Now)
	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient, migrate.DefaultDir, store.AutoMigrate); err != nil {
		return err
	}
	if cfg.DemoAPI.Seed {
		seeded, err := store.Seed(ctx)
		if err != nil {
			return err
		}
		if seeded {
			logg.Info(ctx, "demo data seeded")
		}
	}

	checks := routes.ReadyChecks{"db": dbClient}
	var idemStore pkgredis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		checks["redis"] = redisClient
		idemStore = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency keys are ignored")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	addr := ":" + cfg.DemoAPI.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, routes.StoreServices(store), checks, idemStore, metrics.NewHTTPMetrics(reg), reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": cfg.DB.Driver,
	})
	logg.Info(ctx, "starting demo api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down demo api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
