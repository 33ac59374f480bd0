package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopdesk/internal/dashboard"
	"github.com/angelmondragon/shopdesk/internal/notify"
	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/logger"
)

func main() {
	assumeYes := flag.Bool("yes", false, "answer yes to every confirmation prompt")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so they never interleave with table output.
	logg := logger.New(logger.Options{
		ServiceName: "dashboard",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	// Ctrl-C keeps its default behaviour; the shell blocks on stdin.
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	in := bufio.NewReader(os.Stdin)
	var confirmer notify.Confirmer = notify.NewPromptConfirmer(in, os.Stdout)
	if *assumeYes {
		confirmer = notify.StaticConfirmer(true)
	}

	app, err := dashboard.New(dashboard.Params{
		Config:     cfg,
		Notifier:   notify.Multi(notify.NewWriterNotifier(os.Stdout), notify.NewLogNotifier(logg)),
		Confirmer:  confirmer,
		Logger:     logg,
		Registerer: reg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build dashboard", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "api": cfg.Gateway.BaseURL})
	logg.Info(ctx, "dashboard ready")
	fmt.Fprintln(os.Stdout, "type help for commands")

	if err := dashboard.NewShell(app, in, os.Stdout).Run(ctx); err != nil {
		logg.Error(ctx, "dashboard stopped unexpectedly", err)
		os.Exit(1)
	}
}
