package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/iconidentify/tokgrabba/internal/api"
	"github.com/iconidentify/tokgrabba/internal/api/handler"
	"github.com/iconidentify/tokgrabba/internal/config"
	"github.com/iconidentify/tokgrabba/internal/metrics"
	"github.com/iconidentify/tokgrabba/internal/service"
	"github.com/iconidentify/tokgrabba/internal/telegram"
	"github.com/iconidentify/tokgrabba/internal/worker"
	"github.com/iconidentify/tokgrabba/internal/workspace"
	"github.com/iconidentify/tokgrabba/internal/ytdlp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Path to .env file (ignored if missing)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tokgrabba %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Bootstrap logger until the configured one exists
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(*envFile); err != nil {
		logger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting tokgrabba",
		"version", Version,
		"build_time", BuildTime,
	)

	ws := workspace.New(cfg.Storage.TempPath, logger)
	if err := ws.EnsureReady(); err != nil {
		logger.Error("failed to prepare temp directory", "path", cfg.Storage.TempPath, "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	fetcher := ytdlp.NewSupervisor(cfg.Fetch, ws, logger)
	collector := metrics.New()
	activity := service.NewActivityLog(service.DefaultActivitySize)

	downloadSvc := service.NewDownloadService(
		fetcher,
		ws,
		collector,
		activity,
		cfg.Fetch,
		cfg.Storage,
		cfg.Limits,
		logger,
	)

	if version, ok := fetcher.CheckAvailable(context.Background()); ok {
		logger.Info("fetch tool available", "binary", cfg.Fetch.BinaryPath, "version", version)
	} else {
		// Not fatal: links are answered with "service unavailable" until
		// the binary shows up.
		logger.Warn("fetch tool not available", "binary", cfg.Fetch.BinaryPath)
	}

	botAPI, err := telegram.NewClient(cfg.Telegram.Token, logger)
	if err != nil {
		logger.Error("failed to connect to telegram", "error", err)
		os.Exit(1)
	}
	bot := telegram.NewBot(botAPI, downloadSvc, cfg.Telegram, cfg.Limits, logger)

	pool := worker.NewPool(
		worker.Config{
			Workers:   cfg.Worker.Count,
			QueueSize: cfg.Worker.QueueSize,
		},
		bot,
		logger,
	)
	pool.Start()
	collector.WatchQueue(pool.Pending)

	handlers := api.Handlers{
		Health:  handler.NewHealthHandler(downloadSvc),
		Status:  handler.NewStatusHandler(downloadSvc, downloadSvc.Activity()),
		Metrics: collector.Handler(),
	}

	useWebhook := cfg.Telegram.UseWebhook()
	if useWebhook {
		secret := telegram.WebhookSecret(cfg.Telegram.Token)
		handlers.Webhook = handler.NewWebhookHandler(secret, pool.Submit, logger)
		if err := telegram.RegisterWebhook(botAPI, cfg.Telegram.WebhookURL, secret, logger); err != nil {
			logger.Error("failed to register webhook", "error", err)
			os.Exit(1)
		}
	}

	router := api.NewRouter(handlers, cfg.Server.APIKey, logger)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", srv.Addr, "webhook", useWebhook)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Stop accepting new webhook deliveries
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if !useWebhook {
		g.Go(func() error {
			return telegram.Poll(gctx, botAPI, cfg.Telegram.PollTimeout, pool.Submit, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	// Cancels in-flight fetches; their process groups are killed and their
	// files removed before the workers return.
	if err := pool.Stop(cfg.Worker.ShutdownTimeout); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newLogger builds the process logger. Format "auto" picks text for an
// interactive terminal and JSON otherwise.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = "text"
		}
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
