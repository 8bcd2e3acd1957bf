package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/ciamek94/scraper/internal/config"
	"github.com/ciamek94/scraper/internal/notifier"
	"github.com/ciamek94/scraper/internal/parser"
	"github.com/ciamek94/scraper/internal/remote"
	"github.com/ciamek94/scraper/internal/scheduler"
	"github.com/ciamek94/scraper/internal/services/reconciler"
	"github.com/ciamek94/scraper/internal/storage"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// notifyDelay spaces out consecutive Telegram messages.
const notifyDelay = time.Second

type options struct {
	Searches string `short:"s" long:"searches" description:"Path to the searches YAML file (overrides SCR_SEARCHES_PATH)"`
	Once     bool   `long:"once" description:"Run a single reconciliation pass and exit"`
}

// main is the entry point of the application.
func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	if opts.Searches != "" {
		cfg.SearchesPath = opts.Searches
	}

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	searches, err := config.LoadSearches(cfg.SearchesPath)
	if err != nil {
		log.Fatalf("Failed to load searches: %v", err)
	}

	backend, closeBackend, err := newBackend(ctx, logger, cfg)
	if err != nil {
		log.Fatalf("Failed to init remote backend: %v", err)
	}
	defer closeBackend()

	fetcher := parser.NewFetcher(logger, cfg.FetchTimeout, cfg.FetchRetries)
	htmlParser := parser.New(logger)
	crawler := parser.NewCrawler(logger, fetcher, htmlParser, cfg)
	detailer := parser.NewDetailer(logger, fetcher, htmlParser, cfg.DetailDelay)
	coordinator := storage.NewCoordinator(logger, cfg.WorkDir, backend, cfg.Remote.Folder)

	alerts, err := notifier.New(logger, cfg.Tg.Token, cfg.Tg.ChatID, notifyDelay)
	if err != nil {
		log.Fatalf("Failed to init notifier: %v", err)
	}

	engine := reconciler.New(logger, crawler, detailer, coordinator, alerts, searches, cfg.EvictionThreshold)

	if opts.Once {
		if _, err := engine.Run(ctx); err != nil {
			log.Fatalf("Reconciliation pass failed: %v", err)
		}
		return
	}

	sched := scheduler.New(logger, engine, cfg.CronSpec)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	sched.Stop()

	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// newBackend builds the configured remote mirror. A "none" backend keeps the
// engine local-only.
func newBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) (remote.Backend, func(), error) {
	switch cfg.Remote.Backend {
	case config.RemoteNone:
		return nil, func() {}, nil
	case config.RemoteOneDrive:
		return remote.NewOneDrive(logger, cfg.Remote.ClientID, cfg.Remote.RefreshToken), func() {}, nil
	case config.RemoteGCS:
		gcs, err := remote.NewGCS(ctx, logger, cfg.Remote.Bucket, cfg.Remote.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("newBackend: %w", err)
		}
		return gcs, func() { _ = gcs.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("newBackend: unknown remote backend %q", cfg.Remote.Backend)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
			}),
		)

		logger.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
