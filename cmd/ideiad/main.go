// Ideiad is the Sacola de Ideias backend: an authenticated idea notebook
// with semantic search over note fingerprints.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	ideiad
//
//	# Configure via environment
//	SERVER_PORT=8002 DATABASE_URL=postgres://... AUTH_JWT_SECRET=... ideiad
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/accesslog"
	"github.com/sacolalabs/ideiad/internal/auth"
	"github.com/sacolalabs/ideiad/internal/config"
	"github.com/sacolalabs/ideiad/internal/embeddings"
	"github.com/sacolalabs/ideiad/internal/httpapi"
	"github.com/sacolalabs/ideiad/internal/logging"
	"github.com/sacolalabs/ideiad/internal/notes"
	"github.com/sacolalabs/ideiad/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  ideiad           Start the ideiad server\n")
			fmt.Fprintf(os.Stderr, "  ideiad version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("ideiad by Sacola Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the ideiad server and blocks until the context is cancelled.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize logger
//  3. Connect to Postgres and register the vector type
//  4. Create the embedding provider (degraded mode without an API key)
//  5. Wire auth, notes and access-log services
//  6. Start the HTTP server, shut down gracefully on cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger) // Best-effort sync on shutdown
	}()

	logger.Info("starting ideiad",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	// Connect to Postgres
	connectCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancelConnect context.CancelFunc
		connectCtx, cancelConnect = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancelConnect()
	}
	db, err := store.New(connectCtx, store.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	logger.Info("database connected")

	// The embedding provider tolerates a missing API key: search degrades to
	// substring matching and notes are stored without fingerprints.
	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey,
	}, logger, embeddings.NewMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}

	logger.Info("embedding provider initialized",
		zap.String("model", cfg.Embeddings.Model),
		zap.Bool("available", embedder.Available()))

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	authSvc, err := auth.NewService(auth.Config{
		GoogleClientID:     cfg.Auth.GoogleClientID,
		GoogleClientSecret: cfg.Auth.GoogleClientSecret,
		GoogleRedirectURL:  cfg.Auth.GoogleRedirectURL,
	}, db, tokens, logger)
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}

	noteSvc, err := notes.NewService(db, embedder, logger)
	if err != nil {
		return fmt.Errorf("creating notes service: %w", err)
	}

	recorder, err := accesslog.NewRecorder(db, logger)
	if err != nil {
		return fmt.Errorf("creating access recorder: %w", err)
	}

	srv, err := httpapi.NewServer(
		noteSvc,
		authSvc,
		tokens,
		recorder,
		httpapi.NewMetrics(prometheus.DefaultRegisterer),
		logger,
		&httpapi.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
		},
	)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
