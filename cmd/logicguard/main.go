// Logicguard is an AI code-review backend.
//
// It accepts source code over HTTP, sends it to an LLM provider (Groq or
// Anthropic), normalizes the reply into a strict result contract, and
// persists history for signed-in users.
//
// Configuration is layered: defaults, then an optional YAML file, then
// environment variables. See internal/config for the full key list.
//
// Usage:
//
//	# Start with defaults (needs PROVIDER_API_KEY)
//	PROVIDER_API_KEY=gsk_... logicguard
//
//	# Configure via file and environment
//	SERVER_PORT=8080 logicguard -config logicguard.yaml
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

	"go.uber.org/zap"

	"github.com/logicguard/logicguard/internal/analysis"
	"github.com/logicguard/logicguard/internal/auth"
	"github.com/logicguard/logicguard/internal/config"
	httpapi "github.com/logicguard/logicguard/internal/http"
	"github.com/logicguard/logicguard/internal/logging"
	"github.com/logicguard/logicguard/internal/provider"
	"github.com/logicguard/logicguard/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("logicguard %s (commit %s, built %s)\n", version, gitCommit, buildDate)
		os.Exit(0)
	}

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

// run wires the services and blocks until the context is cancelled or the
// server fails.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.NewDefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting logicguard",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Provider.Name),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	llm, err := provider.New(cfg.Provider.Name, provider.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	analyzer, err := analysis.NewService(&analysis.Config{
		Timeout:     cfg.Provider.Timeout,
		MaxTokens:   2048,
		Temperature: 0.3,
	}, llm, st, logger.Named("analysis"))
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}

	authSvc, err := auth.NewService(auth.Config{
		SessionTTL:         cfg.Auth.SessionTTL,
		GitHubClientID:     cfg.Auth.GitHubClientID,
		GitHubClientSecret: cfg.Auth.GitHubClientSecret,
		GitHubRedirectURL:  cfg.Auth.GitHubRedirectURL,
		GoogleClientID:     cfg.Auth.GoogleClientID,
		GoogleClientSecret: cfg.Auth.GoogleClientSecret,
		GoogleRedirectURL:  cfg.Auth.GoogleRedirectURL,
	}, st, logger)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	srv, err := httpapi.NewServer(analyzer, authSvc, st, logger.Named("http"), &httpapi.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/api/health", cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
