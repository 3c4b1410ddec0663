package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pushhook/internal/deployment"
	"pushhook/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the HTTP server to receive GitHub webhook requests on POST /github-webhook.

Push events trigger a git update of REPO_PATH followed by a restart of
SERVICE_NAME when one is configured. Other events are acknowledged and ignored.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer closeLog()

	logger.Info("Starting pushhook",
		"version", version,
		"config", cfg.Source,
		"repo", cfg.RepoPath,
		"service", cfg.ServiceName,
		"status_reporting", cfg.GitHubToken != "")

	warnOnStartup(cfg, logger)

	dispatcher := deployment.NewDispatcher(newAction(cfg, logger), newReporter(cfg), cfg.RepoPath, cfg.ServiceName, logger)
	srv := server.NewServer(cfg.Secret, dispatcher, logger, cfg.RateLimit)
	srv.TrustProxy = cfg.TrustProxy

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", "error", err)
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "grace_period", cfg.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}

	if !dispatcher.WaitTimeout(cfg.ShutdownTimeout) {
		logger.Warn("Abandoning in-flight deployment", "repo", cfg.RepoPath)
	}

	logger.Info("Stopped")
	return nil
}
