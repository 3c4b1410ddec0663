package main

import (
	"log/slog"
	"path/filepath"

	"pushhook/internal/config"
	"pushhook/internal/deployment"
	"pushhook/internal/notify"
	"pushhook/internal/security"
	"pushhook/pkg/fileutil"
)

// loadConfig resolves the config file from the --config flag and loads it.
func loadConfig() (*config.Config, error) {
	return config.Load(config.FindConfigFile(configFile))
}

// newAction builds the deployment action from cfg.
func newAction(cfg *config.Config, logger *slog.Logger) *deployment.Action {
	action := deployment.NewAction(deployment.NewCommandRunner(), logger)
	action.UpdateCommand = cfg.UpdateCommand
	action.RestartCommand = cfg.RestartCommand
	action.UpdateTimeout = cfg.UpdateTimeout
	action.RestartTimeout = cfg.RestartTimeout
	action.Redact = cfg.Redactions
	return action
}

// newReporter returns the commit status reporter, or nil without a token.
// The nil check keeps a typed nil out of the interface.
func newReporter(cfg *config.Config) deployment.StatusReporter {
	reporter := notify.NewGitHubReporter(cfg.GitHubToken)
	if reporter == nil {
		return nil
	}
	reporter.TargetURL = cfg.StatusURL
	return reporter
}

// warnOnStartup logs configuration problems that do not prevent startup.
func warnOnStartup(cfg *config.Config, logger *slog.Logger) {
	if err := security.ValidateSecret(string(cfg.Secret())); err != nil {
		logger.Error("CRITICAL: weak webhook secret, generate one with 'pushhook secret'",
			"env", config.EnvSecret, "reason", err.Error())
	}

	if !fileutil.PathExists(filepath.Join(cfg.RepoPath, deployment.RepoMarker)) {
		logger.Warn("Repository marker not found, deployments will fail until it exists",
			"repo", cfg.RepoPath, "marker", deployment.RepoMarker)
	}
}
