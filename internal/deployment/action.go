package deployment

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"pushhook/pkg/cmdutil"
	"pushhook/pkg/fileutil"
)

const (
	// RepoMarker must exist inside a repository path before anything runs.
	// It may be a directory or, for worktrees and submodules, a gitfile.
	RepoMarker = ".git"

	DefaultUpdateTimeout  = 120 * time.Second
	DefaultRestartTimeout = 60 * time.Second

	// maxLoggedOutput caps stdout/stderr attached to log records.
	maxLoggedOutput = 4096
)

// Outcome classifies how a deployment ended.
type Outcome string

const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeRepoNotFound  Outcome = "repo_not_found"
	OutcomeUpdateFailed  Outcome = "update_failed"
	OutcomeRestartFailed Outcome = "restart_failed"
)

// Result describes one deployment. Update is nil when the repository was
// not found; Restart is nil when no restart ran.
type Result struct {
	Outcome     Outcome
	RepoPath    string
	ServiceName string
	Update      *CommandResult
	Restart     *CommandResult
	Duration    time.Duration
}

// Succeeded reports whether every step that ran exited zero.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// Action updates a working copy and optionally restarts a service.
type Action struct {
	Runner         Runner
	UpdateCommand  []string
	RestartCommand []string // service name is appended
	UpdateTimeout  time.Duration
	RestartTimeout time.Duration
	Logger         *slog.Logger

	// Redact returns values to mask in logged output. It is called on every
	// run so rotated credentials are covered; nil masks nothing.
	Redact func() []string
}

// NewAction creates an action with the default commands and timeouts.
func NewAction(runner Runner, logger *slog.Logger) *Action {
	return &Action{
		Runner:         runner,
		UpdateCommand:  []string{"git", "pull"},
		RestartCommand: []string{"systemctl", "restart"},
		UpdateTimeout:  DefaultUpdateTimeout,
		RestartTimeout: DefaultRestartTimeout,
		Logger:         logger,
	}
}

// Run performs the deployment. It never returns an error: subprocess
// failures surface as non-zero exit codes and a failed Outcome.
// An empty serviceName skips the restart step.
func (a *Action) Run(ctx context.Context, repoPath, serviceName string) Result {
	start := time.Now()
	result := Result{RepoPath: repoPath, ServiceName: serviceName}
	logger := a.Logger.With("repo", repoPath)
	redact := a.redactions()

	if !fileutil.PathExists(filepath.Join(repoPath, RepoMarker)) {
		logger.Error("repository not found, skipping deployment", "step", "validate", "marker", RepoMarker)
		result.Outcome = OutcomeRepoNotFound
		result.Duration = time.Since(start)
		return result
	}

	result.Update = a.Runner.Run(ctx, repoPath, a.UpdateTimeout, a.UpdateCommand)
	a.logStep(logger, "update", result.Update, redact)
	if !result.Update.OK() {
		if serviceName != "" {
			logger.Warn("skipping restart after failed update", "step", "restart", "service", serviceName)
		}
		result.Outcome = OutcomeUpdateFailed
		result.Duration = time.Since(start)
		return result
	}

	if serviceName != "" {
		cmd := make([]string, 0, len(a.RestartCommand)+1)
		cmd = append(cmd, a.RestartCommand...)
		cmd = append(cmd, serviceName)

		result.Restart = a.Runner.Run(ctx, repoPath, a.RestartTimeout, cmd)
		a.logStep(logger.With("service", serviceName), "restart", result.Restart, redact)
		if !result.Restart.OK() {
			result.Outcome = OutcomeRestartFailed
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Outcome = OutcomeSucceeded
	result.Duration = time.Since(start)
	return result
}

func (a *Action) logStep(logger *slog.Logger, step string, r *CommandResult, redact []string) {
	attrs := []any{
		"step", step,
		"command", cmdutil.FormatCommand(r.Command),
		"exit_code", r.ExitCode,
		"duration_ms", r.Duration.Milliseconds(),
		"stdout", clean(r.Stdout, redact),
		"stderr", clean(r.Stderr, redact),
	}

	if r.OK() {
		logger.Info("deployment step succeeded", attrs...)
		return
	}
	if r.TimedOut {
		attrs = append(attrs, "timed_out", true)
	}
	logger.Error("deployment step failed", attrs...)
}

func (a *Action) redactions() []string {
	if a.Redact == nil {
		return nil
	}
	return a.Redact()
}

func clean(output string, redact []string) string {
	sanitized := cmdutil.SanitizeOutput([]byte(output), redact)
	return cmdutil.Truncate(string(sanitized), maxLoggedOutput)
}
