package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"pushhook/internal/deployment"
	"pushhook/pkg/cmdutil"

	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run one deployment in the foreground",
	Long: `Run the same update and restart steps a push event would trigger, using the
current configuration, and wait for them to finish.

Exits non-zero unless the deployment succeeded.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer closeLog()

	result := newAction(cfg, logger).Run(context.Background(), cfg.RepoPath, cfg.ServiceName)
	printResult(cmd.OutOrStdout(), result)

	if !result.Succeeded() {
		return fmt.Errorf("deployment %s", result.Outcome)
	}
	return nil
}

func printResult(w io.Writer, r deployment.Result) {
	fmt.Fprintf(w, "\nDeployment %s\n", r.Outcome)
	fmt.Fprintf(w, "  Repository: %s\n", r.RepoPath)
	if r.Update != nil {
		fmt.Fprintf(w, "  Update:     %s (exit %d, %s)\n", cmdutil.FormatCommand(r.Update.Command), r.Update.ExitCode, r.Update.Duration.Round(time.Millisecond))
	}
	if r.Restart != nil {
		fmt.Fprintf(w, "  Restart:    %s (exit %d, %s)\n", cmdutil.FormatCommand(r.Restart.Command), r.Restart.ExitCode, r.Restart.Duration.Round(time.Millisecond))
	} else if r.ServiceName == "" {
		fmt.Fprintf(w, "  Restart:    skipped (no service configured)\n")
	}
	fmt.Fprintf(w, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
}
