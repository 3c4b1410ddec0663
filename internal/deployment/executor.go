package deployment

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"pushhook/pkg/cmdutil"
)

// CommandResult captures one subprocess execution.
type CommandResult struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// OK checks if the execution was successful
func (r *CommandResult) OK() bool {
	return r != nil && r.ExitCode == 0
}

// Runner executes a command in a working directory. Implementations report
// every failure through the returned result rather than an error.
type Runner interface {
	Run(ctx context.Context, dir string, timeout time.Duration, command []string) *CommandResult
}

// CommandRunner runs commands as real subprocesses without a shell.
type CommandRunner struct {
	// Env overrides the subprocess environment; nil inherits the server's.
	Env []string
}

// NewCommandRunner creates a runner that inherits the process environment.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run executes command with a timeout in dir.
func (cr *CommandRunner) Run(ctx context.Context, dir string, timeout time.Duration, command []string) *CommandResult {
	result, err := cmdutil.Run(ctx, cmdutil.ExecOptions{
		Dir:     dir,
		Timeout: timeout,
		Env:     cr.Env,
	}, command)

	execResult := &CommandResult{
		Command:  command,
		ExitCode: cmdutil.NoExitCode,
	}

	if result != nil {
		execResult.ExitCode = result.ExitCode
		execResult.Stdout = string(result.Stdout)
		execResult.Stderr = string(result.Stderr)
		execResult.TimedOut = result.TimedOut
		execResult.Duration = result.Duration
	}

	// Start failures leave no output behind; keep the reason visible.
	var exitErr *exec.ExitError
	if err != nil && execResult.Stderr == "" && !errors.As(err, &exitErr) {
		execResult.Stderr = err.Error()
	}

	return execResult
}
