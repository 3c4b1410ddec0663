// Package notify publishes deployment progress back to GitHub as commit
// statuses on the pushed head commit.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pushhook/internal/deployment"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	// StatusContext is the commit status context shown on GitHub.
	StatusContext = "pushhook/deploy"

	// apiTimeout bounds each status API call.
	apiTimeout = 10 * time.Second

	zeroSHA = "0000000000000000000000000000000000000000"
)

// GitHubReporter posts commit statuses for deployments.
type GitHubReporter struct {
	client    *github.Client
	TargetURL string // optional link shown next to the status
}

// NewGitHubReporter creates a reporter authenticated with a personal access
// or installation token. Returns nil for an empty token.
func NewGitHubReporter(token string) *GitHubReporter {
	if token == "" {
		return nil
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return NewGitHubReporterWithClient(github.NewClient(tc))
}

// NewGitHubReporterWithClient wraps an existing client (GitHub Enterprise, tests).
func NewGitHubReporterWithClient(client *github.Client) *GitHubReporter {
	return &GitHubReporter{client: client}
}

// ReportPending marks the pushed commit as deploying.
func (g *GitHubReporter) ReportPending(ctx context.Context, t deployment.Trigger) error {
	return g.create(ctx, t, "pending", "Deployment queued")
}

// ReportResult marks the pushed commit with the deployment outcome.
func (g *GitHubReporter) ReportResult(ctx context.Context, t deployment.Trigger, r deployment.Result) error {
	state := "failure"
	if r.Succeeded() {
		state = "success"
	}
	return g.create(ctx, t, state, Describe(r))
}

func (g *GitHubReporter) create(ctx context.Context, t deployment.Trigger, state, description string) error {
	if t.Repository == "" || t.After == "" || t.After == zeroSHA {
		return nil
	}

	owner, repo, ok := strings.Cut(t.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("invalid owner/repo format: %s", t.Repository)
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	status := &github.RepoStatus{
		State:       github.String(state),
		Description: github.String(description),
		Context:     github.String(StatusContext),
	}
	if g.TargetURL != "" {
		status.TargetURL = github.String(g.TargetURL)
	}

	if _, _, err := g.client.Repositories.CreateStatus(ctx, owner, repo, t.After, status); err != nil {
		return fmt.Errorf("failed to create commit status: %w", err)
	}
	return nil
}

// Describe summarises a deployment result in a commit status description.
func Describe(r deployment.Result) string {
	switch r.Outcome {
	case deployment.OutcomeSucceeded:
		if r.ServiceName != "" {
			return fmt.Sprintf("Deployed and restarted %s", r.ServiceName)
		}
		return "Deployed"
	case deployment.OutcomeRepoNotFound:
		return "Repository not found on server"
	case deployment.OutcomeUpdateFailed:
		return fmt.Sprintf("Update failed (exit %d)", exitCode(r.Update))
	case deployment.OutcomeRestartFailed:
		return fmt.Sprintf("Restart of %s failed (exit %d)", r.ServiceName, exitCode(r.Restart))
	default:
		return string(r.Outcome)
	}
}

func exitCode(r *deployment.CommandResult) int {
	if r == nil {
		return -1
	}
	return r.ExitCode
}
