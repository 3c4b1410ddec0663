package deployment

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Trigger identifies the push that requested a deployment.
type Trigger struct {
	DeliveryID string
	Ref        string
	Before     string
	After      string
	Repository string // owner/name
	Pusher     string
	ReceivedAt time.Time
}

// Deployer runs one deployment. *Action is the production implementation.
type Deployer interface {
	Run(ctx context.Context, repoPath, serviceName string) Result
}

// StatusReporter publishes deployment progress for a trigger, for example as
// a commit status. Errors are logged and never affect the deployment.
type StatusReporter interface {
	ReportPending(ctx context.Context, t Trigger) error
	ReportResult(ctx context.Context, t Trigger, r Result) error
}

// Dispatcher runs deployments in the background, one at a time per
// repository. The caller never waits on a submitted deployment.
type Dispatcher struct {
	deployer    Deployer
	reporter    StatusReporter
	locks       *LockManager
	logger      *slog.Logger
	repoPath    string
	serviceName string
	wg          sync.WaitGroup
}

// NewDispatcher creates a dispatcher for one repository target.
// reporter may be nil.
func NewDispatcher(deployer Deployer, reporter StatusReporter, repoPath, serviceName string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		deployer:    deployer,
		reporter:    reporter,
		locks:       NewLockManager(),
		logger:      logger,
		repoPath:    repoPath,
		serviceName: serviceName,
	}
}

// Submit schedules a deployment for t and returns immediately. It reports
// false when a deployment is already running for the repository; t is then
// folded into a single follow-up run after the current one finishes.
func (d *Dispatcher) Submit(t Trigger) bool {
	if !d.locks.TryLock(d.repoPath, t) {
		d.logger.Info("deployment in progress, coalescing push",
			"repo", d.repoPath, "delivery", t.DeliveryID, "after", t.After)
		return false
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Detached from any request: the webhook response is already gone.
		ctx := context.Background()
		batch := []Trigger{t}
		for len(batch) > 0 {
			d.run(ctx, batch)
			batch = d.locks.Unlock(d.repoPath)
		}
	}()

	return true
}

func (d *Dispatcher) run(ctx context.Context, batch []Trigger) {
	latest := batch[len(batch)-1]
	logger := d.logger.With("repo", d.repoPath, "delivery", latest.DeliveryID)

	for _, t := range batch {
		d.report(ctx, logger, t, nil)
	}

	logger.Info("deployment started",
		"ref", latest.Ref, "after", latest.After, "pusher", latest.Pusher, "pushes", len(batch))

	result := d.deployer.Run(ctx, d.repoPath, d.serviceName)

	if result.Succeeded() {
		logger.Info("deployment completed", "outcome", result.Outcome, "duration_ms", result.Duration.Milliseconds())
	} else {
		logger.Error("deployment failed", "outcome", result.Outcome, "duration_ms", result.Duration.Milliseconds())
	}

	for _, t := range batch {
		d.report(ctx, logger, t, &result)
	}
}

func (d *Dispatcher) report(ctx context.Context, logger *slog.Logger, t Trigger, result *Result) {
	if d.reporter == nil {
		return
	}

	var err error
	if result == nil {
		err = d.reporter.ReportPending(ctx, t)
	} else {
		err = d.reporter.ReportResult(ctx, t, *result)
	}
	if err != nil {
		logger.Warn("failed to report deployment status", "after", t.After, "error", err)
	}
}

// Wait blocks until every submitted deployment has finished.
// This is primarily useful for testing.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// WaitTimeout waits for in-flight deployments up to timeout and reports
// whether they all finished. Deployments still running are abandoned.
func (d *Dispatcher) WaitTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
