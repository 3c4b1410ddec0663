package deployment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// blockingDeployer counts runs and, when gate is set, holds each run until released.
type blockingDeployer struct {
	runs    int32
	started chan struct{}
	gate    chan struct{}
	outcome Outcome
}

func (b *blockingDeployer) Run(ctx context.Context, repoPath, serviceName string) Result {
	atomic.AddInt32(&b.runs, 1)
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.gate != nil {
		<-b.gate
	}
	outcome := b.outcome
	if outcome == "" {
		outcome = OutcomeSucceeded
	}
	return Result{Outcome: outcome, RepoPath: repoPath, ServiceName: serviceName}
}

type recordingReporter struct {
	mu      sync.Mutex
	pending []string
	results map[string]Outcome
	err     error
}

func (r *recordingReporter) ReportPending(ctx context.Context, t Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, t.After)
	return r.err
}

func (r *recordingReporter) ReportResult(ctx context.Context, t Trigger, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string]Outcome)
	}
	r.results[t.After] = res.Outcome
	return r.err
}

func TestDispatcher_RunsOnce(t *testing.T) {
	deployer := &blockingDeployer{}
	d := NewDispatcher(deployer, nil, "/srv/app", "web", newTestLogger())

	if !d.Submit(Trigger{After: "a1"}) {
		t.Fatal("first Submit should start a deployment")
	}
	d.Wait()

	if n := atomic.LoadInt32(&deployer.runs); n != 1 {
		t.Errorf("expected 1 deployment, got %d", n)
	}
}

func TestDispatcher_SubmitDoesNotBlock(t *testing.T) {
	deployer := &blockingDeployer{gate: make(chan struct{})}
	d := NewDispatcher(deployer, nil, "/srv/app", "", newTestLogger())

	done := make(chan struct{})
	go func() {
		d.Submit(Trigger{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a running deployment")
	}

	close(deployer.gate)
	d.Wait()
}

func TestDispatcher_CoalescesConcurrentPushes(t *testing.T) {
	deployer := &blockingDeployer{
		started: make(chan struct{}, 10),
		gate:    make(chan struct{}),
	}
	reporter := &recordingReporter{}
	d := NewDispatcher(deployer, reporter, "/srv/app", "web", newTestLogger())

	if !d.Submit(Trigger{After: "a1"}) {
		t.Fatal("first Submit should start a deployment")
	}
	<-deployer.started

	for _, sha := range []string{"b2", "c3", "d4"} {
		if d.Submit(Trigger{After: sha}) {
			t.Errorf("Submit(%s) started a second concurrent deployment", sha)
		}
	}

	close(deployer.gate)
	d.Wait()

	// One run for a1, one follow-up run covering b2, c3 and d4.
	if n := atomic.LoadInt32(&deployer.runs); n != 2 {
		t.Errorf("expected 2 deployments, got %d", n)
	}

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.pending) != 4 {
		t.Errorf("expected 4 pending reports, got %v", reporter.pending)
	}
	for _, sha := range []string{"a1", "b2", "c3", "d4"} {
		if reporter.results[sha] != OutcomeSucceeded {
			t.Errorf("result for %s = %q, want %q", sha, reporter.results[sha], OutcomeSucceeded)
		}
	}
}

func TestDispatcher_ReporterErrorsIgnored(t *testing.T) {
	deployer := &blockingDeployer{outcome: OutcomeUpdateFailed}
	reporter := &recordingReporter{err: errors.New("github unavailable")}
	d := NewDispatcher(deployer, reporter, "/srv/app", "", newTestLogger())

	d.Submit(Trigger{After: "a1"})
	d.Wait()

	if n := atomic.LoadInt32(&deployer.runs); n != 1 {
		t.Errorf("expected 1 deployment, got %d", n)
	}
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if reporter.results["a1"] != OutcomeUpdateFailed {
		t.Errorf("result for a1 = %q", reporter.results["a1"])
	}
}

func TestDispatcher_WaitTimeout(t *testing.T) {
	deployer := &blockingDeployer{gate: make(chan struct{})}
	d := NewDispatcher(deployer, nil, "/srv/app", "", newTestLogger())

	d.Submit(Trigger{})
	if d.WaitTimeout(50 * time.Millisecond) {
		t.Error("WaitTimeout should report false while a deployment is blocked")
	}

	close(deployer.gate)
	if !d.WaitTimeout(2 * time.Second) {
		t.Error("WaitTimeout should report true once the deployment finished")
	}
}
