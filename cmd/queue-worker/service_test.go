package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

type fakeProcessor struct {
	result *queue.BatchResult
	err    error
	calls  int
}

func (f *fakeProcessor) ProcessBatch(ctx context.Context) (*queue.BatchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStaleReleaser struct {
	lastOlderThan time.Time
	released      int64
	err           error
	calls         int
}

func (f *fakeStaleReleaser) ReleaseStale(ctx context.Context, olderThan time.Time) (int64, error) {
	f.calls++
	f.lastOlderThan = olderThan
	if f.err != nil {
		return 0, f.err
	}
	return f.released, nil
}

func workerTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Queue.BatchSize = 10
	cfg.Queue.PollInterval = time.Minute
	cfg.Queue.StaleClaimAfter = 10 * time.Minute
	return cfg
}

func newTestService(t *testing.T, processor *fakeProcessor, repo *fakeStaleReleaser) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Config:    workerTestConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "worker-test"}),
		Processor: processor,
		Repo:      repo,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestNewServiceValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test"})
	processor := &fakeProcessor{result: &queue.BatchResult{}}
	repo := &fakeStaleReleaser{}

	cases := map[string]ServiceParams{
		"missing config":    {Logger: logg, Processor: processor, Repo: repo},
		"missing logger":    {Config: workerTestConfig(), Processor: processor, Repo: repo},
		"missing processor": {Config: workerTestConfig(), Logger: logg, Repo: repo},
		"missing repo":      {Config: workerTestConfig(), Logger: logg, Processor: processor},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewService(params); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	cfg := workerTestConfig()
	cfg.Queue.PollInterval = 0
	cfg.Queue.StaleClaimAfter = 0

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logger.New(logger.Options{ServiceName: "worker-test"}),
		Processor: &fakeProcessor{result: &queue.BatchResult{}},
		Repo:      &fakeStaleReleaser{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if service.pollInterval != defaultPollInterval {
		t.Fatalf("expected default poll interval, got %s", service.pollInterval)
	}
	if service.staleAfter != defaultStaleClaimAfter {
		t.Fatalf("expected default stale window, got %s", service.staleAfter)
	}
}

func TestRunCycleReleasesStaleClaimsFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	processor := &fakeProcessor{result: &queue.BatchResult{Claimed: 3}}
	repo := &fakeStaleReleaser{released: 2}
	service := newTestService(t, processor, repo)
	service.now = func() time.Time { return now }

	full, err := service.runCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if full {
		t.Fatal("a partial batch must not report full")
	}
	if repo.calls != 1 {
		t.Fatalf("expected one stale sweep, got %d", repo.calls)
	}
	expected := now.Add(-10 * time.Minute)
	if !repo.lastOlderThan.Equal(expected) {
		t.Fatalf("expected stale cutoff %s, got %s", expected, repo.lastOlderThan)
	}
	if processor.calls != 1 {
		t.Fatalf("expected one batch, got %d", processor.calls)
	}
}

func TestRunCycleReportsFullBatch(t *testing.T) {
	processor := &fakeProcessor{result: &queue.BatchResult{Claimed: 10}}
	service := newTestService(t, processor, &fakeStaleReleaser{})

	full, err := service.runCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if !full {
		t.Fatal("a full batch must request an immediate follow-up pass")
	}
}

func TestRunCycleStaleSweepFailureAbortsCycle(t *testing.T) {
	processor := &fakeProcessor{result: &queue.BatchResult{}}
	repo := &fakeStaleReleaser{err: errors.New("boom")}
	service := newTestService(t, processor, repo)

	if _, err := service.runCycle(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if processor.calls != 0 {
		t.Fatalf("batch must not run when the sweep fails, ran %d", processor.calls)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	processor := &fakeProcessor{result: &queue.BatchResult{}}
	service := newTestService(t, processor, &fakeStaleReleaser{})
	service.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := service.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if processor.calls == 0 {
		t.Fatal("expected at least one cycle before cancellation")
	}
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 30 * time.Second
	backoff := nextBackoff(base, base, maxBackoff)
	if backoff != time.Minute {
		t.Fatalf("expected 1m, got %s", backoff)
	}
	backoff = nextBackoff(10*time.Minute, base, maxBackoff)
	if backoff != maxBackoff {
		t.Fatalf("expected cap %s, got %s", maxBackoff, backoff)
	}
}
