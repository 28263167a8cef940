package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

type fakeQueueRetentionRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeQueueRetentionRepo) PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

func TestQueueRetentionJobPrunesAtCutoff(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeQueueRetentionRepo{}
	job := newQueueRetentionJob(t, repo, 7*24*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-7 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestQueueRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeQueueRetentionRepo{err: errors.New("boom")}
	job := newQueueRetentionJob(t, repo, time.Hour)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newQueueRetentionJob(t *testing.T, repo *fakeQueueRetentionRepo, window time.Duration) *queueRetentionJob {
	t.Helper()
	jobIface, err := NewQueueRetentionJob(QueueRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Window:     window,
	})
	if err != nil {
		t.Fatalf("NewQueueRetentionJob: %v", err)
	}
	job, ok := jobIface.(*queueRetentionJob)
	if !ok {
		t.Fatalf("expected queueRetentionJob, got %T", jobIface)
	}
	return job
}
