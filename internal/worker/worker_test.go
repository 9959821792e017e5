package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReloader) LoadAll(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestDatasetRefreshRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(nil)
	r := &countingReloader{err: errors.New("one dataset failed")}

	StartDatasetRefresh(ctx, s, r, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	s.Wait()

	n := r.calls.Load()
	if n < 3 {
		t.Fatalf("refreshed %d times, want at least 3", n)
	}
	time.Sleep(20 * time.Millisecond)
	if r.calls.Load() != n {
		t.Error("worker kept running after cancel")
	}
}

func TestDisabledWorker(t *testing.T) {
	s := NewScheduler(nil)
	r := &countingReloader{}

	StartDatasetRefresh(context.Background(), s, r, 0)
	s.Wait()

	if r.calls.Load() != 0 {
		t.Error("disabled worker ran")
	}
}
