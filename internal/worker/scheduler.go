package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs background workers until its context is cancelled
type Scheduler struct {
	log *slog.Logger
	wg  sync.WaitGroup
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{log: logger}
}

// Every runs fn on a ticker. A non-positive interval disables the worker.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		s.log.Info("worker disabled", "worker", name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("worker stopped", "worker", name)
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	s.log.Info("worker started", "worker", name, "interval", interval)
}

// Wait blocks until every worker returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
