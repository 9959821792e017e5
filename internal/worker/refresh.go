package worker

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Reloader reloads every dataset
type Reloader interface {
	LoadAll(ctx context.Context) error
}

// StartDatasetRefresh periodically re-ingests all datasets
func StartDatasetRefresh(ctx context.Context, s *Scheduler, datasets Reloader, interval time.Duration) {
	s.Every(ctx, "dataset-refresh", interval, func(ctx context.Context) {
		if err := datasets.LoadAll(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("dataset refresh incomplete", "error", err)
		}
	})
}

// StartMemoryReport logs heap statistics
func StartMemoryReport(ctx context.Context, s *Scheduler, interval time.Duration) {
	s.Every(ctx, "memory-report", interval, func(context.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		s.log.Debug("memory",
			slog.Uint64("alloc_mib", m.Alloc/1024/1024),
			slog.Uint64("total_alloc_mib", m.TotalAlloc/1024/1024),
			slog.Uint64("sys_mib", m.Sys/1024/1024),
			slog.Uint64("num_gc", uint64(m.NumGC)),
		)
	})
}
