// Package dataset ingests configured datasets and serves their latest collections.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"geoscatter/internal/metrics"
	"geoscatter/internal/model"
	"geoscatter/internal/service/feature"
	"geoscatter/internal/service/source"
	"geoscatter/internal/service/storage"
	"geoscatter/internal/service/tabular"
	"geoscatter/internal/util"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrNotLoaded      = errors.New("dataset not loaded")
	ErrInvalidBound   = errors.New("invalid bounding box")
)

const preloadConcurrency = 4

// Dataset is a named source with its column mapping
type Dataset struct {
	Name        string
	Schema      model.Schema
	Coordinates model.CoordinateFields
	Source      source.Source
}

// RunRecorder persists ingest runs
type RunRecorder interface {
	Record(ctx context.Context, run model.IngestRun) error
	Recent(ctx context.Context, dataset string, limit int) ([]model.IngestRun, error)
}

// Snapshot is the latest ingested collection of a dataset
type Snapshot struct {
	Collection *geojson.FeatureCollection
	Stats      feature.Stats
	LoadedAt   time.Time

	generation uint64
	index      *rtreego.Rtree
}

// Service owns the configured datasets
type Service struct {
	datasets  map[string]Dataset
	names     []string
	runs      RunRecorder
	log       *slog.Logger
	snapshots *storage.MemoryStorage[string, *Snapshot]

	generation atomic.Uint64
	loading    sync.Mutex
}

// NewService creates the service. runs may be nil to disable run logging.
func NewService(datasets []Dataset, runs RunRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		datasets:  make(map[string]Dataset, len(datasets)),
		runs:      runs,
		log:       logger,
		snapshots: storage.NewMemoryStorage[string, *Snapshot](),
	}
	for _, d := range datasets {
		if _, dup := s.datasets[d.Name]; !dup {
			s.names = append(s.names, d.Name)
		}
		s.datasets[d.Name] = d
	}
	return s
}

// Names returns the configured dataset names in configuration order
func (s *Service) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Service) dataset(name string) (Dataset, error) {
	d, ok := s.datasets[name]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return d, nil
}

// Load fetches, parses and builds a dataset and stores the result.
// When loads of one dataset overlap, the one started last is kept.
func (s *Service) Load(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	d, err := s.dataset(name)
	if err != nil {
		return nil, err
	}

	gen := s.generation.Add(1)
	start := time.Now()
	fc, stats, err := s.ingest(ctx, d)
	elapsed := time.Since(start)

	run := model.IngestRun{
		ID:         util.NewID(),
		Dataset:    d.Name,
		Source:     d.Source.String(),
		Records:    stats.Records,
		Features:   stats.Kept,
		Dropped:    stats.Dropped,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if err != nil {
		run.Error = err.Error()
	}
	s.record(ctx, run)

	metrics.IngestDuration.WithLabelValues(d.Name).Observe(elapsed.Seconds())
	if err != nil {
		metrics.IngestRuns.WithLabelValues(d.Name, "error").Inc()
		s.log.Warn("dataset ingestion failed", "dataset", d.Name, "source", d.Source.String(), "error", err)
		return nil, fmt.Errorf("load %s: %w", d.Name, err)
	}
	metrics.IngestRuns.WithLabelValues(d.Name, "ok").Inc()
	metrics.RecordsDropped.WithLabelValues(d.Name).Add(float64(stats.Dropped))

	snap := &Snapshot{
		Collection: fc,
		Stats:      stats,
		LoadedAt:   time.Now(),
		generation: gen,
		index:      buildIndex(fc),
	}
	stored := s.snapshots.SetIf(d.Name, snap, func(current *Snapshot, ok bool) bool {
		return !ok || current.generation < gen
	})
	if stored {
		metrics.DatasetFeatures.WithLabelValues(d.Name).Set(float64(len(fc.Features)))
	}

	s.log.Info("dataset ingested",
		"dataset", d.Name,
		"records", stats.Records,
		"features", stats.Kept,
		"dropped", stats.Dropped,
		"duration", elapsed,
		"stored", stored,
	)
	return fc, nil
}

func (s *Service) ingest(ctx context.Context, d Dataset) (*geojson.FeatureCollection, feature.Stats, error) {
	rc, err := d.Source.Fetch(ctx)
	if err != nil {
		return nil, feature.Stats{}, err
	}
	defer rc.Close()

	records := tabular.Parse(rc, d.Schema)
	if err := ctx.Err(); err != nil {
		return nil, feature.Stats{}, err
	}

	fc, stats := feature.BuildWithStats(records, d.Coordinates)
	return fc, stats, nil
}

func (s *Service) record(ctx context.Context, run model.IngestRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(context.WithoutCancel(ctx), run); err != nil {
		s.log.Warn("failed to record ingest run", "dataset", run.Dataset, "error", err)
	}
}

// LoadAll loads every dataset concurrently. Failures are joined; the other datasets still load.
func (s *Service) LoadAll(ctx context.Context) error {
	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithMaxGoroutines(preloadConcurrency)

	for _, name := range s.names {
		p.Go(func(ctx context.Context) error {
			_, err := s.Load(ctx, name)
			return err
		})
	}
	return p.Wait()
}

// Snapshot returns the latest snapshot of a dataset
func (s *Service) Snapshot(name string) (*Snapshot, error) {
	if _, err := s.dataset(name); err != nil {
		return nil, err
	}
	snap, ok := s.snapshots.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotLoaded, name)
	}
	return snap, nil
}

// Collection returns the latest collection of a dataset
func (s *Service) Collection(name string) (*geojson.FeatureCollection, error) {
	snap, err := s.Snapshot(name)
	if err != nil {
		return nil, err
	}
	return snap.Collection, nil
}

// Ensure returns the latest collection, loading the dataset first if it never was
func (s *Service) Ensure(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	fc, err := s.Collection(name)
	if !errors.Is(err, ErrNotLoaded) {
		return fc, err
	}

	s.loading.Lock()
	defer s.loading.Unlock()

	if fc, err := s.Collection(name); err == nil {
		return fc, nil
	}
	return s.Load(ctx, name)
}

// Refresh drops any cached copy of the dataset's source and loads it again
func (s *Service) Refresh(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	d, err := s.dataset(name)
	if err != nil {
		return nil, err
	}
	if inv, ok := d.Source.(source.Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.log.Warn("failed to invalidate source cache", "dataset", d.Name, "error", err)
		}
	}
	return s.Load(ctx, name)
}

// Loader returns a load function for viewer ingestion.
// fresh refetches the source, bypassing any cache, instead of reusing the latest collection.
func (s *Service) Loader(name string, fresh bool) func(context.Context) (*geojson.FeatureCollection, error) {
	return func(ctx context.Context) (*geojson.FeatureCollection, error) {
		if fresh {
			return s.Refresh(ctx, name)
		}
		return s.Ensure(ctx, name)
	}
}

// Within returns the features of a dataset inside b, in collection order
func (s *Service) Within(name string, b orb.Bound) ([]*geojson.Feature, error) {
	if !validBound(b) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBound, b)
	}
	snap, err := s.Snapshot(name)
	if err != nil {
		return nil, err
	}
	return search(snap.index, b), nil
}

func validBound(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return util.ValidLonLat(b.Min[0], b.Min[1]) &&
		util.ValidLonLat(b.Max[0], b.Max[1]) &&
		b.Min[1] <= b.Max[1]
}

// Runs returns the latest ingest runs of a dataset, newest first.
// Without a recorder it returns an empty list.
func (s *Service) Runs(ctx context.Context, name string, limit int) ([]model.IngestRun, error) {
	if _, err := s.dataset(name); err != nil {
		return nil, err
	}
	if s.runs == nil {
		return []model.IngestRun{}, nil
	}
	return s.runs.Recent(ctx, name, limit)
}
