package storage

import (
	"context"
	"errors"
	"log/slog"

	"geoscatter/internal/metrics"
	"geoscatter/internal/viewer"
)

// Registry tracks live viewer sessions by id
type Registry struct {
	viewers *MemoryStorage[string, *viewer.Viewer]
	log     *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{viewers: NewMemoryStorage[string, *viewer.Viewer](), log: logger}
}

// Add registers v and removes it again once it is closed
func (r *Registry) Add(v *viewer.Viewer) {
	r.viewers.Set(v.ID(), v)
	metrics.ActiveViewers.Set(float64(r.viewers.Count()))

	go func() {
		<-v.Done()
		r.remove(v)
	}()
}

func (r *Registry) remove(v *viewer.Viewer) {
	r.viewers.DeleteIf(v.ID(), func(current *viewer.Viewer) bool { return current == v })
	metrics.ActiveViewers.Set(float64(r.viewers.Count()))
}

func (r *Registry) Get(id string) (*viewer.Viewer, bool) {
	return r.viewers.Get(id)
}

// IDs returns the ids of live viewers in ascending order
func (r *Registry) IDs() []string {
	return r.viewers.Keys()
}

func (r *Registry) Count() int {
	return r.viewers.Count()
}

// CloseAll closes every live viewer
func (r *Registry) CloseAll(ctx context.Context) error {
	var errs []error
	r.viewers.ForEach(func(id string, v *viewer.Viewer) bool {
		if err := v.Close(ctx); err != nil {
			r.log.Warn("failed to close viewer", "viewer", id, "error", err)
			errs = append(errs, err)
		}
		return true
	})
	return errors.Join(errs...)
}
