package storage

import (
	"context"
	"slices"
	"testing"
	"time"

	"geoscatter/internal/surface/headless"
	"geoscatter/internal/viewer"
)

func newHeadlessViewer(t *testing.T, id string) *viewer.Viewer {
	t.Helper()
	container := &headless.Container{}
	v, err := viewer.New(viewer.Deps{
		Container:  container,
		Observer:   container,
		NewSurface: headless.Factory(headless.Options{Frames: 1}),
	}, viewer.Options{ID: id})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestRegistryRemovesClosedViewers(t *testing.T) {
	r := NewRegistry(nil)
	a := newHeadlessViewer(t, "a")
	b := newHeadlessViewer(t, "b")
	r.Add(a)
	r.Add(b)

	if ids := r.IDs(); !slices.Equal(ids, []string{"a", "b"}) {
		t.Fatalf("IDs = %v", ids)
	}

	a.Close(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for r.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := r.Get("a"); ok {
		t.Error("closed viewer still registered")
	}
	if got, ok := r.Get("b"); !ok || got != b {
		t.Error("live viewer missing")
	}

	if err := r.CloseAll(context.Background()); err != nil {
		t.Errorf("CloseAll: %v", err)
	}
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Error("CloseAll did not close viewer")
	}
}
