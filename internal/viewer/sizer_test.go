package viewer

import (
	"testing"

	"geoscatter/internal/model"
)

func newTestSizer(t *testing.T) (*SurfaceSizer, *fakeContainer, *fakeObserver, *fakeSurface) {
	t.Helper()

	container := &fakeContainer{}
	observer := &fakeObserver{}
	ff := &fakeFactory{}
	surface, err := ff.create(SurfaceOptions{Container: container})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return NewSurfaceSizer(container, observer, surface), container, observer, ff.surface
}

func TestSizerZeroSizeBootstrap(t *testing.T) {
	s, _, observer, surface := newTestSizer(t)

	if observer.observed == nil {
		t.Fatal("container not observed")
	}
	if got := s.Dimensions(); !got.IsZero() {
		t.Fatalf("dimensions before first observation = %+v, want zero", got)
	}

	s.Sync()

	_, resizes, _, _ := surface.snapshot()
	if len(resizes) != 1 || !resizes[0].IsZero() {
		t.Errorf("resizes = %+v, want one zero-sized resize", resizes)
	}
}

func TestSizerReadsContainerWhenNotified(t *testing.T) {
	s, container, observer, surface := newTestSizer(t)

	container.set(800, 600)
	observer.fire()

	want := model.ContainerDimensions{Width: 800, Height: 600}
	if got := s.Dimensions(); got != want {
		t.Errorf("dimensions = %+v, want %+v", got, want)
	}

	container.set(1024, 768)
	observer.fire()
	if got := s.Dimensions(); got.Width != 1024 || got.Height != 768 {
		t.Errorf("dimensions = %+v, want 1024x768", got)
	}

	_, resizes, _, _ := surface.snapshot()
	if len(resizes) != 2 || resizes[1] != (model.ContainerDimensions{Width: 1024, Height: 768}) {
		t.Errorf("resizes = %+v", resizes)
	}
}

func TestSizerSyncDoesNotChangeState(t *testing.T) {
	s, container, observer, _ := newTestSizer(t)
	container.set(300, 200)
	observer.fire()

	container.set(10, 10)
	s.Sync()
	s.Sync()

	if got := s.Dimensions(); got != (model.ContainerDimensions{Width: 300, Height: 200}) {
		t.Errorf("Sync changed dimensions to %+v", got)
	}
}

func TestSizerIgnoresNotificationsAfterClose(t *testing.T) {
	s, container, observer, surface := newTestSizer(t)

	s.Close()
	s.Close()
	if !observer.isDisconnected() {
		t.Fatal("observer not disconnected")
	}

	container.set(640, 480)
	observer.fire()
	s.Sync()

	if got := s.Dimensions(); !got.IsZero() {
		t.Errorf("dimensions after close = %+v, want zero", got)
	}
	if _, resizes, _, _ := surface.snapshot(); len(resizes) != 0 {
		t.Errorf("resize after close: %+v", resizes)
	}
}
