package viewer

import (
	"errors"
	"testing"

	"geoscatter/internal/model"

	"github.com/paulmach/orb"
)

var testViewport = ViewportConfig{
	InitialCenter: orb.Point{-74.0242, 40.6941},
	InitialZoom:   10.12,
}

func newTestSynchronizer(t *testing.T) (*ViewportSynchronizer, *fakeSurface) {
	t.Helper()

	ff := &fakeFactory{}
	s, err := NewViewportSynchronizer(ff.create, SurfaceOptions{Style: "style"}, testViewport)
	if err != nil {
		t.Fatalf("NewViewportSynchronizer: %v", err)
	}
	return s, ff.surface
}

func TestSynchronizerStartsAtInitialViewport(t *testing.T) {
	s, surface := newTestSynchronizer(t)

	if surface.opts.Center != testViewport.InitialCenter || surface.opts.Zoom != testViewport.InitialZoom {
		t.Errorf("surface created at %v/%v, want %v/%v",
			surface.opts.Center, surface.opts.Zoom, testViewport.InitialCenter, testViewport.InitialZoom)
	}
	if surface.opts.Style != "style" {
		t.Errorf("style = %q, want style", surface.opts.Style)
	}

	want := model.ViewportState{Center: testViewport.InitialCenter, Zoom: testViewport.InitialZoom}
	if got := s.State(); got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
	if surface.listenerCount() != 1 {
		t.Errorf("listeners = %d, want 1", surface.listenerCount())
	}
}

func TestSynchronizerEchoesEveryMove(t *testing.T) {
	s, surface := newTestSynchronizer(t)

	var seen []model.ViewportState
	s.Watch(func(st model.ViewportState) { seen = append(seen, st) })

	surface.move(model.Camera{Center: orb.Point{1, 2}, Zoom: 5})

	want := model.ViewportState{Center: orb.Point{1, 2}, Zoom: 5}
	if got := s.State(); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}

	for i := 0; i < 50; i++ {
		surface.move(model.Camera{Center: orb.Point{float64(i), 0}, Zoom: 3})
	}
	if len(seen) != 51 {
		t.Errorf("watcher saw %d updates, want 51", len(seen))
	}
	if got := s.State(); got.Center != (orb.Point{49, 0}) {
		t.Errorf("state = %+v, want last move", got)
	}
}

func TestSynchronizerResetIsIdempotent(t *testing.T) {
	s, surface := newTestSynchronizer(t)
	surface.move(model.Camera{Center: orb.Point{10, 10}, Zoom: 2})

	s.Reset()
	s.Reset()

	flights, _, _, _ := surface.snapshot()
	if len(flights) != 2 {
		t.Fatalf("flights = %d, want 2", len(flights))
	}
	if flights[0] != flights[1] || flights[0] != testViewport.Initial() {
		t.Errorf("flights = %+v, want two flights to %+v", flights, testViewport.Initial())
	}

	surface.land()
	surface.land()

	want := model.StateOf(testViewport.Initial())
	if got := s.State(); got != want {
		t.Errorf("state after reset = %+v, want %+v", got, want)
	}
}

func TestSynchronizerCloseSilencesSurface(t *testing.T) {
	s, surface := newTestSynchronizer(t)
	before := s.State()

	watched := 0
	s.Watch(func(model.ViewportState) { watched++ })

	s.Close()
	s.Close()

	if surface.listenerCount() != 0 {
		t.Errorf("listeners after close = %d, want 0", surface.listenerCount())
	}
	if _, _, _, destroyed := surface.snapshot(); !destroyed {
		t.Error("surface not destroyed")
	}

	surface.moveLate(model.Camera{Center: orb.Point{3, 4}, Zoom: 1})
	s.Reset()

	if got := s.State(); got != before {
		t.Errorf("state changed after close: %+v", got)
	}
	if watched != 0 {
		t.Errorf("watcher called %d times after close", watched)
	}
	if flights, _, _, _ := surface.snapshot(); len(flights) != 0 {
		t.Errorf("reset after close issued %d flights", len(flights))
	}
}

func TestSynchronizerSurfaceError(t *testing.T) {
	ff := &fakeFactory{err: errSurface}
	_, err := NewViewportSynchronizer(ff.create, SurfaceOptions{}, testViewport)
	if !errors.Is(err, errSurface) {
		t.Errorf("err = %v, want %v", err, errSurface)
	}
}
