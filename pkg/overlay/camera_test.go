package overlay

import (
	"testing"
	"time"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCamera() (*Camera, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cam := NewCamera(800, 600)
	cam.now = clock.now
	return cam, clock
}

func TestCameraLatestRequestWins(t *testing.T) {
	cam, clock := newTestCamera()

	first := cam.Apply(CenterOn{Position: curriculum.Position{X: 100, Y: 0}, Zoom: SelectZoom, Duration: SelectDuration})
	clock.advance(200 * time.Millisecond)
	second := cam.Apply(CenterOn{Position: curriculum.Position{X: -200, Y: 40}, Zoom: FocusZoom, Duration: FocusDuration})

	if second <= first {
		t.Fatalf("sequence did not advance: %d then %d", first, second)
	}
	if !cam.Animating() {
		t.Error("camera should still be animating")
	}

	clock.advance(FocusDuration)
	want := View{Center: curriculum.Position{X: -200, Y: 40}, Zoom: FocusZoom}
	if got := cam.View(); got != want {
		t.Errorf("View() = %+v, want %+v", got, want)
	}
	if cam.Animating() {
		t.Error("animation should be finished")
	}
}

func TestCameraFitAll(t *testing.T) {
	cam, clock := newTestCamera()
	cam.SetBounds(layout.Rect{MinX: -400, MinY: -100, MaxX: 400, MaxY: 100})

	cam.Apply(FitAll{Duration: FitDuration})
	clock.advance(FitDuration)

	got := cam.View()
	if got.Center != (curriculum.Position{}) {
		t.Errorf("center = %+v, want origin", got.Center)
	}
	// 800 / (800+80) is the tighter constraint.
	if want := 800.0 / 880.0; got.Zoom != want {
		t.Errorf("zoom = %v, want %v", got.Zoom, want)
	}
}

func TestCameraIgnoresNil(t *testing.T) {
	cam, _ := newTestCamera()
	if seq := cam.Apply(nil); seq != 0 {
		t.Errorf("Apply(nil) = %d, want 0", seq)
	}
	if cam.Animating() {
		t.Error("nil effect should not animate")
	}
	if got := cam.View(); got.Zoom != 1 {
		t.Errorf("initial zoom = %v, want 1", got.Zoom)
	}
}
