package overlay

import (
	"math"
	"time"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
)

// View is where the camera looks.
type View struct {
	Center curriculum.Position
	Zoom   float64
}

// Camera applies effects. Only the most recent request is kept: a request
// made while another is animating replaces it.
type Camera struct {
	bounds   layout.Rect
	width    float64
	height   float64
	padding  float64
	view     View
	target   *View
	deadline time.Time
	seq      uint64
	now      func() time.Time
}

// NewCamera creates a camera for a viewport of the given size, looking at
// the origin at zoom 1.
func NewCamera(width, height float64) *Camera {
	return &Camera{
		width:   width,
		height:  height,
		padding: 40,
		view:    View{Zoom: 1},
		now:     time.Now,
	}
}

// SetBounds sets the area FitAll should show, usually [layout.Bounds].
func (c *Camera) SetBounds(r layout.Rect) { c.bounds = r }

// Resize changes the viewport size.
func (c *Camera) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Apply starts an animation toward e and returns its sequence number.
// A nil effect is ignored and returns the current sequence.
func (c *Camera) Apply(e Effect) uint64 {
	var target View
	var d time.Duration
	switch e := e.(type) {
	case CenterOn:
		target = View{Center: e.Position, Zoom: e.Zoom}
		d = e.Duration
	case FitAll:
		target = c.fit()
		d = e.Duration
	default:
		return c.seq
	}
	c.settle()
	c.seq++
	c.target = &target
	c.deadline = c.now().Add(d)
	return c.seq
}

// Animating reports whether a request is still in flight.
func (c *Camera) Animating() bool {
	c.settle()
	return c.target != nil
}

// View returns the current view. An animation that has run its duration
// is committed first; one still running reports its target so callers that
// do not interpolate jump straight to it.
func (c *Camera) View() View {
	c.settle()
	if c.target != nil {
		return *c.target
	}
	return c.view
}

// Seq returns the sequence number of the latest request.
func (c *Camera) Seq() uint64 { return c.seq }

func (c *Camera) settle() {
	if c.target != nil && !c.now().Before(c.deadline) {
		c.view = *c.target
		c.target = nil
	}
}

func (c *Camera) fit() View {
	w := c.bounds.Width() + 2*c.padding
	h := c.bounds.Height() + 2*c.padding
	zoom := 1.0
	if w > 0 && h > 0 && c.width > 0 && c.height > 0 {
		zoom = math.Min(c.width/w, c.height/h)
	}
	return View{Center: c.bounds.Center(), Zoom: zoom}
}
