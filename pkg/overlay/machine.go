package overlay

import (
	"time"

	"github.com/matzehuels/curricula/pkg/curriculum"
)

// Camera animation parameters.
const (
	SelectZoom     = 1.8
	SelectDuration = 1500 * time.Millisecond
	FitDuration    = 800 * time.Millisecond

	// Focusing a node from the legend zooms closer and faster than a click.
	FocusZoom     = 2.5
	FocusDuration = 1000 * time.Millisecond

	// SettleDuration is the initial fit once a fresh dataset is shown.
	SettleDuration = 400 * time.Millisecond
)

// State is the hover and selection state. Empty identities mean none.
type State struct {
	Hovered  curriculum.Identity
	Selected curriculum.Identity
}

// Idle reports whether nothing is hovered or selected.
func (s State) Idle() bool { return s.Hovered == "" && s.Selected == "" }

// IsSelected reports whether id is the selected node.
func (s State) IsSelected(id curriculum.Identity) bool {
	return s.Selected != "" && s.Selected == id
}

// Effect is a camera request emitted by a transition.
type Effect interface {
	effect()
}

// CenterOn pans and zooms the camera onto a node.
type CenterOn struct {
	Target   curriculum.Identity
	Position curriculum.Position
	Zoom     float64
	Duration time.Duration
}

// FitAll zooms the camera out to show the whole map.
type FitAll struct {
	Duration time.Duration
}

func (CenterOn) effect() {}
func (FitAll) effect()   {}

// Machine is the interaction state machine for one dataset.
type Machine struct {
	ds    *curriculum.Dataset
	state State
}

// New creates an idle machine over ds. A nil dataset behaves as empty.
func New(ds *curriculum.Dataset) *Machine {
	if ds == nil {
		ds = curriculum.NewDataset("")
	}
	return &Machine{ds: ds}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Dataset returns the dataset the machine operates on.
func (m *Machine) Dataset() *curriculum.Dataset { return m.ds }

// PointerEnter hovers id. Unknown identities are ignored.
func (m *Machine) PointerEnter(id curriculum.Identity) {
	if m.ds.Has(id) {
		m.state.Hovered = id
	}
}

// PointerLeave clears the hover. The selection persists.
func (m *Machine) PointerLeave() {
	m.state.Hovered = ""
}

// Click selects id. Clicking the selected node again deselects it and
// returns FitAll; selecting a node returns CenterOn. Clicks on unknown
// identities return nil and change nothing.
func (m *Machine) Click(id curriculum.Identity) Effect {
	n, ok := m.ds.Node(id)
	if !ok {
		return nil
	}
	if m.state.Selected == id {
		m.state.Selected = ""
		return FitAll{Duration: FitDuration}
	}
	m.state.Selected = id
	return CenterOn{Target: id, Position: n.Position, Zoom: SelectZoom, Duration: SelectDuration}
}

// BackgroundClick deselects and returns FitAll. Without a selection it
// returns nil.
func (m *Machine) BackgroundClick() Effect {
	if m.state.Selected == "" {
		return nil
	}
	m.state.Selected = ""
	return FitAll{Duration: FitDuration}
}

// Focus centers the camera on id without selecting it, as the level
// legend does.
func (m *Machine) Focus(id curriculum.Identity) Effect {
	n, ok := m.ds.Node(id)
	if !ok {
		return nil
	}
	return CenterOn{Target: id, Position: n.Position, Zoom: FocusZoom, Duration: FocusDuration}
}

// Settled is called once the map is first drawn. It fits the whole map
// unless a selection already owns the camera.
func (m *Machine) Settled() Effect {
	if m.state.Selected != "" {
		return nil
	}
	return FitAll{Duration: SettleDuration}
}

// Reset switches to a new dataset, dropping a hover or selection whose
// identity no longer exists.
func (m *Machine) Reset(ds *curriculum.Dataset) {
	if ds == nil {
		ds = curriculum.NewDataset("")
	}
	m.ds = ds
	if !ds.Has(m.state.Hovered) {
		m.state.Hovered = ""
	}
	if !ds.Has(m.state.Selected) {
		m.state.Selected = ""
	}
}
