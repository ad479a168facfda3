package overlay

import (
	"testing"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
)

func testDataset() *curriculum.Dataset {
	ds := curriculum.NewDataset("CS")
	ds.AddNode(curriculum.Node{ID: "A|CS", Label: "Alpha", Level: 1})
	ds.AddNode(curriculum.Node{ID: "B|CS", Label: "Beta", Level: 2})
	ds.AddNode(curriculum.Node{ID: "C|CS", Label: "Gamma", Level: 2})
	ds.AddEdge(curriculum.Edge{Source: "A|CS", Target: "B|CS", Kind: curriculum.KindDirect})
	layout.Assign(ds, layout.DefaultOptions())
	return ds
}

func TestClickSelectsAndCenters(t *testing.T) {
	ds := testDataset()
	m := New(ds)

	eff := m.Click("B|CS")
	center, ok := eff.(CenterOn)
	if !ok {
		t.Fatalf("Click effect = %T, want CenterOn", eff)
	}
	n, _ := ds.Node("B|CS")
	if center.Target != "B|CS" || center.Position != n.Position {
		t.Errorf("CenterOn = %+v, want target B|CS at %+v", center, n.Position)
	}
	if center.Zoom != SelectZoom || center.Duration != SelectDuration {
		t.Errorf("CenterOn zoom/duration = %v/%v, want %v/%v", center.Zoom, center.Duration, SelectZoom, SelectDuration)
	}
	if m.State().Selected != "B|CS" {
		t.Errorf("Selected = %q, want B|CS", m.State().Selected)
	}
}

func TestClickSameNodeTwiceReturnsToIdle(t *testing.T) {
	m := New(testDataset())

	m.Click("A|CS")
	eff := m.Click("A|CS")

	fit, ok := eff.(FitAll)
	if !ok {
		t.Fatalf("second Click effect = %T, want FitAll", eff)
	}
	if fit.Duration != FitDuration {
		t.Errorf("FitAll duration = %v, want %v", fit.Duration, FitDuration)
	}
	if !m.State().Idle() {
		t.Errorf("state = %+v, want idle", m.State())
	}
}

func TestClickOtherNodeMovesSelection(t *testing.T) {
	m := New(testDataset())

	m.Click("A|CS")
	eff := m.Click("C|CS")

	if _, ok := eff.(CenterOn); !ok {
		t.Fatalf("effect = %T, want CenterOn", eff)
	}
	if m.State().Selected != "C|CS" {
		t.Errorf("Selected = %q, want C|CS", m.State().Selected)
	}
}

func TestBackgroundClick(t *testing.T) {
	m := New(testDataset())

	if eff := m.BackgroundClick(); eff != nil {
		t.Errorf("BackgroundClick while idle = %#v, want nil", eff)
	}

	m.Click("A|CS")
	eff := m.BackgroundClick()
	if _, ok := eff.(FitAll); !ok {
		t.Fatalf("BackgroundClick while selected = %T, want FitAll", eff)
	}
	if m.State().Selected != "" {
		t.Errorf("Selected = %q, want none", m.State().Selected)
	}
}

func TestHoverIsIndependentOfSelection(t *testing.T) {
	m := New(testDataset())

	m.Click("A|CS")
	m.PointerEnter("B|CS")
	if got := m.State(); got.Hovered != "B|CS" || got.Selected != "A|CS" {
		t.Fatalf("state = %+v, want hovered B|CS selected A|CS", got)
	}

	m.PointerLeave()
	if got := m.State(); got.Hovered != "" || got.Selected != "A|CS" {
		t.Errorf("after leave state = %+v, want selection kept", got)
	}
}

func TestUnknownIdentitiesAreIgnored(t *testing.T) {
	m := New(testDataset())

	if eff := m.Click("GHOST"); eff != nil {
		t.Errorf("Click(GHOST) = %#v, want nil", eff)
	}
	m.PointerEnter("GHOST")
	if eff := m.Focus("GHOST"); eff != nil {
		t.Errorf("Focus(GHOST) = %#v, want nil", eff)
	}
	if !m.State().Idle() {
		t.Errorf("state = %+v, want idle", m.State())
	}
}

func TestFocusDoesNotSelect(t *testing.T) {
	m := New(testDataset())

	eff := m.Focus("C|CS")
	c, ok := eff.(CenterOn)
	if !ok {
		t.Fatalf("Focus effect = %T, want CenterOn", eff)
	}
	if c.Zoom != FocusZoom || c.Duration != FocusDuration {
		t.Errorf("Focus zoom/duration = %v/%v", c.Zoom, c.Duration)
	}
	if m.State().Selected != "" {
		t.Error("Focus must not select")
	}
}

func TestSettled(t *testing.T) {
	m := New(testDataset())
	if eff, ok := m.Settled().(FitAll); !ok || eff.Duration != SettleDuration {
		t.Errorf("Settled() while idle = %#v, want FitAll(%v)", eff, SettleDuration)
	}

	m.Click("A|CS")
	if eff := m.Settled(); eff != nil {
		t.Errorf("Settled() while selected = %#v, want nil", eff)
	}
}

func TestResetDropsMissingIdentities(t *testing.T) {
	m := New(testDataset())
	m.Click("A|CS")
	m.PointerEnter("B|CS")

	next := curriculum.NewDataset("CS")
	next.AddNode(curriculum.Node{ID: "B|CS"})
	m.Reset(next)

	if got := m.State(); got.Selected != "" || got.Hovered != "B|CS" {
		t.Errorf("state = %+v, want selection dropped and hover kept", got)
	}
	if m.Dataset() != next {
		t.Error("Reset should switch datasets")
	}

	m.Reset(nil)
	if !m.State().Idle() {
		t.Errorf("Reset(nil) state = %+v, want idle", m.State())
	}
}
