package overlay

import (
	"fmt"
	"testing"

	"github.com/matzehuels/curricula/pkg/curriculum"
)

func intp(v int) *int { return &v }

func TestBandColor(t *testing.T) {
	tests := []struct {
		kind    curriculum.EdgeKind
		credits *int
		want    string
	}{
		{curriculum.KindDirect, nil, ColorDirect},
		{curriculum.KindCreditThreshold, nil, ColorDirect},
		{curriculum.KindCreditThreshold, intp(0), ColorDirect},
		{curriculum.KindCreditThreshold, intp(1), ColorBand50},
		{curriculum.KindCreditThreshold, intp(50), ColorBand50},
		{curriculum.KindCreditThreshold, intp(51), ColorBand100},
		{curriculum.KindCreditThreshold, intp(100), ColorBand100},
		{curriculum.KindCreditThreshold, intp(101), ColorBand150},
		{curriculum.KindCreditThreshold, intp(150), ColorBand150},
		{curriculum.KindCreditThreshold, intp(151), ColorBandOver},
		{curriculum.KindDirect, intp(120), ColorDirect},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s/nil", tt.kind)
		if tt.credits != nil {
			name = fmt.Sprintf("%s/%d", tt.kind, *tt.credits)
		}
		t.Run(name, func(t *testing.T) {
			e := curriculum.Edge{Source: "A", Target: "B", Kind: tt.kind, CreditsRequired: tt.credits}
			if got := BandColor(e); got != tt.want {
				t.Errorf("BandColor() = %s, want %s", got, tt.want)
			}
			if got := EdgeStyle(e, State{}); got.Width != EdgeWidth || got.Color != tt.want {
				t.Errorf("EdgeStyle() = %+v", got)
			}
		})
	}
}

func TestEdgeStyleHighlightsSelected(t *testing.T) {
	e := curriculum.Edge{Source: "A", Target: "B", Kind: curriculum.KindCreditThreshold, CreditsRequired: intp(200)}

	for _, sel := range []curriculum.Identity{"A", "B"} {
		got := EdgeStyle(e, State{Selected: sel})
		if got != (Stroke{Color: ColorHighlight, Width: EdgeWidthHighlighted}) {
			t.Errorf("selected %s: EdgeStyle() = %+v, want highlight", sel, got)
		}
	}

	got := EdgeStyle(e, State{Selected: "C", Hovered: "A"})
	if got.Color != ColorBandOver || got.Width != EdgeWidth {
		t.Errorf("unrelated selection: EdgeStyle() = %+v, want band color", got)
	}
}

func TestNodeStyle(t *testing.T) {
	n := &curriculum.Node{ID: "CS101|CS", Code: "CS101", Label: "Intro"}

	got := NodeStyle(n, State{})
	want := Box{Fill: ColorNodeFill, Stroke: ColorNodeStroke, LineWidth: NodeLineWidth, Label: "CS101"}
	if got != want {
		t.Errorf("NodeStyle() = %+v, want %+v", got, want)
	}

	got = NodeStyle(n, State{Selected: "CS101|CS"})
	want = Box{Fill: ColorSelectedFill, Stroke: ColorSelectedEdge, LineWidth: NodeLineSelected, Label: "CS101"}
	if got != want {
		t.Errorf("selected NodeStyle() = %+v, want %+v", got, want)
	}

	colored := &curriculum.Node{ID: "X|CS", Color: "#123456"}
	if got := NodeStyle(colored, State{}); got.Fill != "#123456" || got.Label != "X" {
		t.Errorf("colored NodeStyle() = %+v", got)
	}
}

func TestTooltip(t *testing.T) {
	n := &curriculum.Node{Label: "Calculus", CreditsRequiredGeneral: intp(30)}

	if got := Tooltip(n, false); got != "Calculus" {
		t.Errorf("unfiltered Tooltip() = %q", got)
	}
	if got := Tooltip(n, true); got != "Calculus\nRequiere 30 CRED generales" {
		t.Errorf("filtered Tooltip() = %q", got)
	}
	if got := Tooltip(&curriculum.Node{Label: "Plain"}, true); got != "Plain" {
		t.Errorf("Tooltip() without requirement = %q", got)
	}
}

func TestEdgeLabel(t *testing.T) {
	target := &curriculum.Node{Label: "Thesis"}
	direct := curriculum.Edge{Kind: curriculum.KindDirect}
	threshold := curriculum.Edge{Kind: curriculum.KindCreditThreshold, CreditsRequired: intp(150)}

	tests := []struct {
		name   string
		edge   curriculum.Edge
		target *curriculum.Node
		want   string
	}{
		{"direct", direct, target, "Thesis"},
		{"direct unresolved", direct, nil, "Requisito directo (sin créditos)"},
		{"threshold", threshold, target, "Thesis\nSe necesitan 150 CRED"},
		{"threshold unresolved", threshold, nil, "Se necesitan 150 CRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeLabel(tt.edge, tt.target); got != tt.want {
				t.Errorf("EdgeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
