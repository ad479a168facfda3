package overlay

import (
	"fmt"

	"github.com/matzehuels/curricula/pkg/curriculum"
)

// Palette.
const (
	ColorHighlight = "#fbbf24"
	ColorDirect    = "#475569"
	ColorBand50    = "#22c55e"
	ColorBand100   = "#eab308"
	ColorBand150   = "#f97316"
	ColorBandOver  = "#ef4444"

	ColorNodeFill     = "#6366f1"
	ColorNodeStroke   = "#fff"
	ColorSelectedFill = "#fbbf24"
	ColorSelectedEdge = "#f59e0b"
)

// Line widths.
const (
	EdgeWidth            = 2
	EdgeWidthHighlighted = 4
	NodeLineWidth        = 2
	NodeLineSelected     = 3
)

// Stroke is how an edge is drawn.
type Stroke struct {
	Color string
	Width float64
}

// Box is how a node is drawn.
type Box struct {
	Fill      string
	Stroke    string
	LineWidth float64
	Label     string
}

// EdgeStyle returns the stroke for e. Edges touching the selected node are
// highlighted; the rest are colored by their credit threshold.
func EdgeStyle(e curriculum.Edge, s State) Stroke {
	if e.Touches(s.Selected) {
		return Stroke{Color: ColorHighlight, Width: EdgeWidthHighlighted}
	}
	return Stroke{Color: BandColor(e), Width: EdgeWidth}
}

// BandColor returns the credit-band color of e, ignoring selection.
// Thresholds are inclusive: ≤50, ≤100, ≤150, then above.
func BandColor(e curriculum.Edge) string {
	credits := requiredCredits(e)
	switch {
	case credits <= 0:
		return ColorDirect
	case credits <= 50:
		return ColorBand50
	case credits <= 100:
		return ColorBand100
	case credits <= 150:
		return ColorBand150
	default:
		return ColorBandOver
	}
}

// NodeStyle returns the box for n. The label is always the course code.
func NodeStyle(n *curriculum.Node, s State) Box {
	if s.IsSelected(n.ID) {
		return Box{
			Fill:      ColorSelectedFill,
			Stroke:    ColorSelectedEdge,
			LineWidth: NodeLineSelected,
			Label:     nodeCode(n),
		}
	}
	fill := n.Color
	if fill == "" {
		fill = ColorNodeFill
	}
	return Box{
		Fill:      fill,
		Stroke:    ColorNodeStroke,
		LineWidth: NodeLineWidth,
		Label:     nodeCode(n),
	}
}

// Tooltip is the hover text of a node. The general-credit requirement is
// only shown when the map is filtered to one program.
func Tooltip(n *curriculum.Node, filtered bool) string {
	text := n.Label
	if filtered && n.CreditsRequiredGeneral != nil && *n.CreditsRequiredGeneral > 0 {
		text += fmt.Sprintf("\nRequiere %d CRED generales", *n.CreditsRequiredGeneral)
	}
	return text
}

// EdgeLabel is the hover text of an edge. target may be nil when the edge
// points at an unresolved code.
func EdgeLabel(e curriculum.Edge, target *curriculum.Node) string {
	name := ""
	if target != nil {
		name = target.Label
	}
	credits := requiredCredits(e)
	if credits <= 0 {
		if name != "" {
			return name
		}
		return "Requisito directo (sin créditos)"
	}
	if name != "" {
		return fmt.Sprintf("%s\nSe necesitan %d CRED", name, credits)
	}
	return fmt.Sprintf("Se necesitan %d CRED", credits)
}

func requiredCredits(e curriculum.Edge) int {
	if e.Kind != curriculum.KindCreditThreshold || e.CreditsRequired == nil {
		return 0
	}
	return *e.CreditsRequired
}

func nodeCode(n *curriculum.Node) string {
	if n.Code != "" {
		return n.Code
	}
	return n.ID.Code()
}
