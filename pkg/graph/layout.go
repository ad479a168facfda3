package graph

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/overlay"
)

// =============================================================================
// Layout - Positioned Curriculum Map
// =============================================================================

// Layout is a normalized, positioned curriculum map ready for drawing.
// Node IDs are composite identities; Code is what a renderer should print.
// Styles reflect the overlay state the layout was exported with.
type Layout struct {
	Program    string        `json:"program,omitempty" bson:"program,omitempty"`
	Generation uint64        `json:"generation" bson:"generation"`
	Selected   string        `json:"selected,omitempty" bson:"selected,omitempty"`
	Width      float64       `json:"width" bson:"width"`
	Height     float64       `json:"height" bson:"height"`
	Nodes      []LayoutNode  `json:"nodes" bson:"nodes"`
	Edges      []LayoutEdge  `json:"edges" bson:"edges"`
	Levels     []LayoutLevel `json:"levels" bson:"levels"`
}

// LayoutNode is a positioned course.
type LayoutNode struct {
	ID                     string  `json:"id" bson:"id"`
	Code                   string  `json:"codigo" bson:"codigo"`
	Label                  string  `json:"label" bson:"label"`
	Level                  int     `json:"nivel" bson:"nivel"`
	Credits                int     `json:"creditos" bson:"creditos"`
	Program                string  `json:"carrera,omitempty" bson:"carrera,omitempty"`
	CreditsRequiredGeneral *int    `json:"creditos_generales_requeridos,omitempty" bson:"creditos_generales_requeridos,omitempty"`
	X                      float64 `json:"x" bson:"x"`
	Y                      float64 `json:"y" bson:"y"`
	Pinned                 bool    `json:"pinned" bson:"pinned"`
	Fill                   string  `json:"fill" bson:"fill"`
	Stroke                 string  `json:"stroke" bson:"stroke"`
	LineWidth              float64 `json:"line_width" bson:"line_width"`
	Tooltip                string  `json:"tooltip,omitempty" bson:"tooltip,omitempty"`
}

// LayoutEdge is a styled prerequisite.
type LayoutEdge struct {
	Source          string  `json:"source" bson:"source"`
	Target          string  `json:"target" bson:"target"`
	Kind            string  `json:"tipo" bson:"tipo"`
	CreditsRequired *int    `json:"creditos_requeridos,omitempty" bson:"creditos_requeridos,omitempty"`
	Resolved        bool    `json:"resolved" bson:"resolved"`
	Color           string  `json:"color" bson:"color"`
	Width           float64 `json:"width" bson:"width"`
	Label           string  `json:"label" bson:"label"`
}

// LayoutLevel lists the identities of one level in display order.
type LayoutLevel struct {
	Level int      `json:"nivel" bson:"nivel"`
	Nodes []string `json:"nodes" bson:"nodes"`
}

// FromDataset exports a positioned dataset. Run [layout.Assign] first;
// otherwise every node sits at the origin.
func FromDataset(ds *curriculum.Dataset, state overlay.State) Layout {
	bounds := layout.Bounds(ds)
	out := Layout{
		Program:    ds.Program,
		Generation: ds.Generation,
		Selected:   string(state.Selected),
		Width:      bounds.Width(),
		Height:     bounds.Height(),
		Nodes:      make([]LayoutNode, 0, ds.NodeCount()),
		Edges:      make([]LayoutEdge, 0, ds.EdgeCount()),
	}

	filtered := ds.Program != ""
	for _, n := range ds.Nodes() {
		box := overlay.NodeStyle(n, state)
		out.Nodes = append(out.Nodes, LayoutNode{
			ID:                     string(n.ID),
			Code:                   box.Label,
			Label:                  n.Label,
			Level:                  n.Level,
			Credits:                n.Credits,
			Program:                n.Program,
			CreditsRequiredGeneral: n.CreditsRequiredGeneral,
			X:                      n.Position.X,
			Y:                      n.Position.Y,
			Pinned:                 n.Pinned,
			Fill:                   box.Fill,
			Stroke:                 box.Stroke,
			LineWidth:              box.LineWidth,
			Tooltip:                overlay.Tooltip(n, filtered),
		})
	}

	for _, e := range ds.Edges() {
		stroke := overlay.EdgeStyle(e, state)
		target, _ := ds.Node(e.Target)
		out.Edges = append(out.Edges, LayoutEdge{
			Source:          string(e.Source),
			Target:          string(e.Target),
			Kind:            string(e.Kind),
			CreditsRequired: e.CreditsRequired,
			Resolved:        ds.Resolved(e),
			Color:           stroke.Color,
			Width:           stroke.Width,
			Label:           overlay.EdgeLabel(e, target),
		})
	}

	for _, col := range layout.Columns(ds) {
		ids := make([]string, len(col.Nodes))
		for i, id := range col.Nodes {
			ids[i] = string(id)
		}
		out.Levels = append(out.Levels, LayoutLevel{Level: col.Level, Nodes: ids})
	}
	if out.Levels == nil {
		out.Levels = []LayoutLevel{}
	}
	return out
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// WriteLayout writes l as pretty-printed JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}
