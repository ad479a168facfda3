package graph

import (
	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/transform"
)

// Graph is the backend's curriculum graph document.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a course as the backend reports it. ID is the bare course code.
type Node struct {
	ID                     string `json:"id" bson:"id"`
	Label                  string `json:"label" bson:"label"`
	Level                  *int   `json:"nivel,omitempty" bson:"nivel,omitempty"`
	Credits                *int   `json:"creditos,omitempty" bson:"creditos,omitempty"`
	Program                string `json:"carrera,omitempty" bson:"carrera,omitempty"`
	CreditsRequiredGeneral *int   `json:"creditos_generales_requeridos,omitempty" bson:"creditos_generales_requeridos,omitempty"`
}

// Edge is a prerequisite between two bare course codes.
type Edge struct {
	Source          string `json:"source" bson:"source"`
	Target          string `json:"target" bson:"target"`
	Kind            string `json:"tipo,omitempty" bson:"tipo,omitempty"`
	CreditsRequired *int   `json:"creditos_requeridos,omitempty" bson:"creditos_requeridos,omitempty"`
}

// ToDataset normalizes g into a dataset keyed by composite identity.
func ToDataset(g Graph, opts transform.NormalizeOptions) (*curriculum.Dataset, transform.Report) {
	nodes := make([]curriculum.RawNode, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = curriculum.RawNode{
			Code:                   n.ID,
			Label:                  n.Label,
			Level:                  n.Level,
			Credits:                n.Credits,
			Program:                n.Program,
			CreditsRequiredGeneral: n.CreditsRequiredGeneral,
		}
	}
	edges := make([]curriculum.RawEdge, len(g.Edges))
	for i, e := range g.Edges {
		edges[i] = curriculum.RawEdge{
			Source:          e.Source,
			Target:          e.Target,
			Kind:            e.Kind,
			CreditsRequired: e.CreditsRequired,
		}
	}
	return transform.Normalize(nodes, edges, opts)
}
