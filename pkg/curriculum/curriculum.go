package curriculum

import (
	"slices"
	"strings"
)

// IdentitySep separates the code and program parts of an [Identity].
// Course codes and program names must never contain it.
const IdentitySep = "|"

// Identity is the composite key of a course node: code + "|" + program, or
// the bare code when the node belongs to no program.
type Identity string

// MakeIdentity builds the identity for a course code within a program.
func MakeIdentity(code, program string) Identity {
	if program == "" {
		return Identity(code)
	}
	return Identity(code + IdentitySep + program)
}

// Code returns the course code part of the identity.
func (id Identity) Code() string {
	code, _, _ := strings.Cut(string(id), IdentitySep)
	return code
}

// Program returns the program part of the identity, or "" for a bare code.
func (id Identity) Program() string {
	_, program, _ := strings.Cut(string(id), IdentitySep)
	return program
}

func (id Identity) String() string { return string(id) }

// Position is a pinned 2D coordinate in layout space.
type Position struct {
	X float64
	Y float64
}

// Node is a course in the curriculum map.
type Node struct {
	ID      Identity
	Code    string
	Program string
	Label   string
	Level   int // 0 when the backend omits it
	Credits int

	// CreditsRequiredGeneral is the number of general-education credits
	// needed to unlock the course under a program filter.
	CreditsRequiredGeneral *int

	// Color overrides the default node fill when set.
	Color string

	Position Position
	Pinned   bool
}

// DisplayLabel returns the label if set, otherwise the course code.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Code
}

// EdgeKind distinguishes plain prerequisites from credit thresholds.
// The values match the backend's "tipo" field.
type EdgeKind string

const (
	// KindDirect is a plain course prerequisite.
	KindDirect EdgeKind = "COURSE"
	// KindCreditThreshold is unlocked once accumulated credits reach a threshold.
	KindCreditThreshold EdgeKind = "COURSE_CRED"
)

// Valid reports whether k is a known edge kind.
func (k EdgeKind) Valid() bool {
	return k == KindDirect || k == KindCreditThreshold
}

// Edge is a prerequisite: Target depends on Source.
type Edge struct {
	Source Identity
	Target Identity
	Kind   EdgeKind

	// CreditsRequired is only set for KindCreditThreshold edges.
	CreditsRequired *int
}

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id Identity) bool {
	return id != "" && (e.Source == id || e.Target == id)
}

// Dataset is one complete load of the curriculum map.
//
// Nodes are keyed by identity and keep insertion order. The zero value is
// not usable; create datasets with [NewDataset]. A Dataset is not safe for
// concurrent mutation, but once published it is only read.
type Dataset struct {
	// Program is the filter the dataset was built for ("" for the whole catalog).
	Program string
	// Generation is the load generation that produced the dataset.
	Generation uint64

	nodes map[Identity]*Node
	order []Identity
	edges []Edge
}

// NewDataset creates an empty dataset for the given program filter.
func NewDataset(program string) *Dataset {
	return &Dataset{
		Program: program,
		nodes:   make(map[Identity]*Node),
	}
}

// AddNode inserts n keyed by n.ID. A node with the same identity is
// overwritten in place (last write wins) and AddNode reports true.
func (d *Dataset) AddNode(n Node) (replaced bool) {
	if n.Code == "" {
		n.Code = n.ID.Code()
	}
	if existing, ok := d.nodes[n.ID]; ok {
		*existing = n
		return true
	}
	node := &n
	d.nodes[n.ID] = node
	d.order = append(d.order, n.ID)
	return false
}

// AddEdge appends an edge. Endpoints are not checked; see [Dataset.Resolved].
func (d *Dataset) AddEdge(e Edge) {
	d.edges = append(d.edges, e)
}

// Node returns the node with the given identity.
func (d *Dataset) Node(id Identity) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Has reports whether a node with the given identity exists.
func (d *Dataset) Has(id Identity) bool {
	_, ok := d.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (d *Dataset) Nodes() []*Node {
	out := make([]*Node, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.nodes[id])
	}
	return out
}

// Edges returns a copy of the edge list.
func (d *Dataset) Edges() []Edge {
	return slices.Clone(d.edges)
}

// NodeCount returns the number of nodes.
func (d *Dataset) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *Dataset) EdgeCount() int { return len(d.edges) }

// Levels returns the distinct node levels in ascending order.
func (d *Dataset) Levels() []int {
	seen := make(map[int]bool)
	var levels []int
	for _, n := range d.nodes {
		if !seen[n.Level] {
			seen[n.Level] = true
			levels = append(levels, n.Level)
		}
	}
	slices.Sort(levels)
	return levels
}

// NodesAtLevel returns the nodes of one level in insertion order.
func (d *Dataset) NodesAtLevel(level int) []*Node {
	var out []*Node
	for _, id := range d.order {
		if n := d.nodes[id]; n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

// Resolved reports whether both endpoints of e exist in the dataset.
// Edges that kept a raw code as a fallback endpoint are unresolved.
func (d *Dataset) Resolved(e Edge) bool {
	return d.Has(e.Source) && d.Has(e.Target)
}

// Incident returns the edges that touch id, in dataset order.
func (d *Dataset) Incident(id Identity) []Edge {
	var out []Edge
	for _, e := range d.edges {
		if e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// RawNode is a course record as the backend reports it, keyed by bare code.
type RawNode struct {
	Code                   string
	Label                  string
	Level                  *int
	Credits                *int
	Program                string
	CreditsRequiredGeneral *int
}

// RawEdge is a prerequisite record between two bare codes.
type RawEdge struct {
	Source          string
	Target          string
	Kind            string // "" when the backend omits "tipo"
	CreditsRequired *int
}
