// Package layout assigns pinned coordinates to curriculum nodes by level.
//
// Each level becomes a vertical column. Columns are spaced SpacingX apart
// and centered on CenterLevel; nodes inside a column are ordered by course
// code and spaced SpacingY apart, centered on y = 0:
//
//	x = (level - CenterLevel) * SpacingX
//	y = index * SpacingY - (n - 1) * SpacingY / 2
//
// Sorting by code (not identity) keeps nodes that share a code across
// programs next to each other. Ties fall back to identity so the result is
// a pure function of the node set, independent of input order.
package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/curricula/pkg/curriculum"
)

// Default layout constants.
const (
	DefaultCenterLevel = 5
	DefaultSpacingX    = 200
	DefaultSpacingY    = 80
)

// Options configures [Assign].
type Options struct {
	CenterLevel int
	SpacingX    float64
	SpacingY    float64
}

// DefaultOptions returns the standard grid.
func DefaultOptions() Options {
	return Options{
		CenterLevel: DefaultCenterLevel,
		SpacingX:    DefaultSpacingX,
		SpacingY:    DefaultSpacingY,
	}
}

func (o Options) withDefaults() Options {
	if o == (Options{}) {
		return DefaultOptions()
	}
	if o.SpacingX <= 0 {
		o.SpacingX = DefaultSpacingX
	}
	if o.SpacingY <= 0 {
		o.SpacingY = DefaultSpacingY
	}
	return o
}

// Column is one level of the layout with its nodes in display order.
type Column struct {
	Level int
	Nodes []curriculum.Identity
}

// Assign positions and pins every node of ds. A zero Options value uses
// [DefaultOptions]; otherwise only non-positive spacings are defaulted and
// CenterLevel is taken as given. Assign never fails; nodes without a level sit in level 0.
func Assign(ds *curriculum.Dataset, opts Options) {
	opts = opts.withDefaults()
	for _, level := range ds.Levels() {
		group := sortedLevel(ds, level)
		n := float64(len(group))
		x := float64(level-opts.CenterLevel) * opts.SpacingX
		for i, node := range group {
			node.Position = curriculum.Position{
				X: x,
				Y: float64(i)*opts.SpacingY - (n-1)*opts.SpacingY/2,
			}
			node.Pinned = true
		}
	}
}

// Columns returns the levels of ds in ascending order with their nodes in
// layout order. It does not require Assign to have run.
func Columns(ds *curriculum.Dataset) []Column {
	levels := ds.Levels()
	cols := make([]Column, 0, len(levels))
	for _, level := range levels {
		group := sortedLevel(ds, level)
		ids := make([]curriculum.Identity, len(group))
		for i, n := range group {
			ids[i] = n.ID
		}
		cols = append(cols, Column{Level: level, Nodes: ids})
	}
	return cols
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the box.
func (r Rect) Center() curriculum.Position {
	return curriculum.Position{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Bounds returns the bounding box of all node positions. An empty dataset
// yields the zero Rect.
func Bounds(ds *curriculum.Dataset) Rect {
	nodes := ds.Nodes()
	if len(nodes) == 0 {
		return Rect{}
	}
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, n := range nodes {
		r.MinX = math.Min(r.MinX, n.Position.X)
		r.MinY = math.Min(r.MinY, n.Position.Y)
		r.MaxX = math.Max(r.MaxX, n.Position.X)
		r.MaxY = math.Max(r.MaxY, n.Position.Y)
	}
	return r
}

func sortedLevel(ds *curriculum.Dataset, level int) []*curriculum.Node {
	group := ds.NodesAtLevel(level)
	slices.SortFunc(group, func(a, b *curriculum.Node) int {
		return cmp.Or(
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return group
}
