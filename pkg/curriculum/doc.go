// Package curriculum defines the in-memory model of a curriculum map.
//
// A curriculum map is a prerequisite graph: courses are nodes, and an edge
// from A to B means B depends on A. Course codes are only unique within a
// program, so every node is keyed by a composite [Identity] built from its
// code and program:
//
//	curriculum.MakeIdentity("CS101", "CS") // "CS101|CS"
//	curriculum.MakeIdentity("CS101", "")   // "CS101"
//
// The identity is the only lookup key used by selection, highlighting and
// rendering. Display code should always show [Node.Code], never the identity.
//
// # Datasets
//
// A [Dataset] holds one complete load of the map: the nodes for a program
// filter (or the whole catalog) and the edges between them. Datasets are
// built once by the normalizer, positioned by the layout engine, and then
// published. After publication a dataset is treated as read-only; a filter
// change builds a fresh dataset instead of mutating the old one.
//
// # Related Packages
//
//   - transform: turns raw backend records into a Dataset
//   - layout: assigns pinned coordinates by level
//   - pkg/overlay: hover and selection state on top of a Dataset
package curriculum
