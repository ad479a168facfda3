// Package overlay implements hover and selection on top of a curriculum map.
//
// # State
//
// [State] has two independent axes: the hovered node and the selected
// node. Either may be empty. Hover overlays any selection; moving the
// pointer never changes what is selected.
//
// [Machine] applies pointer events and returns camera [Effect] values:
//
//	m := overlay.New(ds)
//	m.PointerEnter("CS101|CS")       // hover
//	eff := m.Click("CS101|CS")       // select; eff is CenterOn
//	eff = m.Click("CS101|CS")        // re-click deselects; eff is FitAll
//	eff = m.BackgroundClick()        // no-op when nothing is selected
//
// # Camera
//
// Effects are fire-and-forget. A [Camera] keeps only the latest request;
// a newer request replaces one still animating, and nothing is queued.
//
// # Rendering
//
// [EdgeStyle] and [NodeStyle] are pure functions of an element and the
// current State. Renderers never inspect the Machine directly.
//
// Machine and Camera are meant for a single event loop and are not safe
// for concurrent use.
package overlay
