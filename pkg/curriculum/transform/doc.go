// Package transform turns raw backend records into a normalized curriculum
// dataset.
//
// # Overview
//
// The backend reports courses and prerequisites by bare course code, but a
// code is only unique within a program. [Normalize] rekeys every course by
// its composite identity (code|program) and resolves each prerequisite's
// endpoints through a code → identity mapping, so two programs that share a
// code stay distinct nodes.
//
// # Resolution
//
// When several programs share a code the mapping is ambiguous. The policy:
//
//   - a code that maps to one identity resolves to it
//   - a target endpoint prefers the program its source resolved to (and a
//     source prefers an unambiguous target's program), so an edge lands on
//     one consistent pair
//   - otherwise the node of the dataset's program filter wins
//   - otherwise [ResolveLastSeen] picks the last node read, and
//     [ResolveFirstSeen] the first
//
// Endpoints with no matching node keep the raw code as a degraded identity.
// The edge is still emitted; it renders but never matches a selection.
//
// # Failure Semantics
//
// Normalize never fails. Duplicates, unresolved endpoints and ambiguous
// codes are counted in the returned [Report] for logging.
package transform
