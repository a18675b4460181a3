// Package layout sequences auxiliary node placement and link routing over a
// set of positioned object nodes.
//
// [LayoutAndRouteLinks] is the entry point. It builds a fresh grid from the
// object positions, places the auxiliary nodes of each link class and routes
// the links in a fixed order: inheritance links first, relation links second
// and self-loops last. When any inheritance branch fails, the pass is thrown
// away and a second pass routes inheritance links before any relation
// auxiliary node is placed. The returned [Result] always reports what could
// not be routed; individual link failures never abort a layout.
//
// [LayoutObjectNodes] produces the object positions routing consumes. It runs
// a [force.Placer] on padded node sizes, restores the real sizes, removes
// overlaps and snaps the rectangles to the grid.
//
// Subpackages hold the building blocks:
//
//   - grid: cell occupancy and node ports
//   - placement: breadth-first placement of auxiliary nodes
//   - route: per-link A* routing and path simplification
//   - force: initial object placement and overlap removal
//   - focus: radial layout around a single object
package layout
