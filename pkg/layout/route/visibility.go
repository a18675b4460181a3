package route

import (
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/grid"
)

// view decides, for the branch being routed, which existing cells block
// traversal and which link cells count for the crossing penalties.
type view struct {
	grid   *grid.Grid
	link   *graph.Link
	branch int
	ends   map[graph.Point]bool
}

// blocked reports whether p may not be entered.
func (v *view) blocked(p graph.Point) bool {
	for _, c := range v.grid.Cells(p) {
		switch c.Kind {
		case grid.CellNode:
			if v.ends[p] {
				continue
			}
			if c.IsObject() {
				return true
			}
			if v.link.Kind == graph.LinkInherit || c.Node.Source() == v.link.Source {
				return true
			}
		case grid.CellBlocker:
			if c.Owner != v.link && c.Owner.Source == v.link.Source {
				return true
			}
		}
	}
	return false
}

// visibleLink reports whether p holds a link cell this branch must respect.
// Inheritance paths are seen by every other link. Relation paths are seen by
// links of the same source, except by the branch that laid them.
func (v *view) visibleLink(p graph.Point) bool {
	for _, c := range v.grid.Cells(p) {
		if c.Kind != grid.CellLink {
			continue
		}
		other := c.Link
		if other.Link.Kind == graph.LinkInherit {
			if other.Link != v.link {
				return true
			}
			continue
		}
		if other.Link.Source != v.link.Source {
			continue
		}
		if other.Link == v.link && other.Branch == v.branch {
			continue
		}
		return true
	}
	return false
}

// nearObject reports whether any 4-neighbor of p is an object cell.
func (v *view) nearObject(p graph.Point) bool {
	for _, d := range steps {
		for _, c := range v.grid.Cells(p.Add(d[0], d[1])) {
			if c.IsObject() {
				return true
			}
		}
	}
	return false
}
