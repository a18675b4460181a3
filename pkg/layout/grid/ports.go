package grid

import (
	"github.com/matzehuels/schemalayout/pkg/graph"
)

// inRelationRow reports whether y is one of the node's relation port rows.
func (n *GridNode) inRelationRow(y int) bool {
	start := n.Top + n.Node.LinkPortsOffset
	return n.RelationRows > 0 && y >= start && y < start+n.RelationRows
}

// SourcePorts returns the ports link may leave n from.
//
// With alignment on, an object's side ports in relation rows are reserved:
// inheritance links never start there, and a relation link with an index
// starts only from the side ports of its own row. Auxiliary nodes are never
// filtered.
func (n *GridNode) SourcePorts(link *graph.Link, aligned bool) []Port {
	if !aligned || n.Node.Kind != graph.NodeObject {
		return n.Ports
	}
	if link.Kind == graph.LinkInherit {
		return n.filter(func(p Port) bool { return !(p.Edge.Horizontal() && n.inRelationRow(p.Y)) })
	}

	row := n.Top + n.Node.LinkPortsOffset + link.Index
	if link.HasIndex() && link.Index < n.RelationRows {
		if ports := n.filter(func(p Port) bool { return p.Edge.Horizontal() && p.Y == row }); len(ports) > 0 {
			return ports
		}
	}
	if ports := n.filter(func(p Port) bool { return p.Edge.Horizontal() && n.inRelationRow(p.Y) }); len(ports) > 0 {
		return ports
	}
	return n.Ports
}

// TargetPorts returns the ports link may end on. Links never land in another
// link's relation row, whatever their kind.
func (n *GridNode) TargetPorts(_ *graph.Link, aligned bool) []Port {
	if !aligned || n.Node.Kind != graph.NodeObject {
		return n.Ports
	}
	return n.filter(func(p Port) bool { return !(p.Edge.Horizontal() && n.inRelationRow(p.Y)) })
}

func (n *GridNode) filter(keep func(Port) bool) []Port {
	var out []Port
	for _, p := range n.Ports {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
