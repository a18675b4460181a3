// Package grid models the discrete occupancy space the router searches.
//
// Pixel rectangles are converted to grid cells by dividing by the grid unit.
// A point may hold several cells at once, e.g. a node border and a link
// passing alongside it. Cells are only ever appended during a layout pass,
// so the order in which nodes and links are committed matters.
//
// Every grid is scoped to one pass. Callers build a fresh one with [InitGrid]
// from the object positions at the start of each pass.
package grid

import (
	"math"
	"slices"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

// Edge names the side of a node a border cell lies on.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeTop
	EdgeLeft
	EdgeRight
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	}
	return "none"
}

// Horizontal reports whether the edge faces left or right.
func (e Edge) Horizontal() bool { return e == EdgeLeft || e == EdgeRight }

// CellKind discriminates [Cell].
type CellKind int

const (
	// CellNode is a border or interior cell of a node.
	CellNode CellKind = iota
	// CellBlocker reserves the lane beside a link property node's side ports.
	CellBlocker
	// CellLink is a committed path cell.
	CellLink
)

// LinkCellKind tells straight path cells from bends.
type LinkCellKind int

const (
	LinkNormal LinkCellKind = iota
	LinkCorner
)

// Port is a border cell that may start or end a path.
type Port struct {
	graph.Point
	Edge Edge
}

// GridNode is a node placed on the grid. Bounds are inclusive grid
// coordinates. Link is the owning link of an auxiliary node.
type GridNode struct {
	Node   *graph.Node
	Link   *graph.Link
	Left   int
	Top    int
	Right  int
	Bottom int
	Ports  []Port

	// RelationRows is the number of port rows reserved for relation links,
	// starting LinkPortsOffset rows below Top.
	RelationRows int
}

// Height returns the node height in grid units.
func (n *GridNode) Height() int { return n.Bottom - n.Top + 1 }

// Contains reports whether p lies within the node's bounds.
func (n *GridNode) Contains(p graph.Point) bool {
	return p.X >= n.Left && p.X <= n.Right && p.Y >= n.Top && p.Y <= n.Bottom
}

// Source returns the id of the object that owns an auxiliary node, or the
// node's own id for objects.
func (n *GridNode) Source() string {
	if n.Link != nil {
		return n.Link.Source
	}
	return n.Node.ID
}

// GridLink is one routed branch of a link. Branch is -1 for the trunk from
// the source to the auxiliary node and the target index otherwise.
type GridLink struct {
	Link   *graph.Link
	Source *GridNode
	Target *GridNode
	Branch int
}

// Cell is one occupancy record.
type Cell struct {
	Kind CellKind

	// CellNode
	Node *GridNode
	Edge Edge

	// CellBlocker
	Owner *graph.Link

	// CellLink
	Link     *GridLink
	LinkKind LinkCellKind
}

// IsObject reports whether the cell belongs to an object node.
func (c Cell) IsObject() bool {
	return c.Kind == CellNode && c.Node.Node.Kind == graph.NodeObject
}

// IsAuxiliary reports whether the cell belongs to an auxiliary node.
func (c Cell) IsAuxiliary() bool {
	return c.Kind == CellNode && c.Node.Node.Kind.IsAuxiliary()
}

// Grid is a sparse map of grid points to cells.
type Grid struct {
	Unit  float64
	cells map[graph.Point][]Cell
	nodes map[string]*GridNode
	order []string
}

// New creates an empty grid. A non-positive unit selects
// graph.DefaultGridUnit.
func New(unit float64) *Grid {
	if unit <= 0 {
		unit = graph.DefaultGridUnit
	}
	return &Grid{
		Unit:  unit,
		cells: make(map[graph.Point][]Cell),
		nodes: make(map[string]*GridNode),
	}
}

// InitGrid builds a grid holding every object node of g that has a position.
// Objects are registered in graph order.
func InitGrid(g *graph.Graph, positions []graph.NodePosition, unit float64) *Grid {
	grid := New(unit)
	pos := graph.PositionMap(positions)
	for _, n := range g.ObjectNodes() {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		grid.addRect(n, nil, p, g.RelationPortRows(n.ID))
	}
	return grid
}

// AddNodeToGrid registers an auxiliary node at pos. A virtual node occupies a
// single cell that is also its only port. A link property node occupies its
// full rectangle, and a blocker cell is placed one unit outside each of its
// side ports.
func (g *Grid) AddNodeToGrid(n *graph.Node, link *graph.Link, pos graph.NodePosition) *GridNode {
	if n.Kind == graph.NodeVirtual {
		p := graph.Point{X: g.toGrid(pos.X), Y: g.toGrid(pos.Y)}
		gn := &GridNode{Node: n, Link: link, Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y,
			Ports: []Port{{Point: p}}}
		g.register(gn)
		g.add(p, Cell{Kind: CellNode, Node: gn})
		return gn
	}

	gn := g.addRect(n, link, pos, 0)
	if n.Kind == graph.NodeLinkProp {
		for _, port := range gn.Ports {
			switch port.Edge {
			case EdgeLeft:
				g.add(port.Add(-1, 0), Cell{Kind: CellBlocker, Owner: link})
			case EdgeRight:
				g.add(port.Add(1, 0), Cell{Kind: CellBlocker, Owner: link})
			}
		}
	}
	return gn
}

func (g *Grid) addRect(n *graph.Node, link *graph.Link, pos graph.NodePosition, relationRows int) *GridNode {
	left, top := g.toGrid(pos.X), g.toGrid(pos.Y)
	gn := &GridNode{
		Node:         n,
		Link:         link,
		Left:         left,
		Top:          top,
		Right:        left + g.toGrid(pos.Width) - 1,
		Bottom:       top + g.toGrid(pos.Height) - 1,
		RelationRows: relationRows,
	}
	g.register(gn)

	for y := gn.Top; y <= gn.Bottom; y++ {
		for x := gn.Left; x <= gn.Right; x++ {
			p := graph.Point{X: x, Y: y}
			edge := gn.edgeAt(p)
			g.add(p, Cell{Kind: CellNode, Node: gn, Edge: edge})
		}
	}

	// Ports are listed top, left, right, bottom for a stable search order.
	for x := gn.Left + 1; x < gn.Right; x++ {
		gn.Ports = append(gn.Ports, Port{graph.Point{X: x, Y: gn.Top}, EdgeTop})
	}
	for y := gn.Top + 1; y < gn.Bottom; y++ {
		gn.Ports = append(gn.Ports, Port{graph.Point{X: gn.Left, Y: y}, EdgeLeft})
	}
	for y := gn.Top + 1; y < gn.Bottom; y++ {
		gn.Ports = append(gn.Ports, Port{graph.Point{X: gn.Right, Y: y}, EdgeRight})
	}
	for x := gn.Left + 1; x < gn.Right; x++ {
		gn.Ports = append(gn.Ports, Port{graph.Point{X: x, Y: gn.Bottom}, EdgeBottom})
	}
	return gn
}

// edgeAt tags non-corner border cells. Corners and interior cells get EdgeNone.
func (n *GridNode) edgeAt(p graph.Point) Edge {
	onX := p.X == n.Left || p.X == n.Right
	onY := p.Y == n.Top || p.Y == n.Bottom
	switch {
	case onX && onY:
		return EdgeNone
	case p.Y == n.Top:
		return EdgeTop
	case p.Y == n.Bottom:
		return EdgeBottom
	case p.X == n.Left:
		return EdgeLeft
	case p.X == n.Right:
		return EdgeRight
	}
	return EdgeNone
}

func (g *Grid) register(gn *GridNode) {
	if _, exists := g.nodes[gn.Node.ID]; !exists {
		g.order = append(g.order, gn.Node.ID)
	}
	g.nodes[gn.Node.ID] = gn
}

func (g *Grid) add(p graph.Point, c Cell) {
	g.cells[p] = append(g.cells[p], c)
}

func (g *Grid) toGrid(v float64) int { return int(math.Round(v / g.Unit)) }

// Cells returns the cells at p. The slice must not be modified.
func (g *Grid) Cells(p graph.Point) []Cell { return g.cells[p] }

// Node returns the grid node for id.
func (g *Grid) Node(id string) (*GridNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the grid nodes in registration order.
func (g *Grid) Nodes() []*GridNode {
	out := make([]*GridNode, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// AddLinkPath commits every point of a routed path as a normal link cell.
func (g *Grid) AddLinkPath(gl *GridLink, path []graph.Point) {
	for _, p := range path {
		g.add(p, Cell{Kind: CellLink, Link: gl, LinkKind: LinkNormal})
	}
}

// MarkCorners commits the bends of a simplified path as corner link cells.
func (g *Grid) MarkCorners(gl *GridLink, waypoints []graph.Waypoint) {
	for _, w := range waypoints {
		if w.Kind == graph.WaypointCorner {
			g.add(w.Point, Cell{Kind: CellLink, Link: gl, LinkKind: LinkCorner})
		}
	}
}

// RemovePort drops a consumed port so no later link can end on it.
func (g *Grid) RemovePort(n *GridNode, p graph.Point) {
	n.Ports = slices.DeleteFunc(n.Ports, func(port Port) bool { return port.Point == p })
}

// PixelPosition converts grid bounds back to a pixel rectangle.
func (g *Grid) PixelPosition(n *GridNode) graph.NodePosition {
	pos := graph.NodePosition{
		ID: n.Node.ID,
		X:  float64(n.Left) * g.Unit,
		Y:  float64(n.Top) * g.Unit,
	}
	if n.Node.Kind != graph.NodeVirtual {
		pos.Width = float64(n.Right-n.Left+1) * g.Unit
		pos.Height = float64(n.Bottom-n.Top+1) * g.Unit
	}
	return pos
}
