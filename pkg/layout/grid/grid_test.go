package grid

import (
	"testing"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

func twoObjects(t *testing.T) (*graph.Graph, []graph.NodePosition) {
	t.Helper()
	g := graph.New()
	_ = g.AddNode(graph.Node{ID: "A", Kind: graph.NodeObject, Width: 264, Height: 120, LinkPortsOffset: 2})
	_ = g.AddNode(graph.Node{ID: "B", Kind: graph.NodeObject, Width: 264, Height: 120, LinkPortsOffset: 2})
	for i, id := range []string{"A.one", "A.two"} {
		if err := g.AddLink(graph.Link{ID: id, Kind: graph.LinkRelation, Source: "A", Targets: []string{"B"}, Index: i}); err != nil {
			t.Fatal(err)
		}
	}
	positions := []graph.NodePosition{
		{ID: "A", X: 0, Y: 0, Width: 264, Height: 120},
		{ID: "B", X: 528, Y: 0, Width: 264, Height: 120},
	}
	return g, positions
}

func TestInitGridBounds(t *testing.T) {
	g, positions := twoObjects(t)
	grid := InitGrid(g, positions, 24)

	a, ok := grid.Node("A")
	if !ok {
		t.Fatal("A not on grid")
	}
	if a.Left != 0 || a.Top != 0 || a.Right != 10 || a.Bottom != 4 {
		t.Errorf("A bounds = %d,%d,%d,%d, want 0,0,10,4", a.Left, a.Top, a.Right, a.Bottom)
	}
	if a.Height() != 5 {
		t.Errorf("Height() = %d, want 5", a.Height())
	}
	if a.RelationRows != 2 {
		t.Errorf("RelationRows = %d, want 2", a.RelationRows)
	}
	if got := len(a.Ports); got != 24 {
		t.Errorf("len(Ports) = %d, want 24", got)
	}
	b, _ := grid.Node("B")
	if b.Left != 22 || b.Right != 32 {
		t.Errorf("B x-bounds = %d..%d, want 22..32", b.Left, b.Right)
	}
	if ids := len(grid.Nodes()); ids != 2 {
		t.Errorf("len(Nodes()) = %d, want 2", ids)
	}
}

func TestInitGridContainment(t *testing.T) {
	g, positions := twoObjects(t)
	grid := InitGrid(g, positions, 24)
	pos := graph.PositionMap(positions)

	for _, n := range grid.Nodes() {
		r := pos[n.Node.ID]
		for y := n.Top; y <= n.Bottom; y++ {
			for x := n.Left; x <= n.Right; x++ {
				found := false
				for _, c := range grid.Cells(graph.Point{X: x, Y: y}) {
					if c.Kind == CellNode && c.Node == n {
						found = true
					}
				}
				if !found {
					t.Fatalf("%s missing cell at (%d,%d)", n.Node.ID, x, y)
				}
				px, py := float64(x)*24, float64(y)*24
				if px < r.X || px >= r.X+r.Width || py < r.Y || py >= r.Y+r.Height {
					t.Errorf("%s cell (%d,%d) maps outside its rectangle", n.Node.ID, x, y)
				}
			}
		}
	}
}

func TestEdgeTags(t *testing.T) {
	g, positions := twoObjects(t)
	grid := InitGrid(g, positions, 24)

	tests := []struct {
		p    graph.Point
		want Edge
	}{
		{graph.Point{X: 0, Y: 0}, EdgeNone},
		{graph.Point{X: 10, Y: 4}, EdgeNone},
		{graph.Point{X: 5, Y: 0}, EdgeTop},
		{graph.Point{X: 0, Y: 2}, EdgeLeft},
		{graph.Point{X: 10, Y: 2}, EdgeRight},
		{graph.Point{X: 5, Y: 4}, EdgeBottom},
		{graph.Point{X: 5, Y: 2}, EdgeNone},
	}
	for _, tt := range tests {
		cells := grid.Cells(tt.p)
		if len(cells) != 1 {
			t.Fatalf("Cells(%v) = %d cells, want 1", tt.p, len(cells))
		}
		if cells[0].Edge != tt.want {
			t.Errorf("edge at %v = %v, want %v", tt.p, cells[0].Edge, tt.want)
		}
		if !cells[0].IsObject() {
			t.Errorf("cell at %v should belong to an object", tt.p)
		}
	}
}

func TestAddNodeToGrid(t *testing.T) {
	g, positions := twoObjects(t)
	_ = g.AddNode(graph.Node{ID: "v", Kind: graph.NodeVirtual})
	_ = g.AddNode(graph.Node{ID: "p", Kind: graph.NodeLinkProp, Width: 192, Height: 96})
	one, _ := g.Link("A.one")
	two, _ := g.Link("A.two")
	grid := InitGrid(g, positions, 24)

	t.Run("virtual", func(t *testing.T) {
		vn, _ := g.Node("v")
		gn := grid.AddNodeToGrid(vn, one, graph.NodePosition{ID: "v", X: 384, Y: 192})
		want := graph.Point{X: 16, Y: 8}
		if len(gn.Ports) != 1 || gn.Ports[0].Point != want {
			t.Fatalf("Ports = %v, want [%v]", gn.Ports, want)
		}
		cells := grid.Cells(want)
		if len(cells) != 1 || !cells[0].IsAuxiliary() {
			t.Errorf("Cells(%v) = %+v", want, cells)
		}
		if gn.Source() != "A" {
			t.Errorf("Source() = %q, want A", gn.Source())
		}
		if pos := grid.PixelPosition(gn); pos.Width != 0 || pos.X != 384 {
			t.Errorf("PixelPosition() = %+v", pos)
		}
	})

	t.Run("link property", func(t *testing.T) {
		pn, _ := g.Node("p")
		gn := grid.AddNodeToGrid(pn, two, graph.NodePosition{ID: "p", X: 240, Y: 288, Width: 192, Height: 96})
		if gn.Left != 10 || gn.Right != 17 || gn.Top != 12 || gn.Bottom != 15 {
			t.Fatalf("bounds = %d,%d,%d,%d", gn.Left, gn.Top, gn.Right, gn.Bottom)
		}
		for _, p := range []graph.Point{{X: 9, Y: 13}, {X: 9, Y: 14}, {X: 18, Y: 13}, {X: 18, Y: 14}} {
			cells := grid.Cells(p)
			if len(cells) != 1 || cells[0].Kind != CellBlocker || cells[0].Owner != two {
				t.Errorf("Cells(%v) = %+v, want one blocker owned by A.two", p, cells)
			}
		}
		if cells := grid.Cells(graph.Point{X: 9, Y: 12}); len(cells) != 0 {
			t.Errorf("corner row should have no blocker, got %+v", cells)
		}
		before := len(gn.Ports)
		grid.RemovePort(gn, graph.Point{X: 10, Y: 13})
		if len(gn.Ports) != before-1 {
			t.Errorf("RemovePort left %d ports, want %d", len(gn.Ports), before-1)
		}
	})
}

func TestPortAlignment(t *testing.T) {
	g, positions := twoObjects(t)
	grid := InitGrid(g, positions, 24)
	a, _ := grid.Node("A")
	one, _ := g.Link("A.one")
	two, _ := g.Link("A.two")
	inherit := &graph.Link{ID: "A.inherits", Kind: graph.LinkInherit, Source: "A", Index: graph.NoIndex}
	unindexed := &graph.Link{ID: "A.x", Kind: graph.LinkRelation, Source: "A", Index: graph.NoIndex}

	tests := []struct {
		name    string
		ports   []Port
		want    int
		checkFn func(Port) bool
	}{
		{"relation index 0", a.SourcePorts(one, true), 2, func(p Port) bool { return p.Y == 2 && p.Edge.Horizontal() }},
		{"relation index 1", a.SourcePorts(two, true), 2, func(p Port) bool { return p.Y == 3 && p.Edge.Horizontal() }},
		{"relation without index", a.SourcePorts(unindexed, true), 4, func(p Port) bool { return p.Edge.Horizontal() }},
		{"inherit source", a.SourcePorts(inherit, true), 20, func(p Port) bool { return !(p.Edge.Horizontal() && p.Y >= 2 && p.Y <= 3) }},
		{"target", a.TargetPorts(one, true), 20, func(p Port) bool { return !(p.Edge.Horizontal() && p.Y >= 2 && p.Y <= 3) }},
		{"unaligned", a.SourcePorts(one, false), 24, func(Port) bool { return true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.ports) != tt.want {
				t.Errorf("got %d ports, want %d", len(tt.ports), tt.want)
			}
			for _, p := range tt.ports {
				if !tt.checkFn(p) {
					t.Errorf("unexpected port %v (%v)", p.Point, p.Edge)
				}
			}
		})
	}
}

func TestLinkCells(t *testing.T) {
	g, positions := twoObjects(t)
	grid := InitGrid(g, positions, 24)
	one, _ := g.Link("A.one")
	a, _ := grid.Node("A")
	b, _ := grid.Node("B")
	gl := &GridLink{Link: one, Source: a, Target: b, Branch: 0}

	path := []graph.Point{{X: 11, Y: 2}, {X: 12, Y: 2}, {X: 12, Y: 3}}
	grid.AddLinkPath(gl, path)
	grid.MarkCorners(gl, []graph.Waypoint{
		{Point: graph.Point{X: 11, Y: 2}},
		{Point: graph.Point{X: 12, Y: 2}, Kind: graph.WaypointCorner},
		{Point: graph.Point{X: 12, Y: 3}},
	})

	cells := grid.Cells(graph.Point{X: 12, Y: 2})
	if len(cells) != 2 {
		t.Fatalf("corner point holds %d cells, want 2", len(cells))
	}
	if cells[0].LinkKind != LinkNormal || cells[1].LinkKind != LinkCorner {
		t.Errorf("kinds = %v,%v, want normal,corner", cells[0].LinkKind, cells[1].LinkKind)
	}
	if got := len(grid.Cells(graph.Point{X: 11, Y: 2})); got != 1 {
		t.Errorf("straight point holds %d cells, want 1", got)
	}
}
