// Package placement finds free grid space for auxiliary nodes.
//
// An auxiliary node starts at the centroid of its link's endpoints, weighted
// half to the source and half to the mean of the targets, and moves outward
// in breadth-first order until its whole footprint is free. The first fitting
// spot wins.
package placement

import (
	"math"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/grid"
)

// directions is the BFS expansion order.
var directions = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// CheckNodeFitsAtPoint reports whether a w×h footprint with top-left corner p
// can hold an auxiliary node of link. A candidate is rejected if any covered
// cell holds a node, a blocker of the same source, an inheritance link, or a
// relation link of the same source. Relation links of other sources may be
// covered.
func CheckNodeFitsAtPoint(g *grid.Grid, link *graph.Link, p graph.Point, w, h int) bool {
	for y := p.Y; y < p.Y+h; y++ {
		for x := p.X; x < p.X+w; x++ {
			for _, c := range g.Cells(graph.Point{X: x, Y: y}) {
				switch c.Kind {
				case grid.CellNode:
					return false
				case grid.CellBlocker:
					if c.Owner.Source == link.Source {
						return false
					}
				case grid.CellLink:
					other := c.Link.Link
					if other.Kind == graph.LinkInherit || other.Source == link.Source {
						return false
					}
				}
			}
		}
	}
	return true
}

// Footprint returns the grid size of an auxiliary node. Virtual nodes take a
// single cell.
func Footprint(n *graph.Node, unit float64) (w, h int) {
	if n.Kind == graph.NodeVirtual {
		return 1, 1
	}
	return max(1, int(math.Round(n.Width/unit))), max(1, int(math.Round(n.Height/unit)))
}

// Centroid returns the pixel point half way between the source center and the
// mean of the target centers.
func Centroid(link *graph.Link, positions map[string]graph.NodePosition) (x, y float64) {
	src := positions[link.Source]
	var tx, ty float64
	for _, id := range link.Targets {
		p := positions[id]
		tx += p.CenterX()
		ty += p.CenterY()
	}
	n := float64(len(link.Targets))
	return 0.5*src.CenterX() + 0.5*tx/n, 0.5*src.CenterY() + 0.5*ty/n
}

// Place positions node, the auxiliary node of link, registers it on the grid
// and returns its pixel position.
func Place(g *grid.Grid, node *graph.Node, link *graph.Link, positions map[string]graph.NodePosition) (graph.NodePosition, *grid.GridNode) {
	w, h := Footprint(node, g.Unit)
	cx, cy := Centroid(link, positions)
	start := graph.Point{
		X: int(math.Round((cx - float64(w)*g.Unit/2) / g.Unit)),
		Y: int(math.Round((cy - float64(h)*g.Unit/2) / g.Unit)),
	}

	spot := search(g, link, start, w, h)

	pos := graph.NodePosition{ID: node.ID, X: float64(spot.X) * g.Unit, Y: float64(spot.Y) * g.Unit}
	if node.Kind != graph.NodeVirtual {
		pos.Width = float64(w) * g.Unit
		pos.Height = float64(h) * g.Unit
	}
	return pos, g.AddNodeToGrid(node, link, pos)
}

// search expands outward from start. The grid holds finitely many cells, so
// a free footprint is always reached.
func search(g *grid.Grid, link *graph.Link, start graph.Point, w, h int) graph.Point {
	queue := linkedlistqueue.New()
	visited := map[graph.Point]bool{start: true}
	queue.Enqueue(start)

	for !queue.Empty() {
		v, _ := queue.Dequeue()
		p := v.(graph.Point)
		if CheckNodeFitsAtPoint(g, link, p, w, h) {
			return p
		}
		for _, d := range directions {
			next := p.Add(d[0], d[1])
			if !visited[next] {
				visited[next] = true
				queue.Enqueue(next)
			}
		}
	}
	return start
}
