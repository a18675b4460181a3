package route

import (
	"github.com/matzehuels/schemalayout/pkg/graph"
)

// Simplify reduces a cell-by-cell path to its endpoints and direction changes.
// Endpoints are normal waypoints and every bend is a corner.
func Simplify(path []graph.Point) []graph.Waypoint {
	if len(path) == 0 {
		return nil
	}
	out := []graph.Waypoint{{Point: path[0]}}
	for i := 1; i+1 < len(path); i++ {
		prev, cur, next := path[i-1], path[i], path[i+1]
		if isCorner(prev, next) {
			out = append(out, graph.Waypoint{Point: cur, Kind: graph.WaypointCorner})
		}
	}
	if len(path) > 1 {
		out = append(out, graph.Waypoint{Point: path[len(path)-1]})
	}
	return out
}

// isCorner reports whether the step prev→cur→next bends at cur.
func isCorner(prev, next graph.Point) bool {
	return prev.X != next.X && prev.Y != next.Y
}
