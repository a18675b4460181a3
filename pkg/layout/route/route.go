// Package route computes orthogonal paths for links on a [grid.Grid].
//
// Each link is split into branches. A link with a virtual junction is routed
// source→junction first, then junction→target for every target. A link with a
// link property node is routed source→node and then target→node for every
// target, since property nodes are destinations rather than pass-through
// junctions. Every successful branch is committed to the grid before the next
// one is searched, so later branches and links see it.
//
// Branch failures are returned as [Failure] values. They never abort routing.
package route

import (
	"fmt"
	"math"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/grid"
	"github.com/matzehuels/schemalayout/pkg/search"
)

// Trunk is the branch number of the source→auxiliary node path.
const Trunk = -1

// StatusDegenerate marks a search that succeeded with fewer than two points.
const StatusDegenerate = "degenerate"

var steps = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Failure records one branch that could not be routed.
type Failure struct {
	LinkID string         `json:"link_id"`
	Kind   graph.LinkKind `json:"kind"`
	Branch int            `json:"branch"`
	From   string         `json:"from"`
	To     string         `json:"to"`
	Status string         `json:"status"`
}

// Err converts the failure to a coded error.
func (f Failure) Err() error {
	code := errors.ErrCodeUnroutableLink
	switch f.Status {
	case search.Timeout.String():
		code = errors.ErrCodeSearchTimeout
	case search.NoPath.String():
		code = errors.ErrCodeNoPath
	}
	return errors.New(code, "link %s: no route from %s to %s (%s)", f.LinkID, f.From, f.To, f.Status)
}

func (f Failure) String() string {
	return fmt.Sprintf("%s[%d] %s→%s: %s", f.LinkID, f.Branch, f.From, f.To, f.Status)
}

// Router routes links on one grid. The zero value is not usable.
type Router struct {
	Grid *grid.Grid

	// Bounds is the padded bounding box paths must stay within.
	Bounds graph.BoundingBox

	// Aligned enables relation port rows (see grid.GridNode.SourcePorts).
	Aligned bool

	// MaxExpansions caps each search. Zero selects search.DefaultMaxExpansions.
	MaxExpansions int

	lo, hi graph.Point
}

// NewRouter creates a router over g restricted to bounds.
func NewRouter(g *grid.Grid, bounds graph.BoundingBox, aligned bool, maxExpansions int) *Router {
	r := &Router{Grid: g, Bounds: bounds, Aligned: aligned, MaxExpansions: maxExpansions}
	r.lo, r.hi = bounds.GridBounds(g.Unit)
	return r
}

// SetBounds replaces the bounding box used by later searches.
func (r *Router) SetBounds(bounds graph.BoundingBox) {
	r.Bounds = bounds
	r.lo, r.hi = bounds.GridBounds(r.Grid.Unit)
}

// RouteLink routes every branch of link and commits the successful ones. ok
// is false when no branch succeeded, in which case the link has no route. A
// failed trunk fails the whole link: no branch is searched or committed.
func (r *Router) RouteLink(link *graph.Link) (rt graph.Route, ok bool, failures []Failure) {
	rt.LinkID = link.ID
	src, found := r.Grid.Node(link.Source)
	if !found {
		return rt, false, nil
	}

	var aux *grid.GridNode
	if link.LinkNode != "" {
		aux, _ = r.Grid.Node(link.LinkNode)
	}

	record := func(gl *grid.GridLink, from, to string, starts []graph.Point, ends map[graph.Point]bool) []graph.Point {
		path, status := r.routeBranch(gl, starts, ends)
		if status != "" {
			failures = append(failures, Failure{
				LinkID: link.ID, Kind: link.Kind, Branch: gl.Branch,
				From: from, To: to, Status: status,
			})
			return nil
		}
		rt.Paths = append(rt.Paths, r.commit(gl, path))
		return path
	}

	switch {
	case aux == nil:
		for i, id := range link.Targets {
			dst, ok := r.Grid.Node(id)
			if !ok {
				continue
			}
			gl := &grid.GridLink{Link: link, Source: src, Target: dst, Branch: i}
			record(gl, src.Node.ID, dst.Node.ID, points(src.SourcePorts(link, r.Aligned)), toSet(dst.TargetPorts(link, r.Aligned)))
		}

	case aux.Node.Kind == graph.NodeLinkProp:
		gl := &grid.GridLink{Link: link, Source: src, Target: aux, Branch: Trunk}
		if record(gl, src.Node.ID, aux.Node.ID, points(src.SourcePorts(link, r.Aligned)), toSet(aux.Ports)) == nil {
			return rt, false, failures
		}
		for i, id := range link.Targets {
			dst, ok := r.Grid.Node(id)
			if !ok {
				continue
			}
			gl := &grid.GridLink{Link: link, Source: dst, Target: aux, Branch: i}
			record(gl, dst.Node.ID, aux.Node.ID, points(dst.TargetPorts(link, r.Aligned)), toSet(aux.Ports))
		}

	default:
		gl := &grid.GridLink{Link: link, Source: src, Target: aux, Branch: Trunk}
		trunk := record(gl, src.Node.ID, aux.Node.ID, points(src.SourcePorts(link, r.Aligned)), toSet(aux.Ports))
		if trunk == nil {
			return rt, false, failures
		}
		junction := aux.Ports[0].Point
		for i, id := range link.Targets {
			dst, ok := r.Grid.Node(id)
			if !ok {
				continue
			}
			ends := toSet(dst.TargetPorts(link, r.Aligned))
			if dst == src {
				for p := range ends {
					if p.Chebyshev(junction) <= 1 {
						delete(ends, p)
					}
				}
				delete(ends, trunk[0])
			}
			gl := &grid.GridLink{Link: link, Source: aux, Target: dst, Branch: i}
			record(gl, aux.Node.ID, dst.Node.ID, []graph.Point{junction}, ends)
		}
	}

	return rt, len(rt.Paths) > 0, failures
}

// routeBranch searches one branch. A non-empty status reports failure.
func (r *Router) routeBranch(gl *grid.GridLink, starts []graph.Point, ends map[graph.Point]bool) ([]graph.Point, string) {
	if len(starts) == 0 || len(ends) == 0 {
		return nil, search.NoPath.String()
	}
	v := &view{grid: r.Grid, link: gl.Link, branch: gl.Branch, ends: ends}
	endList := make([]graph.Point, 0, len(ends))
	for p := range ends {
		endList = append(endList, p)
	}

	res := search.Search(search.Problem[graph.Point, stateKey]{
		Starts:        starts,
		IsEnd:         func(p graph.Point, _ *graph.Point) bool { return ends[p] },
		Neighbors:     func(p graph.Point, prev *graph.Point) []search.Neighbor[graph.Point] { return r.neighbors(v, p, prev) },
		Heuristic:     func(p graph.Point) float64 { return nearest(p, endList) },
		Hash:          hash,
		MaxExpansions: r.MaxExpansions,
	})

	if res.Status != search.Success {
		return nil, res.Status.String()
	}
	if len(res.Path) < 2 {
		return nil, StatusDegenerate
	}
	return res.Path, ""
}

// neighbors applies the step rules: base cost 1, +1 for a bend (rejected
// where a visible link already passes), +1 for crossing a visible link, +1
// next to an object. Blocked cells, cells outside the bounds and immediate
// backtracking are rejected.
func (r *Router) neighbors(v *view, cur graph.Point, prev *graph.Point) []search.Neighbor[graph.Point] {
	out := make([]search.Neighbor[graph.Point], 0, 4)
	for _, d := range steps {
		next := cur.Add(d[0], d[1])
		if prev != nil && next == *prev {
			continue
		}
		if next.X < r.lo.X || next.X > r.hi.X || next.Y < r.lo.Y || next.Y > r.hi.Y {
			continue
		}
		if v.blocked(next) {
			continue
		}
		cost := 1.0
		if prev != nil && isCorner(*prev, next) {
			if v.visibleLink(cur) {
				continue
			}
			cost++
		}
		if v.visibleLink(next) {
			cost++
		}
		if v.nearObject(next) {
			cost++
		}
		out = append(out, search.Neighbor[graph.Point]{Node: next, Cost: cost})
	}
	return out
}

// commit writes the path into the grid and returns its simplified form.
func (r *Router) commit(gl *grid.GridLink, path []graph.Point) []graph.Waypoint {
	r.Grid.AddLinkPath(gl, path)
	waypoints := Simplify(path)
	r.Grid.MarkCorners(gl, waypoints)
	if gl.Target.Node.Kind == graph.NodeLinkProp {
		r.Grid.RemovePort(gl.Target, path[len(path)-1])
	}
	return waypoints
}

// stateKey tracks a point together with the direction it was entered from.
type stateKey struct {
	p      graph.Point
	dx, dy int
}

func hash(p graph.Point, prev *graph.Point) stateKey {
	if prev == nil {
		return stateKey{p: p}
	}
	return stateKey{p: p, dx: p.X - prev.X, dy: p.Y - prev.Y}
}

func nearest(p graph.Point, ends []graph.Point) float64 {
	best := math.MaxInt
	for _, e := range ends {
		best = min(best, p.Manhattan(e))
	}
	return float64(best)
}

func points(ports []grid.Port) []graph.Point {
	out := make([]graph.Point, len(ports))
	for i, p := range ports {
		out[i] = p.Point
	}
	return out
}

func toSet(ports []grid.Port) map[graph.Point]bool {
	out := make(map[graph.Point]bool, len(ports))
	for _, p := range ports {
		out[p.Point] = true
	}
	return out
}
