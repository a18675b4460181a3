package layout

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/grid"
	"github.com/matzehuels/schemalayout/pkg/layout/placement"
	"github.com/matzehuels/schemalayout/pkg/layout/route"
	"github.com/matzehuels/schemalayout/pkg/observability"
)

// Link classes in routing order.
const (
	ClassInherit  = "inherit"
	ClassRelation = "relation"
	ClassSelf     = "self"
)

// Result is the output of [LayoutAndRouteLinks].
type Result struct {
	// Routes holds one entry per link with at least one routed branch, in
	// routing order.
	Routes []graph.Route `json:"routes"`

	// Errors lists every branch that could not be routed.
	Errors []route.Failure `json:"errors"`

	// LinkNodePositions holds the placed auxiliary nodes. Object positions
	// are inputs and are not repeated here.
	LinkNodePositions []graph.NodePosition `json:"link_node_positions"`

	// UsedFallback reports that inheritance failures forced the second pass.
	UsedFallback bool `json:"used_fallback,omitempty"`
}

// LayoutAndRouteLinks places the auxiliary nodes of g and routes its links
// around the object rectangles in positions. Every call builds its own grid,
// so the same input always yields the same result.
func LayoutAndRouteLinks(ctx context.Context, g *graph.Graph, positions []graph.NodePosition, opts Options) Result {
	opts = opts.withDefaults()
	inherit, relation, self := partition(g.Links())

	p := newPass(ctx, g, positions, opts)
	p.place(inherit)
	p.place(relation)
	p.startRouting()

	if failed := p.route(inherit, ClassInherit); failed > 0 {
		opts.Logger.Debug("inheritance routing failed, retrying", "failures", failed)
		observability.Route().OnFallback(ctx, failed)

		p = newPass(ctx, g, positions, opts)
		p.fallback = true
		p.place(inherit)
		p.startRouting()
		p.route(inherit, ClassInherit)
		p.place(relation)
		p.router.SetBounds(p.bounds())
	}
	p.route(relation, ClassRelation)

	p.place(self)
	p.router.SetBounds(p.bounds())
	p.route(self, ClassSelf)

	for _, f := range p.failures {
		opts.Logger.Warn("unroutable link", "link", f.LinkID, "branch", f.Branch,
			"from", f.From, "to", f.To, "status", f.Status)
	}

	return Result{
		Routes:            nonNil(p.routes),
		Errors:            nonNil(p.failures),
		LinkNodePositions: nonNil(p.aux),
		UsedFallback:      p.fallback,
	}
}

// partition splits links into inheritance links, relation links and
// single-target relation loops, each in graph order.
func partition(links []*graph.Link) (inherit, relation, self []*graph.Link) {
	for _, l := range links {
		switch {
		case l.Kind == graph.LinkInherit:
			inherit = append(inherit, l)
		case l.IsSelf():
			self = append(self, l)
		default:
			relation = append(relation, l)
		}
	}
	return inherit, relation, self
}

// pass is one attempt at routing every link on a single grid.
type pass struct {
	ctx    context.Context
	g      *graph.Graph
	opts   Options
	logger *log.Logger

	grid      *grid.Grid
	router    *route.Router
	positions map[string]graph.NodePosition
	objects   []graph.NodePosition
	aux       []graph.NodePosition

	routes   []graph.Route
	failures []route.Failure
	fallback bool
}

func newPass(ctx context.Context, g *graph.Graph, positions []graph.NodePosition, opts Options) *pass {
	byID := graph.PositionMap(positions)
	p := &pass{
		ctx:       ctx,
		g:         g,
		opts:      opts,
		logger:    opts.Logger,
		grid:      grid.InitGrid(g, positions, opts.GridUnit),
		positions: make(map[string]graph.NodePosition, len(positions)),
	}
	for _, n := range g.ObjectNodes() {
		if pos, ok := byID[n.ID]; ok {
			p.objects = append(p.objects, pos)
			p.positions[n.ID] = pos
		}
	}
	return p
}

// place positions the auxiliary nodes of links on the grid.
func (p *pass) place(links []*graph.Link) {
	for _, l := range links {
		if l.LinkNode == "" {
			continue
		}
		n, ok := p.g.Node(l.LinkNode)
		if !ok {
			continue
		}
		pos, _ := placement.Place(p.grid, n, l, p.positions)
		p.positions[n.ID] = pos
		p.aux = append(p.aux, pos)
		p.logger.Debug("placed link node", "node", n.ID, "kind", n.Kind, "x", pos.X, "y", pos.Y)
	}
}

// bounds covers every object and every auxiliary node placed so far.
func (p *pass) bounds() graph.BoundingBox {
	all := make([]graph.NodePosition, 0, len(p.objects)+len(p.aux))
	all = append(all, p.objects...)
	all = append(all, p.aux...)
	return graph.ComputeBoundingBox(all, p.opts.Margin())
}

func (p *pass) startRouting() {
	p.router = route.NewRouter(p.grid, p.bounds(), p.opts.Aligned, p.opts.MaxExpansions)
}

// route routes links in order and returns the number of failed branches.
func (p *pass) route(links []*graph.Link, class string) int {
	failed := 0
	for _, l := range links {
		observability.Route().OnRouteStart(p.ctx, l.ID, class)
		rt, ok, failures := p.router.RouteLink(l)
		if ok {
			p.routes = append(p.routes, rt)
		}
		p.failures = append(p.failures, failures...)
		failed += len(failures)
		observability.Route().OnRouteComplete(p.ctx, l.ID, class, len(rt.Paths), len(failures))
		p.logger.Debug("routed link", "link", l.ID, "class", class, "paths", len(rt.Paths), "failures", len(failures))
	}
	return failed
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
