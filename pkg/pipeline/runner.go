package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemalayout/pkg/cache"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout"
	"github.com/matzehuels/schemalayout/pkg/layout/focus"
	"github.com/matzehuels/schemalayout/pkg/observability"
)

// Runner executes pipeline stages with caching. It holds no per-run state,
// so one Runner may serve several goroutines with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// selects [cache.DefaultKeyer].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs parse → place → route for opts.Input.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	g, err := Parse(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Graph = g
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.LinkCount = g.LinkCount()
	result.GraphHash, _ = HashGraph(g)

	r.Logger.Info("parsed schema",
		"nodes", g.NodeCount(),
		"links", g.LinkCount(),
		"duration", result.Stats.ParseTime)

	// Stage 2: Place
	placeStart := time.Now()
	positions, placeHit, err := r.PlaceObjects(ctx, g, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	result.Positions = positions
	result.Stats.PlaceTime = time.Since(placeStart)
	result.CacheInfo.PlaceHit = placeHit

	r.Logger.Info("placed objects",
		"objects", len(positions),
		"cached", placeHit,
		"duration", result.Stats.PlaceTime)

	// Stage 3: Route
	routeStart := time.Now()
	res, routeHit, err := r.RouteLinks(ctx, g, positions, opts)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Layout = res
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = routeHit

	r.Logger.Info("routed links",
		"routes", len(res.Routes),
		"failures", len(res.Errors),
		"fallback", res.UsedFallback,
		"cached", routeHit,
		"duration", result.Stats.RouteTime)

	return result, nil
}

// PlaceObjects positions the object nodes of g. Objects listed in previous
// keep their positions. The bool result reports a cache hit.
func (r *Runner) PlaceObjects(ctx context.Context, g *graph.Graph, previous []graph.NodePosition, opts Options) ([]graph.NodePosition, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	graphHash, err := HashGraph(g)
	if err != nil {
		return nil, false, err
	}
	var previousHash string
	if len(previous) > 0 {
		if previousHash, err = cache.HashJSON(previous); err != nil {
			return nil, false, fmt.Errorf("hash previous positions: %w", err)
		}
	}
	key := r.Keyer.PlacementKey(graphHash, opts.PlacementKeyOpts(previousHash))

	var positions []graph.NodePosition
	if r.load(ctx, key, cache.KeyTypePlacement, opts, &positions) {
		return positions, true, nil
	}

	placer, err := opts.NewPlacer()
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, StagePlace, len(g.ObjectNodes()))
	start := time.Now()
	positions, err = layout.LayoutObjectNodes(ctx, g, previous, placer, opts.LayoutOptions())
	hooks.OnLayoutComplete(ctx, StagePlace, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.store(ctx, key, cache.KeyTypePlacement, opts, positions)
	return positions, false, nil
}

// RouteLinks places the auxiliary nodes of g and routes its links around the
// object rectangles in positions. The bool result reports a cache hit.
// Unroutable links are reported in the result, not as an error.
func (r *Runner) RouteLinks(ctx context.Context, g *graph.Graph, positions []graph.NodePosition, opts Options) (layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Result{}, false, err
	}

	graphHash, err := HashGraph(g)
	if err != nil {
		return layout.Result{}, false, err
	}
	positionsHash, err := cache.HashJSON(positions)
	if err != nil {
		return layout.Result{}, false, fmt.Errorf("hash positions: %w", err)
	}
	key := r.Keyer.RouteKey(graphHash, positionsHash, opts.RouteKeyOpts())

	var res layout.Result
	if r.load(ctx, key, cache.KeyTypeRoute, opts, &res) {
		return res, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, StageRoute, g.NodeCount())
	start := time.Now()
	res = layout.LayoutAndRouteLinks(ctx, g, positions, opts.LayoutOptions())
	hooks.OnLayoutComplete(ctx, StageRoute, time.Since(start), nil)

	r.store(ctx, key, cache.KeyTypeRoute, opts, res)
	return res, false, nil
}

// Focus lays out focusID and its outgoing relation targets radially, then
// routes the links among those nodes. The result graph is the focused
// subgraph.
func (r *Runner) Focus(ctx context.Context, g *graph.Graph, focusID string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, StageFocus, g.NodeCount())
	start := time.Now()
	positions, err := focus.Layout(g, focusID, opts.GridUnit)
	hooks.OnLayoutComplete(ctx, StageFocus, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	result := &Result{Positions: positions}
	result.Stats.PlaceTime = time.Since(start)

	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = p.ID
	}
	sub := g.Subgraph(ids)
	result.Graph = sub
	result.Stats.NodeCount = sub.NodeCount()
	result.Stats.LinkCount = sub.LinkCount()
	result.GraphHash, _ = HashGraph(sub)

	routeStart := time.Now()
	res, hit, err := r.RouteLinks(ctx, sub, positions, opts)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Layout = res
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = hit

	opts.Logger.Debug("focused layout",
		"focus", focusID,
		"nodes", len(positions),
		"routes", len(res.Routes))
	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// HashGraph returns the content hash of g's document form.
func HashGraph(g *graph.Graph) (string, error) {
	h, err := cache.HashJSON(graph.ToDocument(g, nil))
	if err != nil {
		return "", fmt.Errorf("hash graph: %w", err)
	}
	return h, nil
}

// load decodes a cached entry into v. Backend and decode errors count as a
// miss so a broken cache never fails a layout.
func (r *Runner) load(ctx context.Context, key, keyType string, opts Options, v any) bool {
	if opts.Refresh {
		return false
	}
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyType)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		opts.Logger.Debug("discarding cache entry", "type", keyType, "err", err)
		hooks.OnCacheMiss(ctx, keyType)
		return false
	}
	hooks.OnCacheHit(ctx, keyType)
	return true
}

func (r *Runner) store(ctx context.Context, key, keyType string, opts Options, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		opts.Logger.Debug("cache encode failed", "type", keyType, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, opts.CacheTTL); err != nil {
		opts.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
