// Package pipeline runs the schemalayout stages end to end.
//
// A run reads a schema document, builds the layout graph, places object
// nodes and routes links:
//
//  1. Parse: [schema.ReadFile] and [schema.Build]
//  2. Place: [layout.LayoutObjectNodes] with the configured [force.Placer]
//  3. Route: [layout.LayoutAndRouteLinks]
//
// The placement and routing stages are cached through a [cache.Cache], so a
// second run over an unchanged schema returns stored positions and routes.
// CLI, stdio worker and HTTP worker all go through the same [Runner].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Input: "blog.yaml"})
//	if err != nil {
//	    return err
//	}
//	out := result.Output()
//
// Options may also come from a TOML file, see [LoadConfig].
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemalayout/pkg/cache"
	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout"
	"github.com/matzehuels/schemalayout/pkg/layout/force"
	"github.com/matzehuels/schemalayout/pkg/layout/route"
	"github.com/matzehuels/schemalayout/pkg/schema"
	"github.com/matzehuels/schemalayout/pkg/search"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Worker
// =============================================================================

const (
	// DefaultSeed makes placement reproducible across runs.
	DefaultSeed = uint64(42)

	// DefaultPlacer is the force-directed placer used for object nodes.
	DefaultPlacer = force.PlacerEades

	// DefaultCacheTTL bounds the lifetime of cached placements and routes.
	DefaultCacheTTL = cache.TTLRoute
)

// Stage names reported to pipeline hooks.
const (
	StagePlace = "place"
	StageRoute = "route"
	StageFocus = "focus"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run. The struct decodes
// from JSON (worker requests) and TOML (config files).
type Options struct {
	// Parse options
	Input   string   `json:"input,omitempty" toml:"input"`
	Format  string   `json:"format,omitempty" toml:"format"`
	Include []string `json:"include,omitempty" toml:"include"`

	// Layout options
	GridUnit      float64 `json:"grid_unit,omitempty" toml:"grid_unit"`
	MarginUnits   int     `json:"margin_units,omitempty" toml:"margin_units"`
	MaxExpansions int     `json:"max_expansions,omitempty" toml:"max_expansions"`
	Aligned       *bool   `json:"aligned,omitempty" toml:"aligned"`
	Placer        string  `json:"placer,omitempty" toml:"placer"`
	EadesUpdates  int     `json:"eades_updates,omitempty" toml:"eades_updates"`
	Seed          uint64  `json:"seed,omitempty" toml:"seed"`

	// Cache options
	CacheTTL time.Duration `json:"cache_ttl,omitempty" toml:"cache_ttl"`
	RedisURL string        `json:"redis_url,omitempty" toml:"redis_url"`
	Refresh  bool          `json:"refresh,omitempty" toml:"refresh"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the layout graph built from the schema.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph document.
	GraphHash string

	// Positions are the placed object nodes.
	Positions []graph.NodePosition

	// Layout holds routes, failures and auxiliary node positions.
	Layout layout.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount int
	LinkCount int
	ParseTime time.Duration
	PlaceTime time.Duration
	RouteTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PlaceHit bool
	RouteHit bool
}

// Output is the serialized form of a result: the graph document with every
// node position, followed by the routed links.
type Output struct {
	graph.Document
	Routes       []graph.Route   `json:"routes"`
	Errors       []route.Failure `json:"errors"`
	UsedFallback bool            `json:"used_fallback,omitempty"`
}

// Output merges object and auxiliary positions into one document.
func (r *Result) Output() Output {
	positions := make([]graph.NodePosition, 0, len(r.Positions)+len(r.Layout.LinkNodePositions))
	positions = append(positions, r.Positions...)
	positions = append(positions, r.Layout.LinkNodePositions...)
	return Output{
		Document:     graph.ToDocument(r.Graph, positions),
		Routes:       r.Layout.Routes,
		Errors:       r.Layout.Errors,
		UsedFallback: r.Layout.UsedFallback,
	}
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks option values and fills in defaults. Calling
// it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	switch o.Format {
	case "", schema.FormatJSON, schema.FormatYAML:
	default:
		return errors.New(errors.ErrCodeInvalidOption, "format must be %q or %q, got %q", schema.FormatJSON, schema.FormatYAML, o.Format)
	}
	o.validated = true
	return nil
}

// ValidateForLayout checks and defaults the placement, routing and cache
// options. It does not require an input file.
func (o *Options) ValidateForLayout() error {
	switch {
	case o.GridUnit < 0:
		return errors.New(errors.ErrCodeInvalidOption, "grid_unit must be positive, got %g", o.GridUnit)
	case o.MarginUnits < 0:
		return errors.New(errors.ErrCodeInvalidOption, "margin_units must not be negative, got %d", o.MarginUnits)
	case o.MaxExpansions < 0:
		return errors.New(errors.ErrCodeInvalidOption, "max_expansions must not be negative, got %d", o.MaxExpansions)
	case o.EadesUpdates < 0:
		return errors.New(errors.ErrCodeInvalidOption, "eades_updates must not be negative, got %d", o.EadesUpdates)
	case o.CacheTTL < 0:
		return errors.New(errors.ErrCodeInvalidOption, "cache_ttl must not be negative, got %s", o.CacheTTL)
	}
	if o.Placer == "" {
		o.Placer = DefaultPlacer
	}
	if _, err := force.New(o.Placer, 0); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "placer must be one of %v", force.ValidPlacers())
	}
	if o.RedisURL != "" {
		if err := errors.ValidateRedisURL(o.RedisURL); err != nil {
			return err
		}
	}
	if o.GridUnit == 0 {
		o.GridUnit = graph.DefaultGridUnit
	}
	if o.MarginUnits == 0 {
		o.MarginUnits = layout.DefaultMarginUnits
	}
	if o.MaxExpansions == 0 {
		o.MaxExpansions = search.DefaultMaxExpansions
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// IsAligned reports whether relation ports are reserved on object nodes.
// Alignment is on unless explicitly disabled.
func (o *Options) IsAligned() bool {
	return o.Aligned == nil || *o.Aligned
}

// LayoutOptions returns the options passed to the layout package.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		GridUnit:      o.GridUnit,
		MarginUnits:   o.MarginUnits,
		Aligned:       o.IsAligned(),
		MaxExpansions: o.MaxExpansions,
		Logger:        o.Logger,
	}
}

// NewPlacer returns the configured object placer.
func (o *Options) NewPlacer() (force.Placer, error) {
	p, err := force.New(o.Placer, o.Seed)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "placer")
	}
	if e, ok := p.(*force.EadesPlacer); ok {
		e.Updates = o.EadesUpdates
	}
	return p, nil
}

// PlacementKeyOpts returns cache key options for object placement.
func (o *Options) PlacementKeyOpts(previousHash string) cache.PlacementKeyOpts {
	return cache.PlacementKeyOpts{
		Placer:       o.Placer,
		Seed:         o.Seed,
		Updates:      o.EadesUpdates,
		GridUnit:     o.GridUnit,
		PreviousHash: previousHash,
	}
}

// RouteKeyOpts returns cache key options for link routing.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{
		GridUnit:      o.GridUnit,
		MarginUnits:   o.MarginUnits,
		Aligned:       o.IsAligned(),
		MaxExpansions: o.MaxExpansions,
	}
}

// Merge returns o with every non-zero field of over applied on top. The
// result must be validated again.
func (o Options) Merge(over Options) Options {
	if over.Input != "" {
		o.Input = over.Input
	}
	if over.Format != "" {
		o.Format = over.Format
	}
	if len(over.Include) > 0 {
		o.Include = over.Include
	}
	if over.GridUnit != 0 {
		o.GridUnit = over.GridUnit
	}
	if over.MarginUnits != 0 {
		o.MarginUnits = over.MarginUnits
	}
	if over.MaxExpansions != 0 {
		o.MaxExpansions = over.MaxExpansions
	}
	if over.Aligned != nil {
		o.Aligned = over.Aligned
	}
	if over.Placer != "" {
		o.Placer = over.Placer
	}
	if over.EadesUpdates != 0 {
		o.EadesUpdates = over.EadesUpdates
	}
	if over.Seed != 0 {
		o.Seed = over.Seed
	}
	if over.CacheTTL != 0 {
		o.CacheTTL = over.CacheTTL
	}
	if over.RedisURL != "" {
		o.RedisURL = over.RedisURL
	}
	if over.Refresh {
		o.Refresh = true
	}
	if over.Logger != nil {
		o.Logger = over.Logger
	}
	o.validated = false
	return o
}
