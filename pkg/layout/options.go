package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/search"
)

// DefaultMarginUnits is the bounding box padding, in grid units, that routes
// may use around the outermost nodes.
const DefaultMarginUnits = 4

// Options configures a layout pass.
type Options struct {
	// GridUnit is the pixel size of one grid cell.
	GridUnit float64 `json:"grid_unit,omitempty"`

	// MarginUnits pads the routing bounding box.
	MarginUnits int `json:"margin_units,omitempty"`

	// Aligned reserves relation port rows on object nodes.
	Aligned bool `json:"aligned"`

	// MaxExpansions caps every A* search.
	MaxExpansions int `json:"max_expansions,omitempty"`

	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns aligned routing on a 24px grid.
func DefaultOptions() Options {
	return Options{
		GridUnit:      graph.DefaultGridUnit,
		MarginUnits:   DefaultMarginUnits,
		Aligned:       true,
		MaxExpansions: search.DefaultMaxExpansions,
	}
}

func (o Options) withDefaults() Options {
	if o.GridUnit <= 0 {
		o.GridUnit = graph.DefaultGridUnit
	}
	if o.MarginUnits <= 0 {
		o.MarginUnits = DefaultMarginUnits
	}
	if o.MaxExpansions <= 0 {
		o.MaxExpansions = search.DefaultMaxExpansions
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Margin returns the bounding box padding in pixels.
func (o Options) Margin() float64 {
	return float64(o.MarginUnits) * o.GridUnit
}
