package cache

// Keyer builds cache keys for layout stages.
type Keyer interface {
	// PlacementKey identifies object positions computed for a graph.
	PlacementKey(graphHash string, opts PlacementKeyOpts) string

	// RouteKey identifies routed links for a graph and its object positions.
	RouteKey(graphHash, positionsHash string, opts RouteKeyOpts) string
}

// PlacementKeyOpts are the options that change object placement.
type PlacementKeyOpts struct {
	Placer       string  `json:"placer"`
	Seed         uint64  `json:"seed"`
	Updates      int     `json:"updates,omitempty"`
	GridUnit     float64 `json:"grid_unit"`
	PreviousHash string  `json:"previous_hash,omitempty"`
}

// RouteKeyOpts are the options that change routing.
type RouteKeyOpts struct {
	GridUnit      float64 `json:"grid_unit"`
	MarginUnits   int     `json:"margin_units"`
	Aligned       bool    `json:"aligned"`
	MaxExpansions int     `json:"max_expansions"`
}

// DefaultKeyer hashes the graph hash and options into "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PlacementKey implements [Keyer].
func (k *DefaultKeyer) PlacementKey(graphHash string, opts PlacementKeyOpts) string {
	return hashKey(KeyTypePlacement, graphHash, opts)
}

// RouteKey implements [Keyer].
func (k *DefaultKeyer) RouteKey(graphHash, positionsHash string, opts RouteKeyOpts) string {
	return hashKey(KeyTypeRoute, graphHash, positionsHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
