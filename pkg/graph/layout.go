package graph

import (
	"fmt"
	"math"
)

// =============================================================================
// Grid Points
// =============================================================================

// Point is an integer grid-space coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy int) Point { return Point{p.X + dx, p.Y + dy} }

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) int { return abs(p.X-q.X) + abs(p.Y-q.Y) }

// Chebyshev returns the L∞ distance between p and q.
func (p Point) Chebyshev(q Point) int { return max(abs(p.X-q.X), abs(p.Y-q.Y)) }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// =============================================================================
// NodePosition
// =============================================================================

// NodePosition is a node's pixel rectangle. Positions flow forward between
// layout phases: object placement produces them and routing consumes them.
type NodePosition struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the rectangle.
func (p NodePosition) CenterX() float64 { return p.X + p.Width/2 }

// CenterY returns the vertical center of the rectangle.
func (p NodePosition) CenterY() float64 { return p.Y + p.Height/2 }

// Overlaps reports whether p and q intersect with gap pixels of clearance.
func (p NodePosition) Overlaps(q NodePosition, gap float64) bool {
	return p.X < q.X+q.Width+gap && q.X < p.X+p.Width+gap &&
		p.Y < q.Y+q.Height+gap && q.Y < p.Y+p.Height+gap
}

// Snap rounds the position to multiples of unit.
func (p NodePosition) Snap(unit float64) NodePosition {
	p.X = math.Round(p.X/unit) * unit
	p.Y = math.Round(p.Y/unit) * unit
	return p
}

// PositionMap indexes positions by node id.
func PositionMap(positions []NodePosition) map[string]NodePosition {
	m := make(map[string]NodePosition, len(positions))
	for _, p := range positions {
		m[p.ID] = p
	}
	return m
}

// =============================================================================
// Routes
// =============================================================================

// WaypointKind tells the renderer whether a waypoint bends the path.
type WaypointKind int

const (
	// WaypointNormal is a path endpoint.
	WaypointNormal WaypointKind = iota
	// WaypointCorner is a direction change.
	WaypointCorner
)

var waypointKindNames = [...]string{"normal", "corner"}

func (k WaypointKind) String() string {
	if int(k) < len(waypointKindNames) {
		return waypointKindNames[k]
	}
	return fmt.Sprintf("WaypointKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k WaypointKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *WaypointKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*k = WaypointNormal
	case "corner":
		*k = WaypointCorner
	default:
		return fmt.Errorf("unknown waypoint kind %q", b)
	}
	return nil
}

// Waypoint is a grid point on a simplified path.
type Waypoint struct {
	Point
	Kind WaypointKind `json:"kind"`
}

// Route holds the simplified paths of one link. Links with an auxiliary node
// have one path per routed branch.
type Route struct {
	LinkID string       `json:"link_id"`
	Paths  [][]Waypoint `json:"paths"`
}

// PixelPaths converts the route's grid waypoints to pixel coordinates at the
// center of each cell.
func (r Route) PixelPaths(unit float64) [][][2]float64 {
	out := make([][][2]float64, len(r.Paths))
	for i, path := range r.Paths {
		pts := make([][2]float64, len(path))
		for j, w := range path {
			pts[j] = [2]float64{float64(w.X)*unit + unit/2, float64(w.Y)*unit + unit/2}
		}
		out[i] = pts
	}
	return out
}

// =============================================================================
// Bounding Box
// =============================================================================

// BoundingBox is a pixel rectangle padded by a margin on every side.
type BoundingBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	MaxX   float64 `json:"max_x"`
	MaxY   float64 `json:"max_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ComputeBoundingBox returns the box enclosing all positions, grown by margin.
// An empty position set yields a box of size 2*margin centered on the origin.
func ComputeBoundingBox(positions []NodePosition, margin float64) BoundingBox {
	if len(positions) == 0 {
		return BoundingBox{
			MinX: -margin, MinY: -margin, MaxX: margin, MaxY: margin,
			Width: 2 * margin, Height: 2 * margin,
		}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X+p.Width)
		maxY = math.Max(maxY, p.Y+p.Height)
	}
	minX -= margin
	minY -= margin
	maxX += margin
	maxY += margin
	return BoundingBox{
		MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY,
		Width: maxX - minX, Height: maxY - minY,
	}
}

// GridBounds returns the inclusive grid-space corners covered by the box.
func (b BoundingBox) GridBounds(unit float64) (minPt, maxPt Point) {
	minPt = Point{int(math.Floor(b.MinX / unit)), int(math.Floor(b.MinY / unit))}
	maxPt = Point{int(math.Ceil(b.MaxX/unit)) - 1, int(math.Ceil(b.MaxY/unit)) - 1}
	return minPt, maxPt
}

// ContainsGrid reports whether grid point p lies inside the box.
func (b BoundingBox) ContainsGrid(p Point, unit float64) bool {
	lo, hi := b.GridBounds(unit)
	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y
}
