package force

import (
	"math"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

// Deoverlap returns rects moved so that no two are closer than gap. Rects are
// fixed in input order: each one is pushed past every earlier rect it hits,
// along the axis where their centers differ most. A rect keeps the direction
// of its first push on each axis, which bounds the number of pushes by the
// number of earlier rects.
func Deoverlap(rects []graph.NodePosition, gap float64) []graph.NodePosition {
	return DeoverlapAfter(rects, 0, gap)
}

// DeoverlapAfter is [Deoverlap] with the first fixed rects left where they
// are, even when they overlap each other.
func DeoverlapAfter(rects []graph.NodePosition, fixed int, gap float64) []graph.NodePosition {
	out := make([]graph.NodePosition, len(rects))
	copy(out, rects)

	for i := min(fixed, len(out)); i < len(out); i++ {
		r := &out[i]
		var signX, signY float64
		for {
			hit := -1
			for j := 0; j < i; j++ {
				if overlaps(*r, out[j], gap) {
					hit = j
					break
				}
			}
			if hit < 0 {
				break
			}
			o := out[hit]
			dx := r.CenterX() - o.CenterX()
			dy := r.CenterY() - o.CenterY()
			if dx == 0 && dy == 0 {
				dx = 1
			}
			if math.Abs(dx) >= math.Abs(dy) {
				signX = pick(signX, dx)
				if signX > 0 {
					r.X = o.X + o.Width + gap
				} else {
					r.X = o.X - r.Width - gap
				}
			} else {
				signY = pick(signY, dy)
				if signY > 0 {
					r.Y = o.Y + o.Height + gap
				} else {
					r.Y = o.Y - r.Height - gap
				}
			}
		}
	}
	return out
}

// overlaps tolerates rounding so a rect pushed flush against another does
// not count as overlapping it.
func overlaps(a, b graph.NodePosition, gap float64) bool {
	const eps = 1e-6
	return a.X < b.X+b.Width+gap-eps && b.X < a.X+a.Width+gap-eps &&
		a.Y < b.Y+b.Height+gap-eps && b.Y < a.Y+a.Height+gap-eps
}

// pick keeps an already chosen direction, otherwise follows d.
func pick(sign, d float64) float64 {
	if sign != 0 {
		return sign
	}
	if d >= 0 {
		return 1
	}
	return -1
}

// SnapToGrid rounds every rectangle's origin to a multiple of unit.
func SnapToGrid(rects []graph.NodePosition, unit float64) []graph.NodePosition {
	out := make([]graph.NodePosition, len(rects))
	for i, r := range rects {
		out[i] = r.Snap(unit)
	}
	return out
}
