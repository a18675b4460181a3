package layout

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/force"
)

// PaddingUnits is the clearance, in grid units, added on every side of an
// object before it is handed to the placer.
const PaddingUnits = 2

// LayoutObjectNodes computes positions for the object nodes of g. The placer
// sees each object padded by PaddingUnits on every side and one edge per link
// target. Its output is shrunk back to the real sizes around the same
// centers, pushed apart until objects are at least two grid units apart, and
// snapped to the grid.
//
// Objects with a position in previous keep it, snapped to the grid. Objects without one are moved
// by the mean offset between the kept objects' previous and placed positions,
// then pushed clear of the kept objects.
//
// A nil placer selects the Eades spring embedder.
func LayoutObjectNodes(ctx context.Context, g *graph.Graph, previous []graph.NodePosition, placer force.Placer, opts Options) ([]graph.NodePosition, error) {
	opts = opts.withDefaults()
	if placer == nil {
		placer = &force.EadesPlacer{}
	}

	pad := PaddingUnits * opts.GridUnit
	prev := graph.PositionMap(previous)
	objects := g.ObjectNodes()

	padded := make([]graph.NodePosition, len(objects))
	for i, n := range objects {
		padded[i] = graph.NodePosition{ID: n.ID, Width: n.Width + 2*pad, Height: n.Height + 2*pad}
		if p, ok := prev[n.ID]; ok {
			padded[i].X = p.X - pad
			padded[i].Y = p.Y - pad
		}
	}

	var edges []force.Edge
	for _, l := range g.Links() {
		for _, t := range l.Targets {
			if t != l.Source {
				edges = append(edges, force.Edge{From: l.Source, To: t})
			}
		}
	}

	placed, err := placer.Place(ctx, padded, edges)
	if err != nil {
		return nil, fmt.Errorf("place objects: %w", err)
	}
	if len(placed) != len(objects) {
		return nil, fmt.Errorf("place objects: placer returned %d positions for %d nodes", len(placed), len(objects))
	}

	out := make([]graph.NodePosition, len(objects))
	var dx, dy float64
	pinned := 0
	for i, n := range objects {
		out[i] = graph.NodePosition{
			ID:     n.ID,
			X:      placed[i].CenterX() - n.Width/2,
			Y:      placed[i].CenterY() - n.Height/2,
			Width:  n.Width,
			Height: n.Height,
		}
		if p, ok := prev[n.ID]; ok {
			dx += p.X - out[i].X
			dy += p.Y - out[i].Y
			pinned++
		}
	}
	if pinned > 0 {
		dx /= float64(pinned)
		dy /= float64(pinned)
	}
	for i, n := range objects {
		if p, ok := prev[n.ID]; ok {
			out[i].X, out[i].Y = p.X, p.Y
		} else {
			out[i].X += dx
			out[i].Y += dy
		}
	}

	// Known objects go first and stay fixed.
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		_, pa := prev[out[a].ID]
		_, pb := prev[out[b].ID]
		switch {
		case pa && !pb:
			return -1
		case pb && !pa:
			return 1
		}
		return 0
	})
	sorted := make([]graph.NodePosition, len(out))
	for k, i := range order {
		sorted[k] = out[i]
	}
	sorted = force.SnapToGrid(force.DeoverlapAfter(sorted, pinned, PaddingUnits*opts.GridUnit), opts.GridUnit)
	for k, i := range order {
		out[i] = sorted[k]
	}

	opts.Logger.Debug("placed objects", "nodes", len(out), "kept", pinned, "edges", len(edges))
	return out, nil
}
