package force

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

// pointsPerInch converts pixel sizes to inches. One pixel is one Graphviz point.
const pointsPerInch = 72

// GraphvizPlacer places nodes with the Graphviz fdp engine. Previous positions
// in the input are passed as starting points.
type GraphvizPlacer struct {
	Seed uint64
}

// Place implements [Placer].
func (p *GraphvizPlacer) Place(ctx context.Context, nodes []graph.NodePosition, edges []Edge) ([]graph.NodePosition, error) {
	out := make([]graph.NodePosition, len(nodes))
	copy(out, nodes)
	if len(nodes) == 0 {
		return out, nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(nodes, edges, p.Seed)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	gv.SetLayout(graphviz.FDP)
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	centers, err := parsePositions(buf.Bytes())
	if err != nil {
		return nil, err
	}
	for i := range out {
		c, ok := centers[i]
		if !ok {
			return nil, fmt.Errorf("graphviz returned no position for %s", nodes[i].ID)
		}
		// Graphviz y grows upward.
		out[i].X = c[0] - out[i].Width/2
		out[i].Y = -c[1] - out[i].Height/2
	}
	return out, nil
}

// ToDOT builds an undirected fdp graph. Nodes are named n0, n1, ... in input
// order and sized in inches.
func ToDOT(nodes []graph.NodePosition, edges []Edge, seed uint64) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=fdp;\n")
	fmt.Fprintf(&buf, "  start=%d;\n", seed)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, n := range nodes {
		fmt.Fprintf(&buf, "  n%d [width=%.4f, height=%.4f", i, n.Width/pointsPerInch, n.Height/pointsPerInch)
		if n.X != 0 || n.Y != 0 {
			fmt.Fprintf(&buf, ", pos=\"%.2f,%.2f\"", n.CenterX(), -n.CenterY())
		}
		buf.WriteString("];\n")
	}

	buf.WriteString("\n")
	idx := indexOf(nodes)
	for _, e := range edges {
		from, ok1 := idx[e.From]
		to, ok2 := idx[e.To]
		if !ok1 || !ok2 || from == to {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -- n%d;\n", from, to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

var nodePosRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s+\[[^\]]*?\bpos="([-0-9.e+]+),([-0-9.e+]+)!?"`)

// parsePositions extracts node centers from laid-out DOT output.
func parsePositions(dot []byte) (map[int][2]float64, error) {
	out := make(map[int][2]float64)
	for _, m := range nodePosRe.FindAllSubmatch(dot, -1) {
		i, err := strconv.Atoi(string(m[1]))
		if err != nil {
			return nil, fmt.Errorf("parse node index %q: %w", m[1], err)
		}
		x, err := strconv.ParseFloat(string(m[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse x for n%d: %w", i, err)
		}
		y, err := strconv.ParseFloat(string(m[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse y for n%d: %w", i, err)
		}
		out[i] = [2]float64{x, y}
	}
	return out, nil
}
