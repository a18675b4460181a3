// Package focus lays out one object and its direct relation targets on a
// radial arrangement.
//
// The focused object sits at the origin. Targets that share the same set of
// connecting links form a group, groups that share a link form a cluster, and
// clusters alternate between the right and the left half circle in link
// order. The result is deoverlapped and snapped like any other object layout,
// but no search is involved, so Layout never fails on a valid focus.
package focus

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/force"
)

// cluster is a run of targets placed in one angular slot.
type cluster struct {
	members []string
	links   map[int]bool
	aux     bool
}

type group struct {
	key     string
	members []string
	links   []int
	mean    float64
}

// Layout positions focusID at the origin and its relation targets around it.
// The focus comes first in the result, followed by the targets right bucket
// first. unit is the grid size; a non-positive unit selects
// graph.DefaultGridUnit.
func Layout(g *graph.Graph, focusID string, unit float64) ([]graph.NodePosition, error) {
	if unit <= 0 {
		unit = graph.DefaultGridUnit
	}
	focus, ok := g.Node(focusID)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "node %q not found", focusID)
	}
	if focus.Kind != graph.NodeObject {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node %q is not an object", focusID)
	}

	var links []*graph.Link
	for _, l := range g.RelationLinks(focusID) {
		if !l.IsSelf() {
			links = append(links, l)
		}
	}

	clusters := buildClusters(g, focus, links)
	var right, left []*cluster
	for i, c := range clusters {
		if i%2 == 0 {
			right = append(right, c)
		} else {
			left = append(left, c)
		}
	}

	out := []graph.NodePosition{{
		ID:     focus.ID,
		X:      -focus.Width / 2,
		Y:      -focus.Height / 2,
		Width:  focus.Width,
		Height: focus.Height,
	}}
	out = append(out, placeBucket(g, right, len(right) >= len(left), 1, focus.Width)...)
	out = append(out, placeBucket(g, left, len(left) >= len(right), -1, focus.Width)...)

	return force.SnapToGrid(force.Deoverlap(out, 2*unit), unit), nil
}

// buildClusters groups the targets of links by connecting link set, orders
// the groups by mean link index and merges neighbouring groups that share a
// link.
func buildClusters(g *graph.Graph, focus *graph.Node, links []*graph.Link) []*cluster {
	byTarget := make(map[string][]int)
	var targets []string
	for i, l := range links {
		for _, t := range l.Targets {
			if t == focus.ID {
				continue
			}
			if n, ok := g.Node(t); !ok || n.Kind != graph.NodeObject {
				continue
			}
			if _, seen := byTarget[t]; !seen {
				targets = append(targets, t)
			}
			if !slices.Contains(byTarget[t], i) {
				byTarget[t] = append(byTarget[t], i)
			}
		}
	}

	var groups []*group
	byKey := make(map[string]*group)
	for _, t := range targets {
		idx := byTarget[t]
		key := setKey(idx)
		gr, ok := byKey[key]
		if !ok {
			sum := 0
			for _, i := range idx {
				sum += i
			}
			gr = &group{key: key, links: idx, mean: float64(sum) / float64(len(idx))}
			byKey[key] = gr
			groups = append(groups, gr)
		}
		gr.members = append(gr.members, t)
	}
	slices.SortStableFunc(groups, func(a, b *group) int {
		switch {
		case a.mean < b.mean:
			return -1
		case a.mean > b.mean:
			return 1
		}
		return 0
	})

	var clusters []*cluster
	for _, gr := range groups {
		if n := len(clusters); n > 0 && clusters[n-1].shares(gr.links) {
			c := clusters[n-1]
			c.members = append(c.members, gr.members...)
			for _, i := range gr.links {
				c.links[i] = true
			}
			continue
		}
		c := &cluster{members: slices.Clone(gr.members), links: make(map[int]bool)}
		for _, i := range gr.links {
			c.links[i] = true
		}
		clusters = append(clusters, c)
	}
	for _, c := range clusters {
		for i := range c.links {
			if links[i].LinkNode != "" {
				c.aux = true
			}
		}
	}
	return clusters
}

func (c *cluster) shares(links []int) bool {
	for _, i := range links {
		if c.links[i] {
			return true
		}
	}
	return false
}

func setKey(idx []int) string {
	sorted := slices.Clone(idx)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// placeBucket spreads clusters over a half circle, top to bottom. side is 1
// for the right half and -1 for the left. The larger bucket uses slot
// centers (i+0.5)·π/n; the smaller one steps by π/(n+1) so its slots fall
// between those of the other side.
func placeBucket(g *graph.Graph, bucket []*cluster, larger bool, side, focusWidth float64) []graph.NodePosition {
	n := len(bucket)
	if n == 0 {
		return nil
	}
	step := math.Pi / float64(n)
	offset := 0.5
	if !larger {
		step = math.Pi / float64(n+1)
		offset = 1
	}

	var out []graph.NodePosition
	for i, c := range bucket {
		angle := (float64(i) + offset) * step
		radius := focusWidth
		if c.aux {
			radius += 0.5 * focusWidth
		}
		if len(c.members) > 1 {
			radius += 0.5 * focusWidth
		}
		cx := side * radius * math.Sin(angle)
		cy := -radius * math.Cos(angle)

		for k, id := range c.members {
			x, y := cx, cy
			if m := len(c.members); m > 1 {
				a := 2 * math.Pi * float64(k) / float64(m)
				x += focusWidth / 2 * math.Cos(a)
				y += focusWidth / 2 * math.Sin(a)
			}
			node, _ := g.Node(id)
			out = append(out, graph.NodePosition{
				ID:     id,
				X:      x - node.Width/2,
				Y:      y - node.Height/2,
				Width:  node.Width,
				Height: node.Height,
			})
		}
	}
	return out
}
