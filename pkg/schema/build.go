package schema

import (
	"slices"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
)

// Node geometry in grid units.
const (
	ObjectWidthUnits   = 11
	MinObjectRows      = 5
	HeaderRows         = 3
	LinkPortsOffset    = 2
	LinkPropWidthUnits = 8
)

// BuildOptions configures [Build].
type BuildOptions struct {
	// GridUnit scales node sizes. Zero selects graph.DefaultGridUnit.
	GridUnit float64

	// Include limits the graph to the named objects. Empty keeps all.
	Include []string
}

// Build maps s to a layout graph. Object names must be unique and valid
// identifiers, and link names must be unique within their object.
func Build(s *Schema, opts BuildOptions) (*graph.Graph, error) {
	unit := opts.GridUnit
	if unit <= 0 {
		unit = graph.DefaultGridUnit
	}

	known := make(map[string]bool, len(s.Objects))
	for _, o := range s.Objects {
		if err := errors.ValidateName("object", o.Name); err != nil {
			return nil, err
		}
		if known[o.Name] {
			return nil, errors.New(errors.ErrCodeInvalidSchema, "duplicate object %q", o.Name)
		}
		known[o.Name] = true
	}
	if len(opts.Include) > 0 {
		for name := range known {
			if !slices.Contains(opts.Include, name) {
				delete(known, name)
			}
		}
	}

	b := &builder{g: graph.New(), unit: unit, known: known}
	var plans []objectPlan
	for _, o := range s.Objects {
		if !known[o.Name] {
			continue
		}
		p, err := b.plan(o)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	for _, p := range plans {
		rows := max(MinObjectRows, HeaderRows+len(p.relations))
		if err := b.g.AddNode(graph.Node{
			ID:              p.name,
			Kind:            graph.NodeObject,
			Label:           p.name,
			Width:           ObjectWidthUnits * unit,
			Height:          float64(rows) * unit,
			LinkPortsOffset: LinkPortsOffset,
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "object %s", p.name)
		}
	}
	for _, p := range plans {
		if p.inherit != nil {
			if err := b.addLink(*p.inherit, nil); err != nil {
				return nil, err
			}
		}
		for _, r := range p.relations {
			if err := b.addLink(r.link, r.properties); err != nil {
				return nil, err
			}
		}
	}
	return b.g, nil
}

type builder struct {
	g     *graph.Graph
	unit  float64
	known map[string]bool
}

type relationPlan struct {
	link       graph.Link
	properties []string
}

type objectPlan struct {
	name      string
	inherit   *graph.Link
	relations []relationPlan
}

// plan resolves the links of o against the kept objects.
func (b *builder) plan(o Object) (objectPlan, error) {
	p := objectPlan{name: o.Name}

	if bases := b.resolve(o.InheritsFrom); len(bases) > 0 {
		l := graph.Link{
			ID:      o.Name + ".inherits",
			Kind:    graph.LinkInherit,
			Source:  o.Name,
			Targets: bases,
			Index:   graph.NoIndex,
		}
		if len(bases) > 1 {
			l.LinkNode = l.ID + ".junction"
		}
		p.inherit = &l
	}

	seen := make(map[string]bool, len(o.Links))
	for _, sl := range o.Links {
		if err := errors.ValidateName("link", sl.Name); err != nil {
			return p, errors.Wrap(errors.ErrCodeInvalidSchema, err, "object %s", o.Name)
		}
		if seen[sl.Name] {
			return p, errors.New(errors.ErrCodeInvalidSchema, "object %s: duplicate link %q", o.Name, sl.Name)
		}
		seen[sl.Name] = true

		targets := b.resolve(sl.TargetNames)
		if len(targets) == 0 {
			continue
		}
		l := graph.Link{
			ID:      o.Name + "." + sl.Name,
			Kind:    graph.LinkRelation,
			Name:    sl.Name,
			Source:  o.Name,
			Targets: targets,
			Index:   len(p.relations),
		}
		switch {
		case len(sl.Properties) > 0:
			l.LinkNode = l.ID + ".props"
		case len(targets) > 1 || slices.Contains(targets, o.Name):
			l.LinkNode = l.ID + ".junction"
		}
		p.relations = append(p.relations, relationPlan{link: l, properties: sl.Properties})
	}
	return p, nil
}

// resolve keeps the known names, without duplicates, in order.
func (b *builder) resolve(names []string) []string {
	var out []string
	for _, n := range names {
		if b.known[n] && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// addLink adds l together with its auxiliary node.
func (b *builder) addLink(l graph.Link, properties []string) error {
	if l.LinkNode != "" {
		n := graph.Node{ID: l.LinkNode, Kind: graph.NodeVirtual}
		if len(properties) > 0 {
			n.Kind = graph.NodeLinkProp
			n.Label = l.Name
			n.Properties = slices.Clone(properties)
			n.Width = LinkPropWidthUnits * b.unit
			n.Height = float64(len(properties)+2) * b.unit
		}
		if err := b.g.AddNode(n); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "link node %s", n.ID)
		}
	}
	if err := b.g.AddLink(l); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "link %s", l.ID)
	}
	return nil
}
