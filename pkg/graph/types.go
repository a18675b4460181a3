package graph

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultGridUnit is the pixel size of one grid cell.
const DefaultGridUnit = 24

// NoIndex marks a link without a relation port slot.
const NoIndex = -1

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidLinkID is returned by [Graph.AddLink] when the link ID is empty.
	ErrInvalidLinkID = errors.New("link ID must not be empty")

	// ErrDuplicateLinkID is returned by [Graph.AddLink] when a link with the
	// same ID already exists.
	ErrDuplicateLinkID = errors.New("duplicate link ID")

	// ErrUnknownNode is returned by [Graph.AddLink] when the source, a target
	// or the auxiliary node is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNoTargets is returned by [Graph.AddLink] for a link without targets.
	ErrNoTargets = errors.New("link has no targets")
)

// NodeKind distinguishes schema objects from auxiliary layout nodes.
type NodeKind int

const (
	// NodeObject is a schema object drawn as a box with ports.
	NodeObject NodeKind = iota
	// NodeLinkProp renders a link's extra attributes. Routes end at it.
	NodeLinkProp
	// NodeVirtual is a zero-size junction used for fan-out and self-loops.
	NodeVirtual
)

var nodeKindNames = [...]string{"object", "linkprop", "virtual"}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(b []byte) error {
	i := slices.Index(nodeKindNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unknown node kind %q", b)
	}
	*k = NodeKind(i)
	return nil
}

// IsAuxiliary reports whether nodes of this kind are placed by the layout
// engine rather than by the caller.
func (k NodeKind) IsAuxiliary() bool { return k == NodeLinkProp || k == NodeVirtual }

// LinkKind distinguishes inheritance from relation links.
type LinkKind int

const (
	// LinkRelation is a named relation from an object to one or more targets.
	LinkRelation LinkKind = iota
	// LinkInherit connects an object to its bases.
	LinkInherit
)

var linkKindNames = [...]string{"relation", "inherit"}

func (k LinkKind) String() string {
	if int(k) < len(linkKindNames) {
		return linkKindNames[k]
	}
	return fmt.Sprintf("LinkKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k LinkKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LinkKind) UnmarshalText(b []byte) error {
	i := slices.Index(linkKindNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unknown link kind %q", b)
	}
	*k = LinkKind(i)
	return nil
}

// Node is a vertex of the layout graph.
//
// Object nodes carry a pixel size, their outgoing link ids in schema order and
// LinkPortsOffset, the number of grid rows from the top edge before the first
// relation port row. Auxiliary nodes carry the id of the link they belong to.
type Node struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Label  string   `json:"label,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Height float64  `json:"height,omitempty"`

	Links           []string `json:"links,omitempty"`
	LinkPortsOffset int      `json:"link_ports_offset,omitempty"`

	LinkID     string   `json:"link_id,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Link is a directed connection from an object to one or more objects,
// optionally passing through an auxiliary node.
type Link struct {
	ID       string   `json:"id"`
	Kind     LinkKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Source   string   `json:"source"`
	Targets  []string `json:"targets"`
	Index    int      `json:"index"`
	LinkNode string   `json:"link_node,omitempty"`
}

// IsSelf reports whether the link is a single-target loop onto its source.
func (l *Link) IsSelf() bool {
	return len(l.Targets) == 1 && l.Targets[0] == l.Source
}

// HasIndex reports whether the link owns a relation port row.
func (l *Link) HasIndex() bool { return l.Index >= 0 }

// Graph is an id-keyed arena of nodes and links. Iteration order is insertion
// order so every layout pass over the same graph is deterministic.
//
// The zero value is not usable. Use [New].
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	links     map[string]*Link
	linkOrder []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		links: make(map[string]*Link),
	}
}

// AddNode adds a node. The Links slice of an object node is maintained by
// [Graph.AddLink]; ids already present in n.Links are kept in order.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	n.Links = slices.Clone(n.Links)
	g.nodes[n.ID] = &n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddLink adds a link after checking that its source, targets and auxiliary
// node exist. The link id is appended to the source's Links if missing, and
// an auxiliary node's LinkID is set to the link.
func (g *Graph) AddLink(l Link) error {
	if l.ID == "" {
		return ErrInvalidLinkID
	}
	if _, exists := g.links[l.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLinkID, l.ID)
	}
	src, ok := g.nodes[l.Source]
	if !ok {
		return fmt.Errorf("%w: source %s of %s", ErrUnknownNode, l.Source, l.ID)
	}
	if len(l.Targets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTargets, l.ID)
	}
	for _, t := range l.Targets {
		if _, ok := g.nodes[t]; !ok {
			return fmt.Errorf("%w: target %s of %s", ErrUnknownNode, t, l.ID)
		}
	}
	if l.LinkNode != "" {
		aux, ok := g.nodes[l.LinkNode]
		if !ok {
			return fmt.Errorf("%w: link node %s of %s", ErrUnknownNode, l.LinkNode, l.ID)
		}
		aux.LinkID = l.ID
	}
	l.Targets = slices.Clone(l.Targets)
	g.links[l.ID] = &l
	g.linkOrder = append(g.linkOrder, l.ID)
	if !slices.Contains(src.Links, l.ID) {
		src.Links = append(src.Links, l.ID)
	}
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Link returns the link with the given id.
func (g *Graph) Link(id string) (*Link, bool) {
	l, ok := g.links[id]
	return l, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.nodes[id]
	}
	return out
}

// ObjectNodes returns the object nodes in insertion order.
func (g *Graph) ObjectNodes() []*Node {
	var out []*Node
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; n.Kind == NodeObject {
			out = append(out, n)
		}
	}
	return out
}

// Links returns all links in insertion order.
func (g *Graph) Links() []*Link {
	out := make([]*Link, len(g.linkOrder))
	for i, id := range g.linkOrder {
		out[i] = g.links[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// RelationLinks returns the relation links whose source is nodeID, in the
// order they appear in the node's Links.
func (g *Graph) RelationLinks(nodeID string) []*Link {
	n, ok := g.nodes[nodeID]
	if !ok {
		return nil
	}
	var out []*Link
	for _, id := range n.Links {
		if l, ok := g.links[id]; ok && l.Kind == LinkRelation {
			out = append(out, l)
		}
	}
	return out
}

// RelationPortRows returns how many relation port rows nodeID reserves, which
// is one more than the highest relation index among its links.
func (g *Graph) RelationPortRows(nodeID string) int {
	rows := 0
	for _, l := range g.RelationLinks(nodeID) {
		if l.Index+1 > rows {
			rows = l.Index + 1
		}
	}
	return rows
}

// Subgraph returns a copy of g restricted to the object nodes in ids. Links
// keep only their targets inside the subgraph and are dropped when their
// source is outside it or no target remains. Auxiliary nodes follow their
// links.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		if n, ok := g.nodes[id]; ok && n.Kind == NodeObject {
			keep[id] = true
		}
	}

	sub := New()
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; keep[id] {
			cp := *n
			cp.Links = nil
			_ = sub.AddNode(cp)
		}
	}
	for _, id := range g.linkOrder {
		l := *g.links[id]
		if !keep[l.Source] {
			continue
		}
		var targets []string
		for _, t := range l.Targets {
			if keep[t] {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 {
			continue
		}
		l.Targets = targets
		if l.LinkNode != "" {
			if aux, ok := g.nodes[l.LinkNode]; ok {
				_ = sub.AddNode(*aux)
			}
		}
		_ = sub.AddLink(l)
	}
	return sub
}
