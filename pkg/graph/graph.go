package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Document - Wire Format
// =============================================================================

// Document is the serialization format for a graph and, optionally, the node
// positions known for it.
type Document struct {
	Nodes     []Node         `json:"nodes"`
	Links     []Link         `json:"links"`
	Positions []NodePosition `json:"positions,omitempty"`
}

// ToDocument converts g and positions to a Document in insertion order.
func ToDocument(g *Graph, positions []NodePosition) Document {
	doc := Document{
		Nodes:     make([]Node, 0, g.NodeCount()),
		Links:     make([]Link, 0, g.LinkCount()),
		Positions: positions,
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, *n)
	}
	for _, l := range g.Links() {
		doc.Links = append(doc.Links, *l)
	}
	return doc
}

// FromDocument builds a Graph from a Document. Nodes are added first so links
// may appear in any order relative to them.
func FromDocument(doc Document) (*Graph, error) {
	g := New()
	for _, n := range doc.Nodes {
		n.Links = nil
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, l := range doc.Links {
		if err := g.AddLink(l); err != nil {
			return nil, fmt.Errorf("add link %s: %w", l.ID, err)
		}
	}
	// Restore the documented link order of each object.
	for _, n := range doc.Nodes {
		if len(n.Links) == 0 {
			continue
		}
		node, _ := g.Node(n.ID)
		ordered := make([]string, 0, len(node.Links))
		seen := make(map[string]bool, len(node.Links))
		for _, id := range n.Links {
			if _, ok := g.Link(id); ok && !seen[id] {
				ordered = append(ordered, id)
				seen[id] = true
			}
		}
		for _, id := range node.Links {
			if !seen[id] {
				ordered = append(ordered, id)
			}
		}
		node.Links = ordered
	}
	return g, nil
}

// UnmarshalJSON decodes a link, defaulting a missing index to [NoIndex].
func (l *Link) UnmarshalJSON(data []byte) error {
	type plain Link
	var raw struct {
		plain
		Index *int `json:"index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Link(raw.plain)
	l.Index = NoIndex
	if raw.Index != nil {
		l.Index = *raw.Index
	}
	return nil
}

// =============================================================================
// Document Serialization API
// =============================================================================

// WriteDocument writes a Document as JSON to w.
func WriteDocument(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadDocument decodes a Document from r.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// WriteDocumentFile writes a Document to a JSON file.
func WriteDocumentFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(doc, f)
}

// ReadDocumentFile reads a Document from a JSON file.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}
