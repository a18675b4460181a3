// Package graph defines the data model shared by every stage of the layout
// engine: object and auxiliary nodes, inheritance and relation links, pixel
// positions, routed paths and bounding boxes.
//
// # Arena
//
// Nodes and links never hold pointers to each other. A [Graph] stores them in
// id-keyed maps with insertion order preserved, and links refer to their
// source, targets and auxiliary node by id:
//
//	g := graph.New()
//	_ = g.AddNode(graph.Node{ID: "User", Kind: graph.NodeObject, Width: 264, Height: 120})
//	_ = g.AddNode(graph.Node{ID: "Post", Kind: graph.NodeObject, Width: 264, Height: 120})
//	_ = g.AddLink(graph.Link{ID: "User.posts", Kind: graph.LinkRelation,
//	    Source: "User", Targets: []string{"Post"}, Index: 0})
//
// # Node Kinds
//
//   - [NodeObject]: a schema object with a pixel rectangle and ordered links
//   - [NodeLinkProp]: renders a link's properties; terminates routing
//   - [NodeVirtual]: a zero-size junction for fan-out and self-loops
//
// # Geometry
//
// All geometry is in pixels and is always a multiple of the grid unit
// ([DefaultGridUnit]). [Point] is the grid-space integer coordinate used by
// the router; [Route] paths are sequences of grid-space [Waypoint] values.
//
// # Serialization
//
// [Document] is the JSON wire format used by the CLI and the worker protocol:
//
//	{
//	  "nodes": [{"id": "User", "kind": "object", "width": 264, "height": 120}],
//	  "links": [{"id": "User.posts", "kind": "relation", "source": "User",
//	             "targets": ["Post"], "index": 0}],
//	  "positions": [{"id": "User", "x": 0, "y": 0, "width": 264, "height": 120}]
//	}
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Layout passes only read it.
package graph
