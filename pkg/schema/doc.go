// Package schema reads entity-relationship schemas and builds layout graphs
// from them.
//
// # Input Format
//
// A schema is a list of objects, either at the top level or under an
// "objects" key, written as JSON or YAML:
//
//	objects:
//	  - name: User
//	    links:
//	      - name: posts
//	        targetNames: [Post]
//	  - name: Admin
//	    inherits_from: [User]
//	  - name: Post
//	    links:
//	      - name: tags
//	        targetNames: [Tag]
//	        properties: [weight, created_at]
//
// # Graph Construction
//
// [Build] maps every object to an object node and every schema link to one
// graph link:
//
//   - An object with bases gets one inheritance link, "<name>.inherits",
//     whose targets are its bases.
//   - Every schema link becomes a relation link "<name>.<link>". Its index is
//     its position among the object's kept links and selects the port row it
//     leaves from.
//   - A link with properties passes through a link property node
//     "<link id>.props". Otherwise a link with more than one target, or one
//     that loops back to its source, passes through a virtual junction
//     "<link id>.junction".
//
// Targets that are not objects of the schema (or were excluded with
// [BuildOptions].Include) are dropped, and a link left without targets is
// dropped entirely. Routing never sees a dangling reference.
package schema
