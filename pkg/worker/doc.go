// Package worker runs layout jobs behind a request/response protocol.
//
// Layout is CPU-bound and is kept off the caller's thread. A caller sends a
// [Request] carrying a correlation id, a method name and positional JSON
// arguments; the [Worker] answers with a [Response] carrying the same id and
// either the return payload or an error body.
//
// # Methods
//
//   - layoutObjectNodes(nodes, links, options?) → NodePosition[]
//   - layoutAndRouteLinks(nodes, links, positions, options?) →
//     {routes, errors, link_node_positions}
//
// The method set is fixed. Focused layout is cheap and runs on the caller's
// side through the pipeline package.
//
// # Transports
//
//   - in process: [Worker.Serve] over channels, driven by a [Client]
//   - stdio: [ServeStdio], one JSON request per line
//   - HTTP: [NewHTTPHandler] (POST /v1/worker), driven by an [HTTPClient]
//
// A Worker runs one job at a time. Jobs are not cancelled once started; the
// A* expansion cap bounds how long each one takes.
package worker
