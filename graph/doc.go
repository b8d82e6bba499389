// Package graph provides dependency-ordered execution of agents over a
// directed acyclic graph.
//
// Nodes declare the names of the nodes they depend on; independent nodes run
// concurrently, and a node starts only once every one of its dependencies has
// completed. Signal payloads from multiple dependencies are merged, in
// declared dependency order, into one upstream signal. Failure propagates as
// skips: a node is never invoked if any dependency failed, and everything
// transitively depending on it is marked skipped.
//
// Graphs are built in two phases: accumulate nodes on a Builder, validate,
// then compile an immutable Graph with Build before any run.
package graph
