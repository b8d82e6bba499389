// Package core provides the foundational domain types and interfaces shared
// by every orchestration component in Orchestrion. It defines the core
// abstractions for:
//
//   - Agents (units of independently executable work)
//   - Inputs (flat key/value maps handed to an agent invocation)
//   - Signals (curated fact maps emitted for downstream consumers)
//   - Results (the structured outcome of a successful invocation)
//
// The package intentionally keeps orchestration concerns (ordering,
// concurrency, failure policy) out of scope; those live in the pipeline,
// graph and dispatch packages, which are independent consumers of the
// contract defined here.
package core
