// Package pipeline provides sequential execution coordination for agents.
//
// A Pipeline runs a named, ordered list of steps one after another, threading
// each step's emitted signal payload into the next step's upstream slot while
// keeping raw-result coupling opt-in via per-step transforms. Pipelines are
// built in two phases: accumulate steps on a Builder, then compile an
// immutable Pipeline with Build before any run.
package pipeline
