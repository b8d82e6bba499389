// Package trace provides span-based recording of causally linked, timed
// operations.
//
// A span records one operation: name, kind, start and end times, terminal
// status and free-form attributes. Spans started with a parent context
// inherit the parent's trace id and link back via the parent span id,
// forming a causal tree retrievable as a whole by trace id. The tracer is
// orthogonal to the orchestration components; any caller may open a root
// span before a run and child spans around individual invocations.
package trace
