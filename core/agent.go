package core

import (
	"context"
	"maps"
)

// UpstreamKey is the reserved input key under which orchestration components
// deliver an upstream signal to an agent invocation. The contract strips this
// key out of the plain input map before the agent's own logic runs and exposes
// the value through the dedicated signal slot instead, so agent logic only
// ever inspects its own input plus an explicit upstream signal.
const UpstreamKey = "upstream_signal"

// Execution statuses shared by agents and orchestration components.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPartial = "partial"
	StatusSkipped = "skipped"
)

// Input is the flat key/value map supplied to an agent invocation.
type Input map[string]any

// Signal is a flat map of curated, producer-chosen facts emitted by an agent
// for consumption by downstream orchestration components. It is intentionally
// decoupled from the full result shape so a producer can add fields without
// breaking consumers that only read a subset.
type Signal map[string]any

// Result is the structured outcome of a successful agent invocation. Status
// carries the agent's own status marker, Data the primary output fields, and
// Signal the optional payload meant for downstream threading.
type Result struct {
	Status string
	Data   map[string]any
	Signal Signal
}

// Agent is the minimal capability interface every unit of work implements.
//
// Execute must be safe to invoke concurrently with other independent
// invocations; any error raised by the agent's core logic propagates to the
// caller unmodified. On successful completion the agent retains its emitted
// signal payload as its "last signal", readable after the call returns.
type Agent interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input Input) (*Result, error)
	LastSignal() Signal
}

// WithUpstream returns a copy of input carrying sig under UpstreamKey. A nil
// or empty signal leaves the input untouched.
func WithUpstream(input Input, sig Signal) Input {
	if len(sig) == 0 {
		return input
	}
	out := make(Input, len(input)+1)
	maps.Copy(out, input)
	out[UpstreamKey] = sig
	return out
}

// SplitUpstream separates the upstream signal from a raw input map. The
// returned input is a copy with UpstreamKey removed; the returned signal is
// nil when the caller supplied none.
func SplitUpstream(input Input) (Input, Signal) {
	raw, ok := input[UpstreamKey]
	if !ok {
		return input, nil
	}

	stripped := make(Input, len(input))
	maps.Copy(stripped, input)
	delete(stripped, UpstreamKey)

	if sig, ok := raw.(Signal); ok {
		return stripped, sig
	}
	if m, ok := raw.(map[string]any); ok {
		return stripped, Signal(m)
	}

	return stripped, nil
}

// MergeSignals overlays the given signals in order into a single map; keys of
// a later signal win on collision. Returns nil when no signal carries a key.
func MergeSignals(signals ...Signal) Signal {
	var merged Signal
	for _, sig := range signals {
		if len(sig) == 0 {
			continue
		}
		if merged == nil {
			merged = make(Signal, len(sig))
		}
		maps.Copy(merged, sig)
	}
	return merged
}

// Clone returns an independent shallow copy of the signal.
func (s Signal) Clone() Signal {
	if s == nil {
		return nil
	}
	c := make(Signal, len(s))
	maps.Copy(c, s)
	return c
}
