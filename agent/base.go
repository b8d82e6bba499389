package agent

import (
	"fmt"
	"sync"

	"github.com/orchestrion-ai/orchestrion/core"
)

// Call is the normalized view of one invocation handed to an agent's logic:
// the agent's own input with the reserved upstream key already stripped, plus
// the upstream signal in its explicit slot.
type Call struct {
	Input    core.Input
	Upstream core.Signal
}

// Base bundles the contract mechanics shared by concrete agent
// implementations: identity, upstream signal extraction and last-signal
// bookkeeping. Embed it and supply an Execute method to satisfy core.Agent.
// All exported methods are goroutine-safe.
type Base struct {
	name        string
	description string
	mu          sync.Mutex
	lastSignal  core.Signal
}

// NewBase constructs a Base with a generated description (customizable via
// SetDescription).
func NewBase(name string) Base {
	return Base{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *Base) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *Base) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *Base) SetDescription(desc string) { b.description = desc }

// Begin normalizes a raw input map into a Call, stripping the reserved
// upstream key so the agent's own logic only sees its own input plus the
// explicit signal slot.
func (b *Base) Begin(input core.Input) Call {
	stripped, upstream := core.SplitUpstream(input)
	return Call{Input: stripped, Upstream: upstream}
}

// RecordSignal retains the signal payload emitted by a successful invocation
// as this agent's last signal. A nil result or nil signal clears it.
func (b *Base) RecordSignal(res *core.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res == nil {
		b.lastSignal = nil
		return
	}
	b.lastSignal = res.Signal.Clone()
}

// LastSignal returns the signal payload from the most recent successful
// invocation, or nil when none has been emitted.
func (b *Base) LastSignal() core.Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSignal.Clone()
}
