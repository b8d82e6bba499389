package agent

import (
	"context"

	"github.com/orchestrion-ai/orchestrion/core"
)

// Handler is the logic backing a Func agent. It receives the normalized Call
// and returns the invocation result or an error. Errors propagate to the
// caller unmodified; the contract does not catch or transform them.
type Handler func(ctx context.Context, call Call) (*core.Result, error)

// Func adapts an arbitrary function to the execution contract. It is the
// lightest way to plug custom logic into a pipeline, graph or dispatch group.
type Func struct {
	Base
	handler Handler
}

// NewFunc constructs a function-backed agent.
func NewFunc(name string, handler Handler) *Func {
	return &Func{Base: NewBase(name), handler: handler}
}

// Execute implements core.Agent. The upstream signal, when present in the
// input, is stripped and exposed through the Call slot; on success the
// result's signal payload is recorded as the agent's last signal.
func (f *Func) Execute(ctx context.Context, input core.Input) (*core.Result, error) {
	call := f.Begin(input)

	res, err := f.handler(ctx, call)
	if err != nil {
		return nil, err
	}

	f.RecordSignal(res)

	return res, nil
}
