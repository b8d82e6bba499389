package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/orchestrion-ai/orchestrion/agent"
	"github.com/orchestrion-ai/orchestrion/core"
)

// Loop repeats a single agent, threading each iteration's signal payload into
// the next iteration's upstream slot. Termination is controlled by a maximum
// iteration count, an optional Until predicate evaluated after each
// iteration, and context cancellation. Loop implements the execution contract
// so it composes as a pipeline step or graph node.
type Loop struct {
	agent.Base
	child    core.Agent
	maxIters int
	interval time.Duration
	until    func(core.Signal) bool
}

// LoopOption customizes loop behavior.
type LoopOption func(*Loop)

// WithMaxIterations caps the number of iterations. Defaults to 5.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) { l.maxIters = n }
}

// WithInterval inserts a delay between iterations. Useful for polling
// scenarios; the delay respects context cancellation.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.interval = d }
}

// WithUntil terminates the loop early once the predicate holds for the
// signal emitted by the latest iteration.
func WithUntil(pred func(core.Signal) bool) LoopOption {
	return func(l *Loop) { l.until = pred }
}

// NewLoop constructs a looping coordinator around a child agent.
func NewLoop(name string, child core.Agent, opts ...LoopOption) *Loop {
	l := &Loop{Base: agent.NewBase(name), child: child, maxIters: 5}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Execute implements core.Agent. The first iteration receives the caller's
// upstream signal; subsequent iterations receive the previous iteration's
// emitted signal. The first failing iteration aborts the loop and propagates
// its error.
func (l *Loop) Execute(ctx context.Context, input core.Input) (*core.Result, error) {
	call := l.Begin(input)

	currentSignal := call.Upstream
	var lastResult *core.Result

	iterations := 0
	for i := 0; i < l.maxIters; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		res, err := l.child.Execute(ctx, core.WithUpstream(call.Input, currentSignal))
		if err != nil {
			return nil, fmt.Errorf("loop %q iteration %d failed for agent %s: %w",
				l.Name(), i+1, l.child.Name(), err)
		}

		iterations++
		lastResult = res
		if res.Signal != nil {
			currentSignal = res.Signal.Clone()
		}

		if l.until != nil && l.until(currentSignal) {
			break
		}

		if l.interval > 0 && i < l.maxIters-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.interval):
			}
		}
	}

	out := &core.Result{Status: core.StatusSuccess, Data: map[string]any{"iterations": iterations}}
	if lastResult != nil {
		for k, v := range lastResult.Data {
			out.Data[k] = v
		}
		out.Signal = lastResult.Signal
	}

	l.RecordSignal(out)

	return out, nil
}
