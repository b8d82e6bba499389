package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrion-ai/orchestrion/agent"
	"github.com/orchestrion-ai/orchestrion/core"
)

// counter increments a "count" key carried through the signal channel.
func counter(name string) core.Agent {
	return agent.NewFunc(name, func(ctx context.Context, call agent.Call) (*core.Result, error) {
		n, _ := call.Upstream["count"].(int)
		return &core.Result{
			Status: core.StatusSuccess,
			Data:   map[string]any{"count": n + 1},
			Signal: core.Signal{"count": n + 1},
		}, nil
	})
}

func TestLoop_MaxIterations(t *testing.T) {
	l := NewLoop("poll", counter("incr"), WithMaxIterations(3))

	res, err := l.Execute(context.Background(), core.Input{})

	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, res.Status)
	assert.Equal(t, 3, res.Data["iterations"])
	assert.Equal(t, 3, res.Data["count"])
	assert.Equal(t, core.Signal{"count": 3}, res.Signal)
	assert.Equal(t, res.Signal, l.LastSignal())
}

func TestLoop_UntilStopsEarly(t *testing.T) {
	l := NewLoop("poll", counter("incr"),
		WithMaxIterations(10),
		WithUntil(func(sig core.Signal) bool {
			n, _ := sig["count"].(int)
			return n >= 2
		}))

	res, err := l.Execute(context.Background(), core.Input{})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Data["iterations"])
	assert.Equal(t, 2, res.Data["count"])
}

func TestLoop_SeedsFromCallerUpstream(t *testing.T) {
	l := NewLoop("poll", counter("incr"), WithMaxIterations(1))

	res, err := l.Execute(context.Background(),
		core.WithUpstream(core.Input{}, core.Signal{"count": 40}))

	require.NoError(t, err)
	assert.Equal(t, 41, res.Data["count"])
}

func TestLoop_ChildErrorAborts(t *testing.T) {
	calls := 0
	child := agent.NewFunc("flaky", func(ctx context.Context, call agent.Call) (*core.Result, error) {
		calls++
		if calls == 2 {
			return nil, assert.AnError
		}
		return &core.Result{Status: core.StatusSuccess}, nil
	})

	l := NewLoop("poll", child, WithMaxIterations(5))

	_, err := l.Execute(context.Background(), core.Input{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `loop "poll" iteration 2 failed`)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, calls)
}

func TestLoop_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoop("poll", counter("incr"))

	_, err := l.Execute(ctx, core.Input{})

	assert.ErrorIs(t, err, context.Canceled)
}
